// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Shuts down gracefully on interrupt within the configured timeout
package commands

import (
	"context"
	"fmt"

	"github.com/harper/doccy/internal/app"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the Doccy HTTP API.

Listens on DOCCY_HTTP_ADDR (default :8000) unless --addr is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			if addr != "" {
				services.Config.HTTPAddr = addr
			}
			a, err := app.New(services)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			serverErr := make(chan error, 1)
			go func() { serverErr <- a.Start() }()

			select {
			case err := <-serverErr:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), services.Config.ShutdownTimeout)
			defer cancel()
			return a.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides DOCCY_HTTP_ADDR)")
	return cmd
}
