// ABOUTME: Store commands for JSON documents in the configured blob store
// ABOUTME: put, get, list and delete documents by container and id
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/models"
	"github.com/spf13/cobra"
)

// NewStoreCmd creates the store command group
func NewStoreCmd() *cobra.Command {
	var container string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage JSON documents in the blob store",
		Long: `Manage JSON documents in the configured blob store.

Documents live in a container (default: DOCCY_CONTAINER) under their id.`,
	}
	cmd.PersistentFlags().StringVarP(&container, "container", "c", "", "Container name (default: DOCCY_CONTAINER)")

	resolve := func(s *app.Services) string {
		if container != "" {
			return container
		}
		return s.Config.Container
	}

	cmd.AddCommand(newStorePutCmd(resolve))
	cmd.AddCommand(newStoreGetCmd(resolve))
	cmd.AddCommand(newStoreListCmd(resolve))
	cmd.AddCommand(newStoreDeleteCmd(resolve))
	return cmd
}

type containerFunc func(*app.Services) string

func runData(cmd *cobra.Command, resolve containerFunc, req models.DataStoreRequest) (models.DataResponse, error) {
	services, err := loadServices(cmd)
	if err != nil {
		return models.DataResponse{}, err
	}
	defer services.Close()

	req.Container = resolve(services)
	resp, err := services.DataStore.Execute(cmd.Context(), req)
	if err != nil {
		return resp, fmt.Errorf("%s", resp.Message)
	}
	return resp, nil
}

func newStorePutCmd(resolve containerFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put <id> [json]",
		Short: "Store a JSON object under id",
		Long: `Store a JSON object under id.

Examples:
  doccy store put runbook-1 '{"title":"Key rotation"}'
  doccy store put runbook-1 --file doc.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file, args[1:])
			if err != nil {
				return err
			}
			var data map[string]any
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return fmt.Errorf("document must be a JSON object: %w", err)
			}

			resp, err := runData(cmd, resolve, models.DataStoreRequest{
				Operation: models.OpStore,
				DataID:    args[0],
				Data:      data,
			})
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read the document from a file")
	return cmd
}

func newStoreGetCmd(resolve containerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runData(cmd, resolve, models.DataStoreRequest{
				Operation: models.OpRetrieve,
				DataID:    args[0],
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp.Data)
		},
	}
}

func newStoreListCmd(resolve containerFunc) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List document ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runData(cmd, resolve, models.DataStoreRequest{
				Operation: models.OpList,
				Prefix:    prefix,
			})
			if err != nil {
				return err
			}

			ids, _ := resp.Data.([]string)
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				if !quiet {
					fmt.Fprintln(out, "No documents found")
				}
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only ids starting with prefix")
	return cmd
}

func newStoreDeleteCmd(resolve containerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runData(cmd, resolve, models.DataStoreRequest{
				Operation: models.OpDelete,
				DataID:    args[0],
			})
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			}
			return nil
		},
	}
}
