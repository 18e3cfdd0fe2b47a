// ABOUTME: Sync commands for the Charm blob backend
// ABOUTME: Provides status, immediate sync, wipe and key listing
package commands

import (
	"errors"
	"fmt"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/blobstore"
	"github.com/spf13/cobra"
)

var errNotCharm = errors.New("sync requires STORE_BACKEND=charm")

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

With STORE_BACKEND=charm, documents live in a local Charm database
that syncs across devices linked to the same Charm account via SSH keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// withCharm runs fn against the charm backend of freshly loaded services
func withCharm(cmd *cobra.Command, fn func(*app.Services, *blobstore.Charm) error) error {
	services, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer services.Close()

	client, ok := services.Charm()
	if !ok {
		return errNotCharm
	}
	return fn(services, client)
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(s *app.Services, client *blobstore.Charm) error {
				out := cmd.OutOrStdout()
				id, err := client.ID()
				if err != nil {
					fmt.Fprintln(out, "Status: Not connected")
					fmt.Fprintln(out, "Run 'doccy sync keys' to check your SSH keys")
					return nil
				}

				fmt.Fprintln(out, "Status: Connected")
				fmt.Fprintf(out, "User ID: %s\n", id)
				fmt.Fprintf(out, "Host: %s\n", s.Config.CharmHost)
				fmt.Fprintf(out, "Database: %s\n", s.Config.CharmDBName)
				return nil
			})
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(_ *app.Services, client *blobstore.Charm) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
				if err := client.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
				return nil
			})
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local data (nuclear option)",
		Long: `Completely wipe all local Charm data.

WARNING: This deletes all locally cached documents. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}
			return withCharm(cmd, func(_ *app.Services, client *blobstore.Charm) error {
				if err := client.Reset(); err != nil {
					return fmt.Errorf("failed to wipe data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")
	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(_ *app.Services, client *blobstore.Charm) error {
				keys, err := client.AuthorizedKeys()
				if err != nil {
					return fmt.Errorf("failed to get authorized keys: %w", err)
				}
				if keys == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
				fmt.Fprintln(cmd.OutOrStdout(), keys)
				return nil
			})
		},
	}
}
