package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newConfigureCmd())
}

func newConfigureCmd() *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "configure <name>",
		Short: "Provision a test for a device",
		Long: `Provision the runtime configuration of a test for a device. Engagement is
only scored for devices a test is configured for, counting events since the
configuration started.

Example:
  vchrome configure hero --device mobile`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if device == "" {
				device = cfg.Device.Default
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}

				tc, err := s.SaveConfiguration(ctx, test.ID, device)
				if err != nil {
					return fmt.Errorf("failed to configure test: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Test '%s' configured for device '%s' since %s\n",
					test.Name, tc.DeviceID, tc.StartedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device ID (defaults to the configured default device)")
	return cmd
}
