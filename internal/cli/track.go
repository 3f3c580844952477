package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newTrackCmd())
}

func newTrackCmd() *cobra.Command {
	var (
		variant string
		event   string
		visitor string
		device  string
		value   float64
	)

	cmd := &cobra.Command{
		Use:   "track <name>",
		Short: "Record an engagement event",
		Long: `Record a view or convert event for a variant, the same way the beacon
endpoint does. Useful for importing or seeding analytics.

Example:
  vchrome track hero --variant 0 --event convert --visitor abc --value 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType := store.EventType(event)
			if eventType != store.EventView && eventType != store.EventConvert {
				return fmt.Errorf("invalid event: must be 'view' or 'convert'")
			}
			if visitor == "" {
				return fmt.Errorf("--visitor is required")
			}
			if device == "" {
				device = cfg.Device.Default
			}
			if eventType == store.EventConvert && value == 0 {
				value = 1
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}
				chosen, err := findVariant(test.Variable, variant)
				if err != nil {
					return err
				}

				err = s.RecordEvent(ctx, store.Event{
					TestID:    test.ID,
					VariantID: chosen.ID,
					EventType: eventType,
					VisitorID: visitor,
					DeviceID:  device,
					Value:     value,
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for \"%s\"\n", eventType, chosen.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variant, "variant", "v", "", "variant index, name or ID (required)")
	cmd.Flags().StringVarP(&event, "event", "e", "view", "event type (view or convert)")
	cmd.Flags().StringVar(&visitor, "visitor", "", "visitor ID (required)")
	cmd.Flags().StringVarP(&device, "device", "d", "", "device ID")
	cmd.Flags().Float64Var(&value, "value", 0, "engagement points for convert events (default 1)")
	cmd.MarkFlagRequired("variant")

	return cmd
}
