package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newVariationsCmd())
}

func newVariationsCmd() *cobra.Command {
	var (
		lang   string
		device string
	)

	cmd := &cobra.Command{
		Use:   "variations <name>",
		Short: "Print the chrome data of a rendering bound to a test",
		Long: `Run the chrome-data pipeline for a rendering bound to the test and print
the resulting JSON, exactly as the authoring surface would receive it.

Example:
  vchrome variations hero --language en`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}

				pipeline := chrome.NewPipeline(logger, newProcessor(s))
				data := pipeline.Run(ctx, &chrome.Args{
					ChromeType: chrome.TypeRendering,
					Rendering:  &chrome.RenderingSlot{ID: test.Name, TestBindingID: test.ID.String()},
					Request: chrome.Request{
						QueryLanguage: lang,
						Site:          chrome.Site{Name: cfg.Site.Name, DefaultLanguage: cfg.Site.DefaultLanguage},
						DeviceID:      device,
					},
				})

				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(data); err != nil {
					return fmt.Errorf("failed to encode chrome data: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "language override (sc_lang)")
	cmd.Flags().StringVarP(&device, "device", "d", "", "device ID")
	return cmd
}
