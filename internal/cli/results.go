package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/language"
	"github.com/headline-goat/variant-chrome/internal/stats"
	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newResultsCmd())
}

func newResultsCmd() *cobra.Command {
	var (
		lang   string
		device string
	)

	cmd := &cobra.Command{
		Use:   "results <name>",
		Short: "Show detailed results for a test",
		Long: `Show conversion rates and confidence intervals per variant for a device,
and whether the leading variant beats the active one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if device == "" {
				device = cfg.Device.Default
			}
			if lang == "" {
				lang = cfg.Site.DefaultLanguage
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}

				tc, err := s.LoadTest(ctx, test, device)
				if err != nil {
					return err
				}
				if tc == nil {
					return fmt.Errorf("test '%s' is not configured for device '%s'. Run: vchrome configure %s --device %s",
						test.Name, device, test.Name, device)
				}

				variantStats, err := s.VariantEngagement(ctx, tc)
				if err != nil {
					return fmt.Errorf("failed to get stats: %w", err)
				}

				activeID := uuid.Nil
				if l, ok := language.TryParse(lang); ok {
					if tv, err := s.GetTestValue(ctx, test.ID.String(), l.String()); err == nil {
						activeID = tv.ActiveVariantID
					}
				}

				printResults(cmd, test, device, stats.Analyze(test.Variable, activeID, variantStats))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "language whose active variant is compared")
	cmd.Flags().StringVarP(&device, "device", "d", "", "device ID")
	return cmd
}

func printResults(cmd *cobra.Command, test *store.TestDefinition, device string, result *stats.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "TEST: %s\n", test.Name)
	fmt.Fprintf(out, "STATE: %s\n", stateLabel(test))
	fmt.Fprintf(out, "DEVICE: %s\n", device)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "VARIANT           VIEWS    CONVERSIONS  RATE     95% CI")
	fmt.Fprintln(out, strings.Repeat("─", 60))

	for i, v := range result.Variants {
		indicator := ""
		if i == result.Active {
			indicator = " ← ACTIVE"
		} else if i == result.Leading && len(result.Variants) > 1 {
			indicator = " ← LEADING"
		}

		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Views == 0 {
			ciStr = "N/A"
		}

		name := v.Name
		if len(name) > 16 {
			name = name[:13] + "..."
		}

		fmt.Fprintf(out, "%-16s  %-7d  %-11d  %-7s  %s%s\n",
			name, v.Views, v.Conversions, formatPercent(v.Rate), ciStr, indicator)
	}
	fmt.Fprintln(out)

	switch {
	case result.Active < 0:
		fmt.Fprintln(out, "No active variant for this language.")
	case result.Leading == result.Active:
		fmt.Fprintln(out, "The active variant is leading.")
	case result.Confident:
		fmt.Fprintf(out, "Statistical significance: %.1f%% confident \"%s\" beats the active variant\n",
			result.ConfidenceLevel*100, result.Variants[result.Leading].Name)
	default:
		fmt.Fprintln(out, "Statistical significance: Not enough data to determine a winner")
	}
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
