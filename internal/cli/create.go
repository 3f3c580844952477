package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		variable string
		variants string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new multivariate test",
		Long: `Create a new multivariate test with the specified variants.

The printed binding ID is what a rendering references to be tested.

Examples:
  vchrome create hero --variants "Ship Faster,Build Better"
  vchrome create cta --variable "Button" --variants "Sign Up,Get Started,Try Free"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testName := args[0]

			variantList := strings.Split(variants, ",")
			for i := range variantList {
				variantList[i] = strings.TrimSpace(variantList[i])
			}
			if len(variantList) < 2 {
				return fmt.Errorf("need at least 2 variants. Example: --variants \"A,B\"")
			}
			if variable == "" {
				variable = testName
			}

			return withStore(func(s *store.SQLiteStore) error {
				test, err := s.CreateTest(context.Background(), testName, variable, variantList)
				if err != nil {
					return fmt.Errorf("failed to create test: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created test '%s' with %d variants:\n", test.Name, len(test.Variable.Variants))
				for i, v := range test.Variable.Variants {
					fmt.Fprintf(out, "  %d: %s (%s)\n", i, v.Name, v.ShortID())
				}
				fmt.Fprintf(out, "  Binding: %s\n", test.ID)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Next: vchrome activate %s --language %s\n", test.Name, cfg.Site.DefaultLanguage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&variable, "variable", "", "name of the tested variable (defaults to the test name)")
	cmd.Flags().StringVarP(&variants, "variants", "v", "", "comma-separated variant names (required)")
	cmd.MarkFlagRequired("variants")

	return cmd
}
