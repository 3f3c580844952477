package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/language"
	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newActivateCmd())
}

func newActivateCmd() *cobra.Command {
	var (
		lang    string
		variant string
	)

	cmd := &cobra.Command{
		Use:   "activate <name>",
		Short: "Set the active variant of a test for a language",
		Long: `Set which variant is active for a language. Each language has its own
active variant. Without --variant you are asked to pick one.

Examples:
  vchrome activate hero --language en --variant 1
  vchrome activate hero --language da --variant "Ship Faster"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lang == "" {
				lang = cfg.Site.DefaultLanguage
			}
			l, ok := language.TryParse(lang)
			if !ok || l.IsInvariant() {
				return fmt.Errorf("invalid language: %s", lang)
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}

				var chosen store.Variant
				if variant == "" {
					chosen, err = promptVariant(fmt.Sprintf("Active variant for %s", l), test.Variable)
				} else {
					chosen, err = findVariant(test.Variable, variant)
				}
				if err != nil {
					return err
				}

				if err := s.SetActiveVariant(ctx, test.ID, l.String(), chosen.ID); err != nil {
					return fmt.Errorf("failed to activate variant: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Test '%s' (%s): active variant is \"%s\"\n", test.Name, l, chosen.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "content language (defaults to the site default)")
	cmd.Flags().StringVarP(&variant, "variant", "v", "", "variant index, name or ID")

	return cmd
}
