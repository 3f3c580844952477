package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tests",
	Long:  `List all multivariate tests with their state and binding IDs.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		tests, err := s.ListTests(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list tests: %w", err)
		}

		if len(tests) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tests yet. Create one with: vchrome create <name> --variants \"A,B\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tBINDING\tSTATE\tVARIABLE\tVARIANTS\tCREATED")
		for _, test := range tests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				test.Name,
				test.ID,
				stateLabel(test),
				test.Variable.Name,
				len(test.Variable.Variants),
				test.CreatedAt.Format("2006-01-02"),
			)
		}
		return w.Flush()
	})
}

func stateLabel(test *store.TestDefinition) string {
	if test.IsRunning {
		return "RUNNING"
	}
	return "STOPPED"
}
