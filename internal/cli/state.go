package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newStateCmd("start", true), newStateCmd("stop", false))
}

func newStateCmd(use string, running bool) *cobra.Command {
	short := "Stop a test; engagement is no longer scored"
	if running {
		short = "Start a test so engagement is scored"
	}

	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				err := s.SetRunning(context.Background(), args[0], running)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("test '%s' not found", args[0])
				}
				if err != nil {
					return err
				}
				state := "stopped"
				if running {
					state = "running"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test '%s' is %s\n", args[0], state)
				return nil
			})
		},
	}
}
