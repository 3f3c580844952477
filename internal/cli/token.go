package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the authoring token of the running server",
	Long: `Show the token that protects the chrome endpoint.

Example:
  vchrome token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: vchrome serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := string(data)
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: vchrome serve")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Token: %s\n", token)
	fmt.Fprintf(cmd.OutOrStdout(), "Chrome data: http://localhost:%d/chrome/rendering?binding=<test id>&token=%s\n", cfg.Port, token)
	return nil
}
