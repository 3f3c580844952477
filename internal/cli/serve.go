package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/engagement"
	"github.com/headline-goat/variant-chrome/internal/server"
	"github.com/headline-goat/variant-chrome/internal/store"
	"github.com/headline-goat/variant-chrome/internal/variations"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the variant-chrome HTTP server.

The server provides:
  - Rendering chrome data at /chrome/rendering (token protected)
  - Beacon endpoint for tracking engagement at /b
  - Health check and Prometheus metrics

Example:
  vchrome serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

// newProcessor wires the variations processor to the store.
func newProcessor(s *store.SQLiteStore) *variations.Processor {
	return variations.NewProcessor(
		variations.Settings{
			AutomaticTestingEnabled: cfg.ContentTesting.AutomaticEnabled,
			DefaultDevice:           cfg.Device.Default,
		},
		s, s,
		engagement.NewEngine(s, cfg.ScoreMode(), logger),
		logger,
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	return withStore(func(s *store.SQLiteStore) error {
		pipeline := chrome.NewPipeline(logger, newProcessor(s))
		srv := server.New(s, pipeline, server.Options{
			Port:          cfg.Port,
			Token:         cfg.Token,
			Site:          chrome.Site{Name: cfg.Site.Name, DefaultLanguage: cfg.Site.DefaultLanguage},
			DefaultDevice: cfg.Device.Default,
		}, logger)

		// Write token to file for the token command
		if err := os.WriteFile(tokenFilePath(), []byte(srv.Token()), 0600); err != nil {
			logger.Warn("failed to write token file", zap.Error(err))
		}

		fmt.Println()
		fmt.Printf("variant-chrome running on http://localhost:%d\n", cfg.Port)
		fmt.Printf("Chrome data: http://localhost:%d/chrome/rendering?binding=<test id>&token=%s\n", cfg.Port, srv.Token())
		if !cfg.ContentTesting.AutomaticEnabled {
			fmt.Println("Automatic content testing is disabled; no test variations will be reported.")
		}
		fmt.Println()
		fmt.Println("Press Ctrl+C to stop")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Start(ctx)
	})
}
