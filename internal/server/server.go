package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/store"
)

type Options struct {
	Port int
	Site chrome.Site

	// Token protects the chrome endpoint. A random one is generated when empty.
	Token string

	// DefaultDevice is recorded on beacons that name no device.
	DefaultDevice string
}

type Server struct {
	store     *store.SQLiteStore
	pipeline  *chrome.Pipeline
	opts      Options
	token     string
	router    *http.ServeMux
	startTime time.Time
	logger    *zap.Logger
}

func New(s *store.SQLiteStore, pipeline *chrome.Pipeline, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	token := opts.Token
	if token == "" {
		token = generateToken()
	}

	srv := &Server{
		store:     s,
		pipeline:  pipeline,
		opts:      opts,
		token:     token,
		router:    http.NewServeMux(),
		startTime: time.Now(),
		logger:    logger,
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/b", s.handleBeacon)
	s.router.Handle("/metrics", promhttp.Handler())

	// Authoring endpoints (protected)
	s.router.Handle("/chrome/rendering", s.authMiddleware(http.HandlerFunc(s.handleRenderingChrome)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.Int("port", s.opts.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4e5f60718"
	}
	return hex.EncodeToString(bytes)
}
