// Package devserver exposes the fixture dataset over HTTP so the remote
// backend can be exercised against a real server during development.
package devserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/metrics"
	"go.uber.org/zap"
)

// Server handles the fixture-backed HTTP API
type Server struct {
	app     *fiber.App
	config  *config.Config
	backend *api.FixtureBackend
	metrics *metrics.Metrics
	logger  *zap.Logger
	started time.Time
}

// New creates a new dev server around backend
func New(cfg *config.Config, backend *api.FixtureBackend, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		backend: backend,
		metrics: m,
		logger:  logger,
		started: time.Now(),
	}

	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.DevServer.Address, s.config.DevServer.Port)
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Fixture server listening", zap.String("addr", s.Addr()))
	return s.app.Listen(s.Addr())
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
