// Package webhook serves the HTTP endpoints providers call when a
// document changes. Each delivery is handed to the webhook controller,
// which debounces it and runs the single-document pipeline.
package webhook

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexer/internal/connectors/github"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Default server settings.
const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	bodyLimit              = 4 << 20
)

// PushParser verifies and decodes GitHub deliveries.
type PushParser interface {
	Parse(eventType, signature string, body []byte) (*github.Push, error)
}

// Config holds server settings.
type Config struct {
	// RequestTimeout bounds the pipeline run for one delivery.
	RequestTimeout time.Duration

	// GitHub enables /webhooks/github when set.
	GitHub PushParser
}

// Server is the webhook HTTP server.
type Server struct {
	app      *fiber.App
	ingestor driving.WebhookIngestor
	github   PushParser
	timeout  time.Duration
}

// New creates a server with its routes registered.
func New(cfg Config, ingestor driving.WebhookIngestor) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(accessLog)

	s := &Server{
		app:      app,
		ingestor: ingestor,
		github:   cfg.GitHub,
		timeout:  cfg.RequestTimeout,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	hooks := s.app.Group("/webhooks")
	hooks.Post("/notion", s.handleNotion)
	if s.github != nil {
		hooks.Post("/github", s.handleGitHub)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	logger.Info("Webhook server listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down webhook server")
		if err := s.app.ShutdownWithTimeout(DefaultShutdownTimeout); err != nil {
			return err
		}
		return <-errCh
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// requestContext bounds one delivery by the request timeout.
func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.timeout)
}

func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.Debug("%s %s -> %d (%s) request_id=%v",
		c.Method(), c.Path(), c.Response().StatusCode(),
		time.Since(start).Round(time.Millisecond), c.Locals("requestid"))
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"ok": false, "error": err.Error()})
}
