// Package relay exposes the latest-frame store and the optional inference
// proxy over HTTP.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/framerelay/pkg/frame"
	"github.com/teslashibe/framerelay/pkg/gemini"
	"github.com/teslashibe/framerelay/pkg/hub"
)

// DefaultBodyLimit matches what browser capture clients are expected to post.
const DefaultBodyLimit = 10 * 1024 * 1024

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Generator is the inference backend behind POST /api/gemini.
type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (json.RawMessage, error)
}

// Server is the relay HTTP server.
type Server struct {
	app    *fiber.App
	store  *frame.Store
	proxy  Generator
	status *hub.Hub
	logger *slog.Logger

	version   string
	staticDir string
	bodyLimit int
	debug     bool
}

// Option configures a Server.
type Option func(*Server)

// WithProxy enables POST /api/gemini.
func WithProxy(g Generator) Option {
	return func(s *Server) { s.proxy = g }
}

// WithStatusHub enables the /ws/status websocket.
func WithStatusHub(h *hub.Hub) Option {
	return func(s *Server) { s.status = h }
}

// WithStaticDir serves files from dir. Empty disables static serving.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithBodyLimit sets the maximum request body size in bytes.
func WithBodyLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bodyLimit = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebug turns on per-request logging.
func WithDebug(debug bool) Option {
	return func(s *Server) { s.debug = debug }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a relay server around store.
func New(store *frame.Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		logger:    slog.Default(),
		version:   "dev",
		bodyLimit: DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "relay")

	app := fiber.New(fiber.Config{
		AppName:               "framerelay",
		DisableStartupMessage: true,
		BodyLimit:             s.bodyLimit,
		ErrorHandler:          s.handleError,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if s.debug {
		app.Use(logger.New())
	}

	// Routes
	app.Get("/", s.handleIndex)
	app.Get("/health", s.handleHealth)
	app.Post("/frame", s.handlePostFrame)
	app.Get("/frame", s.handleGetFrame)

	if s.proxy != nil {
		app.Post("/api/gemini", s.handleGemini)
	}

	if s.status != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/status", websocket.New(s.handleStatusWS))
	}

	if s.staticDir != "" {
		app.Use(hideDotfiles)
		app.Static("/", s.staticDir)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until the server is shut down.
func (s *Server) Listen(addr string) error {
	s.logger.Info("server running", "url", "http://"+addr,
		"proxy", s.proxy != nil, "static", s.staticDir)
	return s.app.Listen(addr)
}

// Listener serves on an existing listener until the server is shut down.
func (s *Server) Listener(ln net.Listener) error {
	s.logger.Info("server running", "url", "http://"+ln.Addr().String(),
		"proxy", s.proxy != nil, "static", s.staticDir)
	return s.app.Listener(ln)
}

// Run starts the status hub (if any), serves on addr and shuts down
// gracefully once ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.status != nil {
		go s.status.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	if err := s.Shutdown(); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

// hideDotfiles keeps files like .env out of static serving.
func hideDotfiles(c *fiber.Ctx) error {
	for _, seg := range strings.Split(c.Path(), "/") {
		if strings.HasPrefix(seg, ".") {
			return fiber.ErrNotFound
		}
	}
	return c.Next()
}

// handleError renders errors that escape handlers, including recovered panics.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	if c.Method() == fiber.MethodPost && c.Path() == "/frame" {
		msg := msgServerError
		if fe != nil && code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
		return c.Status(code).JSON(frameResponse{Success: false, Message: msg})
	}
	return fiber.DefaultErrorHandler(c, err)
}
