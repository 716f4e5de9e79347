// Package api serves the HTTP front end over the agent.
package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/settings"
)

// Deps are the collaborators the handlers call into
type Deps struct {
	DB       *db.DB
	Agent    *agent.Agent
	Settings *settings.Store
	// UploadDir holds uploads until they are ingested; empty means os.TempDir
	UploadDir   string
	MaxUploadMB int
}

// Server holds the fiber app and its handlers
type Server struct {
	deps     Deps
	validate *validator.Validate
	app      *fiber.App

	// streams outlive their request handler, so they hang off this context
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New builds the server and registers its routes
func New(deps Deps) *Server {
	if deps.MaxUploadMB <= 0 {
		deps.MaxUploadMB = 500
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		deps:       deps,
		validate:   validator.New(),
		baseCtx:    ctx,
		cancelBase: cancel,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "lectern",
		BodyLimit:    deps.MaxUploadMB * 1024 * 1024,
		ErrorHandler: errorHandler,
		// Model calls can run for minutes
		ReadTimeout: 10 * time.Minute,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api")
	api.Get("/classes", s.listClasses)
	api.Post("/classes", s.createClass)
	api.Get("/class/:id", s.getClass)
	api.Delete("/class/:id", s.deleteClass)
	api.Post("/class/:id/sessions", s.addSession)
	api.Get("/class/:id/session/:sid", s.getSession)
	api.Post("/upload", s.upload)
	api.Post("/summary/:class/:session", s.summarize)
	api.Post("/chat/:class", s.chatClass)
	api.Post("/chat-all", s.chatAll)
	api.Get("/search", s.search)
	api.Get("/settings", s.getSettings)
	api.Put("/settings", s.putSettings)
}

// App exposes the fiber app, mostly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[api] listening on %s", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		s.cancelBase()
		return err
	case <-ctx.Done():
	}

	s.cancelBase()
	if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "status": "healthy"})
}
