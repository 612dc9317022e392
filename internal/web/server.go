// Package web is the presentation layer: a small fiber application serving
// the prompt page and the completion API it calls.
package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jmylchreest/promptdeck/internal/completion"
)

// Server hosts the prompt UI and API.
type Server struct {
	app *fiber.App
}

// NewServer wires the routes around a cached invoker.
func NewServer(cache *completion.CachedInvoker) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "promptdeck",
		DisableStartupMessage: true,
	})

	h := NewHandler(cache)

	app.Get("/", Index)
	app.Get("/healthz", Health)
	app.Get("/api/models", h.Models)
	app.Post("/api/complete", h.Complete)
	app.Post("/api/complete/stream", h.CompleteStream)

	return &Server{app: app}
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or the server is shut down.
func (s *Server) Listen(host string, port int) error {
	return s.app.Listen(fmt.Sprintf("%s:%d", host, port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Health handles GET /healthz.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
