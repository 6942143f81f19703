package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr         string
	triggerToken string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithTriggerToken enables POST /api/v1/run, guarded by a bearer token
func WithTriggerToken(token string) Option {
	return func(c *config) {
		c.triggerToken = token
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates the control plane server. job is invoked in the
// background by the manual trigger endpoint.
func NewServer(
	ctx context.Context,
	notifyUC interfaces.NotifyUseCase,
	job func(ctx context.Context) error,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr: "localhost:8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", NewStatusHandler(notifyUC).Handle)
		if cfg.triggerToken != "" {
			r.Post("/run", NewTriggerHandler(cfg.triggerToken, job).Handle)
		}
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
