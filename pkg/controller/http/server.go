package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
)

// config holds internal HTTP server configuration
type config struct {
	addr  string
	token string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithToken requires "Authorization: Bearer <token>" on job endpoints
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server. Jobs started through the server run
// with the logger of ctx.
func NewServer(
	ctx context.Context,
	nexusUC interfaces.NexusSyncUseCase,
	renameUC interfaces.RenameUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	jobs := NewJobHandler(ctx, map[model.JobKind]JobFunc{
		model.JobKindNexus: func(ctx context.Context, domain model.GameDomain) (*model.RunSummary, error) {
			return nexusUC.Run(ctx, []model.GameDomain{domain})
		},
		model.JobKindRename: func(ctx context.Context, domain model.GameDomain) (*model.RunSummary, error) {
			return renameUC.Run(ctx, []model.GameDomain{domain})
		},
	})

	router.Route("/jobs", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.token))
		r.Post("/{kind}/{domain}", jobs.Create)
		r.Get("/{id}", jobs.Get)
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
