package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/compiler"
	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/job"
	"github.com/aretw0/femto/pkg/template"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine defines the operations of the femto engine served over HTTP.
type Engine interface {
	Compile(ctx context.Context, j *job.Job) (*domain.Program, error)
	CompileJob(ctx context.Context, id string) (*domain.Program, error)
	MeshScan(ctx context.Context, gcode compiler.Params, p template.MeshParams) (*domain.Program, error)
	Jobs(ctx context.Context) ([]string, error)
	Save(ctx context.Context, p *domain.Program) error
	Load(ctx context.Context, id string) (*domain.Program, error)
	Delete(ctx context.Context, id string) error
	Programs(ctx context.Context) ([]string, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the compile API.
type Server struct {
	Engine Engine
	Logger *slog.Logger
	// BaseDir resolves relative image and antiwarp paths of posted jobs.
	BaseDir string
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
}

// Option configures the handler.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	baseDir  string
	gatherer prometheus.Gatherer
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBaseDir sets the directory relative job paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(c *config) {
		c.baseDir = dir
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
// Requests to the documented routes are validated against the embedded
// OpenAPI document before they reach the handlers.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	validator, err := newValidator()
	if err != nil {
		return nil, err
	}

	server := &Server{
		Engine:       engine,
		Logger:       cfg.logger,
		BaseDir:      cfg.baseDir,
		MaxBodyBytes: 8 << 20,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validator.middleware(server.Logger))

		r.Get("/health", server.GetHealth)
		r.Get("/info", server.GetInfo)
		r.Post("/compile", server.Compile)
		r.Post("/mesh", server.MeshScan)
		r.Get("/jobs", server.ListJobs)
		r.Post("/jobs/{id}/compile", server.CompileJob)
		r.Get("/programs", server.ListPrograms)
		r.Get("/programs/{id}", server.GetProgram)
		r.Delete("/programs/{id}", server.DeleteProgram)
		r.Get("/programs/{id}/pgm", server.GetProgramText)
		r.Get("/events", server.SubscribeEvents)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>femto API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "femto-http",
		"version":     strings.TrimSpace(femto.Version),
		"api_version": apiVersion(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
