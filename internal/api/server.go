// Package api serves assessments over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/niana0/vendor-security-assessment-tool/internal/metrics"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

// maxBodyBytes bounds POSTed assessment inputs
const maxBodyBytes = 10 << 20

// Assessor runs one assessment
type Assessor interface {
	Assess(ctx context.Context, input model.AssessmentInput) (*model.Assessment, error)
	Backend() string
}

// Repository persists assessments
type Repository interface {
	Save(ctx context.Context, a *model.Assessment) error
	Get(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context, opts store.ListOptions) ([]model.AssessmentSummary, error)
	Delete(ctx context.Context, id string) error
}

// Server is the HTTP front end
type Server struct {
	cfg      model.ServerConfig
	assessor Assessor
	repo     Repository
	metrics  *metrics.Metrics
	version  string
	logger   *slog.Logger
}

// NewServer creates a server. m may be nil, which disables /metrics.
func NewServer(cfg model.ServerConfig, assessor Assessor, repo Repository, m *metrics.Metrics, version string) *Server {
	return &Server{
		cfg:      cfg,
		assessor: assessor,
		repo:     repo,
		metrics:  m,
		version:  version,
		logger:   slog.Default(),
	}
}

// SetLogger replaces the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", s.createAssessment)
			r.Get("/", s.listAssessments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getAssessment)
				r.Delete("/", s.deleteAssessment)
				r.Get("/report", s.getReport)
			})
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Addr, "backend", s.assessor.Backend())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}
