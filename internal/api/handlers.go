package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"github.com/niana0/vendor-security-assessment-tool/internal/intake"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

// HealthResponse reports liveness and the active similarity backend
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Backend   string    `json:"similarity_backend"`
}

// ListResponse wraps a page of assessment summaries
type ListResponse struct {
	Assessments []model.AssessmentSummary `json:"assessments"`
	Limit       int                       `json:"limit"`
	Offset      int                       `json:"offset"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Backend:   s.assessor.Backend(),
	})
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	input, err := intake.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	a, err := s.assessor.Assess(r.Context(), input)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		render.Render(w, r, ErrInternal(err))
		return
	}

	if s.repo != nil {
		if err := s.repo.Save(r.Context(), a); err != nil {
			s.logger.Error("store assessment", "id", a.ID, "error", err)
			render.Render(w, r, ErrInternal(err))
			return
		}
	}

	w.Header().Set("Location", "/api/v1/assessments/"+a.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, a)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		render.Render(w, r, ErrUnavailable)
		return
	}

	q := r.URL.Query()
	opts := store.ListOptions{Vendor: q.Get("vendor"), Limit: store.DefaultListLimit}
	if v := q.Get("level"); v != "" {
		level, ok := model.ParseRiskLevel(v)
		if !ok {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("unknown risk level %q", v)))
			return
		}
		opts.Level = level
	}
	if v := q.Get("limit"); v != "" {
		limit, err := cast.ToIntE(v)
		if err != nil || limit < 1 || limit > 500 {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be an integer between 1 and 500")))
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := cast.ToIntE(v)
		if err != nil || offset < 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("offset must be a non-negative integer")))
			return
		}
		opts.Offset = offset
	}

	list, err := s.repo.List(r.Context(), opts)
	if err != nil {
		render.Render(w, r, ErrInternal(err))
		return
	}
	render.JSON(w, r, ListResponse{Assessments: list, Limit: opts.Limit, Offset: opts.Offset})
}

func (s *Server) loadAssessment(w http.ResponseWriter, r *http.Request) (*model.Assessment, bool) {
	if s.repo == nil {
		render.Render(w, r, ErrUnavailable)
		return nil, false
	}
	a, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, ErrNotFound)
		return nil, false
	}
	if err != nil {
		render.Render(w, r, ErrInternal(err))
		return nil, false
	}
	return a, true
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	if a, ok := s.loadAssessment(w, r); ok {
		render.JSON(w, r, a)
	}
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	if a, ok := s.loadAssessment(w, r); ok {
		render.JSON(w, r, a.Report)
	}
}

func (s *Server) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		render.Render(w, r, ErrUnavailable)
		return
	}
	err := s.repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		render.Render(w, r, ErrInternal(err))
		return
	}
	render.NoContent(w, r)
}
