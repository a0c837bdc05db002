// Package handler exposes the analysis service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"titlechain/internal/title"
	"titlechain/internal/title/models"
	dErrors "titlechain/pkg/domain-errors"
	"titlechain/pkg/platform/httputil"
	"titlechain/pkg/requestcontext"
)

// Service is the interface the HTTP layer needs from the analysis service.
type Service interface {
	Analyze(ctx context.Context, in title.Input) (models.AnalysisResult, error)
	Get(ctx context.Context, caseID string) (models.AnalysisResult, error)
}

// Handler serves the title analysis endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a title analysis Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
	}
}

// Register mounts the title routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/title", func(r chi.Router) {
		r.Post("/analyses", h.handleAnalyze)
		r.Get("/analyses/{caseID}", h.handleGet)
	})
}

// handleAnalyze runs a full analysis for one property and returns the
// result. Re-running a case replaces its stored result.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.svc.Analyze(ctx, req.ToInput())
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "analysis failed",
				"request_id", requestID,
				"case_id", req.CaseID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromResult(result))
}

// handleGet returns the stored result for a case.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID := chi.URLParam(r, "caseID")

	result, err := h.svc.Get(ctx, caseID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "analysis lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"case_id", caseID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
