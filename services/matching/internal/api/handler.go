package api

import (
	stderrors "errors"
	"net/http"
	"strings"

	"skillmatch/services/matching/internal/errors"
	"skillmatch/services/matching/internal/pipeline"
	"skillmatch/services/matching/internal/scorer"

	"go.uber.org/zap"
)

const jobNotFoundMessage = "Job title not found"

type Handler struct {
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
}

func NewHandler(logger *zap.Logger, p *pipeline.Pipeline) *Handler {
	return &Handler{
		logger:   logger,
		pipeline: p,
	}
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	// An empty title matches no posting and gets the not-found payload.
	result, err := h.pipeline.Search(r.Context(), req.ResumeText, req.JobTitle)
	if errors.IsType(err, errors.ErrTypeJobNotFound) {
		h.respond(w, r, http.StatusOK, NotFoundResponse{
			Error:        jobNotFoundMessage,
			ResumeSkills: result.ResumeSkills,
		})
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, SearchResponse{
		JobTitle:     result.JobTitle,
		JobSkills:    result.JobSkills,
		ResumeSkills: result.ResumeSkills,
		SkillMatches: result.SkillMatches,
		Similarity:   result.Similarity,
	})
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if strings.TrimSpace(req.JobTitle) == "" {
		h.handleError(w, r, errors.InvalidInput("job_title is required", nil))
		return
	}

	result, err := h.pipeline.Analyze(r.Context(), req.ResumeText, req.JobTitle)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, AnalyzeResponse{
		DreamJobTitle:  result.DreamJobTitle,
		RequiredSkills: result.RequiredSkills,
		MatchedSkills:  result.MatchedSkills,
		MatchScore:     scorer.Percent(result.Ratio),
		JobDescription: result.JobDescription,
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, HealthResponse{
		Status:   "ok",
		Postings: h.pipeline.CatalogSize(),
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	if err := JSONResponse(w, status, body); err != nil {
		h.logger.Warn("failed to write response",
			zap.String("request_id", pipeline.RequestID(r.Context())),
			zap.Error(err))
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	var httpErr *HTTPError
	var domainErr *errors.DomainError
	switch {
	case stderrors.As(err, &httpErr):
		status, message = httpErr.Code, httpErr.Message
	case errors.IsType(err, errors.ErrTypeInvalidInput) && stderrors.As(err, &domainErr):
		status, message = http.StatusBadRequest, domainErr.Message
	case errors.IsType(err, errors.ErrTypeRateLimit):
		status, message = http.StatusServiceUnavailable, "Embedding service is rate limited"
		w.Header().Set("Retry-After", "30")
	case errors.IsType(err, errors.ErrTypeEmbeddingFailure), errors.IsType(err, errors.ErrTypeMalformedResponse):
		status, message = http.StatusBadGateway, "Embedding service unavailable"
	}

	fields := []zap.Field{
		zap.String("request_id", pipeline.RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	if werr := JSONError(w, status, message); werr != nil {
		h.logger.Warn("failed to write error response", zap.Error(werr))
	}
}
