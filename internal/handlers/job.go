package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
)

type jobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AudioBatchJob, error)
}

type JobHandler struct {
	jobs jobReader
}

func NewJobHandler(jobs jobReader) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load job", r))
		return
	}

	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
