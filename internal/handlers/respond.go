package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

// documentLoader is the read side every document-scoped handler needs.
type documentLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

// loadDocument resolves the {id} URL param to a document owned by the caller.
// On failure the response has been written and ok is false.
func loadDocument(w http.ResponseWriter, r *http.Request, docs documentLoader) (*models.Document, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return nil, false
	}

	doc, err := docs.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load document", r))
		return nil, false
	}

	if doc.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return doc, true
}

// requestGone reports whether the client went away while the model was working.
// Nothing is written in that case.
func requestGone(r *http.Request) bool {
	return errors.Is(r.Context().Err(), context.Canceled)
}
