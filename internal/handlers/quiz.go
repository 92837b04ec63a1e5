package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
)

type quizAttemptRepository interface {
	Create(ctx context.Context, a *models.QuizAttempt) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.QuizAttempt, error)
}

type QuizAttemptHandler struct {
	attempts quizAttemptRepository
	docs     documentLoader
}

func NewQuizAttemptHandler(attempts quizAttemptRepository, docs documentLoader) *QuizAttemptHandler {
	return &QuizAttemptHandler{attempts: attempts, docs: docs}
}

func (h *QuizAttemptHandler) Create(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.CreateQuizAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.TotalQuestions <= 0 || req.Score < 0 || req.Score > req.TotalQuestions {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"score": "must be between 0 and totalQuestions"}, r))
		return
	}

	attempt := &models.QuizAttempt{
		DocumentID:     doc.ID,
		UserID:         middleware.GetUserID(r.Context()),
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
	}
	if err := h.attempts.Create(r.Context(), attempt); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save quiz attempt", r))
		return
	}

	writeJSON(w, http.StatusCreated, attempt)
}

func (h *QuizAttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	attempts, err := h.attempts.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch quiz attempts", r))
		return
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}
