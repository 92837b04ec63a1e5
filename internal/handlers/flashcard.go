package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
)

type flashcardRepository interface {
	SaveBatch(ctx context.Context, documentID uuid.UUID, cards []models.Flashcard) (int, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.SavedFlashcard, error)
	ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type FlashcardHandler struct {
	cards flashcardRepository
	docs  documentLoader
}

func NewFlashcardHandler(cards flashcardRepository, docs documentLoader) *FlashcardHandler {
	return &FlashcardHandler{cards: cards, docs: docs}
}

// Save commits generated cards to the document. Blank cards are rejected.
func (h *FlashcardHandler) Save(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.SaveFlashcardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.Flashcards) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"flashcards": "at least one card is required"}, r))
		return
	}
	for _, c := range req.Flashcards {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"flashcards": "front and back are required"}, r))
			return
		}
	}

	saved, err := h.cards.SaveBatch(r.Context(), doc.ID, req.Flashcards)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save flashcards", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"saved": saved})
}

func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	cards, err := h.cards.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch flashcards", r))
		return
	}
	if cards == nil {
		cards = []models.SavedFlashcard{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

func (h *FlashcardHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid flashcard ID", r))
		return
	}

	favorite, err := h.cards.ToggleFavorite(r.Context(), id, middleware.GetUserID(r.Context()))
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Flashcard not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update favorite", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "isFavorite": favorite})
}
