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
	"learnai-backend/internal/services"
)

type chatService interface {
	StartChat(userID, documentID uuid.UUID, text, filename string) *services.ChatSession
	ChatSession(userID, sessionID uuid.UUID) (*services.ChatSession, error)
	Chat(ctx context.Context, userID, sessionID uuid.UUID, message string) (models.ChatMessage, error)
}

type ChatHandler struct {
	docs  documentLoader
	chats chatService
}

func NewChatHandler(docs documentLoader, chats chatService) *ChatHandler {
	return &ChatHandler{docs: docs, chats: chats}
}

// Start opens a tutoring session grounded in the document.
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	session := h.chats.StartChat(middleware.GetUserID(r.Context()), doc.ID, doc.Text, doc.Filename)
	writeJSON(w, http.StatusCreated, session.Info())
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}

	session, err := h.chats.ChatSession(middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat session not found", r))
		return
	}
	writeJSON(w, http.StatusOK, session.Info())
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"message": "required"}, r))
		return
	}

	reply, err := h.chats.Chat(r.Context(), middleware.GetUserID(r.Context()), sessionID, req.Message)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat session not found", r))
	case errors.Is(err, services.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"message": "required"}, r))
	case err != nil:
		// Only cancellation gets here; the client is gone.
		if !requestGone(r) {
			writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", "Request cancelled", r))
		}
	default:
		writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
	}
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, false
	}
	return id, true
}
