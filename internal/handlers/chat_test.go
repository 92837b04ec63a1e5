package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"learnai-backend/internal/models"
	"learnai-backend/internal/services"
)

type echoChat struct {
	err error
}

func (e echoChat) SendChat(ctx context.Context, system string, history []models.ChatMessage, message string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "You asked: " + message, nil
}

func newChatHandler(docs *stubDocs, backend echoChat) *ChatHandler {
	invoker := services.NewInvoker(nil, backend, nil, 1, nil)
	study := services.NewStudyService(invoker, services.NewChatRegistry(invoker, time.Hour, nil), nil, 1, nil)
	return NewChatHandler(docs, study)
}

func startSession(t *testing.T, h *ChatHandler, owner uuid.UUID, doc *models.Document) models.ChatSessionInfo {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Start(rr, newRequest(http.MethodPost, "/", "", owner, map[string]string{"id": doc.ID.String()}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", rr.Code)
	}
	var info models.ChatSessionInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return info
}

func TestChatHandler_Conversation(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "Photosynthesis converts light.")
	h := newChatHandler(newStubDocs(doc), echoChat{})

	info := startSession(t, h, owner, doc)
	if len(info.Messages) != 1 || info.Messages[0].Role != models.ChatRoleModel {
		t.Fatalf("expected greeting only, got %+v", info.Messages)
	}

	params := map[string]string{"sessionID": info.SessionID.String()}
	rr := httptest.NewRecorder()
	h.Send(rr, newRequest(http.MethodPost, "/", `{"message":"What is light?"}`, owner, params))
	if rr.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d", rr.Code)
	}
	var resp models.ChatResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Reply.Text != "You asked: What is light?" {
		t.Fatalf("unexpected reply %q", resp.Reply.Text)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, newRequest(http.MethodGet, "/", "", owner, params))
	var got models.ChatSessionInfo
	json.NewDecoder(rr.Body).Decode(&got)
	if len(got.Messages) != 3 {
		t.Fatalf("expected greeting plus one turn, got %d messages", len(got.Messages))
	}
}

func TestChatHandler_OtherUserCannotUseSession(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	h := newChatHandler(newStubDocs(doc), echoChat{})
	info := startSession(t, h, owner, doc)

	params := map[string]string{"sessionID": info.SessionID.String()}
	rr := httptest.NewRecorder()
	h.Send(rr, newRequest(http.MethodPost, "/", `{"message":"hi"}`, uuid.New(), params))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestChatHandler_BackendFailureReturnsApology(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	h := newChatHandler(newStubDocs(doc), echoChat{err: errors.New("quota")})
	info := startSession(t, h, owner, doc)

	rr := httptest.NewRecorder()
	h.Send(rr, newRequest(http.MethodPost, "/", `{"message":"hi"}`, owner, map[string]string{"sessionID": info.SessionID.String()}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.ChatResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Reply.Text != services.ChatApology {
		t.Fatalf("expected apology, got %q", resp.Reply.Text)
	}
}

func TestChatHandler_EmptyMessage(t *testing.T) {
	h := newChatHandler(newStubDocs(), echoChat{})
	rr := httptest.NewRecorder()
	h.Send(rr, newRequest(http.MethodPost, "/", `{"message":"  "}`, uuid.New(), map[string]string{"sessionID": uuid.New().String()}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
