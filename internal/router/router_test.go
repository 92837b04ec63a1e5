package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"learnai-backend/internal/handlers"
	"learnai-backend/internal/logger"
	"learnai-backend/internal/middleware"
	"learnai-backend/internal/websocket"
)

func newTestRouter(t *testing.T) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	auth := middleware.NewJWTAuth("router-secret")
	r := New(
		logger.Nop(),
		auth,
		middleware.NewRateLimiter(1, time.Minute),
		handlers.NewDocumentHandler(nil, nil),
		handlers.NewStudyHandler(nil, nil, nil, nil),
		handlers.NewFlashcardHandler(nil, nil),
		handlers.NewQuizAttemptHandler(nil, nil),
		handlers.NewChatHandler(nil, nil),
		handlers.NewJobHandler(nil),
		websocket.NewHub(nil, auth, nil),
		"http://localhost:5173",
	)
	return r, auth
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/documents"},
		{http.MethodPost, "/api/v1/documents/" + uuid.NewString() + "/summary"},
		{http.MethodPost, "/api/v1/study"},
		{http.MethodGet, "/api/v1/jobs/" + uuid.NewString()},
		{http.MethodPut, "/api/v1/flashcards/" + uuid.NewString() + "/favorite"},
	}
	for _, rt := range routes {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", rt.method, rt.path, rr.Code)
		}
	}
}

func TestRouter_WebSocketRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRouter_AIRoutesAreRateLimited(t *testing.T) {
	r, auth := newTestRouter(t)
	token, err := auth.GenerateAccessToken(uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/study", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	// An empty body fails validation before any model call.
	if code := send(); code != http.StatusBadRequest {
		t.Fatalf("first request: expected 400, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
}
