package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
)

// newRequest builds a request carrying chi URL params and an authenticated user.
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	return req
}

type stubDocs struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*models.Document
	saved   map[string]string
	created *models.Document
	deleted bool
	err     error
}

func newStubDocs(docs ...*models.Document) *stubDocs {
	s := &stubDocs{docs: map[uuid.UUID]*models.Document{}, saved: map[string]string{}}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *stubDocs) Create(ctx context.Context, d *models.Document) error {
	if s.err != nil {
		return s.err
	}
	d.ID = uuid.New()
	s.created = d
	return nil
}

func (s *stubDocs) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (s *stubDocs) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]*models.Document, int, error) {
	var out []*models.Document
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (s *stubDocs) Delete(ctx context.Context, id, userID uuid.UUID) error {
	d, ok := s.docs[id]
	if !ok || d.UserID != userID {
		return repository.ErrNotFound
	}
	s.deleted = true
	return nil
}

func (s *stubDocs) Save(ctx context.Context, documentID uuid.UUID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[field] = value
	return nil
}

func ownedDoc(userID uuid.UUID, text string) *models.Document {
	return &models.Document{ID: uuid.New(), UserID: userID, Filename: "bio.pdf", Text: text}
}
