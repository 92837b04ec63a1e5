package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"learnai-backend/internal/models"
)

func TestJobHandler_GetJob(t *testing.T) {
	owner := uuid.New()
	jobs := &stubJobs{created: &models.AudioBatchJob{ID: uuid.New(), UserID: owner, Status: models.JobProcessing}}
	h := NewJobHandler(jobs)
	params := map[string]string{"id": jobs.created.ID.String()}

	rr := httptest.NewRecorder()
	h.GetJob(rr, newRequest(http.MethodGet, "/", "", owner, params))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetJob(rr, newRequest(http.MethodGet, "/", "", uuid.New(), params))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
