package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"learnai-backend/internal/models"
	"learnai-backend/internal/services"
)

type stubStudy struct {
	summary   string
	notes     string
	cards     []models.Flashcard
	quizCount int
	audioKey  string
	audioText string
	audioMode models.AudioMode
	lastRun   models.TaskRequest
	runCalled bool
	truncated bool
}

func (s *stubStudy) Summary(ctx context.Context, text string) (string, bool) {
	return s.summary, s.truncated
}

func (s *stubStudy) Flashcards(ctx context.Context, text string) ([]models.Flashcard, bool) {
	return s.cards, s.truncated
}

func (s *stubStudy) Quiz(ctx context.Context, text string, count int) ([]models.QuizQuestion, bool) {
	s.quizCount = count
	return []models.QuizQuestion{}, false
}

func (s *stubStudy) Notes(ctx context.Context, text string) (string, bool) {
	return s.notes, false
}

func (s *stubStudy) Explain(ctx context.Context, concept, text string) (string, bool) {
	return "Because " + concept, false
}

func (s *stubStudy) AudioLesson(ctx context.Context, key, text string, language models.Language, mode models.AudioMode) models.AudioResponse {
	s.audioKey, s.audioText, s.audioMode = key, text, mode
	audio := "AAAA"
	return models.AudioResponse{Key: key, AudioBase64: &audio}
}

func (s *stubStudy) Run(ctx context.Context, req models.TaskRequest) models.TaskResult {
	s.runCalled = true
	s.lastRun = req
	html := "<p>ok</p>"
	return models.TaskResult{HTML: &html}
}

type stubJobs struct {
	created *models.AudioBatchJob
	status  models.JobStatus
}

func (s *stubJobs) Create(ctx context.Context, j *models.AudioBatchJob) error {
	j.ID = uuid.New()
	j.Status = models.JobPending
	s.created = j
	return nil
}

func (s *stubJobs) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	s.status = status
	return nil
}

func (s *stubJobs) GetByID(ctx context.Context, id uuid.UUID) (*models.AudioBatchJob, error) {
	if s.created == nil || s.created.ID != id {
		return nil, errors.New("missing")
	}
	return s.created, nil
}

type stubQueue struct {
	queued []*models.AudioBatchJob
	err    error
}

func (s *stubQueue) Enqueue(ctx context.Context, job *models.AudioBatchJob) error {
	if s.err != nil {
		return s.err
	}
	s.queued = append(s.queued, job)
	return nil
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) models.TaskResult {
	t.Helper()
	var res models.TaskResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

func TestStudyHandler_SummarySavesOnlySuccess(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	params := map[string]string{"id": doc.ID.String()}

	docs := newStubDocs(doc)
	h := NewStudyHandler(docs, &stubStudy{summary: "<h3>Overview</h3>", truncated: true}, &stubJobs{}, &stubQueue{})
	rr := httptest.NewRecorder()
	h.Summary(rr, newRequest(http.MethodPost, "/", "", owner, params))

	res := decodeResult(t, rr)
	if rr.Code != http.StatusOK || res.HTML == nil || !res.Truncated || res.Empty {
		t.Fatalf("unexpected response %d %+v", rr.Code, res)
	}
	if docs.saved["summary"] != "<h3>Overview</h3>" {
		t.Fatalf("summary not saved: %v", docs.saved)
	}

	docs = newStubDocs(doc)
	h = NewStudyHandler(docs, &stubStudy{summary: services.SummaryErrorHTML}, &stubJobs{}, &stubQueue{})
	rr = httptest.NewRecorder()
	h.Summary(rr, newRequest(http.MethodPost, "/", "", owner, params))

	res = decodeResult(t, rr)
	if !res.Empty {
		t.Fatal("fallback summary must be flagged empty")
	}
	if len(docs.saved) != 0 {
		t.Fatalf("fallback must not be saved: %v", docs.saved)
	}
}

func TestStudyHandler_NotesAppend(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	existing := "Old notes"
	doc.Notes = &existing

	docs := newStubDocs(doc)
	h := NewStudyHandler(docs, &stubStudy{notes: "NEW NOTES"}, &stubJobs{}, &stubQueue{})
	rr := httptest.NewRecorder()
	h.Notes(rr, newRequest(http.MethodPost, "/", "", owner, map[string]string{"id": doc.ID.String()}))

	want := "Old notes\n\nNEW NOTES"
	if docs.saved["notes"] != want {
		t.Fatalf("expected %q, got %q", want, docs.saved["notes"])
	}
	if res := decodeResult(t, rr); res.Notes == nil || *res.Notes != want {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestStudyHandler_FlashcardsEmptyIsNotAnError(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	h := NewStudyHandler(newStubDocs(doc), &stubStudy{cards: []models.Flashcard{}}, &stubJobs{}, &stubQueue{})

	rr := httptest.NewRecorder()
	h.Flashcards(rr, newRequest(http.MethodPost, "/", "", owner, map[string]string{"id": doc.ID.String()}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if res := decodeResult(t, rr); !res.Empty {
		t.Fatal("expected empty flag")
	}
}

func TestStudyHandler_QuizCount(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	study := &stubStudy{}
	h := NewStudyHandler(newStubDocs(doc), study, &stubJobs{}, &stubQueue{})
	params := map[string]string{"id": doc.ID.String()}

	rr := httptest.NewRecorder()
	h.Quiz(rr, newRequest(http.MethodPost, "/", `{"questionCount":8}`, owner, params))
	if rr.Code != http.StatusOK || study.quizCount != 8 {
		t.Fatalf("expected count 8 forwarded, got %d (status %d)", study.quizCount, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Quiz(rr, newRequest(http.MethodPost, "/", `{"questionCount":0}`, owner, params))
	if rr.Code != http.StatusOK || study.quizCount != 0 {
		t.Fatalf("expected zero count accepted as default, got %d (status %d)", study.quizCount, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Quiz(rr, newRequest(http.MethodPost, "/", `{"questionCount":500}`, owner, params))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "must be 0 (default) to 50") {
		t.Fatalf("unexpected validation message: %s", rr.Body.String())
	}
}

func TestStudyHandler_ExplainRequiresConcept(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	h := NewStudyHandler(newStubDocs(doc), &stubStudy{}, &stubJobs{}, &stubQueue{})

	rr := httptest.NewRecorder()
	h.Explain(rr, newRequest(http.MethodPost, "/", `{"concept":" "}`, owner, map[string]string{"id": doc.ID.String()}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestStudyHandler_AudioKeys(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "--- Page 1 ---\nCells\n--- Page 2 ---\nATP")
	params := map[string]string{"id": doc.ID.String()}

	tests := []struct {
		name   string
		body   string
		status int
		key    string
		text   string
		mode   models.AudioMode
	}{
		{"summary", `{"language":"English"}`, http.StatusOK, doc.ID.String() + ":summary_English", doc.Text, models.AudioModeSummary},
		{"page defaults to detail", `{"page":2,"language":"Hinglish"}`, http.StatusOK, doc.ID.String() + ":2_Hinglish", "ATP", models.AudioModeDetail},
		{"missing page", `{"page":9,"language":"English"}`, http.StatusNotFound, "", "", ""},
		{"bad language", `{"language":"French"}`, http.StatusBadRequest, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			study := &stubStudy{}
			h := NewStudyHandler(newStubDocs(doc), study, &stubJobs{}, &stubQueue{})
			rr := httptest.NewRecorder()
			h.Audio(rr, newRequest(http.MethodPost, "/", tt.body, owner, params))

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if study.audioKey != tt.key || study.audioText != tt.text || study.audioMode != tt.mode {
				t.Fatalf("got key=%q text=%q mode=%q", study.audioKey, study.audioText, study.audioMode)
			}
		})
	}
}

func TestStudyHandler_AudioAll(t *testing.T) {
	owner := uuid.New()
	doc := ownedDoc(owner, "text")
	params := map[string]string{"id": doc.ID.String()}

	jobs, queue := &stubJobs{}, &stubQueue{}
	h := NewStudyHandler(newStubDocs(doc), &stubStudy{}, jobs, queue)
	rr := httptest.NewRecorder()
	h.AudioAll(rr, newRequest(http.MethodPost, "/", `{"language":"Hinglish"}`, owner, params))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if len(queue.queued) != 1 || queue.queued[0].Language != models.LanguageHinglish || queue.queued[0].UserID != owner {
		t.Fatalf("unexpected queue contents %+v", queue.queued)
	}

	jobs, queue = &stubJobs{}, &stubQueue{err: errors.New("redis down")}
	h = NewStudyHandler(newStubDocs(doc), &stubStudy{}, jobs, queue)
	rr = httptest.NewRecorder()
	h.AudioAll(rr, newRequest(http.MethodPost, "/", "", owner, params))
	if rr.Code != http.StatusInternalServerError || jobs.status != models.JobFailed {
		t.Fatalf("expected failed job on enqueue error, got %d / %q", rr.Code, jobs.status)
	}
}

func TestStudyHandler_RunValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"unknown task", `{"task":"poem","documentText":"x"}`, http.StatusBadRequest, "task"},
		{"missing text", `{"task":"summary"}`, http.StatusBadRequest, "documentText"},
		{"bad language", `{"task":"summary","documentText":"x","language":"Klingon"}`, http.StatusBadRequest, "language"},
		{"chat without message", `{"task":"chat","documentText":"x"}`, http.StatusBadRequest, "message"},
		{"ok", `{"task":"summary","documentText":"x"}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			study := &stubStudy{}
			h := NewStudyHandler(newStubDocs(), study, &stubJobs{}, &stubQueue{})
			rr := httptest.NewRecorder()
			h.Run(rr, newRequest(http.MethodPost, "/api/v1/study", tt.body, uuid.New(), nil))

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.field != "" {
				var resp models.ErrorResponse
				json.NewDecoder(rr.Body).Decode(&resp)
				if resp.Error.Fields[tt.field] == "" {
					t.Fatalf("expected field error on %s, got %+v", tt.field, resp.Error.Fields)
				}
				if study.runCalled {
					t.Fatal("invalid request reached the study service")
				}
				return
			}
			if study.lastRun.Language != models.LanguageEnglish {
				t.Fatalf("expected language to default to English, got %q", study.lastRun.Language)
			}
		})
	}
}
