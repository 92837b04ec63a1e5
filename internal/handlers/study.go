package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
	"learnai-backend/internal/services"
)

type studyService interface {
	Summary(ctx context.Context, text string) (string, bool)
	Flashcards(ctx context.Context, text string) ([]models.Flashcard, bool)
	Quiz(ctx context.Context, text string, count int) ([]models.QuizQuestion, bool)
	Notes(ctx context.Context, text string) (string, bool)
	Explain(ctx context.Context, concept, text string) (string, bool)
	AudioLesson(ctx context.Context, key, text string, language models.Language, mode models.AudioMode) models.AudioResponse
	Run(ctx context.Context, req models.TaskRequest) models.TaskResult
}

type studyDocuments interface {
	documentLoader
	Save(ctx context.Context, documentID uuid.UUID, field, value string) error
}

type jobCreator interface {
	Create(ctx context.Context, j *models.AudioBatchJob) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error
}

type jobQueue interface {
	Enqueue(ctx context.Context, job *models.AudioBatchJob) error
}

// StudyHandler exposes the generation tasks. Generation failures are not
// HTTP errors: the response carries the fallback value with empty=true.
type StudyHandler struct {
	docs  studyDocuments
	study studyService
	jobs  jobCreator
	queue jobQueue
}

func NewStudyHandler(docs studyDocuments, study studyService, jobs jobCreator, queue jobQueue) *StudyHandler {
	return &StudyHandler{docs: docs, study: study, jobs: jobs, queue: queue}
}

func (h *StudyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	html, truncated := h.study.Summary(r.Context(), doc.Text)
	if requestGone(r) {
		return
	}

	failed := html == services.SummaryErrorHTML
	if !failed {
		if err := h.docs.Save(r.Context(), doc.ID, repository.FieldSummary, html); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save summary", r))
			return
		}
	}

	writeJSON(w, http.StatusOK, models.TaskResult{HTML: &html, Truncated: truncated, Empty: failed})
}

func (h *StudyHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	cards, truncated := h.study.Flashcards(r.Context(), doc.Text)
	if requestGone(r) {
		return
	}
	writeJSON(w, http.StatusOK, models.TaskResult{Flashcards: cards, Truncated: truncated, Empty: len(cards) == 0})
}

func (h *StudyHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.GenerateQuizRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}
	if req.QuestionCount < 0 || req.QuestionCount > 50 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"questionCount": "must be 0 (default) to 50"}, r))
		return
	}

	questions, truncated := h.study.Quiz(r.Context(), doc.Text, req.QuestionCount)
	if requestGone(r) {
		return
	}
	writeJSON(w, http.StatusOK, models.TaskResult{Questions: questions, Truncated: truncated, Empty: len(questions) == 0})
}

// Notes generates notes and appends them to whatever the document already has.
func (h *StudyHandler) Notes(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	notes, truncated := h.study.Notes(r.Context(), doc.Text)
	if requestGone(r) {
		return
	}

	if notes == services.NotesErrorText {
		writeJSON(w, http.StatusOK, models.TaskResult{Notes: &notes, Truncated: truncated, Empty: true})
		return
	}

	combined := notes
	if doc.Notes != nil && strings.TrimSpace(*doc.Notes) != "" {
		combined = *doc.Notes + "\n\n" + notes
	}
	if err := h.docs.Save(r.Context(), doc.ID, repository.FieldNotes, combined); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save notes", r))
		return
	}

	writeJSON(w, http.StatusOK, models.TaskResult{Notes: &combined, Truncated: truncated})
}

func (h *StudyHandler) Explain(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Concept) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"concept": "required"}, r))
		return
	}

	text, truncated := h.study.Explain(r.Context(), req.Concept, doc.Text)
	if requestGone(r) {
		return
	}
	writeJSON(w, http.StatusOK, models.TaskResult{
		Explanation: &text,
		Truncated:   truncated,
		Empty:       text == services.ExplanationErrorText,
	})
}

// Audio returns the lesson for the whole document (page 0) or one page.
func (h *StudyHandler) Audio(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.AudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	lang, err := models.ParseLanguage(string(req.Language))
	if err != nil {
		fields["language"] = "must be English or Hinglish"
	}
	mode, err := models.ParseAudioMode(string(req.Mode))
	if err != nil {
		fields["mode"] = "must be summary or detail"
	}
	if req.Page < 0 {
		fields["page"] = "must not be negative"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	identifier, text := services.SummaryAudioID, doc.Text
	if req.Page > 0 {
		page, found := findPage(doc.Text, req.Page)
		if !found {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Page not found", r))
			return
		}
		identifier, text = services.PageAudioID(req.Page), page
		if req.Mode == "" {
			mode = models.AudioModeDetail
		}
	}

	resp := h.study.AudioLesson(r.Context(), services.AudioKey(doc.ID.String(), identifier, lang), text, lang, mode)
	if requestGone(r) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func findPage(text string, n int) (string, bool) {
	for _, p := range services.SplitPages(text) {
		if p.Number == n {
			return p.Content, true
		}
	}
	return "", false
}

// AudioAll queues generation of every lesson of the document.
func (h *StudyHandler) AudioAll(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req struct {
		Language models.Language `json:"language"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}
	lang, err := models.ParseLanguage(string(req.Language))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"language": "must be English or Hinglish"}, r))
		return
	}

	job := &models.AudioBatchJob{
		UserID:     middleware.GetUserID(r.Context()),
		DocumentID: doc.ID,
		Language:   lang,
	}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		_ = h.jobs.UpdateStatus(r.Context(), job.ID, models.JobFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue audio job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
	})
}

var knownTasks = map[models.Task]bool{
	models.TaskSummary:     true,
	models.TaskFlashcards:  true,
	models.TaskQuiz:        true,
	models.TaskNotes:       true,
	models.TaskAudio:       true,
	models.TaskExplanation: true,
	models.TaskChat:        true,
}

// Run is the stateless task endpoint: the caller supplies the text.
func (h *StudyHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateTask(&req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	res := h.study.Run(r.Context(), req)
	if requestGone(r) {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// validateTask normalizes language and mode in place and returns the
// offending fields, if any.
func validateTask(req *models.TaskRequest) map[string]string {
	fields := map[string]string{}
	if !knownTasks[req.Task] {
		fields["task"] = "unknown task"
	}
	if strings.TrimSpace(req.DocumentText) == "" {
		fields["documentText"] = "required"
	}
	lang, err := models.ParseLanguage(string(req.Language))
	if err != nil {
		fields["language"] = "must be English or Hinglish"
	}
	mode, err := models.ParseAudioMode(string(req.AudioMode))
	if err != nil {
		fields["audioMode"] = "must be summary or detail"
	}
	if req.QuestionCount < 0 || req.QuestionCount > 50 {
		fields["questionCount"] = "must be 0 (default) to 50"
	}
	if req.Task == models.TaskExplanation && strings.TrimSpace(req.Concept) == "" {
		fields["concept"] = "required"
	}
	if req.Task == models.TaskChat && strings.TrimSpace(req.Message) == "" {
		fields["message"] = "required"
	}
	if len(fields) > 0 {
		return fields
	}
	req.Language, req.AudioMode = lang, mode
	return nil
}
