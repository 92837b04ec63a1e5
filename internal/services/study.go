package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
)

// User-facing fallbacks for text artifacts that could not be generated.
const (
	SummaryErrorHTML     = "<p>Error generating summary. Please try again.</p>"
	NotesErrorText       = "Error generating notes."
	ExplanationErrorText = "Error explaining concept."
)

// SummaryAudioID identifies the whole-document audio lesson.
const SummaryAudioID = "summary"

// audioGenerationTimeout bounds one shared lesson generation, including the
// wait for a rate slot.
const audioGenerationTimeout = 10 * time.Minute

// AudioCache stores base64 audio lessons. Set overwrites.
type AudioCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, audioBase64 string) error
}

// AudioKey names one audio lesson of a document.
func AudioKey(documentID, identifier string, language models.Language) string {
	return fmt.Sprintf("%s:%s_%s", documentID, identifier, language)
}

// PageAudioID is the audio identifier of page n.
func PageAudioID(n int) string {
	return strconv.Itoa(n)
}

// StudyService turns document text into study artifacts. It never returns
// backend errors; a failed task yields its fallback value instead.
type StudyService struct {
	invoker     *Invoker
	chats       *ChatRegistry
	cache       AudioCache
	log         *logger.Logger
	maxAttempts int
	classes     SummaryClasses

	audioTimeout time.Duration

	audioGroup singleflight.Group
}

func NewStudyService(invoker *Invoker, chats *ChatRegistry, cache AudioCache, maxAttempts int, log *logger.Logger) *StudyService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StudyService{
		invoker:      invoker,
		chats:        chats,
		cache:        cache,
		log:          log.With("service", "study"),
		maxAttempts:  maxAttempts,
		classes:      DefaultSummaryClasses,
		audioTimeout: audioGenerationTimeout,
	}
}

// SetSummaryClasses replaces the class attributes used in summary markup.
func (s *StudyService) SetSummaryClasses(c SummaryClasses) {
	s.classes = c
}

func (s *StudyService) prepare(text string, limit int, task models.Task) (string, bool) {
	prepared, truncated := PrepareText(text, limit)
	if truncated {
		s.log.Info("document truncated", "task", task, "limit", limit)
	}
	return prepared, truncated
}

func (s *StudyService) Summary(ctx context.Context, text string) (string, bool) {
	prepared, truncated := s.prepare(text, LimitSummary, models.TaskSummary)

	raw := s.invoker.Invoke(ctx, SummaryPrompt(s.classes, prepared))
	html := CleanHTML(raw.Text)
	if html == "" {
		return SummaryErrorHTML, truncated
	}
	return html, truncated
}

func (s *StudyService) Flashcards(ctx context.Context, text string) ([]models.Flashcard, bool) {
	prepared, truncated := s.prepare(text, LimitFlashcards, models.TaskFlashcards)
	prompt := FlashcardPrompt(DefaultFlashcardCount, prepared)

	for attempt := 1; attempt <= s.maxAttempts && ctx.Err() == nil; attempt++ {
		raw := s.invoker.Invoke(ctx, prompt, WithSchema(FlashcardSchema))
		cards, report := NormalizeFlashcards(raw.Text)
		s.logReport(models.TaskFlashcards, attempt, report)
		if len(cards) > 0 {
			return cards, truncated
		}
	}
	return []models.Flashcard{}, truncated
}

func (s *StudyService) Quiz(ctx context.Context, text string, count int) ([]models.QuizQuestion, bool) {
	if count <= 0 {
		count = DefaultQuizQuestionCount
	}
	prepared, truncated := s.prepare(text, LimitQuiz, models.TaskQuiz)
	prompt := QuizPrompt(count, prepared)

	for attempt := 1; attempt <= s.maxAttempts && ctx.Err() == nil; attempt++ {
		raw := s.invoker.Invoke(ctx, prompt, WithSchema(QuizSchema))
		questions, report := NormalizeQuiz(raw.Text)
		s.logReport(models.TaskQuiz, attempt, report)
		if len(questions) > 0 {
			return questions, truncated
		}
	}
	return []models.QuizQuestion{}, truncated
}

func (s *StudyService) Notes(ctx context.Context, text string) (string, bool) {
	prepared, truncated := s.prepare(text, LimitNotes, models.TaskNotes)

	raw := s.invoker.Invoke(ctx, NotesPrompt(prepared))
	notes := CleanNotes(raw.Text)
	if notes == "" {
		return NotesErrorText, truncated
	}
	return notes, truncated
}

func (s *StudyService) Explain(ctx context.Context, concept, text string) (string, bool) {
	prepared, truncated := s.prepare(text, LimitExplanation, models.TaskExplanation)

	raw := s.invoker.Invoke(ctx, ExplanationPrompt(concept, prepared))
	if raw.Empty() {
		return ExplanationErrorText, truncated
	}
	return CleanHTML(raw.Text), truncated
}

// StartChat opens a session on a stored document.
func (s *StudyService) StartChat(userID, documentID uuid.UUID, text, filename string) *ChatSession {
	return s.chats.Create(userID, documentID, text, ChatGreeting(filename))
}

func (s *StudyService) ChatSession(userID, sessionID uuid.UUID) (*ChatSession, error) {
	return s.chats.Get(userID, sessionID)
}

// Chat sends one message on an existing session.
func (s *StudyService) Chat(ctx context.Context, userID, sessionID uuid.UUID, message string) (models.ChatMessage, error) {
	session, err := s.chats.Get(userID, sessionID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	return session.Send(ctx, message)
}

type audioOutcome struct {
	audio     *string
	truncated bool
}

// AudioLesson returns the lesson stored under key, generating it on a miss.
// Concurrent requests for the same key share one generation. A caller whose
// ctx ends gets a response without audio while the generation carries on.
func (s *StudyService) AudioLesson(ctx context.Context, key, text string, language models.Language, mode models.AudioMode) models.AudioResponse {
	resp := models.AudioResponse{
		Key:        key,
		SampleRate: AudioSampleRate,
		Encoding:   AudioEncoding,
	}

	if cached, ok := s.cachedAudio(ctx, key); ok {
		resp.AudioBase64 = &cached
		resp.Cached = true
		return resp
	}

	// The generation outlives any single waiter.
	ch := s.audioGroup.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.audioTimeout)
		defer cancel()

		if cached, ok := s.cachedAudio(ctx, key); ok {
			return audioOutcome{audio: &cached}, nil
		}

		prepared, truncated := s.prepare(text, LimitAudio, models.TaskAudio)
		raw := s.invoker.InvokeAudio(ctx, AudioScriptPrompt(language, mode, prepared))
		audio := raw.AudioBase64()
		if audio == nil {
			return audioOutcome{truncated: truncated}, nil
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, *audio); err != nil {
				s.log.Warn("failed to cache audio", "key", key, "error", err)
			}
		}
		return audioOutcome{audio: audio, truncated: truncated}, nil
	})

	var out audioOutcome
	select {
	case res := <-ch:
		out = res.Val.(audioOutcome)
	case <-ctx.Done():
		return resp
	}
	resp.AudioBase64 = out.audio
	resp.Truncated = out.truncated
	return resp
}

func (s *StudyService) cachedAudio(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	audio, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("audio cache lookup failed", "key", key, "error", err)
		return "", false
	}
	return audio, ok
}

// AudioBatchResult summarizes one full-document audio run.
type AudioBatchResult struct {
	Total     int
	Generated int
	Skipped   int
	Failed    int
}

// AudioForDocument generates the summary lesson and then one lesson per
// page, strictly one at a time. Cached lessons are skipped. progress, if
// set, is called after every item. The loop stops when ctx is done.
func (s *StudyService) AudioForDocument(ctx context.Context, documentID, text string, language models.Language, progress func(models.AudioProgress)) AudioBatchResult {
	type item struct {
		id   string
		text string
		mode models.AudioMode
	}

	items := []item{{id: SummaryAudioID, text: text, mode: models.AudioModeSummary}}
	for _, p := range SplitPages(text) {
		items = append(items, item{id: PageAudioID(p.Number), text: p.Content, mode: models.AudioModeDetail})
	}

	result := AudioBatchResult{Total: len(items)}
	for i, it := range items {
		if ctx.Err() != nil {
			break
		}

		key := AudioKey(documentID, it.id, language)
		ready := true
		if _, ok := s.cachedAudio(ctx, key); ok {
			result.Skipped++
		} else if resp := s.AudioLesson(ctx, key, it.text, language, it.mode); resp.AudioBase64 != nil {
			result.Generated++
		} else {
			result.Failed++
			ready = false
		}

		if progress != nil {
			progress(models.AudioProgress{
				DocumentID: documentID,
				Key:        key,
				Done:       i + 1,
				Total:      len(items),
				Ready:      ready,
			})
		}
	}

	s.log.Info("audio batch finished",
		"document_id", documentID,
		"total", result.Total,
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result
}

// Run dispatches one inbound task request.
func (s *StudyService) Run(ctx context.Context, req models.TaskRequest) models.TaskResult {
	var res models.TaskResult

	switch req.Task {
	case models.TaskSummary:
		html, truncated := s.Summary(ctx, req.DocumentText)
		res.HTML, res.Truncated = &html, truncated
		res.Empty = html == SummaryErrorHTML
	case models.TaskFlashcards:
		res.Flashcards, res.Truncated = s.Flashcards(ctx, req.DocumentText)
		res.Empty = len(res.Flashcards) == 0
	case models.TaskQuiz:
		res.Questions, res.Truncated = s.Quiz(ctx, req.DocumentText, req.QuestionCount)
		res.Empty = len(res.Questions) == 0
	case models.TaskNotes:
		notes, truncated := s.Notes(ctx, req.DocumentText)
		res.Notes, res.Truncated = &notes, truncated
		res.Empty = notes == NotesErrorText
	case models.TaskExplanation:
		text, truncated := s.Explain(ctx, req.Concept, req.DocumentText)
		res.Explanation, res.Truncated = &text, truncated
		res.Empty = text == ExplanationErrorText
	case models.TaskAudio:
		// Stateless requests bypass the cache; there is no document to key on.
		prepared, truncated := s.prepare(req.DocumentText, LimitAudio, models.TaskAudio)
		raw := s.invoker.InvokeAudio(ctx, AudioScriptPrompt(req.Language, req.AudioMode, prepared))
		res.AudioBase64, res.Truncated = raw.AudioBase64(), truncated
		res.Empty = res.AudioBase64 == nil
	case models.TaskChat:
		// One-shot turn on a throwaway session.
		session := NewChatSession(s.invoker, uuid.Nil, uuid.Nil, req.DocumentText, "")
		reply, err := session.Send(ctx, req.Message)
		if err != nil {
			res.Empty = true
			break
		}
		res.ChatReply, res.Truncated = &reply.Text, session.Truncated
		res.Empty = reply.Text == ChatApology
	default:
		res.Empty = true
	}
	return res
}

func (s *StudyService) logReport(task models.Task, attempt int, r NormalizeReport) {
	kv := []interface{}{
		"task", task,
		"attempt", attempt,
		"parsed", r.Parsed,
		"shape", r.Shape,
		"accepted", r.Accepted,
		"dropped", r.Dropped,
	}
	switch {
	case !r.Parsed || r.Accepted == 0:
		s.log.Warn("model output yielded no records", kv...)
	case r.Dropped > 0 || r.OddOptionCount > 0:
		s.log.Warn("dropped invalid records", append(kv, "odd_option_count", r.OddOptionCount)...)
	default:
		s.log.Debug("normalized model output", kv...)
	}
}
