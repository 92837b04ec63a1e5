package models

import "fmt"

// Language alters only prompt phrasing, never the shape of an artifact.
type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageHinglish Language = "Hinglish"
)

func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case "", LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageHinglish:
		return LanguageHinglish, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// AudioMode picks a short overview or an in-depth walkthrough.
type AudioMode string

const (
	AudioModeSummary AudioMode = "summary"
	AudioModeDetail  AudioMode = "detail"
)

func ParseAudioMode(s string) (AudioMode, error) {
	switch AudioMode(s) {
	case "", AudioModeSummary:
		return AudioModeSummary, nil
	case AudioModeDetail:
		return AudioModeDetail, nil
	}
	return "", fmt.Errorf("unknown audio mode %q", s)
}

type Task string

const (
	TaskSummary     Task = "summary"
	TaskFlashcards  Task = "flashcards"
	TaskQuiz        Task = "quiz"
	TaskNotes       Task = "notes"
	TaskAudio       Task = "audio"
	TaskExplanation Task = "explanation"
	TaskChat        Task = "chat"
)

// TaskRequest is the inbound contract from the route layer.
type TaskRequest struct {
	DocumentText  string    `json:"documentText"`
	Language      Language  `json:"language,omitempty"`
	QuestionCount int       `json:"questionCount,omitempty"`
	Task          Task      `json:"task"`
	AudioMode     AudioMode `json:"audioMode,omitempty"`
	Concept       string    `json:"concept,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// TaskResult carries exactly one populated artifact field.
type TaskResult struct {
	HTML        *string        `json:"html,omitempty"`
	Flashcards  []Flashcard    `json:"flashcards,omitempty"`
	Questions   []QuizQuestion `json:"questions,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	AudioBase64 *string        `json:"audioBase64,omitempty"`
	Explanation *string        `json:"explanation,omitempty"`
	ChatReply   *string        `json:"chatReply,omitempty"`
	Truncated   bool           `json:"truncated"`
	Empty       bool           `json:"empty"`
}

// AudioRequest asks for one audio lesson: the summary or a single page.
type AudioRequest struct {
	Page     int       `json:"page,omitempty"` // 0 means the whole-document summary lesson
	Language Language  `json:"language"`
	Mode     AudioMode `json:"mode,omitempty"`
}

type AudioResponse struct {
	Key         string  `json:"key"`
	AudioBase64 *string `json:"audioBase64"`
	SampleRate  int     `json:"sampleRate"`
	Encoding    string  `json:"encoding"`
	Cached      bool    `json:"cached"`
	Truncated   bool    `json:"truncated"`
}

type ExplainRequest struct {
	Concept string `json:"concept"`
}
