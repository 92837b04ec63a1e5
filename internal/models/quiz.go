package models

import (
	"time"

	"github.com/google/uuid"
)

type QuizQuestion struct {
	ID            uuid.UUID `json:"id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correctAnswer"` // index into Options
	Explanation   string    `json:"explanation"`
}

// QuizAttempt is append-only; attempts are never updated after creation.
type QuizAttempt struct {
	ID             uuid.UUID `json:"id"`
	DocumentID     uuid.UUID `json:"documentId"`
	UserID         uuid.UUID `json:"userId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Date           time.Time `json:"date"`
}

type CreateQuizAttemptRequest struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

type GenerateQuizRequest struct {
	QuestionCount int `json:"questionCount"`
}
