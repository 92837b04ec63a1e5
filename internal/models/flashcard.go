package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is a single question/answer pair produced from document text.
type Flashcard struct {
	ID         uuid.UUID `json:"id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	IsFavorite bool      `json:"isFavorite"`
}

// SavedFlashcard is a flashcard committed to a document by the user.
type SavedFlashcard struct {
	Flashcard
	DocumentID uuid.UUID `json:"documentId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SaveFlashcardsRequest struct {
	Flashcards []Flashcard `json:"flashcards"`
}
