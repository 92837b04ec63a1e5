package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`
	Text       string    `json:"text,omitempty"`
	Summary    *string   `json:"summary"`
	Notes      *string   `json:"notes"`
	PageCount  int       `json:"pageCount"`
}

// CreateDocumentRequest is used when the client already extracted the text.
type CreateDocumentRequest struct {
	Filename string `json:"filename"`
	FileSize int64  `json:"fileSize"`
	Text     string `json:"text"`
}

type UpdateDocumentRequest struct {
	Summary *string `json:"summary"`
	Notes   *string `json:"notes"`
}
