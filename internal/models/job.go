package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// AudioBatchJob generates audio for the summary and every page of a document.
type AudioBatchJob struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	Language     Language   `json:"language"`
	Status       JobStatus  `json:"status"`
	Generated    int        `json:"generated"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type AudioProgress struct {
	JobID      uuid.UUID `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Key        string    `json:"key"`
	Done       int       `json:"done"`
	Total      int       `json:"total"`
	Ready      bool      `json:"ready"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Generated  int       `json:"generated"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
