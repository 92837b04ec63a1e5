package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage represents a single message in a session transcript.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the payload sent to the chat message endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the tutor's reply to one turn.
type ChatResponse struct {
	Reply ChatMessage `json:"reply"`
}

type ChatSessionInfo struct {
	SessionID  uuid.UUID     `json:"sessionId"`
	DocumentID uuid.UUID     `json:"documentId"`
	Truncated  bool          `json:"truncated"`
	Messages   []ChatMessage `json:"messages"`
}
