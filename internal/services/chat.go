package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
)

// ChatApology replaces the model reply when a turn fails.
const ChatApology = "Sorry, I encountered an error communicating with Gemini."

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)

// ChatSession is one dialogue bound to a document. The document text is
// embedded once in the system instruction when the session is created.
type ChatSession struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DocumentID uuid.UUID
	Truncated  bool

	invoker *Invoker
	system  string
	now     func() time.Time

	turn sync.Mutex // one turn at a time

	mu         sync.RWMutex
	transcript []models.ChatMessage
	// history is what the model sees: completed exchanges only.
	history    []models.ChatMessage
	lastActive time.Time
}

// NewChatSession binds a session to documentText. A non-empty greeting opens
// the transcript but is never shown to the model.
func NewChatSession(invoker *Invoker, userID, documentID uuid.UUID, documentText, greeting string) *ChatSession {
	text, truncated := PrepareText(documentText, LimitChat)
	s := &ChatSession{
		ID:         uuid.New(),
		UserID:     userID,
		DocumentID: documentID,
		Truncated:  truncated,
		invoker:    invoker,
		system:     ChatSystemInstruction(text),
		now:        time.Now,
	}
	s.lastActive = s.now()
	if greeting != "" {
		s.transcript = append(s.transcript, newChatMessage(models.ChatRoleModel, greeting, s.lastActive))
	}
	return s
}

// ChatGreeting is the opening message for a document named filename.
func ChatGreeting(filename string) string {
	return fmt.Sprintf("Hello! I'm ready to help you study %q. Ask me anything about the document!", filename)
}

// Send runs one turn and returns the model message appended to the
// transcript. Concurrent calls wait for the turn in flight. A cancelled ctx
// leaves the transcript untouched and returns ctx.Err().
func (s *ChatSession) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	s.turn.Lock()
	defer s.turn.Unlock()

	if err := ctx.Err(); err != nil {
		return models.ChatMessage{}, err
	}

	s.mu.RLock()
	history := slices.Clone(s.history)
	s.mu.RUnlock()

	res := s.invoker.InvokeChat(ctx, s.system, history, text)
	if err := ctx.Err(); err != nil {
		return models.ChatMessage{}, err
	}

	now := s.now()
	userMsg := newChatMessage(models.ChatRoleUser, text, now)
	reply := newChatMessage(models.ChatRoleModel, res.Text, now)
	failed := res.Empty()
	if failed {
		reply.Text = ChatApology
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, userMsg, reply)
	if !failed {
		s.history = append(s.history, userMsg, reply)
	}
	s.lastActive = now
	s.mu.Unlock()

	return reply, nil
}

func (s *ChatSession) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transcript)
}

func (s *ChatSession) Info() models.ChatSessionInfo {
	msgs := s.Messages()
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return models.ChatSessionInfo{
		SessionID:  s.ID,
		DocumentID: s.DocumentID,
		Truncated:  s.Truncated,
		Messages:   msgs,
	}
}

func (s *ChatSession) idleSince(t time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.Sub(s.lastActive)
}

func newChatMessage(role models.ChatRole, text string, at time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		Role:      role,
		Text:      text,
		Timestamp: at,
	}
}

// ChatRegistry keeps live sessions in memory and drops idle ones.
type ChatRegistry struct {
	invoker *Invoker
	idle    time.Duration
	log     *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*ChatSession
}

func NewChatRegistry(invoker *Invoker, idle time.Duration, log *logger.Logger) *ChatRegistry {
	if log == nil {
		log = logger.Nop()
	}
	return &ChatRegistry{
		invoker:  invoker,
		idle:     idle,
		log:      log.With("service", "chat"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*ChatSession),
	}
}

func (r *ChatRegistry) Create(userID, documentID uuid.UUID, documentText, greeting string) *ChatSession {
	s := NewChatSession(r.invoker, userID, documentID, documentText, greeting)
	s.now = r.now
	s.lastActive = r.now()

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.Info("chat session created", "session_id", s.ID, "document_id", documentID, "truncated", s.Truncated)
	return s
}

// Get returns the session if it exists, belongs to userID and is not idle.
func (r *ChatRegistry) Get(userID, sessionID uuid.UUID) (*ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if r.idle > 0 && s.idleSince(r.now()) > r.idle {
		delete(r.sessions, sessionID)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Sweep removes idle sessions and reports how many were dropped.
func (r *ChatRegistry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (r *ChatRegistry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("expired chat sessions", "count", n)
			}
		}
	}
}
