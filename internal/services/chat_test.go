package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
)

func TestChatSession_SendAppendsExchange(t *testing.T) {
	chat := &stubChat{reply: "Photosynthesis makes sugar."}
	s := NewChatSession(newTestInvoker(nil, chat, nil), uuid.New(), uuid.New(), "doc text", ChatGreeting("bio.pdf"))

	reply, err := s.Send(context.Background(), "What is photosynthesis?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Role != models.ChatRoleModel || reply.Text != "Photosynthesis makes sugar." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected greeting plus one exchange, got %d messages", len(msgs))
	}
	if msgs[1].Role != models.ChatRoleUser || msgs[2].ID != reply.ID {
		t.Fatalf("unexpected transcript order: %+v", msgs)
	}
	if len(chat.histories[0]) != 0 {
		t.Fatalf("greeting must not be sent to the model")
	}
}

func TestChatSession_FailureAppendsApology(t *testing.T) {
	chat := &stubChat{err: errBackend}
	s := NewChatSession(newTestInvoker(nil, chat, nil), uuid.New(), uuid.New(), "doc", "")

	reply, err := s.Send(context.Background(), "hi")
	if err != nil {
		t.Fatalf("backend failure must not surface as an error: %v", err)
	}
	if reply.Text != ChatApology {
		t.Fatalf("expected apology, got %q", reply.Text)
	}
	if n := len(s.Messages()); n != 2 {
		t.Fatalf("expected 2 transcript messages, got %d", n)
	}

	chat.mu.Lock()
	chat.err, chat.reply = nil, "ok"
	chat.mu.Unlock()
	if _, err := s.Send(context.Background(), "again"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chat.histories[1]) != 0 {
		t.Fatalf("failed turn must not reach model history, got %+v", chat.histories[1])
	}
}

func TestChatSession_CancelledTurnNotAppended(t *testing.T) {
	chat := &stubChat{block: true}
	s := NewChatSession(newTestInvoker(nil, chat, nil), uuid.New(), uuid.New(), "doc", "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Send(ctx, "hi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if n := len(s.Messages()); n != 0 {
		t.Fatalf("cancelled turn appended %d messages", n)
	}
}

func TestChatSession_ConcurrentSendsKeepPairsTogether(t *testing.T) {
	chat := &stubChat{reply: "answer"}
	s := NewChatSession(newTestInvoker(nil, chat, nil), uuid.New(), uuid.New(), "doc", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Send(context.Background(), "q"); err != nil {
				t.Errorf("send: %v", err)
			}
		}()
	}
	wg.Wait()

	msgs := s.Messages()
	if len(msgs) != 16 {
		t.Fatalf("expected 16 messages, got %d", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if msgs[i].Role != models.ChatRoleUser || msgs[i+1].Role != models.ChatRoleModel {
			t.Fatalf("interleaved transcript at %d: %s/%s", i, msgs[i].Role, msgs[i+1].Role)
		}
	}
	for i, h := range chat.histories {
		if len(h)%2 != 0 {
			t.Fatalf("call %d saw a partial exchange in history", i)
		}
	}
}

func TestChatSession_EmptyMessage(t *testing.T) {
	s := NewChatSession(newTestInvoker(nil, &stubChat{}, nil), uuid.New(), uuid.New(), "doc", "")
	if _, err := s.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatSession_TruncatesDocumentOnce(t *testing.T) {
	long := strings.Repeat("a", LimitChat+10)
	s := NewChatSession(newTestInvoker(nil, &stubChat{}, nil), uuid.New(), uuid.New(), long, "")
	if !s.Truncated {
		t.Fatalf("expected truncated flag")
	}
	if !strings.Contains(s.system, TruncationMarker) {
		t.Fatalf("expected truncation marker in system instruction")
	}
}

func TestChatRegistry_OwnershipAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewChatRegistry(newTestInvoker(nil, &stubChat{}, nil), time.Hour, logger.Nop())
	r.now = func() time.Time { return now }

	owner := uuid.New()
	s := r.Create(owner, uuid.New(), "doc", "")

	if _, err := r.Get(owner, s.ID); err != nil {
		t.Fatalf("expected session, got %v", err)
	}
	if _, err := r.Get(uuid.New(), s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected other user to be refused, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := r.Get(owner, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}
