package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
)

type stubText struct {
	mu      sync.Mutex
	replies []string // consumed in order; the last one repeats
	err     error
	calls   int32
	last    TextRequest
}

func (s *stubText) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", ErrEmptyResponse
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func (s *stubText) Calls() int { return int(atomic.LoadInt32(&s.calls)) }

type stubSpeech struct {
	audio []byte
	err   error
	calls int32
	// gate, when set, blocks Synthesize until closed.
	gate chan struct{}
}

func (s *stubSpeech) Synthesize(ctx context.Context, script string) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

func (s *stubSpeech) Calls() int { return int(atomic.LoadInt32(&s.calls)) }

type stubChat struct {
	mu        sync.Mutex
	reply     string
	err       error
	histories [][]models.ChatMessage
	// block, when set, waits for ctx to be cancelled.
	block bool
}

func (s *stubChat) SendChat(ctx context.Context, system string, history []models.ChatMessage, message string) (string, error) {
	s.mu.Lock()
	s.histories = append(s.histories, history)
	block, reply, err := s.block, s.reply, s.err
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (c *memCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

var errBackend = errors.New("backend unavailable")

func newTestInvoker(text TextModel, chat ChatModel, speech SpeechModel) *Invoker {
	return NewInvoker(text, chat, speech, 2, logger.Nop())
}
