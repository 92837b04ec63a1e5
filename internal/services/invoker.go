package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"learnai-backend/internal/logger"
	"learnai-backend/internal/models"
)

// ErrEmptyResponse is returned by backends that answered without content.
var ErrEmptyResponse = errors.New("model returned no content")

// TextRequest is one single-shot generation call.
type TextRequest struct {
	Prompt string
	// Schema, when set, asks the backend for JSON conforming to it.
	Schema *genai.Schema
}

type TextModel interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// ChatModel answers one turn given the committed transcript. It must not
// keep any history of its own between calls.
type ChatModel interface {
	SendChat(ctx context.Context, system string, history []models.ChatMessage, message string) (string, error)
}

// SpeechModel turns a script into raw PCM s16le mono 24 kHz samples.
type SpeechModel interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

// RawResult is an uninterpreted backend payload. The zero value is the
// "no result" sentinel.
type RawResult struct {
	Text  string
	Audio []byte
}

func (r RawResult) Empty() bool {
	return strings.TrimSpace(r.Text) == "" && len(r.Audio) == 0
}

// AudioBase64 encodes the audio payload, or returns nil when there is none.
func (r RawResult) AudioBase64() *string {
	if len(r.Audio) == 0 {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(r.Audio)
	return &s
}

type invokeOptions struct {
	schema *genai.Schema
	audio  bool
}

type InvokeOption func(*invokeOptions)

func WithSchema(schema *genai.Schema) InvokeOption {
	return func(o *invokeOptions) { o.schema = schema }
}

// WithAudio treats the prompt as a finished script and requests speech.
func WithAudio() InvokeOption {
	return func(o *invokeOptions) { o.audio = true }
}

// Invoker is the single entry point to the model backends. Backend errors
// stop here: they are logged and turned into an empty RawResult.
type Invoker struct {
	text        TextModel
	chat        ChatModel
	speech      SpeechModel
	log         *logger.Logger
	rateChan    chan struct{} // Token bucket
	rateTimeout time.Duration
}

func NewInvoker(text TextModel, chat ChatModel, speech SpeechModel, concurrentReqs int, log *logger.Logger) *Invoker {
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &Invoker{
		text:        text,
		chat:        chat,
		speech:      speech,
		log:         log.With("service", "invoker"),
		rateChan:    rateChan,
		rateTimeout: 5 * time.Minute,
	}
}

// acquireRate blocks until a rate slot is available
func (inv *Invoker) acquireRate(ctx context.Context) error {
	timer := time.NewTimer(inv.rateTimeout)
	defer timer.Stop()

	select {
	case <-inv.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (inv *Invoker) releaseRate() {
	inv.rateChan <- struct{}{}
}

func (inv *Invoker) Invoke(ctx context.Context, prompt string, opts ...InvokeOption) RawResult {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := inv.acquireRate(ctx); err != nil {
		inv.fail("acquire", err)
		return RawResult{}
	}
	defer inv.releaseRate()

	if o.audio {
		if inv.speech == nil {
			inv.log.Warn("speech backend not configured")
			return RawResult{}
		}
		audio, err := inv.speech.Synthesize(ctx, prompt)
		if err != nil {
			inv.fail("synthesize", err)
			return RawResult{}
		}
		return RawResult{Audio: audio}
	}

	text, err := inv.text.GenerateText(ctx, TextRequest{Prompt: prompt, Schema: o.schema})
	if err != nil {
		inv.fail("generate", err)
		return RawResult{}
	}
	return RawResult{Text: text}
}

// InvokeAudio runs the two-phase audio call: a spoken script first, then
// speech for that script. No script means no speech call.
func (inv *Invoker) InvokeAudio(ctx context.Context, scriptPrompt string) RawResult {
	script := inv.Invoke(ctx, scriptPrompt)
	if strings.TrimSpace(script.Text) == "" {
		inv.log.Warn("audio script phase returned nothing, skipping speech")
		return RawResult{}
	}
	return inv.Invoke(ctx, script.Text, WithAudio())
}

// InvokeChat sends one chat turn. Like Invoke, failures become an empty
// result; callers inspect ctx to tell cancellation from backend failure.
func (inv *Invoker) InvokeChat(ctx context.Context, system string, history []models.ChatMessage, message string) RawResult {
	if inv.chat == nil {
		inv.log.Warn("chat backend not configured")
		return RawResult{}
	}
	if err := inv.acquireRate(ctx); err != nil {
		inv.fail("acquire", err)
		return RawResult{}
	}
	defer inv.releaseRate()

	reply, err := inv.chat.SendChat(ctx, system, history, message)
	if err != nil {
		inv.fail("chat", err)
		return RawResult{}
	}
	return RawResult{Text: reply}
}

func (inv *Invoker) fail(op string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		inv.log.Debug("model call cancelled", "op", op, "error", err)
		return
	}
	inv.log.Warn("model call failed", "op", op, "error", err)
}
