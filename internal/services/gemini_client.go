package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"learnai-backend/internal/models"
)

// GeminiClient is the text and chat backend. It is created once at startup
// and closed at shutdown.
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	topP        float32
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		modelName:   modelName,
		temperature: 0.3,
		topP:        0.95,
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// model returns a fresh handle so per-call settings never leak between
// concurrent requests.
func (g *GeminiClient) model() *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(g.temperature)
	m.SetTopP(g.topP)
	return m
}

func (g *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	m := g.model()
	if req.Schema != nil {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = req.Schema
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *GeminiClient) SendChat(ctx context.Context, system string, history []models.ChatMessage, message string) (string, error) {
	m := g.model()
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	cs := m.StartChat()
	cs.History = chatHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("Gemini chat error: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func chatHistory(messages []models.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		history = append(history, &genai.Content{
			Role:  string(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return history
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
