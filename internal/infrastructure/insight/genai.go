package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Completer is the reasoning capability: a prompt in, raw model text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenAICompleter asks Gemini for a JSON response.
type GenAICompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGenAICompleter(ctx context.Context, apiKey, model string) (*GenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAICompleter{client: client, model: model, temperature: 0.4}, nil
}

func (c *GenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	temp := c.temperature
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temp,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("GenAI returned no text")
	}
	return text, nil
}

// Name returns the completer name used in logs.
func (c *GenAICompleter) Name() string {
	return "genai:" + c.model
}
