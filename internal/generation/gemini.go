package generation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"route-forge/internal/prompt"
)

// Gemini generates text with the Gemini API
type Gemini struct {
	client      *genai.Client
	models      Models
	temperature float32
	maxTokens   int32
}

// NewGemini creates a Gemini adapter
func NewGemini(ctx context.Context, apiKey, baseURL string, models Models, temperature float32, maxTokens int) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Err: fmt.Errorf("failed to create gemini client: %w", err)}
	}

	return &Gemini{
		client:      client,
		models:      models,
		temperature: temperature,
		maxTokens:   int32(maxTokens),
	}, nil
}

// Generate sends the system text as a system instruction and the user text as content
func (c *Gemini) Generate(ctx context.Context, p *prompt.Payload) (string, error) {
	model := c.models.For(p.Profile)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(p.User), cfg)
	if err != nil {
		return "", classify(err, p.Profile, model, geminiStatus)
	}

	text := resp.Text()
	if text == "" {
		return "", emptyReply(p.Profile, model)
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
