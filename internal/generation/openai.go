package generation

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"route-forge/internal/prompt"
)

// OpenAI generates text with the chat completions API
type OpenAI struct {
	client      *openai.Client
	models      Models
	temperature float32
	maxTokens   int
}

// NewOpenAI creates an OpenAI adapter. baseURL may point at any
// OpenAI-compatible endpoint; empty means the public API.
func NewOpenAI(apiKey, baseURL string, models Models, temperature float32, maxTokens int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		models:      models,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate sends the payload as a system + user message pair
func (c *OpenAI) Generate(ctx context.Context, p *prompt.Payload) (string, error) {
	model := c.models.For(p.Profile)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classify(err, p.Profile, model, openAIStatus)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", emptyReply(p.Profile, model)
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
