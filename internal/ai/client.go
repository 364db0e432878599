package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// TextGenerator is the capability the feedback and question generators need.
// A nil TextGenerator means the provider is not configured; callers must fall
// back to deterministic content.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client wraps the OpenAI-compatible chat completion API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a client against api.openai.com or any compatible
// baseURL (Ollama, vLLM and friends).
func NewClient(baseURL, apiKey, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}
}

func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
