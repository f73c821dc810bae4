package agent

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"vaidhya-backend/internal/conversation"
)

// ErrRateLimited reports that the generation collaborator rejected the call
// with an HTTP 429. The orchestrator maps it to a dedicated fallback reply.
var ErrRateLimited = errors.New("generation rate limited")

// ErrEmptyCompletion reports a well-formed response that carried no usable
// completion content.
var ErrEmptyCompletion = errors.New("generation returned no content")

// Generator produces the raw model completion for one dialogue turn. The
// history is the full session context; userContent is the composed final user
// message carrying current symptoms and the probability summary.
type Generator interface {
	Generate(ctx context.Context, history []conversation.ContextMessage, userContent string) (string, error)
}

// GroqClient calls an OpenAI-compatible chat completion endpoint (Groq by
// default). Model and base URL are configurable.
type GroqClient struct {
	client *openai.Client
	model  string
}

// NewGroqClient builds a generation client. baseURL and model fall back to
// the Groq defaults when empty.
func NewGroqClient(apiKey, baseURL, model string) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "meta-llama/llama-4-scout-17b-16e-instruct"
	}
	return &GroqClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate sends system prompt + history + composed user message and returns
// the assistant completion text.
func (c *GroqClient) Generate(ctx context.Context, history []conversation.ContextMessage, userContent string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := string(m.Role)
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userContent,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", ErrRateLimited
		}
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
