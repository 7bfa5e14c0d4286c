package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"studyrag/internal/domain"
)

// Client produces chat completions via an OpenAI-compatible API.
type Client struct {
	client *openai.Client
	model  string
}

// Config configures the chat completion client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates the completion client. The API key is read from the
// environment variable named by APIKeyEnv; absence is fatal before any
// network call.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s is not set", domain.ErrMissingCredential, cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{client: openai.NewClientWithConfig(apiCfg), model: cfg.Model}, nil
}

// Complete sends one system+user message pair and returns the generated
// text verbatim.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response has no choices", domain.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: HTTP %d - %s", domain.ErrRemoteRejected, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: HTTP %d - %v", domain.ErrRemoteRejected, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
}
