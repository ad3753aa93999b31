package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/logger"
)

// Chat completions can be slow for long prompts.
const aiChatTimeout = 90 * time.Second

// AIConnection carries a user's AI provider settings, API key already
// decrypted.
type AIConnection struct {
	Host   string
	APIKey string
	Model  string
}

type aiChatClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewAIChatClient constructs a stateless [AIChatClient] for OpenAI-compatible
// providers.
func NewAIChatClient(logger *logger.Logger) AIChatClient {
	return &aiChatClient{
		client: newRestyClient("", aiChatTimeout),
		logger: logger,
	}
}

type aiChatRequest struct {
	Model            string          `json:"model"`
	Messages         []aiChatMessage `json:"messages"`
	Temperature      float64         `json:"temperature"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
	TopP             float64         `json:"top_p"`
	Stream           bool            `json:"stream"`
	ResponseFormat   struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type aiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *aiChatClient) Chat(ctx context.Context, conn AIConnection, system, prompt string) (string, error) {
	if conn.Host == "" || conn.APIKey == "" || conn.Model == "" {
		return "", fmt.Errorf("%w: ai provider host, key or model is empty", ErrNotConfigured)
	}

	body := aiChatRequest{
		Model: conn.Model,
		Messages: []aiChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		TopP:        1,
		Stream:      false,
	}
	body.ResponseFormat.Type = "json_object"

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+conn.APIKey).
		SetBody(body).
		Post(strings.TrimRight(conn.Host, "/") + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("ai chat request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var parsed aiChatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode ai chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai chat response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
