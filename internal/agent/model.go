package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// ErrEmptyCompletion is returned when the endpoint answers without choices
var ErrEmptyCompletion = errors.New("model returned no choices")

// HTTPModelConfig describes an OpenAI-compatible endpoint
type HTTPModelConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature *float64
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPModel calls {BaseURL}/chat/completions
type HTTPModel struct {
	client *resty.Client
	config HTTPModelConfig
}

// NewHTTPModel creates a model client
func NewHTTPModel(cfg HTTPModelConfig) *HTTPModel {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HTTPModel{client: client, config: cfg}
}

// Complete implements Model
func (m *HTTPModel) Complete(ctx context.Context, messages []Message) (string, error) {
	var out chatResponse
	var failure apiError
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       m.config.Model,
			Messages:    messages,
			Temperature: m.config.Temperature,
		}).
		SetResult(&out).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		if msg := failure.Error.Message; msg != "" {
			return "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode(), msg)
		}
		return "", fmt.Errorf("chat completion: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
