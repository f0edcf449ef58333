// Package moderation screens generated replies before they are sent.
package moderation

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Moderator interface {
	Flagged(ctx context.Context, text string) (bool, error)
}

// Noop lets every reply through.
type Noop struct{}

func (Noop) Flagged(context.Context, string) (bool, error) {
	return false, nil
}

type OpenAIModerator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIModerator(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIModerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.ModerationTextLatest
	}
	return &OpenAIModerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (m *OpenAIModerator) Flagged(ctx context.Context, text string) (bool, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: m.model,
	})
	if err != nil {
		return false, fmt.Errorf("moderation request failed: %w", err)
	}

	for _, result := range resp.Results {
		if result.Flagged {
			m.logger.Info("Reply flagged by moderation", zap.String("model", resp.Model))
			return true, nil
		}
	}
	return false, nil
}
