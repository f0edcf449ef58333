package engine

import (
	"context"
	"fmt"

	"github.com/xaenox/markov-bot/internal/models"
	"go.uber.org/zap"
)

// HistoryMessage is one past message of a channel.
type HistoryMessage struct {
	Author   string
	Content  string
	FromSelf bool
}

// HistorySource returns up to limit recent messages of a channel, newest
// first.
type HistorySource interface {
	Recent(ctx context.Context, channelID int64, limit int) ([]HistoryMessage, error)
}

// ImportResult reports what an import did. Clamped is set when the requested
// limit exceeded MaxImportLimit.
type ImportResult struct {
	Limit    int
	Imported int
	Clamped  bool
}

func (e *Engine) SetChannel(channelID int64) {
	e.settings.SetChannel(channelID)
	e.logger.Info("Channel bound", zap.Int64("channel_id", channelID))
}

func (e *Engine) SetTagWeight(tag models.Tag, weight float64) error {
	if err := e.settings.SetTagWeight(tag, weight); err != nil {
		return err
	}
	e.logger.Info("Tag weight changed", zap.String("tag", string(tag)), zap.Float64("weight", weight))
	return nil
}

func (e *Engine) SetBaseProbability(p float64) error {
	if err := e.settings.SetBaseProbability(p); err != nil {
		return err
	}
	e.logger.Info("Base probability changed", zap.Float64("probability", p))
	return nil
}

// Reload retrains every tag model from the store and publishes the new set.
// On failure the previous set stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	set, err := Train(ctx, e.storage, e.stateSize)
	if err != nil {
		return fmt.Errorf("failed to train models: %w", err)
	}
	e.models.Publish(set)

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, string(tag))
	}
	e.logger.Info("Models trained", zap.Strings("tags", tags))
	return nil
}

// Import stores up to limit recent messages of the bound channel (or of
// channelID when unbound) and retrains. Imported messages skip the response
// gate.
func (e *Engine) Import(ctx context.Context, channelID int64, limit int) (ImportResult, error) {
	if limit <= 0 {
		return ImportResult{}, &ConfigError{Message: "Usage: /import <number_of_messages>"}
	}
	if e.history == nil {
		return ImportResult{}, fmt.Errorf("no history source configured")
	}

	result := ImportResult{Limit: limit}
	if limit > MaxImportLimit {
		result.Limit = MaxImportLimit
		result.Clamped = true
	}
	if e.settings.ChannelID != 0 {
		channelID = e.settings.ChannelID
	}

	messages, err := e.history.Recent(ctx, channelID, result.Limit)
	if err != nil {
		return result, fmt.Errorf("failed to fetch history: %w", err)
	}
	for _, msg := range messages {
		if msg.FromSelf {
			continue
		}
		for _, tag := range e.classifier.Classify(msg.Content) {
			e.save(ctx, msg.Author, msg.Content, tag)
		}
		result.Imported++
	}

	if err := e.Reload(ctx); err != nil {
		return result, err
	}
	e.logger.Info("History imported",
		zap.Int64("channel_id", channelID),
		zap.Int("limit", result.Limit),
		zap.Int("imported", result.Imported))
	return result, nil
}

func (e *Engine) Stats(ctx context.Context) (models.Stats, error) {
	total, err := e.storage.Count(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count messages: %w", err)
	}
	perTag, err := e.storage.CountByTag(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count messages by tag: %w", err)
	}
	return models.Stats{
		BaseProbability: e.settings.BaseProbability,
		Weights:         e.settings.snapshot(),
		TotalMessages:   total,
		PerTag:          perTag,
	}, nil
}
