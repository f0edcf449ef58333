package engine

import (
	"errors"
	"fmt"

	"github.com/xaenox/markov-bot/internal/models"
)

const (
	DefaultBaseProbability  = 0.02
	DefaultNotableThreshold = 2
	MaxImportLimit          = 100
)

// ErrGenerationUnavailable means no sentence could be produced: none of the
// requested tags has a trained model, or the retry budget ran out.
var ErrGenerationUnavailable = errors.New("engine: generation unavailable")

// ConfigError rejects an administrative change. Message is shown to the user
// as is and no state is modified.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func DefaultWeights() map[models.Tag]float64 {
	return map[models.Tag]float64{
		models.TagGeneral:  1,
		models.TagQuestion: 1,
		models.TagOpinion:  1.5,
		models.TagOpenQ:    1,
		models.TagHumor:    2,
		models.TagAnswer:   1.5,
		models.TagNotable:  2,
	}
}

// Settings is the runtime-tunable configuration: the channel binding, the
// baseline response probability and the tag weight table. It is reset to the
// configured defaults on restart.
type Settings struct {
	ChannelID       int64
	BaseProbability float64
	Weights         map[models.Tag]float64
}

func DefaultSettings() *Settings {
	return &Settings{
		BaseProbability: DefaultBaseProbability,
		Weights:         DefaultWeights(),
	}
}

// Bound reports whether events from channelID should be processed. A zero
// binding accepts every channel.
func (s *Settings) Bound(channelID int64) bool {
	return s.ChannelID == 0 || s.ChannelID == channelID
}

func (s *Settings) SetChannel(channelID int64) {
	s.ChannelID = channelID
}

func (s *Settings) SetTagWeight(tag models.Tag, weight float64) error {
	if !tag.Valid() {
		return &ConfigError{Message: fmt.Sprintf("Invalid tag: %s", tag)}
	}
	if weight < 0 {
		return &ConfigError{Message: "Tag weight must not be negative."}
	}
	if s.Weights == nil {
		s.Weights = make(map[models.Tag]float64)
	}
	s.Weights[tag] = weight
	return nil
}

func (s *Settings) SetBaseProbability(p float64) error {
	if p < 0 || p > 1 {
		return &ConfigError{Message: "Probability must be between 0 and 1."}
	}
	s.BaseProbability = p
	return nil
}

// snapshot copies the weight table so callers cannot mutate it.
func (s *Settings) snapshot() map[models.Tag]float64 {
	weights := make(map[models.Tag]float64, len(s.Weights))
	for tag, w := range s.Weights {
		weights[tag] = w
	}
	return weights
}
