package engine

import (
	"fmt"

	"github.com/xaenox/markov-bot/internal/markov"
	"github.com/xaenox/markov-bot/internal/models"
)

// Rand is the random source shared by the gate and the generator.
type Rand = markov.Rand

const (
	preferredWeight = 3
	defaultWeight   = 2
	baseWeight      = 1
)

// Combiner blends the per-tag chains of the requested tags into one
// throwaway chain and samples a sentence from it.
type Combiner struct {
	models *Models
	rng    Rand
	opts   markov.SentenceOptions
}

func NewCombiner(models *Models, rng Rand, opts markov.SentenceOptions) *Combiner {
	return &Combiner{models: models, rng: rng, opts: opts}
}

// Generate returns ErrGenerationUnavailable when none of tags is trained or
// no valid sentence turns up within the retry budget. With preferred set,
// preferred tags weigh 3 and the rest 1; otherwise every tag weighs 2.
func (c *Combiner) Generate(tags []models.Tag, preferred []models.Tag) (string, error) {
	set := c.models.Load()

	var (
		chains  []*markov.Chain
		weights []float64
	)
	for _, tag := range tags {
		chain, ok := set[tag]
		if !ok {
			continue
		}
		chains = append(chains, chain)
		weights = append(weights, tagWeight(tag, tags, preferred))
	}
	if len(chains) == 0 {
		return "", ErrGenerationUnavailable
	}

	combined, err := markov.Combine(chains, weights)
	if err != nil {
		return "", fmt.Errorf("failed to combine models: %w", err)
	}
	sentence, ok := combined.MakeSentence(c.rng, c.opts)
	if !ok {
		return "", ErrGenerationUnavailable
	}
	return sentence, nil
}

func tagWeight(tag models.Tag, tags, preferred []models.Tag) float64 {
	if len(preferred) > 0 {
		if containsTag(preferred, tag) {
			return preferredWeight
		}
		return baseWeight
	}
	if containsTag(tags, tag) {
		return defaultWeight
	}
	return baseWeight
}

func containsTag(tags []models.Tag, tag models.Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
