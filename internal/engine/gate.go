package engine

import "github.com/xaenox/markov-bot/internal/models"

// Probability is the chance of engaging with a message carrying tags: the
// baseline plus the weight of every weighted tag, capped at 1.
func Probability(settings *Settings, tags []models.Tag) float64 {
	p := settings.BaseProbability
	for _, tag := range tags {
		if w, ok := settings.Weights[tag]; ok {
			p += w
		}
	}
	if p > 1 {
		return 1
	}
	return p
}

// Accept draws once from rng and accepts when the draw falls below p.
func Accept(rng Rand, p float64) bool {
	return rng.Float64() < p
}
