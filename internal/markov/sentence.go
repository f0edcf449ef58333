package markov

import (
	"math"
	"strings"
)

const (
	DefaultTries           = 100
	DefaultMaxOverlapRatio = 0.7
	DefaultMaxOverlapTotal = 15
)

// SentenceOptions bound sentence sampling. With TestOutput set, a candidate
// that copies too long a run of words from the training text is rejected.
// It is off by default: small corpora can only reproduce their own lines.
type SentenceOptions struct {
	Tries           int
	TestOutput      bool
	MaxOverlapRatio float64
	MaxOverlapTotal int
}

func DefaultSentenceOptions() SentenceOptions {
	return SentenceOptions{
		Tries:           DefaultTries,
		TestOutput:      false,
		MaxOverlapRatio: DefaultMaxOverlapRatio,
		MaxOverlapTotal: DefaultMaxOverlapTotal,
	}
}

// MakeSentence walks the chain up to opts.Tries times and returns the first
// valid sentence.
func (c *Chain) MakeSentence(rng Rand, opts SentenceOptions) (string, bool) {
	tries := opts.Tries
	if tries <= 0 {
		tries = DefaultTries
	}
	for i := 0; i < tries; i++ {
		words := c.Walk(rng)
		if len(words) == 0 {
			continue
		}
		if opts.TestOutput && !c.original(words, opts) {
			continue
		}
		return strings.Join(words, " "), true
	}
	return "", false
}

// original reports whether words avoid reproducing more than the allowed
// number of consecutive words of the training text.
func (c *Chain) original(words []string, opts SentenceOptions) bool {
	overlapMax := int(math.RoundToEven(opts.MaxOverlapRatio * float64(len(words))))
	if opts.MaxOverlapTotal < overlapMax {
		overlapMax = opts.MaxOverlapTotal
	}
	overlapOver := overlapMax + 1
	gramCount := len(words) - overlapMax
	if gramCount < 1 {
		gramCount = 1
	}

	for i := 0; i < gramCount; i++ {
		stop := i + overlapOver
		if stop > len(words) {
			stop = len(words)
		}
		if strings.Contains(c.rejoined, strings.Join(words[i:stop], " ")) {
			return false
		}
	}
	return true
}
