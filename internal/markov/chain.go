// Package markov implements a newline-delimited n-gram text chain that can be
// combined with other chains under per-chain weights.
package markov

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	begin = "\x00BEGIN"
	end   = "\x00END"

	stateSeparator = "\x1f"

	// maxWalk caps a single walk; longer walks are discarded.
	maxWalk = 1000
)

// DefaultStateSize is the number of preceding words a transition depends on.
const DefaultStateSize = 2

var ErrStateSizeMismatch = errors.New("markov: chains have different state sizes")

// malformed matches sentences with quotes or brackets, which produce
// unbalanced output when spliced.
var (
	malformed    = regexp.MustCompile(`(^')|('$)|\s'|'\s|["()\[\]]`)
	lineSplitter = regexp.MustCompile(`\s*\n\s*`)
)

// Rand is the randomness a chain needs to walk its transitions.
type Rand interface {
	Float64() float64
}

type transitions struct {
	words   []string
	index   map[string]int
	weights []float64
	total   float64
}

func (t *transitions) add(word string, weight float64) {
	if i, ok := t.index[word]; ok {
		t.weights[i] += weight
	} else {
		t.index[word] = len(t.words)
		t.words = append(t.words, word)
		t.weights = append(t.weights, weight)
	}
	t.total += weight
}

func (t *transitions) pick(rng Rand) string {
	target := rng.Float64() * t.total
	for i, w := range t.weights {
		target -= w
		if target < 0 {
			return t.words[i]
		}
	}
	return t.words[len(t.words)-1]
}

// Chain is an immutable n-gram model. States and transitions are kept in
// insertion order so a seeded Rand yields reproducible sentences.
type Chain struct {
	stateSize int
	states    map[string]*transitions
	sentences int
	rejoined  string
}

// NewNewlineText builds a chain treating every non-empty line of corpus as one
// sentence. Lines with quotes or brackets are skipped.
func NewNewlineText(corpus string, stateSize int) (*Chain, error) {
	if stateSize < 1 {
		return nil, fmt.Errorf("markov: invalid state size %d", stateSize)
	}
	c := &Chain{stateSize: stateSize, states: make(map[string]*transitions)}

	var kept []string
	for _, line := range lineSplitter.Split(corpus, -1) {
		line = strings.TrimSpace(line)
		if line == "" || malformed.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		c.addRun(words, 1)
		kept = append(kept, strings.Join(words, " "))
	}
	c.sentences = len(kept)
	c.rejoined = strings.Join(kept, "\n")
	return c, nil
}

func (c *Chain) addRun(words []string, weight float64) {
	items := make([]string, 0, c.stateSize+len(words)+1)
	for i := 0; i < c.stateSize; i++ {
		items = append(items, begin)
	}
	items = append(items, words...)
	items = append(items, end)

	for i := 0; i <= len(words); i++ {
		key := strings.Join(items[i:i+c.stateSize], stateSeparator)
		c.transitionsFor(key).add(items[i+c.stateSize], weight)
	}
}

func (c *Chain) transitionsFor(key string) *transitions {
	t, ok := c.states[key]
	if !ok {
		t = &transitions{index: make(map[string]int)}
		c.states[key] = t
	}
	return t
}

// Empty reports whether the chain learned no sentences.
func (c *Chain) Empty() bool {
	return c.sentences == 0
}

// Combine merges chains into one, scaling each chain's transition weights by
// the matching entry of weights.
func Combine(chains []*Chain, weights []float64) (*Chain, error) {
	if len(chains) == 0 {
		return nil, errors.New("markov: nothing to combine")
	}
	if len(weights) != len(chains) {
		return nil, fmt.Errorf("markov: %d chains but %d weights", len(chains), len(weights))
	}

	stateSize := chains[0].stateSize
	combined := &Chain{stateSize: stateSize, states: make(map[string]*transitions)}
	var texts []string
	for i, chain := range chains {
		if chain.stateSize != stateSize {
			return nil, ErrStateSizeMismatch
		}
		for key, src := range chain.states {
			dst := combined.transitionsFor(key)
			for j, word := range src.words {
				dst.add(word, src.weights[j]*weights[i])
			}
		}
		combined.sentences += chain.sentences
		if chain.rejoined != "" {
			texts = append(texts, chain.rejoined)
		}
	}
	combined.rejoined = strings.Join(texts, "\n")
	return combined, nil
}

// Walk produces one raw word sequence from the chain.
func (c *Chain) Walk(rng Rand) []string {
	if c.Empty() {
		return nil
	}
	state := make([]string, c.stateSize)
	for i := range state {
		state[i] = begin
	}

	var words []string
	for {
		t, ok := c.states[strings.Join(state, stateSeparator)]
		if !ok || len(t.words) == 0 {
			return words
		}
		next := t.pick(rng)
		if next == end {
			return words
		}
		words = append(words, next)
		if len(words) > maxWalk {
			return nil
		}
		state = append(state[1:], next)
	}
}
