package engine

import (
	"strings"

	"github.com/xaenox/markov-bot/internal/models"
)

// MinCommonWords is how many distinct lower-cased words a message must share
// with a notable message to recall it.
const MinCommonWords = 3

// MatchNotable returns the first notable row sharing at least MinCommonWords
// words with content.
func MatchNotable(content string, notable []models.Message) (models.Message, bool) {
	words := wordSet(content)
	for _, row := range notable {
		if commonWords(words, wordSet(row.Content)) >= MinCommonWords {
			return row, true
		}
	}
	return models.Message{}, false
}

func wordSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(content)) {
		set[w] = struct{}{}
	}
	return set
}

func commonWords(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
