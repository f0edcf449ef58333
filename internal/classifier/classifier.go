package classifier

import (
	"regexp"
	"strings"

	"github.com/xaenox/markov-bot/internal/models"
)

type Classifier interface {
	Classify(content string) []models.Tag
}

// rule assigns tag when pattern matches the message text.
type rule struct {
	tag     models.Tag
	pattern *regexp.Regexp
}

var (
	questionPattern = regexp.MustCompile(`\?$`)
	opinionPattern  = regexp.MustCompile(`(?i)\b(agree|disagree|true|false|right|wrong|correct|incorrect)\b`)
	openQPattern    = regexp.MustCompile(`(?i)^\b(why|how|what)\b.{0,20}$`)
	humorPattern    = regexp.MustCompile(`(?i)^\b(lol|lmao)\b$`)
)

// rules are evaluated independently; any subset may match.
var rules = []rule{
	{tag: models.TagQuestion, pattern: questionPattern},
	{tag: models.TagOpinion, pattern: opinionPattern},
	{tag: models.TagOpenQ, pattern: openQPattern},
}

var opinionAntonyms = map[string]string{
	"agree":     "disagree",
	"disagree":  "agree",
	"true":      "false",
	"false":     "true",
	"right":     "wrong",
	"wrong":     "right",
	"correct":   "incorrect",
	"incorrect": "correct",
}

var curiosityPhrases = []string{
	"did you know",
	"have you heard",
	"have you seen",
	"did you see",
	"what does this mean?",
	"whats that",
	"whats that mean",
	"what happened",
}

type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify returns general followed by every rule tag the content matches.
func (c *RuleClassifier) Classify(content string) []models.Tag {
	tags := []models.Tag{models.TagGeneral}
	for _, r := range rules {
		if r.pattern.MatchString(content) {
			tags = append(tags, r.tag)
		}
	}
	return tags
}

func IsQuestion(content string) bool {
	return questionPattern.MatchString(content) || openQPattern.MatchString(content)
}

// IsHumor reports whether the whole message is a laugh ("lol" or "lmao").
func IsHumor(content string) bool {
	return humorPattern.MatchString(strings.TrimSpace(content))
}

// OpinionKeyword returns the first opinion keyword in content, lower-cased.
func OpinionKeyword(content string) (string, bool) {
	match := opinionPattern.FindString(content)
	if match == "" {
		return "", false
	}
	return strings.ToLower(match), true
}

// CountOpinionWords counts whitespace tokens that are exactly an opinion keyword.
func CountOpinionWords(content string) int {
	count := 0
	for _, word := range strings.Fields(strings.ToLower(content)) {
		if _, ok := opinionAntonyms[word]; ok {
			count++
		}
	}
	return count
}

// Antonym returns the fixed complement of an opinion keyword.
func Antonym(word string) (string, bool) {
	antonym, ok := opinionAntonyms[strings.ToLower(word)]
	return antonym, ok
}

func IsCurious(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range curiosityPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
