package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/markov-bot/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		name    string
		content string
		want    []models.Tag
	}{
		{"empty", "", []models.Tag{models.TagGeneral}},
		{"plain", "the weather is nice", []models.Tag{models.TagGeneral}},
		{"question", "Is the sky blue?", []models.Tag{models.TagGeneral, models.TagQuestion}},
		{"opinion", "I AGREE with that", []models.Tag{models.TagGeneral, models.TagOpinion}},
		{"opinion needs whole word", "he is truer than most", []models.Tag{models.TagGeneral}},
		{"short open question", "why is that?", []models.Tag{models.TagGeneral, models.TagQuestion, models.TagOpenQ}},
		{"open question too long", "what do you think about the new release schedule", []models.Tag{models.TagGeneral}},
		{"open question needs whole word", "whatever man", []models.Tag{models.TagGeneral}},
		{"all three", "how is that right?", []models.Tag{models.TagGeneral, models.TagQuestion, models.TagOpinion, models.TagOpenQ}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, c.Classify(tt.content), "classification must be idempotent")
		})
	}
}

func TestClassifyNeverProducesReplyTimeTags(t *testing.T) {
	c := NewRuleClassifier()
	for _, content := range []string{"lol", "lmao", "true?", "what"} {
		for _, tag := range c.Classify(content) {
			assert.NotContains(t, []models.Tag{models.TagHumor, models.TagAnswer, models.TagNotable}, tag)
		}
	}
}

func TestIsHumor(t *testing.T) {
	assert.True(t, IsHumor("lol"))
	assert.True(t, IsHumor("LMAO"))
	assert.True(t, IsHumor("  lol "))
	assert.False(t, IsHumor("lol that is great"))
	assert.False(t, IsHumor("lollipop"))
}

func TestAntonymIsInvolution(t *testing.T) {
	for word := range opinionAntonyms {
		antonym, ok := Antonym(word)
		require.True(t, ok)
		back, ok := Antonym(antonym)
		require.True(t, ok)
		assert.Equal(t, word, back)
	}
	_, ok := Antonym("maybe")
	assert.False(t, ok)
}

func TestOpinionKeyword(t *testing.T) {
	word, ok := OpinionKeyword("That is TRUE and right")
	require.True(t, ok)
	assert.Equal(t, "true", word)

	_, ok = OpinionKeyword("no keywords here")
	assert.False(t, ok)
}

func TestCountOpinionWords(t *testing.T) {
	assert.Equal(t, 1, CountOpinionWords("true"))
	assert.Equal(t, 2, CountOpinionWords("right, true wrong"), "punctuated tokens are not counted")
	assert.Equal(t, 0, CountOpinionWords("nothing"))
}

func TestIsCurious(t *testing.T) {
	assert.True(t, IsCurious("Did you know cats sleep a lot"))
	assert.True(t, IsCurious("so what happened next"))
	assert.False(t, IsCurious("I know"))
}
