package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagValid(t *testing.T) {
	for _, tag := range AllTags {
		assert.True(t, tag.Valid(), tag)
	}
	assert.False(t, Tag("sarcasm").Valid())
	assert.False(t, Tag("").Valid())
}

func TestFilterMatch(t *testing.T) {
	msg := Message{Author: "alice", Content: "is it raining?", Tag: TagQuestion}

	assert.True(t, Filter{}.Match(msg))
	assert.True(t, Filter{Content: "is it raining?"}.Match(msg))
	assert.False(t, Filter{Content: "is it snowing?"}.Match(msg))
	assert.True(t, Filter{Tags: []Tag{TagOpenQ, TagQuestion}}.Match(msg))
	assert.False(t, Filter{Content: "is it raining?", Tags: []Tag{TagAnswer}}.Match(msg))
}
