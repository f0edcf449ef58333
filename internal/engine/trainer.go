package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/xaenox/markov-bot/internal/markov"
	"github.com/xaenox/markov-bot/internal/models"
	"github.com/xaenox/markov-bot/internal/storage"
)

// ModelSet maps each trained tag to its chain. A published ModelSet is never
// modified.
type ModelSet map[models.Tag]*markov.Chain

// Models publishes the current ModelSet. Retraining builds a new set off to
// the side and swaps it in with a single store.
type Models struct {
	current atomic.Pointer[ModelSet]
}

func NewModels() *Models {
	m := &Models{}
	empty := ModelSet{}
	m.current.Store(&empty)
	return m
}

func (m *Models) Load() ModelSet {
	return *m.current.Load()
}

func (m *Models) Publish(set ModelSet) {
	m.current.Store(&set)
}

// Train builds one newline-delimited chain per distinct tag in the store.
// Tags whose corpus yields no usable sentence are left out of the set.
func Train(ctx context.Context, store storage.Storage, stateSize int) (ModelSet, error) {
	tags, err := store.DistinctTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	set := make(ModelSet, len(tags))
	for _, tag := range tags {
		content, err := store.ContentByTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus for tag %s: %w", tag, err)
		}
		chain, err := markov.NewNewlineText(strings.Join(content, "\n"), stateSize)
		if err != nil {
			return nil, fmt.Errorf("failed to train tag %s: %w", tag, err)
		}
		if chain.Empty() {
			continue
		}
		set[tag] = chain
	}
	return set, nil
}
