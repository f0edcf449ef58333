package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/markov-bot/internal/models"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	messages []models.Message
	nextID   int64
	closed   bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{nextID: 1}
}

func (s *MemoryStorage) Append(ctx context.Context, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	msg.ID = s.nextID
	s.nextID++
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemoryStorage) DistinctTags(ctx context.Context) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[models.Tag]struct{})
	for _, m := range s.messages {
		seen[m.Tag] = struct{}{}
	}
	tags := make([]models.Tag, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags, nil
}

func (s *MemoryStorage) ContentByTag(ctx context.Context, tag models.Tag) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var content []string
	for _, m := range s.messages {
		if m.Tag == tag {
			content = append(content, m.Content)
		}
	}
	return content, nil
}

func (s *MemoryStorage) Rows(ctx context.Context, filter models.Filter) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.Message
	for _, m := range s.messages {
		if filter.Match(m) {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

func (s *MemoryStorage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

func (s *MemoryStorage) CountByTag(ctx context.Context) (map[models.Tag]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Tag]int)
	for _, m := range s.messages {
		counts[m.Tag]++
	}
	return counts, nil
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
