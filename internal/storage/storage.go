package storage

import (
	"context"
	"errors"

	"github.com/xaenox/markov-bot/internal/models"
)

var ErrClosed = errors.New("storage: closed")

// Storage is the append-only corpus of tagged messages. Rows are returned in
// insertion order.
type Storage interface {
	Append(ctx context.Context, msg models.Message) error
	DistinctTags(ctx context.Context) ([]models.Tag, error)
	ContentByTag(ctx context.Context, tag models.Tag) ([]string, error)
	Rows(ctx context.Context, filter models.Filter) ([]models.Message, error)
	Count(ctx context.Context) (int, error)
	CountByTag(ctx context.Context) (map[models.Tag]int, error)
	Close() error
}
