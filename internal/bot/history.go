package bot

import (
	"context"
	"sync"

	"github.com/xaenox/markov-bot/internal/engine"
)

const DefaultHistorySize = 500

// History keeps the most recent messages seen in each chat. The Bot API
// cannot fetch past messages, so imports read from here instead.
type History struct {
	mu    sync.Mutex
	size  int
	chats map[int64][]engine.HistoryMessage
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, chats: make(map[int64][]engine.HistoryMessage)}
}

func (h *History) Record(chatID int64, msg engine.HistoryMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.chats[chatID], msg)
	if len(msgs) > h.size {
		msgs = append([]engine.HistoryMessage(nil), msgs[len(msgs)-h.size:]...)
	}
	h.chats[chatID] = msgs
}

// Recent returns up to limit messages of chatID, newest first.
func (h *History) Recent(ctx context.Context, chatID int64, limit int) ([]engine.HistoryMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.chats[chatID]
	if limit > len(msgs) {
		limit = len(msgs)
	}
	out := make([]engine.HistoryMessage, 0, limit)
	for i := len(msgs) - 1; i >= len(msgs)-limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}
