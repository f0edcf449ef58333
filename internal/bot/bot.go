package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/xaenox/markov-bot/internal/engine"
	"github.com/xaenox/markov-bot/internal/moderation"
	"github.com/xaenox/markov-bot/internal/worker"
	"go.uber.org/zap"
)

// sender is the part of the Bot API client used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	AdminIDs         []int64
	ReactionTokens   []string
	NotableThreshold int
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	engine    *engine.Engine
	queue     *worker.Queue
	moderator moderation.Moderator
	history   *History
	reactions *reactionTracker
	admins    map[int64]struct{}
	logger    *zap.Logger
}

func New(token string, eng *engine.Engine, queue *worker.Queue, moderator moderation.Moderator, history *History, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, eng, queue, moderator, history, opts, logger)
	b.api = api
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return b, nil
}

func newBot(s sender, eng *engine.Engine, queue *worker.Queue, moderator moderation.Moderator, history *History, opts Options, logger *zap.Logger) *Bot {
	if moderator == nil {
		moderator = moderation.Noop{}
	}
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}
	if len(admins) == 0 {
		logger.Warn("No admin IDs configured, admin commands are disabled")
	}
	threshold := opts.NotableThreshold
	if threshold <= 0 {
		threshold = engine.DefaultNotableThreshold
	}

	return &Bot{
		s:         s,
		engine:    eng,
		queue:     queue,
		moderator: moderator,
		history:   history,
		reactions: newReactionTracker(opts.ReactionTokens, threshold),
		admins:    admins,
		logger:    logger,
	}
}

// Start feeds updates to the worker queue until ctx is cancelled. Every
// update is handled to completion before the next one starts.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			if !b.enqueue(ctx, update.Message) {
				return nil
			}
		}
	}
}

// enqueue hands message to the worker queue and reports whether the bot
// should keep receiving updates.
func (b *Bot) enqueue(ctx context.Context, message *tgbotapi.Message) bool {
	eventID := uuid.New().String()
	err := b.queue.Submit(ctx, func(ctx context.Context) {
		b.handleMessage(ctx, eventID, message)
	})
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, worker.ErrStopped) {
		b.logger.Debug("Dropping update during shutdown", zap.String("event_id", eventID))
		return false
	}
	b.logger.Error("Failed to queue message", zap.Error(err), zap.String("event_id", eventID))
	return false
}

func (b *Bot) handleMessage(ctx context.Context, eventID string, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := messageText(message)
	if content == "" {
		return
	}
	chatID := message.Chat.ID

	if message.ReplyToMessage != nil && b.reactions.isReaction(content) {
		b.handleReaction(ctx, eventID, chatID, reactorID(message), message.ReplyToMessage)
		return
	}

	author := authorName(message)
	b.history.Record(chatID, engine.HistoryMessage{Author: author, Content: content})

	in := engine.Incoming{Author: author, Content: content, ChannelID: chatID}
	if reply := message.ReplyToMessage; reply != nil && messageText(reply) != "" {
		in.ReplyTo = &engine.Referenced{Author: authorName(reply), Content: messageText(reply)}
	}

	out := b.engine.HandleMessage(ctx, in)
	b.logger.Debug("Message handled",
		zap.String("event_id", eventID),
		zap.Int64("chat_id", chatID),
		zap.String("state", string(out.State)),
		zap.Any("tags", out.Tags),
		zap.Float64("probability", out.Probability))

	if out.State == engine.StateReplied {
		b.sendReply(ctx, chatID, out.Text)
	}
}

func (b *Bot) handleReaction(ctx context.Context, eventID string, chatID, userID int64, target *tgbotapi.Message) {
	if !b.reactions.add(chatID, target.MessageID, userID) {
		return
	}
	content := messageText(target)
	if content == "" {
		return
	}
	b.logger.Info("Message became notable",
		zap.String("event_id", eventID),
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", target.MessageID))
	b.engine.HandleReaction(ctx, engine.Reaction{
		Author:    authorName(target),
		Content:   content,
		ChannelID: chatID,
	})
}

// sendReply delivers generated text unless moderation flags it.
func (b *Bot) sendReply(ctx context.Context, chatID int64, text string) {
	flagged, err := b.moderator.Flagged(ctx, text)
	if err != nil {
		b.logger.Error("Moderation check failed", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}
	if flagged {
		return
	}
	if b.sendMessage(chatID, text) {
		b.history.Record(chatID, engine.HistoryMessage{Content: text, FromSelf: true})
	}
}

func (b *Bot) sendMessage(chatID int64, text string) bool {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return false
	}
	return true
}

// reactorID identifies who sent message, falling back to the posting chat
// for anonymous admins and channel posts.
func reactorID(message *tgbotapi.Message) int64 {
	if message.From != nil {
		return message.From.ID
	}
	if message.SenderChat != nil {
		return message.SenderChat.ID
	}
	return message.Chat.ID
}

func messageText(message *tgbotapi.Message) string {
	if message.Text != "" {
		return message.Text
	}
	return message.Caption
}

func authorName(message *tgbotapi.Message) string {
	if u := message.From; u != nil {
		if u.UserName != "" {
			return u.UserName
		}
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if message.SenderChat != nil {
		return message.SenderChat.Title
	}
	if message.Chat != nil {
		return message.Chat.Title
	}
	return ""
}
