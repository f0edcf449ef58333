package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xaenox/markov-bot/internal/classifier"
	"github.com/xaenox/markov-bot/internal/engine"
	"github.com/xaenox/markov-bot/internal/markov"
	"github.com/xaenox/markov-bot/internal/models"
	"github.com/xaenox/markov-bot/internal/storage"
	"github.com/xaenox/markov-bot/internal/worker"
)

const (
	adminID int64 = 42
	chatID  int64 = -1001
)

type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

type flagAll struct{}

func (flagAll) Flagged(context.Context, string) (bool, error) { return true, nil }

type fixture struct {
	bot     *Bot
	sender  *fakeSender
	store   *storage.MemoryStorage
	engine  *engine.Engine
	history *History
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	history := NewHistory(0)
	eng := engine.New(store, classifier.NewRuleClassifier(), engine.DefaultSettings(), constRand(0), engine.Options{
		Sentence: markov.DefaultSentenceOptions(),
		History:  history,
	}, zap.NewNop())

	s := &fakeSender{}
	b := newBot(s, eng, nil, nil, history, Options{
		AdminIDs:         []int64{adminID},
		ReactionTokens:   []string{"+1"},
		NotableThreshold: 2,
	}, zap.NewNop())
	return &fixture{bot: b, sender: s, store: store, engine: eng, history: history}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, UserName: "user"},
		Chat:      &tgbotapi.Chat{ID: chatID, Title: "general"},
		Text:      text,
	}
}

func commandMessage(from int64, command, args string) *tgbotapi.Message {
	text := "/" + command
	if args != "" {
		text += " " + args
	}
	msg := textMessage(from, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return msg
}

func (f *fixture) handle(msg *tgbotapi.Message) {
	f.bot.handleMessage(context.Background(), "test-event", msg)
}

func (f *fixture) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sender.sent)
	return f.sender.sent[len(f.sender.sent)-1]
}

func TestAdminCommandsRequirePermission(t *testing.T) {
	f := newFixture(t)

	f.handle(commandMessage(7, "setbaseprobability", "0.5"))
	assert.Equal(t, permissionDenied, f.last(t))
	assert.Equal(t, engine.DefaultBaseProbability, f.engine.Settings().BaseProbability)

	f.handle(commandMessage(7, "help", ""))
	assert.Contains(t, f.last(t), "/brainpower")
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.handle(commandMessage(adminID, "dance", ""))
	assert.Equal(t, "Unknown command. Use /help to see available commands.", f.last(t))
}

func TestSetChannelCommand(t *testing.T) {
	f := newFixture(t)
	f.handle(commandMessage(adminID, "setchannel", ""))
	assert.Equal(t, "Channel set to general", f.last(t))
	assert.Equal(t, chatID, f.engine.Settings().ChannelID)
}

func TestSetBaseProbabilityCommand(t *testing.T) {
	f := newFixture(t)

	f.handle(commandMessage(adminID, "setbaseprobability", "0.5"))
	assert.Equal(t, "Base response probability set to 0.5", f.last(t))
	assert.Equal(t, 0.5, f.engine.Settings().BaseProbability)

	f.handle(commandMessage(adminID, "setbaseprobability", "1.5"))
	assert.Equal(t, "Probability must be between 0 and 1.", f.last(t))

	f.handle(commandMessage(adminID, "setbaseprobability", ""))
	assert.Equal(t, "Usage: /setbaseprobability <probability>", f.last(t))
}

func TestSetTagWeightCommand(t *testing.T) {
	f := newFixture(t)

	f.handle(commandMessage(adminID, "settagweight", "humor 0.4"))
	assert.Equal(t, `Tag weight for "humor" set to 0.4`, f.last(t))
	assert.Equal(t, 0.4, f.engine.Settings().Weights[models.TagHumor])

	f.handle(commandMessage(adminID, "settagweight", "bogus 1"))
	assert.Equal(t, "Invalid tag: bogus", f.last(t))

	f.handle(commandMessage(adminID, "settagweight", "humor"))
	assert.Equal(t, "Usage: /settagweight <tag> <weight>", f.last(t))
}

func TestImportCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.history.Record(chatID, engine.HistoryMessage{Author: "alice", Content: "is it raining?"})
	f.history.Record(chatID, engine.HistoryMessage{Content: "my own reply", FromSelf: true})
	f.history.Record(chatID, engine.HistoryMessage{Author: "bob", Content: "no idea"})

	f.handle(commandMessage(adminID, "import", "150"))
	require.Len(t, f.sender.sent, 2)
	assert.Equal(t, "Importing limited to 100 messages.", f.sender.sent[0])
	assert.Equal(t, "Models trained on the last 100 messages.", f.sender.sent[1])

	total, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "general and question rows for alice, general for bob")

	f.handle(commandMessage(adminID, "import", "0"))
	assert.Equal(t, "Usage: /import <number_of_messages>", f.last(t))

	f.handle(commandMessage(adminID, "import", "many"))
	assert.Equal(t, "Usage: /import <number_of_messages>", f.last(t))
}

func TestReloadAndBrainpowerCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Append(ctx, models.Message{Author: "a", Content: "hello there", Tag: models.TagGeneral}))

	f.handle(commandMessage(adminID, "reload", ""))
	assert.Equal(t, "Models reloaded successfully.", f.last(t))

	f.handle(commandMessage(adminID, "brainpower", ""))
	stats := f.last(t)
	assert.Contains(t, stats, "Base Response Probability: 0.02")
	assert.Contains(t, stats, "humor: 2")
	assert.Contains(t, stats, "Total Messages Collected: 1")
	assert.Contains(t, stats, "general: 1")
}

func TestFormatStatsOrdersTags(t *testing.T) {
	out := formatStats(models.Stats{
		BaseProbability: 0.1,
		Weights:         map[models.Tag]float64{models.TagGeneral: 0, models.TagQuestion: 0.2},
		TotalMessages:   3,
		PerTag:          map[models.Tag]int{models.TagQuestion: 1, models.TagGeneral: 2},
	})
	assert.Equal(t, "Current Configuration:\n\n"+
		"Base Response Probability: 0.1\n\n"+
		"Tag Weights:\ngeneral: 0\nquestion: 0.2\n"+
		"\nTotal Messages Collected: 3\n\n"+
		"Messages Collected by Tag:\ngeneral: 2\nquestion: 1\n", out)
}

func TestReplyIsSentAndRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Append(ctx, models.Message{Author: "carol", Content: "my cat fell off the couch", Tag: models.TagHumor}))
	require.NoError(t, f.engine.Reload(ctx))

	f.handle(textMessage(7, "that is right"))
	assert.Equal(t, "Actually, that's wrong, and my cat fell off the couch", f.last(t))

	recent, err := f.history.Recent(ctx, chatID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].FromSelf)
	assert.Equal(t, "that is right", recent[1].Content)
}

func TestFlaggedReplyIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bot.moderator = flagAll{}
	require.NoError(t, f.store.Append(ctx, models.Message{Author: "carol", Content: "my cat fell off the couch", Tag: models.TagHumor}))
	require.NoError(t, f.engine.Reload(ctx))

	f.handle(textMessage(7, "that is right"))
	assert.Empty(t, f.sender.sent)
}

func TestFailedSendIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sender.err = errors.New("network down")
	require.NoError(t, f.store.Append(ctx, models.Message{Author: "carol", Content: "my cat fell off the couch", Tag: models.TagHumor}))
	require.NoError(t, f.engine.Reload(ctx))

	f.handle(textMessage(7, "that is right"))
	recent, err := f.history.Recent(ctx, chatID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].FromSelf)
}

func TestReactionsMarkMessageNotable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := textMessage(9, "the pizza place downtown is great")
	target.MessageID = 77
	target.From.UserName = "carol"

	reaction := func(from int64) *tgbotapi.Message {
		msg := textMessage(from, "+1")
		msg.ReplyToMessage = target
		return msg
	}

	f.handle(reaction(1))
	rows, err := f.store.Rows(ctx, models.Filter{Tags: []models.Tag{models.TagNotable}})
	require.NoError(t, err)
	assert.Empty(t, rows)

	f.handle(reaction(2))
	f.handle(reaction(3))
	rows, err = f.store.Rows(ctx, models.Filter{Tags: []models.Tag{models.TagNotable}})
	require.NoError(t, err)
	require.Len(t, rows, 1, "stored once when the threshold is reached")
	assert.Equal(t, "carol", rows[0].Author)
	assert.Equal(t, "the pizza place downtown is great", rows[0].Content)

	total, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "reaction replies are not part of the corpus")
	assert.Empty(t, f.sender.sent)
}

func TestRepeatedReactionsFromOneUserDoNotCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := textMessage(9, "the pizza place downtown is great")
	target.MessageID = 77

	for i := 0; i < 3; i++ {
		msg := textMessage(1, "+1")
		msg.ReplyToMessage = target
		f.handle(msg)
	}

	rows, err := f.store.Rows(ctx, models.Filter{Tags: []models.Tag{models.TagNotable}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHistoryRingBuffer(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(2)
	h.Record(1, engine.HistoryMessage{Content: "a"})
	h.Record(1, engine.HistoryMessage{Content: "b"})
	h.Record(1, engine.HistoryMessage{Content: "c"})
	h.Record(2, engine.HistoryMessage{Content: "other"})

	recent, err := h.Recent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []engine.HistoryMessage{{Content: "c"}, {Content: "b"}}, recent)

	recent, err = h.Recent(ctx, 3, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestReactionTracker(t *testing.T) {
	r := newReactionTracker([]string{" +1 ", "👍"}, 2)
	assert.True(t, r.isReaction("+1"))
	assert.True(t, r.isReaction(" 👍"))
	assert.False(t, r.isReaction("+1 nice"))

	assert.False(t, r.add(1, 5, 100))
	assert.False(t, r.add(1, 5, 100), "same user again")
	assert.True(t, r.add(1, 5, 101))
	assert.False(t, r.add(1, 5, 102))
	assert.False(t, r.add(2, 5, 100))
}

func TestEnqueueDuringShutdownIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := newFixture(t)
	f.bot.logger = zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.bot.queue = worker.NewQueue(0, zap.NewNop())
	assert.False(t, f.bot.enqueue(ctx, textMessage(7, "hello")), "cancelled context")

	stopped := worker.NewQueue(0, zap.NewNop())
	stopped.Run(ctx)
	f.bot.queue = stopped
	assert.False(t, f.bot.enqueue(context.Background(), textMessage(7, "hello")), "stopped queue")

	assert.Zero(t, logs.Len())
}
