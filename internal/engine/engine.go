package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/markov-bot/internal/classifier"
	"github.com/xaenox/markov-bot/internal/markov"
	"github.com/xaenox/markov-bot/internal/models"
	"github.com/xaenox/markov-bot/internal/storage"
	"go.uber.org/zap"
)

// State is where a message's pipeline ended.
type State string

const (
	StateSilent  State = "silent"
	StateReplied State = "replied"
)

// Referenced is the message an incoming message replies to.
type Referenced struct {
	Author  string
	Content string
}

// Incoming is one chat message delivered by the transport.
type Incoming struct {
	Author    string
	Content   string
	ChannelID int64
	ReplyTo   *Referenced
}

// Reaction reports that a message just crossed the notable reaction threshold.
type Reaction struct {
	Author    string
	Content   string
	ChannelID int64
}

// Outcome describes how the engine handled an incoming message. Text is set
// only when State is StateReplied.
type Outcome struct {
	State       State
	Tags        []models.Tag
	Probability float64
	Text        string
}

type Options struct {
	StateSize int
	Sentence  markov.SentenceOptions
	History   HistorySource
}

// Engine decides whether and how to reply to chat messages. It is not safe
// for concurrent use; callers feed it one event at a time.
type Engine struct {
	storage    storage.Storage
	classifier classifier.Classifier
	settings   *Settings
	models     *Models
	combiner   *Combiner
	history    HistorySource
	rng        Rand
	stateSize  int
	logger     *zap.Logger
}

func New(store storage.Storage, clf classifier.Classifier, settings *Settings, rng Rand, opts Options, logger *zap.Logger) *Engine {
	if opts.StateSize <= 0 {
		opts.StateSize = markov.DefaultStateSize
	}
	models := NewModels()
	return &Engine{
		storage:    store,
		classifier: clf,
		settings:   settings,
		models:     models,
		combiner:   NewCombiner(models, rng, opts.Sentence),
		history:    opts.History,
		rng:        rng,
		stateSize:  opts.StateSize,
		logger:     logger,
	}
}

func (e *Engine) Settings() *Settings {
	return e.settings
}

// HandleMessage runs the reply pipeline for one message. Messages rejected by
// the response gate are neither stored nor answered.
func (e *Engine) HandleMessage(ctx context.Context, in Incoming) Outcome {
	if !e.settings.Bound(in.ChannelID) {
		return Outcome{State: StateSilent}
	}

	tags := e.classifier.Classify(in.Content)
	out := Outcome{
		State:       StateSilent,
		Tags:        tags,
		Probability: Probability(e.settings, tags),
	}
	if !Accept(e.rng, out.Probability) {
		return out
	}

	for _, tag := range tags {
		e.save(ctx, in.Author, in.Content, tag)
	}

	repliesToQuestion := false
	if in.ReplyTo != nil {
		if classifier.IsHumor(in.Content) {
			e.save(ctx, in.ReplyTo.Author, in.ReplyTo.Content, models.TagHumor)
		}
		repliesToQuestion = e.isStoredQuestion(ctx, in.ReplyTo.Content)
		if repliesToQuestion {
			e.save(ctx, in.Author, in.Content, models.TagAnswer)
		}
	}

	if text, ok := e.recallNotable(ctx, in.Content); ok {
		return out.reply(text)
	}

	var preferred []models.Tag
	if classifier.IsQuestion(in.Content) {
		preferred = []models.Tag{models.TagAnswer}
	}
	text := e.generate(tags, preferred)

	if rebuttal, ok := e.rebut(in.Content); ok {
		text = rebuttal
	}

	// Stricter restatement of the rebuttal above for answers to questions.
	if repliesToQuestion && e.isStoredAnswer(ctx, in.Content) && classifier.CountOpinionWords(in.Content) >= 2 {
		if rebuttal, ok := e.rebut(in.Content); ok {
			text = rebuttal
		}
	}

	if classifier.IsCurious(in.Content) {
		text = e.generate([]models.Tag{models.TagGeneral}, nil)
	}

	return out.reply(text)
}

func (o Outcome) reply(text string) Outcome {
	if text != "" {
		o.State = StateReplied
		o.Text = text
	}
	return o
}

// HandleReaction stores a message that crossed the reaction threshold as
// notable.
func (e *Engine) HandleReaction(ctx context.Context, r Reaction) {
	if !e.settings.Bound(r.ChannelID) {
		return
	}
	e.save(ctx, r.Author, r.Content, models.TagNotable)
}

// save appends one corpus row. Failures are logged and the row is dropped.
func (e *Engine) save(ctx context.Context, author, content string, tag models.Tag) {
	msg := models.Message{Author: author, Content: content, Tag: tag}
	if err := e.storage.Append(ctx, msg); err != nil {
		e.logger.Error("Failed to save message",
			zap.Error(err),
			zap.String("author", author),
			zap.String("tag", string(tag)))
	}
}

func (e *Engine) isStoredQuestion(ctx context.Context, content string) bool {
	return e.hasRow(ctx, models.Filter{Content: content, Tags: []models.Tag{models.TagQuestion, models.TagOpenQ}})
}

func (e *Engine) isStoredAnswer(ctx context.Context, content string) bool {
	return e.hasRow(ctx, models.Filter{Content: content, Tags: []models.Tag{models.TagAnswer}})
}

func (e *Engine) hasRow(ctx context.Context, filter models.Filter) bool {
	if filter.Content == "" {
		return false
	}
	rows, err := e.storage.Rows(ctx, filter)
	if err != nil {
		e.logger.Error("Failed to query messages", zap.Error(err))
		return false
	}
	return len(rows) > 0
}

// recallNotable quotes the first notable message resembling content and adds
// a generated opinion. ok is true whenever a notable message matched, even if
// no opinion could be generated, since a match ends the pipeline.
func (e *Engine) recallNotable(ctx context.Context, content string) (string, bool) {
	notable, err := e.storage.Rows(ctx, models.Filter{Tags: []models.Tag{models.TagNotable}})
	if err != nil {
		e.logger.Error("Failed to load notable messages", zap.Error(err))
		return "", false
	}
	match, ok := MatchNotable(content, notable)
	if !ok {
		return "", false
	}

	opinion := e.generate([]models.Tag{models.TagOpinion, models.TagGeneral}, nil)
	if opinion == "" {
		return "", true
	}
	return fmt.Sprintf("%s said '%s'.... %s", match.Author, match.Content, opinion), true
}

// rebut contradicts the first opinion keyword in content. ok reports whether
// content has a keyword; the rebuttal then replaces the response, and is empty
// when no humorous tail can be generated.
func (e *Engine) rebut(content string) (string, bool) {
	word, ok := classifier.OpinionKeyword(content)
	if !ok {
		return "", false
	}
	antonym, ok := classifier.Antonym(word)
	if !ok {
		return "", false
	}
	tail := e.generate([]models.Tag{models.TagHumor, models.TagGeneral}, nil)
	if tail == "" {
		return "", true
	}
	return fmt.Sprintf("Actually, that's %s, and %s", antonym, tail), true
}

func (e *Engine) generate(tags, preferred []models.Tag) string {
	text, err := e.combiner.Generate(tags, preferred)
	if err != nil {
		if !errors.Is(err, ErrGenerationUnavailable) {
			e.logger.Error("Failed to generate response", zap.Error(err))
		} else {
			e.logger.Debug("No response generated", zap.Any("tags", tags))
		}
		return ""
	}
	return text
}
