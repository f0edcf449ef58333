package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/markov-bot/internal/engine"
	"github.com/xaenox/markov-bot/internal/models"
	"go.uber.org/zap"
)

const permissionDenied = "You must have admin permissions to use this command."

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	switch command {
	case "start", "help":
		b.handleHelp(message)
		return
	case "setchannel", "reload", "import", "settagweight", "setbaseprobability", "brainpower":
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
		return
	}

	if !b.isAdmin(message) {
		b.sendMessage(message.Chat.ID, permissionDenied)
		return
	}

	switch command {
	case "setchannel":
		b.handleSetChannel(message)
	case "reload":
		b.handleReload(ctx, message)
	case "import":
		b.handleImport(ctx, message)
	case "settagweight":
		b.handleSetTagWeight(message)
	case "setbaseprobability":
		b.handleSetBaseProbability(message)
	case "brainpower":
		b.handleBrainpower(ctx, message)
	}
}

func (b *Bot) isAdmin(message *tgbotapi.Message) bool {
	if message.From == nil {
		return false
	}
	_, ok := b.admins[message.From.ID]
	return ok
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `I listen to this chat and sometimes talk back.

Admin commands:
/setchannel - Only listen to this chat
/reload - Retrain models from stored messages
/import <n> - Store the last n messages (max 100) and retrain
/settagweight <tag> <weight> - Change a tag weight
/setbaseprobability <p> - Change the baseline response probability
/brainpower - Show configuration and stats`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleSetChannel(message *tgbotapi.Message) {
	b.engine.SetChannel(message.Chat.ID)
	name := message.Chat.Title
	if name == "" {
		name = strconv.FormatInt(message.Chat.ID, 10)
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Channel set to %s", name))
}

func (b *Bot) handleReload(ctx context.Context, message *tgbotapi.Message) {
	if err := b.engine.Reload(ctx); err != nil {
		b.logger.Error("Failed to reload models",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't reload the models.")
		return
	}
	b.sendMessage(message.Chat.ID, "Models reloaded successfully.")
}

func (b *Bot) handleImport(ctx context.Context, message *tgbotapi.Message) {
	const usage = "Usage: /import <number_of_messages>"

	args := strings.Fields(message.CommandArguments())
	if len(args) < 1 {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	if limit > engine.MaxImportLimit {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Importing limited to %d messages.", engine.MaxImportLimit))
	}

	result, err := b.engine.Import(ctx, message.Chat.ID, limit)
	if err != nil {
		var cfgErr *engine.ConfigError
		if errors.As(err, &cfgErr) {
			b.sendMessage(message.Chat.ID, cfgErr.Message)
			return
		}
		b.logger.Error("Failed to import history",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't import the message history.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Models trained on the last %d messages.", result.Limit))
}

func (b *Bot) handleSetTagWeight(message *tgbotapi.Message) {
	const usage = "Usage: /settagweight <tag> <weight>"

	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	weight, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	tag := models.Tag(args[0])
	if err := b.engine.SetTagWeight(tag, weight); err != nil {
		b.sendMessage(message.Chat.ID, err.Error())
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Tag weight for %q set to %s", tag, formatFloat(weight)))
}

func (b *Bot) handleSetBaseProbability(message *tgbotapi.Message) {
	const usage = "Usage: /setbaseprobability <probability>"

	args := strings.Fields(message.CommandArguments())
	if len(args) < 1 {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	p, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		b.sendMessage(message.Chat.ID, usage)
		return
	}
	if err := b.engine.SetBaseProbability(p); err != nil {
		b.sendMessage(message.Chat.ID, err.Error())
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("Base response probability set to %s", formatFloat(p)))
}

func (b *Bot) handleBrainpower(ctx context.Context, message *tgbotapi.Message) {
	stats, err := b.engine.Stats(ctx)
	if err != nil {
		b.logger.Error("Failed to collect stats",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't collect the stats.")
		return
	}
	b.sendMessage(message.Chat.ID, formatStats(stats))
}

func formatStats(stats models.Stats) string {
	var sb strings.Builder
	sb.WriteString("Current Configuration:\n\n")
	fmt.Fprintf(&sb, "Base Response Probability: %s\n\n", formatFloat(stats.BaseProbability))

	sb.WriteString("Tag Weights:\n")
	for _, tag := range models.AllTags {
		if w, ok := stats.Weights[tag]; ok {
			fmt.Fprintf(&sb, "%s: %s\n", tag, formatFloat(w))
		}
	}

	fmt.Fprintf(&sb, "\nTotal Messages Collected: %d\n\n", stats.TotalMessages)
	sb.WriteString("Messages Collected by Tag:\n")
	tags := make([]string, 0, len(stats.PerTag))
	for tag := range stats.PerTag {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(&sb, "%s: %d\n", tag, stats.PerTag[models.Tag(tag)])
	}
	return sb.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
