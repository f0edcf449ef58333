package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/xaenox/markov-bot/internal/bot"
	"github.com/xaenox/markov-bot/internal/classifier"
	"github.com/xaenox/markov-bot/internal/engine"
	"github.com/xaenox/markov-bot/internal/markov"
	"github.com/xaenox/markov-bot/internal/models"
	"github.com/xaenox/markov-bot/internal/moderation"
	"github.com/xaenox/markov-bot/internal/scheduler"
	"github.com/xaenox/markov-bot/internal/storage"
	"github.com/xaenox/markov-bot/internal/worker"
	"github.com/xaenox/markov-bot/pkg/config"
	"go.uber.org/zap"
)

const configPath = "config.yaml"

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	store, err := openStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	settings, err := buildSettings(cfg.Engine)
	if err != nil {
		logger.Fatal("Invalid engine settings", zap.Error(err))
	}

	history := bot.NewHistory(cfg.Engine.HistorySize)
	eng := engine.New(store, classifier.NewRuleClassifier(), settings,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		engine.Options{
			StateSize: cfg.Engine.Markov.StateSize,
			Sentence: markov.SentenceOptions{
				Tries:           cfg.Engine.Markov.Tries,
				TestOutput:      cfg.Engine.Markov.TestOutput,
				MaxOverlapRatio: cfg.Engine.Markov.MaxOverlapRatio,
				MaxOverlapTotal: cfg.Engine.Markov.MaxOverlapTotal,
			},
			History: history,
		}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Reload(ctx); err != nil {
		logger.Error("Initial training failed, starting without models", zap.Error(err))
	}

	queue := worker.NewQueue(64, logger)
	go queue.Run(ctx)

	// Scheduled retrains go through the queue so they never overlap a message.
	sched := scheduler.New(func(ctx context.Context) error {
		return queue.Submit(ctx, func(ctx context.Context) {
			if err := eng.Reload(ctx); err != nil {
				logger.Error("Failed to retrain models", zap.Error(err))
			}
		})
	}, logger)
	if err := sched.Start(cfg.Engine.RetrainSchedule); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	var moderator moderation.Moderator = moderation.Noop{}
	if cfg.OpenAI.APIKey != "" {
		moderator = moderation.NewOpenAIModerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ModerationModel, logger)
		logger.Info("Reply moderation enabled")
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, eng, queue, moderator, history, bot.Options{
		AdminIDs:         cfg.Telegram.AdminIDs,
		ReactionTokens:   cfg.Telegram.ReactionTokens,
		NotableThreshold: cfg.Engine.NotableThreshold,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Shutting down")
}

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	case config.DriverPostgres:
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	default:
		logger.Info("Using SQLite storage", zap.String("path", cfg.Path))
		return storage.NewSQLiteStorage(cfg.Path, logger)
	}
}

func buildSettings(cfg config.EngineConfig) (*engine.Settings, error) {
	settings := engine.DefaultSettings()
	settings.SetChannel(cfg.ChannelID)
	if err := settings.SetBaseProbability(cfg.BaseProbability); err != nil {
		return nil, err
	}
	for tag, weight := range cfg.TagWeights {
		if err := settings.SetTagWeight(models.Tag(tag), weight); err != nil {
			return nil, err
		}
	}
	return settings, nil
}
