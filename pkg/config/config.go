package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
}

type TelegramConfig struct {
	Token          string   `mapstructure:"token"`
	AdminIDs       []int64  `mapstructure:"admin_ids"`
	ReactionTokens []string `mapstructure:"reaction_tokens"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type EngineConfig struct {
	ChannelID        int64              `mapstructure:"channel_id"`
	BaseProbability  float64            `mapstructure:"base_probability"`
	TagWeights       map[string]float64 `mapstructure:"tag_weights"`
	NotableThreshold int                `mapstructure:"notable_threshold"`
	HistorySize      int                `mapstructure:"history_size"`
	RetrainSchedule  string             `mapstructure:"retrain_schedule"`
	Markov           MarkovConfig       `mapstructure:"markov"`
}

type MarkovConfig struct {
	StateSize       int     `mapstructure:"state_size"`
	Tries           int     `mapstructure:"tries"`
	TestOutput      bool    `mapstructure:"test_output"`
	MaxOverlapRatio float64 `mapstructure:"max_overlap_ratio"`
	MaxOverlapTotal int     `mapstructure:"max_overlap_total"`
}

type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	ModerationModel string `mapstructure:"moderation_model"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.reaction_tokens", []string{"+", "+1", "👍", "😂", "🤣", "🔥", "❤️"})
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "chat_data.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("engine.channel_id", 0)
	v.SetDefault("engine.base_probability", 0.02)
	v.SetDefault("engine.notable_threshold", 2)
	v.SetDefault("engine.history_size", 500)
	v.SetDefault("engine.retrain_schedule", "")
	v.SetDefault("engine.markov.state_size", 2)
	v.SetDefault("engine.markov.tries", 100)
	v.SetDefault("engine.markov.test_output", false)
	v.SetDefault("engine.markov.max_overlap_ratio", 0.7)
	v.SetDefault("engine.markov.max_overlap_total", 15)
}

// LoadConfig reads the YAML file at path. A missing file is fine as long as
// the environment supplies what is needed.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Engine.BaseProbability < 0 || c.Engine.BaseProbability > 1 {
		return fmt.Errorf("engine.base_probability must be between 0 and 1, got %v", c.Engine.BaseProbability)
	}
	if c.Engine.NotableThreshold < 1 {
		return fmt.Errorf("engine.notable_threshold must be positive, got %d", c.Engine.NotableThreshold)
	}
	return nil
}
