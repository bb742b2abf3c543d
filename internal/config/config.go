package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// StoreBackend selects the persistent key-value store implementation.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	UseOpenAI     bool

	Store    StoreBackend
	SQLite   SQLiteConfig
	DB       DBConfig
	Redis    RedisConfig
	UseRedis bool

	Duplicate DuplicateConfig
	Logger    LoggerConfig
}

type SQLiteConfig struct {
	Path string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host string
	Port string
}

// DuplicateConfig tunes the re-submission detector.
type DuplicateConfig struct {
	Window    time.Duration
	Threshold float64
}

type LoggerConfig struct {
	Level      string
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		UseOpenAI:     getEnvOrDefault("AI_PROVIDER", "gemini") == "openai",
		Store:         StoreBackend(getEnvOrDefault("STORE_BACKEND", "sqlite")),
		SQLite: SQLiteConfig{
			Path: getEnvOrDefault("SQLITE_PATH", "data/tracker.db"),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "fitness_tracker"),
		},
		Redis: RedisConfig{
			Host: getEnvOrDefault("REDIS_HOST", "localhost"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		UseRedis: getEnvOrDefault("STATE_BACKEND", "memory") == "redis",
		Duplicate: DuplicateConfig{
			Window:    parseDurationOrDefault("DUPLICATE_WINDOW", 5*time.Minute),
			Threshold: parseFloatOrDefault("DUPLICATE_THRESHOLD", 0.85),
		},
		Logger: LoggerConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store)
	}
	if c.Duplicate.Threshold < 0 || c.Duplicate.Threshold > 1 {
		return fmt.Errorf("DUPLICATE_THRESHOLD must be in [0,1], got %v", c.Duplicate.Threshold)
	}
	if c.UseOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("AI_PROVIDER=openai requires OPENAI_API_KEY")
	}
	return nil
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
