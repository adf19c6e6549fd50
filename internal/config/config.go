package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Localize modes
const (
	LocalizeSummarize = "summarize"
	LocalizeTranslate = "translate"
)

// Response layouts
const (
	LayoutCaptions = "captions"
	LayoutBlock    = "block"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
	Assistant  AssistantConfig
	Redis      RedisConfig
}

// PostgreSQLConfig holds the listing store connection settings
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the discrete fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig controls retrieval and reply formatting
type SearchConfig struct {
	MatchCount          int
	MatchThreshold      float64
	LocalizeMode        string
	LocalizeConcurrency int
	ResponseLayout      string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// AssistantConfig holds the hosted fallback assistant settings
type AssistantConfig struct {
	ID           string
	PollInterval time.Duration
	MaxPolls     int
	Timeout      time.Duration
}

// RedisConfig holds the optional localization cache settings
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("SUPABASE_DB_URL", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "postgres"),
			SSLMode:            getEnv("PG_SSLMODE", "require"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", 3000)),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			MatchCount:          getEnvAsInt("MATCH_COUNT", 3),
			MatchThreshold:      getEnvAsFloat("MATCH_THRESHOLD", 0.8),
			LocalizeMode:        strings.ToLower(getEnv("LOCALIZE_MODE", LocalizeSummarize)),
			LocalizeConcurrency: getEnvAsInt("LOCALIZE_CONCURRENCY", 4),
			ResponseLayout:      strings.ToLower(getEnv("RESPONSE_LAYOUT", LayoutCaptions)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             strings.TrimRight(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4"),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 60),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Assistant: AssistantConfig{
			ID:           getEnv("OPENAI_ASSISTANT_ID", ""),
			PollInterval: getEnvAsDuration("ASSISTANT_POLL_INTERVAL", 2*time.Second),
			MaxPolls:     getEnvAsInt("ASSISTANT_MAX_POLLS", 30),
			Timeout:      getEnvAsDuration("ASSISTANT_TIMEOUT", 90*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
			TTL: getEnvAsDuration("CACHE_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error

	if !c.OpenAI.Enabled {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.Search.MatchCount < 1 {
		errs = append(errs, fmt.Errorf("MATCH_COUNT must be >= 1, got %d", c.Search.MatchCount))
	}
	if c.Search.MatchThreshold < 0 || c.Search.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be within [0,1], got %v", c.Search.MatchThreshold))
	}
	if c.Search.LocalizeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("LOCALIZE_CONCURRENCY must be >= 1, got %d", c.Search.LocalizeConcurrency))
	}
	switch c.Search.LocalizeMode {
	case LocalizeSummarize, LocalizeTranslate:
	default:
		errs = append(errs, fmt.Errorf("LOCALIZE_MODE must be %q or %q, got %q", LocalizeSummarize, LocalizeTranslate, c.Search.LocalizeMode))
	}
	switch c.Search.ResponseLayout {
	case LayoutCaptions, LayoutBlock:
	default:
		errs = append(errs, fmt.Errorf("RESPONSE_LAYOUT must be %q or %q, got %q", LayoutCaptions, LayoutBlock, c.Search.ResponseLayout))
	}
	if c.Assistant.PollInterval <= 0 {
		errs = append(errs, errors.New("ASSISTANT_POLL_INTERVAL must be positive"))
	}
	if c.Assistant.MaxPolls < 1 {
		errs = append(errs, errors.New("ASSISTANT_MAX_POLLS must be >= 1"))
	}

	return errors.Join(errs...)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("1500ms", "2s") or bare milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
