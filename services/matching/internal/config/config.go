package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"

	SourceCSV        = "csv"
	SourceClickHouse = "clickhouse"
)

type Config struct {
	Env              string
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	DatasetSource string
	DatasetPath   string
	CachePath     string
	CacheValidate bool

	EmbeddingsProvider string
	EmbeddingsModel    string
	EmbeddingsDim      int
	EmbeddingsPacing   time.Duration

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMultiplier   float64

	SkillsProvider  string
	SkillsModel     string
	SkillsMaxTokens int

	AWSRegion     string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string

	OTelCollectorURL string
}

// LoadConfig reads .env from the working directory when present, then the
// process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	embeddingsProvider := getEnvString("EMBEDDINGS_PROVIDER", ProviderBedrock)
	skillsProvider := getEnvString("SKILLS_PROVIDER", embeddingsProvider)

	config := &Config{
		Env:              getEnvString("APP_ENV", "production"),
		HTTPAddr:         getEnvString("HTTP_ADDR", ":8000"),
		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),

		DatasetSource: getEnvString("DATASET_SOURCE", SourceCSV),
		DatasetPath:   getEnvString("DATASET_PATH", "cs_jobs_dataset.csv"),
		CachePath:     getEnvString("CACHE_PATH", "cs_jobs_with_embeddings.parquet"),
		CacheValidate: getEnvBool("CACHE_VALIDATE", true),

		EmbeddingsProvider: embeddingsProvider,
		EmbeddingsModel:    getEnvString("EMBEDDINGS_MODEL", defaultEmbeddingsModel(embeddingsProvider)),
		EmbeddingsDim:      getEnvInt("EMBEDDINGS_DIM", 1024),
		EmbeddingsPacing:   getEnvDuration("EMBEDDINGS_PACING", time.Second),

		RetryMaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: getEnvDuration("RETRY_INITIAL_DELAY", time.Second),
		RetryMultiplier:   getEnvFloat("RETRY_MULTIPLIER", 2),

		SkillsProvider:  skillsProvider,
		SkillsModel:     getEnvString("SKILLS_MODEL", defaultSkillsModel(skillsProvider)),
		SkillsMaxTokens: getEnvInt("SKILLS_MAX_TOKENS", 256),

		AWSRegion:     getEnvString("AWS_REGION", "us-east-1"),
		OpenAIAPIKey:  getEnvString("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvString("OPENAI_BASE_URL", ""),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "skillmatch"),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	for _, p := range []string{c.EmbeddingsProvider, c.SkillsProvider} {
		if p != ProviderBedrock && p != ProviderOpenAI {
			return fmt.Errorf("unknown model provider %q", p)
		}
	}
	if c.DatasetSource != SourceCSV && c.DatasetSource != SourceClickHouse {
		return fmt.Errorf("unknown dataset source %q", c.DatasetSource)
	}
	if c.EmbeddingsDim <= 0 {
		return fmt.Errorf("EMBEDDINGS_DIM must be positive, got %d", c.EmbeddingsDim)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("RETRY_MULTIPLIER must be at least 1, got %v", c.RetryMultiplier)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func defaultEmbeddingsModel(provider string) string {
	if provider == ProviderOpenAI {
		return "text-embedding-3-small"
	}
	return "amazon.titan-embed-text-v2:0"
}

func defaultSkillsModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "amazon.nova-pro-v1:0"
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
