// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Catalog datasets. When the preferred catalog is missing the store falls
	// back to the legacy-shaped dataset.
	CatalogPath       string `env:"CATALOG_PATH" envDefault:"data/assessment_catalog.csv"`
	LegacyCatalogPath string `env:"LEGACY_CATALOG_PATH" envDefault:"data/assessment_catalog_legacy.csv"`

	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantAPIKey     string `env:"QDRANT_API_KEY"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"assessments"`
	VectorSize       int    `env:"VECTOR_SIZE" envDefault:"1536"`

	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-8b"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"30s"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingsModel string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small"`
	EmbedCacheSize  int    `env:"EMBED_CACHE_SIZE" envDefault:"2048"`

	// TopKRetrieval bounds how many candidates reach the selector; chosen to
	// give the selector enough material for balance without bloating prompts.
	TopKRetrieval int `env:"TOP_K_RETRIEVAL" envDefault:"25"`
	// MaxContextTokens bounds the per-candidate description in the oracle prompt.
	MaxContextTokens int `env:"MAX_CONTEXT_TOKENS" envDefault:"48"`

	IntentLexiconPath string `env:"INTENT_LEXICON_PATH" envDefault:"configs/intent_lexicon.yaml"`

	// RedisURL enables the optional result cache when non-empty.
	RedisURL       string        `env:"REDIS_URL"`
	ResultCacheTTL time.Duration `env:"RESULT_CACHE_TTL" envDefault:"15m"`

	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"assessment-recommender"`

	// Embeddings Backoff Configuration (index build only; oracle calls are
	// never retried).
	EmbedBackoffMaxElapsedTime  time.Duration `env:"EMBED_BACKOFF_MAX_ELAPSED_TIME" envDefault:"120s"`
	EmbedBackoffInitialInterval time.Duration `env:"EMBED_BACKOFF_INITIAL_INTERVAL" envDefault:"2s"`
	EmbedBackoffMaxInterval     time.Duration `env:"EMBED_BACKOFF_MAX_INTERVAL" envDefault:"20s"`
	EmbedBackoffMultiplier      float64       `env:"EMBED_BACKOFF_MULTIPLIER" envDefault:"1.5"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetEmbedBackoffConfig returns backoff configuration appropriate for the
// current environment. Tests use much shorter intervals.
func (c Config) GetEmbedBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.EmbedBackoffMaxElapsedTime, c.EmbedBackoffInitialInterval, c.EmbedBackoffMaxInterval, c.EmbedBackoffMultiplier
}
