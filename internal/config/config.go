package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Batch    BatchConfig    `mapstructure:"batch" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// AuthConfig contains the settings of the bearer token check on the HTTP API.
// The CLI does not need it, so the secret is only enforced by the server.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// TokenLifetime returns the validity of issued tokens as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// LLMConfig contains all generation backend settings.
type LLMConfig struct {
	GeminiAPIKey          string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName             string  `mapstructure:"model_name" validate:"required"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	RequestsPerMinute     int     `mapstructure:"requests_per_minute" validate:"gte=0"`
	Temperature           float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// RequestTimeout returns the per-call timeout as a duration.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CacheConfig contains the result cache settings.
type CacheConfig struct {
	// Backend selects where cache entries live.
	Backend string `mapstructure:"backend" validate:"required,oneof=memory sqlite postgres"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`

	MaxEntries           int `mapstructure:"max_entries" validate:"gt=0"`
	TTLHours             int `mapstructure:"ttl_hours" validate:"gt=0"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"gte=0"`
}

// TTL returns the entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SweepInterval returns how often expired entries are purged. Zero disables
// the periodic sweep; the startup sweep still runs.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// BatchConfig contains the defaults of the batch coordinator.
type BatchConfig struct {
	MaxConcurrency        int `mapstructure:"max_concurrency" validate:"gt=0,lte=64"`
	MaxAttempts           int `mapstructure:"max_attempts" validate:"gt=0,lte=10"`
	InitialRetryDelayMs   int `mapstructure:"initial_retry_delay_ms" validate:"gte=0"`
	TranslationOutputSize int `mapstructure:"translation_output_size" validate:"gt=0,lte=20"`
	SentenceOutputSize    int `mapstructure:"sentence_output_size" validate:"gt=0,lte=20"`
}

// InitialRetryDelay returns the first backoff delay as a duration.
func (c BatchConfig) InitialRetryDelay() time.Duration {
	return time.Duration(c.InitialRetryDelayMs) * time.Millisecond
}

// DatabaseConfig contains the Postgres settings used by the postgres cache backend.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}
