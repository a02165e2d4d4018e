package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. LEXICON_LLM_GEMINI_API_KEY.
const EnvPrefix = "LEXICON"

// keys lists every configuration key so that environment variables are bound
// even for keys without a default.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout_seconds",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.request_timeout_seconds",
	"llm.requests_per_minute",
	"llm.temperature",
	"cache.backend",
	"cache.sqlite_path",
	"cache.max_entries",
	"cache.ttl_hours",
	"cache.sweep_interval_minutes",
	"batch.max_concurrency",
	"batch.max_attempts",
	"batch.initial_retry_delay_ms",
	"batch.translation_output_size",
	"batch.sentence_output_size",
	"database.url",
}

// setDefaults registers the default value of every optional key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.request_timeout_seconds", 30)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.temperature", 0.4)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.sqlite_path", "lexicon-cache.db")
	v.SetDefault("cache.max_entries", 5000)
	v.SetDefault("cache.ttl_hours", 14*24)
	v.SetDefault("cache.sweep_interval_minutes", 60)

	v.SetDefault("batch.max_concurrency", 3)
	v.SetDefault("batch.max_attempts", 3)
	v.SetDefault("batch.initial_retry_delay_ms", 1000)
	v.SetDefault("batch.translation_output_size", 3)
	v.SetDefault("batch.sentence_output_size", 2)
}

// Load reads configuration from environment variables and, if present, a
// config.yaml in the working directory. Environment variables take precedence
// over values from the config file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead of searching
// for config.yaml. A missing explicit file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span sections.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Cache.Backend == "postgres" && cfg.Database.URL == "" {
		return fmt.Errorf("config validation failed: database.url is required for the postgres cache backend")
	}

	return nil
}
