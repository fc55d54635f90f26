// Package config loads runtime configuration for the recommendation engine:
// store credentials, embedding/deep-dive provider credentials, the HTTP
// server, and the engine's own tunables (grouping threshold, feedback alpha
// table, onboarding batch size).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database  Database  `mapstructure:"database"`
	Embedding Embedding `mapstructure:"embedding"`
	DeepDive  DeepDive  `mapstructure:"deepdive"`
	Server    Server    `mapstructure:"server"`
	Engine    Engine    `mapstructure:"engine"`
	Feeds     Feeds     `mapstructure:"feeds"`
	Logging   Logging   `mapstructure:"logging"`
}

// Database holds the store connection.
type Database struct {
	ConnectionString string `mapstructure:"connection_string"`
	WriteKey         string `mapstructure:"write_key"`
	MaxConnections   int    `mapstructure:"max_connections"`
	IdleConnections  int    `mapstructure:"idle_connections"`
}

// Embedding holds Cloudflare Workers AI embedding-provider configuration.
type Embedding struct {
	CFAccountID string        `mapstructure:"cf_account_id"`
	CFAPIToken  string        `mapstructure:"cf_api_token"`
	CFModel     string        `mapstructure:"cf_model"`
	BatchSize   int           `mapstructure:"batch_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DeepDive holds the configuration of internal/deepdive. GroqAPIKey,
// RateLimit and Timeout are used only by ExtractTaxonomy's Groq call; the
// deep-dive analysis (Analyze) does not use Groq, it calls the genai client.
// Model is passed to both. Unrelated to ranking.
type DeepDive struct {
	GroqAPIKey string        `mapstructure:"groq_api_key"`
	Model      string        `mapstructure:"model"`
	RateLimit  time.Duration `mapstructure:"rate_limit"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host            string          `mapstructure:"host"`
	Port            int             `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	StaticDir       string          `mapstructure:"static_dir"`
	TemplateDir     string          `mapstructure:"template_dir"`
	CORS            CORSConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// Engine holds the ranking engine's own tunables.
type Engine struct {
	GroupingThreshold float64       `mapstructure:"grouping_threshold"` // τ, default 0.85
	FeedbackAlpha     FeedbackAlpha `mapstructure:"feedback_alpha"`
	OnboardingBatch   int           `mapstructure:"onboarding_batch"`
}

// FeedbackAlpha is the per-interaction-kind learning rate table (spec §4.5).
type FeedbackAlpha struct {
	View          float64 `mapstructure:"view"`
	DeepDive      float64 `mapstructure:"deep_dive"`
	NotInterested float64 `mapstructure:"not_interested"`
}

// Feeds holds RSS/Atom polling configuration.
type Feeds struct {
	URLs            []string      `mapstructure:"urls"`
	FetchInterval   time.Duration `mapstructure:"fetch_interval"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxItemsPerFeed int           `mapstructure:"max_items_per_feed"`
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

var globalConfig *Config

// Load loads configuration from environment, .env file, and optional config
// file, in that precedence order (env wins over config file wins over
// defaults).
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsengine")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it on first access.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the global configuration. Useful for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.idle_connections", 2)

	viper.SetDefault("embedding.cf_model", "@cf/baai/bge-base-en-v1.5")
	viper.SetDefault("embedding.batch_size", 75)
	viper.SetDefault("embedding.timeout", "120s")

	viper.SetDefault("deepdive.model", "llama-3.1-8b-instant")
	viper.SetDefault("deepdive.rate_limit", "2.1s")
	viper.SetDefault("deepdive.timeout", "30s")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.requests_per_minute", 60)

	viper.SetDefault("engine.grouping_threshold", 0.85)
	viper.SetDefault("engine.feedback_alpha.view", 0.03)
	viper.SetDefault("engine.feedback_alpha.deep_dive", 0.15)
	viper.SetDefault("engine.feedback_alpha.not_interested", -0.20)
	viper.SetDefault("engine.onboarding_batch", 30)

	viper.SetDefault("feeds.fetch_interval", "1h")
	viper.SetDefault("feeds.user_agent", "newsengine/1.0")
	viper.SetDefault("feeds.timeout", "30s")
	viper.SetDefault("feeds.max_items_per_feed", 50)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// bindEnvironmentVariables binds the spec's enumerated environment variables
// (spec §6) to their viper keys.
func bindEnvironmentVariables() {
	bindEnvKeys("database.connection_string", []string{"SUPABASE_URL", "DATABASE_URL"})
	bindEnvKeys("database.write_key", []string{"SUPABASE_KEY"})

	bindEnvKeys("embedding.cf_account_id", []string{"CF_ACCOUNT_ID"})
	bindEnvKeys("embedding.cf_api_token", []string{"CF_API_TOKEN"})
	bindEnvKeys("embedding.cf_model", []string{"CF_MODEL"})

	bindEnvKeys("deepdive.groq_api_key", []string{"GROQ_API_KEY"})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.Database.ConnectionString == "" {
		errs = append(errs, "store connection string is required; set SUPABASE_URL or database.connection_string")
	}
	if cfg.Engine.GroupingThreshold < 0 || cfg.Engine.GroupingThreshold > 1 {
		errs = append(errs, fmt.Sprintf("engine.grouping_threshold must be in [0,1], got %v", cfg.Engine.GroupingThreshold))
	}
	if cfg.Embedding.BatchSize < 1 {
		errs = append(errs, "embedding.batch_size must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
