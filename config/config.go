package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Retailers RetailersConfig
	AI        AIConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RetailersConfig controls which quote sources are queried
type RetailersConfig struct {
	Simulated         bool             `mapstructure:"simulated"` // built-in demo retailers
	Jitter            float64          `mapstructure:"jitter"`    // max relative price jitter for simulated retailers
	Timeout           time.Duration    `mapstructure:"timeout"`   // per-source deadline
	RequireAllSources bool             `mapstructure:"require_all_sources"`
	MinRelevance      float64          `mapstructure:"min_relevance"`
	Sources           []RetailerSource `mapstructure:"sources"`
}

// RetailerSource describes one networked retailer
type RetailerSource struct {
	Name     string `mapstructure:"name"`
	Kind     string `mapstructure:"kind"` // "api" or "scrape"
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Currency string `mapstructure:"currency"`

	// Scrape selectors
	SearchPath    string `mapstructure:"search_path"` // e.g. "/search?q=%s"
	ItemSelector  string `mapstructure:"item_selector"`
	TitleSelector string `mapstructure:"title_selector"`
	PriceSelector string `mapstructure:"price_selector"`
	LinkSelector  string `mapstructure:"link_selector"`
}

// AIConfig holds language model configuration
type AIConfig struct {
	Provider string        `mapstructure:"provider"` // "stub", "openrouter" or "ollama"
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute per client
	Retailer int `mapstructure:"retailer"` // requests per hour per retailer API
}

// SessionConfig holds search session configuration
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/glamfinder/")

	v.SetEnvPrefix("GLAMFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:9002"})

	// Retailer defaults
	v.SetDefault("retailers.simulated", true)
	v.SetDefault("retailers.jitter", 0.0)
	v.SetDefault("retailers.timeout", "10s")
	v.SetDefault("retailers.require_all_sources", false)
	v.SetDefault("retailers.min_relevance", 40.0)

	// AI defaults
	v.SetDefault("ai.provider", "stub")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.timeout", "60s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "15m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.retailer", 1000)

	v.SetDefault("session.ttl", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if !config.Retailers.Simulated && len(config.Retailers.Sources) == 0 {
		return fmt.Errorf("at least one retailer source is required (enable GLAMFINDER_RETAILERS_SIMULATED or configure retailers.sources)")
	}

	for i, src := range config.Retailers.Sources {
		if src.Name == "" {
			return fmt.Errorf("retailer source %d has no name", i)
		}
		if src.BaseURL == "" {
			return fmt.Errorf("retailer source %q has no base_url", src.Name)
		}
		switch src.Kind {
		case "api":
		case "scrape":
			if src.ItemSelector == "" || src.PriceSelector == "" {
				return fmt.Errorf("scrape source %q needs item_selector and price_selector", src.Name)
			}
		default:
			return fmt.Errorf("retailer source %q kind must be 'api' or 'scrape', got: %s", src.Name, src.Kind)
		}
	}

	if config.Retailers.Jitter < 0 || config.Retailers.Jitter >= 1 {
		return fmt.Errorf("retailer jitter must be in [0, 1), got: %v", config.Retailers.Jitter)
	}

	switch config.AI.Provider {
	case "stub", "ollama":
	case "openrouter":
		if config.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required for openrouter (set GLAMFINDER_AI_API_KEY)")
		}
	default:
		return fmt.Errorf("AI provider must be 'stub', 'openrouter' or 'ollama', got: %s", config.AI.Provider)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
