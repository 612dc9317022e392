// Package config loads and validates the application configuration from a
// YAML file, environment variables (PROMPTDECK_ prefix), and bound flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/promptdeck/internal/session"
)

// Config is the full application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	Provider Provider `mapstructure:"provider"`
	// Session is validated at acquisition time, not load time: an empty
	// fallback config is fine when an ambient session exists.
	Session session.Config `mapstructure:"session" validate:"-"`
	Cache   Cache          `mapstructure:"cache"`
}

// App holds server and logging settings.
type App struct {
	Debug   bool   `mapstructure:"debug"`
	Quiet   bool   `mapstructure:"quiet"`
	LogJSON bool   `mapstructure:"log_json"`
	Port    int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Host    string `mapstructure:"host"`
}

// Provider selects and configures the completion backend.
type Provider struct {
	// Name is empty for environment auto-detection.
	Name        string        `mapstructure:"name" validate:"omitempty,oneof=cortex anthropic openai"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Models      []string      `mapstructure:"models"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	PacingDelay time.Duration `mapstructure:"pacing_delay" validate:"gte=0"`
}

// Cache selects the result-store backend.
type Cache struct {
	Backend string `mapstructure:"backend" validate:"oneof=memory redis"`
	Redis   Redis  `mapstructure:"redis"`
}

// Redis holds connection settings for the shared store backend.
type Redis struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("provider.temperature", 0.7)
	v.SetDefault("provider.pacing_delay", 20*time.Millisecond)
	v.SetDefault("cache.backend", "memory")
}

// Load reads configuration from the given file (optional) and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROMPTDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("promptdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/promptdeck")
		// Missing config file is fine; env and defaults still apply.
		_ = v.ReadInConfig()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
