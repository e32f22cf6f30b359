// Package config loads application configuration from file and
// environment. Configuration is instantiated once by New and passed to
// components that need it; invalid configuration at startup is fatal to
// the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Model       ModelConfig       `mapstructure:"model"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	Session     SessionConfig     `mapstructure:"session"`
	Workflow    WorkflowConfig    `mapstructure:"workflow"`
	Interaction InteractionConfig `mapstructure:"interaction"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string        `mapstructure:"level"`
	File  FileLogConfig `mapstructure:"file"`
}

// FileLogConfig defines optional rotated file output.
type FileLogConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`
	Rotate  LogRotateConfig `mapstructure:"rotate"`
}

// LogRotateConfig defines log rotation settings.
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// ModelConfig selects and parameterizes the completion model.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"` // "mock", "openai", "anthropic"
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// RetrievalConfig parameterizes the retrieval engine.
type RetrievalConfig struct {
	Collection       string  `mapstructure:"collection"`
	DefaultLimit     int     `mapstructure:"default_limit"`
	ScoreThreshold   float64 `mapstructure:"score_threshold"`
	OversampleFactor int     `mapstructure:"oversample_factor"`
	MinPool          int     `mapstructure:"min_pool"`
	EmbeddingDim     int     `mapstructure:"embedding_dim"`
}

// SessionConfig bounds conversation history.
type SessionConfig struct {
	ContextBudget int `mapstructure:"context_budget"`
	MaxTurns      int `mapstructure:"max_turns"`
}

// WorkflowConfig locates workflow definitions and sets executor defaults.
type WorkflowConfig struct {
	Dir         string        `mapstructure:"dir"` // YAML definition directory, empty = built-ins only
	DefaultType string        `mapstructure:"default_type"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	StepBackoff time.Duration `mapstructure:"step_backoff"`
}

// InteractionConfig selects the interaction log backend.
type InteractionConfig struct {
	Backend string `mapstructure:"backend"` // "memory" or "jsonl"
	Path    string `mapstructure:"path"`    // required for "jsonl"
}

// New creates an AppConfig by reading an optional config file,
// environment variables (prefix DISCOVERYMESH) and defaults.
func New(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("discoverymesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/discoverymesh/")
		v.AddConfigPath("$HOME/.discoverymesh")
	}

	v.SetEnvPrefix("DISCOVERYMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults and env carry the load.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values. More type-safe
// than viper.SetDefault.
func defaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			File: FileLogConfig{
				Enabled: false,
				Path:    "./logs/discoverymesh.log",
				Rotate: LogRotateConfig{
					MaxSizeMB:  100,
					MaxBackups: 7,
					MaxAgeDays: 30,
					Compress:   true,
				},
			},
		},
		Model: ModelConfig{
			Provider:    "mock",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Retrieval: RetrievalConfig{
			Collection:       "products",
			DefaultLimit:     10,
			OversampleFactor: 4,
			MinPool:          20,
			EmbeddingDim:     64,
		},
		Session: SessionConfig{
			ContextBudget: 4096,
			MaxTurns:      20,
		},
		Workflow: WorkflowConfig{
			DefaultType: "search",
			StepTimeout: 10 * time.Second,
			StepBackoff: 100 * time.Millisecond,
		},
		Interaction: InteractionConfig{
			Backend: "memory",
		},
	}
}

// validate checks the final configuration.
func (c *AppConfig) validate() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Model.Provider {
	case "mock", "openai", "anthropic":
	default:
		return fmt.Errorf("model.provider must be mock, openai or anthropic, got: %s", c.Model.Provider)
	}

	if c.Session.ContextBudget <= 0 {
		return fmt.Errorf("session.context_budget must be positive, got: %d", c.Session.ContextBudget)
	}

	switch c.Interaction.Backend {
	case "memory":
	case "jsonl":
		if c.Interaction.Path == "" {
			return fmt.Errorf("interaction.path is required for the jsonl backend")
		}
	default:
		return fmt.Errorf("interaction.backend must be memory or jsonl, got: %s", c.Interaction.Backend)
	}

	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
