package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the triage backend. Values come from
// an optional YAML file, overridden by environment variables, with defaults
// for everything except secrets.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	HTTPPort            int `yaml:"http_port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`

	// DatabaseURL may be empty, in which case session persistence is disabled
	// and conversations live only in process memory.
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`

	KnowledgeBasePath string `yaml:"knowledge_base_path"`

	GroqAPIKey  string `yaml:"groq_api_key"`
	GroqBaseURL string `yaml:"groq_base_url"`
	GroqModel   string `yaml:"groq_model"`

	SarvamAPIKey  string `yaml:"sarvam_api_key"`
	SarvamBaseURL string `yaml:"sarvam_base_url"`

	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		LogLevel:                 "info",
		LogFormat:                "json",
		HTTPPort:                 8080,
		ReadTimeoutSeconds:       15,
		WriteTimeoutSeconds:      30,
		MigrationsPath:           "file://migrations",
		KnowledgeBasePath:        "data/KnowledgeBase.csv",
		GroqBaseURL:              "https://api.groq.com/openai/v1",
		GroqModel:                "meta-llama/llama-4-scout-17b-16e-instruct",
		SarvamBaseURL:            "https://api.sarvam.ai",
		GenerationTimeoutSeconds: 30,
	}
}

// Load reads configuration from the given YAML file (skipped if absent) and
// applies environment overrides on top of defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setInt(&cfg.HTTPPort, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.MigrationsPath, "MIGRATIONS_PATH")
	setString(&cfg.KnowledgeBasePath, "KNOWLEDGE_BASE_PATH")
	setString(&cfg.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.GroqBaseURL, "GROQ_BASE_URL")
	setString(&cfg.GroqModel, "GROQ_MODEL")
	setString(&cfg.SarvamAPIKey, "SARVAM_API_KEY")
	setString(&cfg.SarvamBaseURL, "SARVAM_BASE_URL")
	setInt(&cfg.GenerationTimeoutSeconds, "GENERATION_TIMEOUT_SECONDS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the loaded configuration, aggregating all problems.
func (c Config) Validate() error {
	var result error

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.LogLevel))
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("http_port must be between 1-65535, got %d", c.HTTPPort))
	}

	if c.KnowledgeBasePath == "" {
		result = multierror.Append(result, fmt.Errorf("knowledge_base_path must not be empty"))
	}

	if c.GenerationTimeoutSeconds <= 0 {
		result = multierror.Append(result, fmt.Errorf("generation_timeout_seconds must be positive, got %d", c.GenerationTimeoutSeconds))
	}

	return result
}

// GenerationTimeout returns the bound applied to each generation call.
func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// ReadTimeout returns the HTTP server read timeout.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP server write timeout.
func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}
