package core

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the facade-level defaults every session and one-shot parse
// is built from. Three-layer priority, grounded on gomind's core/config.go:
// compiled-in defaults, overridden by environment variables, overridden by
// functional options (highest priority, applied last by NewConfig).
type Config struct {
	MaxInputLength       int     `json:"maxInputLength" env:"PARSERATOR_MAX_INPUT_LENGTH" default:"120000"`
	MaxSchemaFields      int     `json:"maxSchemaFields" env:"PARSERATOR_MAX_SCHEMA_FIELDS" default:"64"`
	MinConfidence        float64 `json:"minConfidence" env:"PARSERATOR_MIN_CONFIDENCE" default:"0.55"`
	DefaultStrategy      PlanStrategy `json:"defaultStrategy" env:"PARSERATOR_DEFAULT_STRATEGY" default:"sequential"`
	EnableFieldFallbacks bool    `json:"enableFieldFallbacks" env:"PARSERATOR_ENABLE_FIELD_FALLBACKS" default:"true"`
	Profile              string  `json:"profile" env:"PARSERATOR_PROFILE"`
	APIKey               string  `json:"-" env:"PARSERATOR_API_KEY"`

	Logger Logger `json:"-"`
}

// ConfigOption applies a functional override to Config, highest priority.
type ConfigOption func(*Config)

func WithMaxInputLength(n int) ConfigOption       { return func(c *Config) { c.MaxInputLength = n } }
func WithMaxSchemaFields(n int) ConfigOption      { return func(c *Config) { c.MaxSchemaFields = n } }
func WithMinConfidence(v float64) ConfigOption    { return func(c *Config) { c.MinConfidence = v } }
func WithDefaultStrategy(s PlanStrategy) ConfigOption {
	return func(c *Config) { c.DefaultStrategy = s }
}
func WithFieldFallbacks(enabled bool) ConfigOption {
	return func(c *Config) { c.EnableFieldFallbacks = enabled }
}
func WithProfile(name string) ConfigOption { return func(c *Config) { c.Profile = name } }
func WithLogger(l Logger) ConfigOption     { return func(c *Config) { c.Logger = l } }
func WithAPIKey(key string) ConfigOption   { return func(c *Config) { c.APIKey = key } }

// defaultConfig returns the compiled-in defaults (layer 1).
func defaultConfig() Config {
	return Config{
		MaxInputLength:       120000,
		MaxSchemaFields:      64,
		MinConfidence:        0.55,
		DefaultStrategy:      StrategySequential,
		EnableFieldFallbacks: true,
	}
}

// applyEnv overlays environment variables (layer 2) onto cfg.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PARSERATOR_MAX_INPUT_LENGTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxInputLength = n
		}
	}
	if v, ok := os.LookupEnv("PARSERATOR_MAX_SCHEMA_FIELDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSchemaFields = n
		}
	}
	if v, ok := os.LookupEnv("PARSERATOR_MIN_CONFIDENCE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinConfidence = f
		}
	}
	if v, ok := os.LookupEnv("PARSERATOR_DEFAULT_STRATEGY"); ok && v != "" {
		cfg.DefaultStrategy = PlanStrategy(v)
	}
	if v, ok := os.LookupEnv("PARSERATOR_ENABLE_FIELD_FALLBACKS"); ok {
		cfg.EnableFieldFallbacks = strings.EqualFold(v, "true") || v == "1"
	}
	if v, ok := os.LookupEnv("PARSERATOR_PROFILE"); ok {
		cfg.Profile = v
	}
	if v, ok := os.LookupEnv("PARSERATOR_API_KEY"); ok {
		cfg.APIKey = v
	}
}

// NewConfig builds a Config from defaults, then environment, then opts.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := defaultConfig()
	applyEnv(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = NoOpLogger{}
	}
	return &cfg
}
