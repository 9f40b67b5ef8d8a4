package core

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 120000, cfg.MaxInputLength)
	assert.Equal(t, 64, cfg.MaxSchemaFields)
	assert.Equal(t, 0.55, cfg.MinConfidence)
	assert.Equal(t, StrategySequential, cfg.DefaultStrategy)
	assert.True(t, cfg.EnableFieldFallbacks)
	assert.NotNil(t, cfg.Logger, "NewConfig must default to a no-op logger, never nil")
}

func TestNewConfigOptionsOverrideDefaults(t *testing.T) {
	cfg := NewConfig(
		WithMaxInputLength(500),
		WithMinConfidence(0.9),
		WithFieldFallbacks(false),
		WithProfile("sensor-grid"),
		WithAPIKey("secret"),
	)
	assert.Equal(t, 500, cfg.MaxInputLength)
	assert.Equal(t, 0.9, cfg.MinConfidence)
	assert.False(t, cfg.EnableFieldFallbacks)
	assert.Equal(t, "sensor-grid", cfg.Profile)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestNewConfigEnvOverridesDefaultsButNotOptions(t *testing.T) {
	t.Setenv("PARSERATOR_MIN_CONFIDENCE", "0.2")
	t.Setenv("PARSERATOR_MAX_SCHEMA_FIELDS", "10")
	defer os.Unsetenv("PARSERATOR_MIN_CONFIDENCE")
	defer os.Unsetenv("PARSERATOR_MAX_SCHEMA_FIELDS")

	cfg := NewConfig(WithMaxSchemaFields(99))
	assert.Equal(t, 0.2, cfg.MinConfidence, "env should override the compiled-in default")
	assert.Equal(t, 99, cfg.MaxSchemaFields, "an explicit option should still win over env")
}

func TestWithLoggerOverridesNoOpDefault(t *testing.T) {
	logger := NewDefaultLogger()
	cfg := NewConfig(WithLogger(logger))
	assert.Same(t, logger, cfg.Logger)
}
