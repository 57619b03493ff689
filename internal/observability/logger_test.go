package observability

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Run("applies the configured level", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "warn"})
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "loudest"})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("defaults are usable", func(t *testing.T) {
		cfg := DefaultLoggingConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "json", cfg.Format)

		logger := NewLogger(cfg)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}
