package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.TextSize)
	assert.Empty(t, cfg.Font)
	assert.Equal(t, 2, cfg.Margin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.PageWidth)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FOLIO_TEXT_SIZE", "140")
	t.Setenv("FOLIO_FONT", "Palatino")
	t.Setenv("FOLIO_PAGE_WIDTH", "60")
	t.Setenv("FOLIO_PAGE_HEIGHT", "20")
	t.Setenv("FOLIO_LOG_LEVEL", "debug")
	t.Setenv("FOLIO_STATE_DIR", "/tmp/folio-state")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 140, cfg.TextSize)
	assert.Equal(t, "Palatino", cfg.Font)
	assert.Equal(t, 60, cfg.PageWidth)
	assert.Equal(t, 20, cfg.PageHeight)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/folio-state", cfg.StateDir)
}

func TestLoadClampsTextSize(t *testing.T) {
	t.Setenv("FOLIO_TEXT_SIZE", "900")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.TextSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"not a number", "FOLIO_TEXT_SIZE", "large"},
		{"negative width", "FOLIO_PAGE_WIDTH", "-1"},
		{"negative margin", "FOLIO_MARGIN", "-3"},
		{"negative workers", "FOLIO_WORKERS", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
