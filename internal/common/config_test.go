package common

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("IPQC_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 800, cfg.Pipeline.SectionWindow)
	assert.Equal(t, 4*time.Second, cfg.Pipeline.CallSpacing)
	assert.Equal(t, 30, cfg.Pipeline.PollAttempts)
	assert.Equal(t, time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.LLM.InitialBackoff)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("IPQC_CONFIG", "")
	t.Chdir(t.TempDir())
	t.Setenv("IPQC_DATABASE_DRIVER", "postgres")
	t.Setenv("IPQC_DATABASE_DSN", "postgres://localhost/ipqc")
	t.Setenv("IPQC_PIPELINE_CALL_SPACING", "250ms")
	t.Setenv("IPQC_LLM_PROVIDER", "anthropic")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/ipqc", cfg.Database.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.CallSpacing)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipqc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  section_window: 500\nocr:\n  engine: vision\n"), 0o600))
	t.Setenv("IPQC_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Pipeline.SectionWindow)
	assert.Equal(t, "vision", cfg.OCR.Engine)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("IPQC_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Equal(t, CodeConfig, Code(err))
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("IPQC_CONFIG", "")
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"dsn", func(c *Config) { c.Database.DSN = "" }},
		{"engine", func(c *Config) { c.OCR.Engine = "abbyy" }},
		{"read endpoint", func(c *Config) { c.OCR.Engine = "read-api" }},
		{"provider", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"window", func(c *Config) { c.Pipeline.SectionWindow = -1 }},
		{"format", func(c *Config) { c.Export.Format = "pdf" }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, CodeConfig, Code(err))
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf).Debug("kept", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
