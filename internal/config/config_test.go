package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1:8420", cfg.HTTP.Addr)
	assert.Equal(t, "gemini-embedding-001", cfg.Embedding.Model)
	assert.Equal(t, 3072, cfg.Embedding.Dimensions)
	assert.Equal(t, 50, cfg.Embedding.BatchSize)
	assert.Equal(t, 4, cfg.Embedding.Workers)
	assert.Equal(t, 0.5, cfg.Search.Alpha)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 60*time.Second, cfg.Search.ResultCacheTTL)
	assert.Equal(t, 30.0, cfg.Decay.HalfLifeDays)
	assert.Equal(t, 30*time.Second, cfg.Quota.FlushInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRootFromEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvRoot, root)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
}

func TestLoadYAMLOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvRoot, root)

	yaml := "http:\n  addr: 0.0.0.0:9000\nsearch:\n  alpha: 0.7\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "midos.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Equal(t, 0.7, cfg.Search.Alpha)
	// Unset fields keep their defaults.
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvRoot, root)
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9999")
	t.Setenv(EnvAPIKey, "test-api-key")

	yaml := "http:\n  addr: 0.0.0.0:9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "midos.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.Equal(t, "test-api-key", cfg.Embedding.APIKey)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvRoot, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "midos.yaml"), []byte("http: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha too high", func(c *Config) { c.Search.Alpha = 1.5 }},
		{"alpha negative", func(c *Config) { c.Search.Alpha = -0.1 }},
		{"zero rrf constant", func(c *Config) { c.Search.RRFConstant = 0 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"zero workers", func(c *Config) { c.Embedding.Workers = 0 }},
		{"zero half life", func(c *Config) { c.Decay.HalfLifeDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/data/midos"

	assert.Equal(t, filepath.Join("/data/midos", "config", "api_keys.json"), cfg.KeysPath())
	assert.Equal(t, filepath.Join("/data/midos", "config", "api_usage.json"), cfg.UsagePath())
	assert.Equal(t, filepath.Join("/data/midos", "knowledge", "SKILLS"), cfg.SkillsDir())
	assert.Equal(t, filepath.Join("/data/midos", "knowledge", "memory", "midos_knowledge.lance"), cfg.VectorDir())
	assert.Equal(t, filepath.Join("/data/midos", "logs", "server.log"), cfg.LogFilePath())

	cfg.Logging.File = "/var/log/midos.log"
	assert.Equal(t, "/var/log/midos.log", cfg.LogFilePath())
}
