package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, cleanup, err := Setup(Config{
		Level:    "info",
		FilePath: path,
	})
	require.NoError(t, err)

	logger.Info("server started", slog.String("transport", "stdio"))
	logger.Debug("dropped below level")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "server started", entry["msg"])
	assert.Equal(t, "stdio", entry["transport"])
	assert.NotContains(t, string(data), "dropped below level")
}

func TestSetupStderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "warn"})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, logger)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/data/midos")
	assert.Equal(t, filepath.Join("/data/midos", "logs", "server.log"), cfg.FilePath)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.True(t, cfg.WriteToStderr)
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	// A zero max size forces rotation on every write.
	w, err := NewRotatingWriter(path, 0, 3)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		_, err := w.Write([]byte("line\n"))
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
}

func TestRotatingWriterDropsOldest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	w, err := NewRotatingWriter(path, 0, 2)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		_, err := w.Write([]byte("line\n"))
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}
