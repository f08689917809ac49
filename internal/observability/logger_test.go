package observability

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	cfg := &config.Config{
		LogLevel:          "info",
		LogFormat:         "json",
		LogFile:           path,
		LogFileMaxSizeMB:  1,
		LogFileMaxAgeDays: 1,
	}

	logger := NewLogger(cfg)
	logger.Debug("hidden")
	logger.Info("upstream fetched", "features", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "upstream fetched", line["msg"])
	assert.Equal(t, "seismic-data-api", line["service"])
	assert.InDelta(t, 3, line["features"], 0)
	assert.NotContains(t, string(data), "hidden")
}
