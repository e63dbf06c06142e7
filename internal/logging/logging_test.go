package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/wiki-crawler/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Development(t *testing.T) {
	logger, err := logging.New("debug", true, "")
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_ProductionWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "crawler.log")

	logger, err := logging.New("warning", false, logFile)
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	logger.Warn("connectivity lost")
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connectivity lost")
	assert.Contains(t, string(data), `"ts"`)
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := logging.New("verbose", false, "")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"INFO":     zapcore.InfoLevel,
		"debug":    zapcore.DebugLevel,
		"Warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"CRITICAL": zapcore.FatalLevel,
	}
	for in, want := range tests {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
