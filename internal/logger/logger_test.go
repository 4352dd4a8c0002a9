package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
		assert.NoError(t, Initialize(level, false), level)
		require.NotNil(t, Logger)
	}
}

func TestInitializeJSON(t *testing.T) {
	assert.NoError(t, Initialize("info", true))
	require.NotNil(t, Logger)
}

func TestInitializeUnknownLevel(t *testing.T) {
	err := Initialize("verbose", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

func TestLogBeforeInitialize(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	Logger = zap.NewNop().Sugar()
	assert.NotPanics(t, func() {
		Infow("message", "key", "value")
		Errorw("message", "key", "value")
		Sync()
	})
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, level)

	level, err = parseLevel("Warn")
	require.NoError(t, err)
	assert.Equal(t, zap.WarnLevel, level)
}
