package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartfarmer/backend/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	logger, err := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(&config.Config{LogLevel: "bogus", LogFormat: "console", Env: "test"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
