package shopify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("polling", map[string]interface{}{"asset_id": "gid://shopify/MediaImage/1"})
	logger.Info("upload complete", nil)
	logger.Warn("falling back", map[string]interface{}{"step": StepDownload, "error": errors.New("timeout")})
	logger.Error("upload failed", map[string]interface{}{"attempts": 3})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "gid://shopify/MediaImage/1", entries[0].ContextMap()["asset_id"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "timeout", entries[2].ContextMap()["error"])
	assert.Equal(t, "error", entries[2].Context[0].Key)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.EqualValues(t, 3, entries[3].ContextMap()["attempts"])
}

func TestZapLogger_NilIsNop(t *testing.T) {
	t.Parallel()

	logger := NewZapLogger(nil)
	logger.Info("ignored", map[string]interface{}{"k": "v"})
	assert.NoError(t, logger.Sync())
}
