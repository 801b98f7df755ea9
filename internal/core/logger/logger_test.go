package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	l, cleanup := New("warn", true)
	defer cleanup()
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l2, cleanup2 := New("nonsense", false)
	defer cleanup2()
	assert.True(t, l2.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l2.Core().Enabled(zapcore.DebugLevel))
}

func TestRotateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, cleanup := NewWithRotate("info", true, FileRotate{Enable: true, Filename: path, MaxSizeMB: 1})
	l.Info("recipe created", zap.Uint("id", 7))
	cleanup()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "recipe created")
	assert.Contains(t, string(b), `"id":7`)
}

func TestToStdLogger(t *testing.T) {
	l, cleanup := New("info", true)
	defer cleanup()
	assert.NotNil(t, ToStdLogger(l, zapcore.ErrorLevel))
}
