package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode, "warn")
		require.NoError(t, err, mode)
		assert.False(t, l.SugaredLogger.Desugar().Core().Enabled(zap.InfoLevel))
		assert.True(t, l.SugaredLogger.Desugar().Core().Enabled(zap.WarnLevel))
	}
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("user_id", "u1").Info("awarded", "achievement_id", "first_correct")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "awarded", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "first_correct", fields["achievement_id"])
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	l.Sync()
}
