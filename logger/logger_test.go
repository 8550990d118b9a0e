package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevel(t *testing.T) {
	lvl, err := Level(false, "")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, lvl)

	lvl, err = Level(true, "")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, lvl)

	lvl, err = Level(true, "warn")
	require.NoError(t, err)
	assert.Equal(t, zap.WarnLevel, lvl)

	_, err = Level(false, "loud")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New(false, "error")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.WarnLevel))
	assert.True(t, l.Core().Enabled(zap.ErrorLevel))

	_, err = New(false, "loud")
	assert.Error(t, err)
}
