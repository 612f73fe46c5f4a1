package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger_Restore(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := SetLogger(zap.New(core))

	L().Warn("probe")
	assert.Equal(t, 1, logs.Len())

	restore()
	L().Warn("probe")
	assert.Equal(t, 1, logs.Len(), "restored logger should not write to the observer")
}

func TestSetLogger_Nil(t *testing.T) {
	restore := SetLogger(nil)
	defer restore()

	require.NotNil(t, L())
	L().Info("no-op")
}

func TestNew(t *testing.T) {
	logger, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New("", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = New("loud", false)
	assert.Error(t, err)
}
