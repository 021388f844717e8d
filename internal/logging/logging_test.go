package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("should build a logger for known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			logger, zapLogger, err := New(level, level == "debug")
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.Equal(t, level, zapLogger.Level().String())
		}
	})

	t.Run("should reject an unknown level", func(t *testing.T) {
		_, _, err := New("loud", false)
		assert.Error(t, err)
	})

	t.Run("should discard with the nop logger", func(t *testing.T) {
		assert.NotPanics(t, func() { Nop().Info("ignored") })
	})
}
