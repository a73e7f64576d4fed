package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.OrNop().Info("discarded")
	})
	assert.NotNil(t, NewDefault().Named("sandbox").Logger)
}
