package utils

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("debug", false).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, NewLogger("warn", true).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("loud", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("", false).GetLevel())
}
