package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewStdLogger(&buf, LevelWarn)

	log.Info("hidden")
	log.Error("failed to load events", "status", 500)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "ERROR failed to load events status 500")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
