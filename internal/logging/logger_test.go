package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logDebug bool
		logInfo  bool
	}{
		{name: "debug level", level: "debug", logDebug: true, logInfo: true},
		{name: "warn level hides info", level: "warn", logDebug: false, logInfo: false},
		{name: "invalid level falls back to info", level: "loud", logDebug: false, logInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, tt.level)

			logger.Debug("debug line")
			assert.Equal(t, tt.logDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			logger.Info("info line", "key", "value")
			assert.Equal(t, tt.logInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info").Info("hello", "identity_id", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, float64(3), entry["identity_id"])
}
