// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "rank-claims"})

	log.Info("ranking completed", map[string]interface{}{"outputCount": 3})
	log.Warn("slow ranking", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "rank-claims", entries[0].ContextMap()["taskType"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["outputCount"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestZapWrapper_ErrorFieldsAreNamedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.Error("query failed", map[string]interface{}{"error": errors.New("timeout")})

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "timeout", entries[0].ContextMap()["error"])
}

func TestNew_FallsBackToNopOnBadOutput(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/intel.log")
	assert.NotNil(t, l)
}
