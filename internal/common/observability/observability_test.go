// internal/common/observability/observability_test.go
package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("intel-test", recorder)
	require.NoError(t, err)
	defer obs.Shutdown()

	_, span := obs.StartSpan(context.Background(), "generation.step", map[string]string{"stage": "snapshot"})
	EndSpan(span, errors.New("validation failed"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "generation.step", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	require.Len(t, ended[0].Attributes(), 1)
	assert.Equal(t, "snapshot", ended[0].Attributes()[0].Value.AsString())
}

func TestNoop_IsSafe(t *testing.T) {
	obs := NewNoop()
	ctx, span := obs.StartSpan(context.Background(), "noop", nil)
	EndSpan(span, nil)

	obs.RecordRunProcessed(ctx, "ok")
	obs.RecordRunDuration(ctx, time.Second, "ok")
	obs.Shutdown()

	var nilObs *Observability
	nilObs.RecordRunProcessed(ctx, "ok")
}
