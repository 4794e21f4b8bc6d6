package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrs(span sdktrace.ReadOnlySpan) map[string]int64 {
	out := make(map[string]int64)
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.AsInt64()
	}
	return out
}

func TestFrameTracerBatches(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ft := NewFrameTracerWith(tp, 3)

	ft.FrameDone(1, 2*time.Millisecond, false)
	ft.FrameDone(2, 0, true)
	ft.FrameDone(3, 5*time.Millisecond, false)
	ft.FrameDone(4, time.Millisecond, false)

	ended := rec.Ended()
	require.Len(t, ended, 1, "полная пачка закрывает спан")
	assert.Equal(t, "frame.batch", ended[0].Name())

	a := attrs(ended[0])
	assert.Equal(t, int64(1), a["frame.first"])
	assert.Equal(t, int64(3), a["frame.count"])
	assert.Equal(t, int64(1), a["frame.frozen"])
	assert.Equal(t, int64(7000), a["frame.busy_us"])
	assert.Equal(t, int64(5000), a["frame.slowest_us"])

	ft.Flush()
	ended = rec.Ended()
	require.Len(t, ended, 2)
	a = attrs(ended[1])
	assert.Equal(t, int64(4), a["frame.first"])
	assert.Equal(t, int64(1), a["frame.count"])

	ft.Flush()
	assert.Len(t, rec.Ended(), 2, "пустой сброс ничего не закрывает")
}
