package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FrameTracer открывает по спану на пачку кадров (секунда при 60 Гц)
type FrameTracer struct {
	tracer trace.Tracer
	batch  int

	span     trace.Span
	first    uint64
	count    int
	frozen   int
	busy     time.Duration
	slowest  time.Duration
}

// NewFrameTracer использует глобальный TracerProvider
func NewFrameTracer(batch int) *FrameTracer {
	return NewFrameTracerWith(otel.GetTracerProvider(), batch)
}

// NewFrameTracerWith использует переданный провайдер
func NewFrameTracerWith(tp trace.TracerProvider, batch int) *FrameTracer {
	if batch <= 0 {
		batch = 60
	}
	return &FrameTracer{tracer: tp.Tracer("pixel-platformer/sim"), batch: batch}
}

// FrameDone реализует scheduler.FrameObserver
func (ft *FrameTracer) FrameDone(frame uint64, elapsed time.Duration, frozen bool) {
	if ft.span == nil {
		_, ft.span = ft.tracer.Start(context.Background(), "frame.batch")
		ft.first = frame
	}
	ft.count++
	if frozen {
		ft.frozen++
	} else {
		ft.busy += elapsed
		if elapsed > ft.slowest {
			ft.slowest = elapsed
		}
	}
	if ft.count >= ft.batch {
		ft.Flush()
	}
}

// Flush закрывает текущий спан, даже неполный
func (ft *FrameTracer) Flush() {
	if ft.span == nil {
		return
	}
	ft.span.SetAttributes(
		attribute.Int64("frame.first", int64(ft.first)),
		attribute.Int("frame.count", ft.count),
		attribute.Int("frame.frozen", ft.frozen),
		attribute.Int64("frame.busy_us", ft.busy.Microseconds()),
		attribute.Int64("frame.slowest_us", ft.slowest.Microseconds()),
	)
	ft.span.End()
	ft.span = nil
	ft.count, ft.frozen = 0, 0
	ft.busy, ft.slowest = 0, 0
}
