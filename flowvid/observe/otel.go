package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

// ScopeName identifies the instrumentation scope of this module.
const ScopeName = "github.com/lguimbarda/flowvid"

// Instruments are the OpenTelemetry metric instruments fed by stream hooks.
type Instruments struct {
	Frames  metric.Int64Counter
	Errors  metric.Int64Counter
	Latency metric.Float64Histogram
}

// NewInstruments creates the instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	frames, err := meter.Int64Counter("flowvid.frames",
		metric.WithDescription("frames produced by a pipeline stage"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("flowvid.errors",
		metric.WithDescription("pipeline stage failures"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("flowvid.frame.duration",
		metric.WithDescription("time to produce one frame"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Instruments{Frames: frames, Errors: errs, Latency: latency}, nil
}

// GlobalInstruments creates the instruments on the globally registered
// meter provider.
func GlobalInstruments() (*Instruments, error) {
	return NewInstruments(otel.Meter(ScopeName))
}

// WithInstruments records frames, errors and per-frame latency of streams
// of T consumed with ctx, attributed with the stage name.
func WithInstruments[T any](ctx context.Context, inst *Instruments, stage string) context.Context {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	var last time.Time
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func() { last = time.Now() },
		OnValue: func(T) {
			now := time.Now()
			inst.Latency.Record(ctx, float64(now.Sub(last))/float64(time.Millisecond), attrs)
			last = now
			inst.Frames.Add(ctx, 1, attrs)
		},
		OnError: func(error) { inst.Errors.Add(ctx, 1, attrs) },
	})
}

// WithTracing opens a span named after the stage for every traversal of a
// stream of T consumed with ctx. Failures are recorded on the span.
func WithTracing[T any](ctx context.Context, tracer trace.Tracer, stage string) context.Context {
	if tracer == nil {
		tracer = otel.Tracer(ScopeName)
	}
	var span trace.Span
	var frames int64
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func() {
			_, span = tracer.Start(ctx, stage)
			frames = 0
		},
		OnValue: func(T) { frames++ },
		OnError: func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		},
		OnComplete: func() {
			span.SetAttributes(attribute.Int64("flowvid.frames", frames))
			span.End()
		},
	})
}
