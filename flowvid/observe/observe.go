// Package observe turns stream hooks into measurements: in-process stream
// metrics, OpenTelemetry metric instruments and trace spans. Everything
// here is attached through the context and fires from terminal operations
// and sinks.
package observe

import (
	"context"
	"time"

	"github.com/lguimbarda/flowvid/flowvid/core"
)

// StreamMetrics holds statistics about one traversal of a stream.
type StreamMetrics struct {
	Frames int64
	Errors int64

	StartTime time.Time
	EndTime   time.Time

	FramesPerSecond float64

	// Latency between consecutive frames, the first measured from the start.
	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration
}

// WithMetrics collects StreamMetrics for every traversal of a stream of T
// consumed with ctx, passing them to onComplete when the traversal ends.
func WithMetrics[T any](ctx context.Context, onComplete func(StreamMetrics)) context.Context {
	var m StreamMetrics
	var last time.Time
	var total time.Duration
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func() {
			m = StreamMetrics{StartTime: time.Now(), MinLatency: time.Duration(1<<63 - 1)}
			last = m.StartTime
			total = 0
		},
		OnValue: func(T) {
			now := time.Now()
			d := now.Sub(last)
			last = now
			m.Frames++
			total += d
			m.MinLatency = min(m.MinLatency, d)
			m.MaxLatency = max(m.MaxLatency, d)
		},
		OnError: func(error) { m.Errors++ },
		OnComplete: func() {
			m.EndTime = time.Now()
			if m.Frames == 0 {
				m.MinLatency = 0
			} else {
				m.AvgLatency = total / time.Duration(m.Frames)
				if secs := m.EndTime.Sub(m.StartTime).Seconds(); secs > 0 {
					m.FramesPerSecond = float64(m.Frames) / secs
				}
			}
			if onComplete != nil {
				onComplete(m)
			}
		},
	})
}
