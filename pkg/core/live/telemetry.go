package live

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vango-go/pj-assistant/pkg/core/live"

type instruments struct {
	tracer        trace.Tracer
	sessions      metric.Int64Counter
	framesSent    metric.Int64Counter
	chunksDropped metric.Int64Counter
	toolCalls     metric.Int64Counter
	interruptions metric.Int64Counter
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}
	return instruments{
		tracer:        otel.Tracer(instrumentationName),
		sessions:      counter("pj.live.sessions", "Voice sessions by outcome"),
		framesSent:    counter("pj.live.audio.frames_sent", "Capture windows streamed to the model"),
		chunksDropped: counter("pj.live.audio.chunks_dropped", "Undecodable audio chunks dropped"),
		toolCalls:     counter("pj.live.tool_calls", "Tool calls dispatched"),
		interruptions: counter("pj.live.interruptions", "Barge-in interruptions"),
	}
}
