package mw

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/vango-go/pj-assistant/pkg/gateway"

// Metrics records request counts and latency. Paths outside the known
// routes share the "unmatched" label.
type Metrics struct {
	meter    metric.Meter
	routes   map[string]struct{}
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics builds the request instruments on mp, or on the global provider
// when mp is nil.
func NewMetrics(mp metric.MeterProvider, routes ...string) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	requests, err := meter.Int64Counter("pj.gateway.requests",
		metric.WithDescription("HTTP requests by route and status"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("pj.gateway.request.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1, 5, 30))
	if err != nil {
		return nil, err
	}
	m := &Metrics{
		meter:    meter,
		routes:   make(map[string]struct{}, len(routes)),
		requests: requests,
		duration: duration,
	}
	for _, r := range routes {
		m.routes[r] = struct{}{}
	}
	return m, nil
}

// ObserveClients reports count as the number of attached hosts on every
// collection.
func (m *Metrics) ObserveClients(count func() int) error {
	_, err := m.meter.Int64ObservableGauge("pj.gateway.hosts_attached",
		metric.WithDescription("Hosts attached to the assistant bridge"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}))
	return err
}

func (m *Metrics) route(path string) string {
	if _, ok := m.routes[path]; ok {
		return path
	}
	return "unmatched"
}

// Wrap records one measurement per request. Upgraded connections are
// recorded when the handler returns.
func (m *Metrics) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww, sw := wrapWriter(w)
		next.ServeHTTP(ww, r)
		attrs := metric.WithAttributes(
			attribute.String("http.route", m.route(r.URL.Path)),
			attribute.String("http.method", r.Method),
			attribute.String("http.status_code", strconv.Itoa(sw.status)),
		)
		ctx := context.WithoutCancel(r.Context())
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	})
}
