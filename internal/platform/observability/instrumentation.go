package observability

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const metricNamespace = "tts_mcp"

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	return current().cfg.Enabled
}

// StartSpan records the lifetime of one operation. The returned func must be
// called exactly once with the operation's error.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	state := current()
	if state.provider == nil || !state.cfg.Enabled {
		return ctx, func(error) {}
	}

	tracer := state.provider.Tracer(instrumentationName)
	spanCtx, span := tracer.Start(ctx, component+"."+operation, trace.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
	))
	start := time.Now()

	return spanCtx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if m := state.metrics; m != nil {
			m.operationDuration.WithLabelValues(component, operation, status).Observe(time.Since(start).Seconds())
			m.operationsTotal.WithLabelValues(component, operation, status).Inc()
		}
	}
}

// RecordMetric emits a best-effort metric datapoint via the configured logger
// and the metrics registry.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	state := current()
	if state.logger == nil || !state.cfg.Enabled {
		return
	}

	attrs := []slog.Attr{
		slog.String("metric", name),
		slog.Float64("value", value),
	}
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}
	state.logger.LogAttrs(ctx, slog.LevelDebug, "obs metric", attrs...)

	if state.metrics != nil {
		if err := state.metrics.observe(name, value, labels); err != nil {
			state.logger.LogAttrs(ctx, slog.LevelDebug, "obs metric not recorded",
				slog.String("metric", name), slog.Any("error", err))
		}
	}
}

type metricSet struct {
	registry          *prometheus.Registry
	operationDuration *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec

	mu     sync.Mutex
	custom map[string]customMetric
}

type customMetric struct {
	labels []string
	vec    *prometheus.SummaryVec
}

func newMetricSet(reg *prometheus.Registry) (*metricSet, error) {
	m := &metricSet{
		registry: reg,
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of synthesis and playback operations in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"component", "operation", "status"},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "operations_total",
				Help:      "Total number of synthesis and playback operations",
			},
			[]string{"component", "operation", "status"},
		),
		custom: make(map[string]customMetric),
	}
	for _, c := range []prometheus.Collector{m.operationDuration, m.operationsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records value in a summary named after the metric. The label set
// is fixed by the first datapoint of each name.
func (m *metricSet) observe(name string, value float64, labels map[string]string) error {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m.mu.Lock()
	defer m.mu.Unlock()

	metric, ok := m.custom[name]
	if !ok {
		vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: metricNamespace,
			Name:      promName(name),
			Help:      "Observed values of " + name,
		}, keys)
		if err := m.registry.Register(vec); err != nil {
			return err
		}
		metric = customMetric{labels: keys, vec: vec}
		m.custom[name] = metric
	}

	obs, err := metric.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return err
	}
	obs.Observe(value)
	return nil
}

func promName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// logExporter writes finished spans to the logger.
type logExporter struct {
	logger *slog.Logger
}

func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.logger == nil {
		return nil
	}
	for _, s := range spans {
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("span", s.Name()),
			slog.String("trace_id", s.SpanContext().TraceID().String()),
			slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
		}
		if s.Status().Code == codes.Error {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", s.Status().Description))
		}
		e.logger.LogAttrs(ctx, level, "obs span end", attrs...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
