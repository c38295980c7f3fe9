package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const instrumentationName = "tts-mcp-go"

// Config captures observability toggles.
type Config struct {
	Enabled bool
	// Exporter receives finished spans. Nil writes them to the logger.
	Exporter sdktrace.SpanExporter
}

// ShutdownFunc allows callers to tear down any observability exporters.
type ShutdownFunc func(context.Context) error

var (
	loggerMu             sync.RWMutex
	instrumentationLog   *slog.Logger
	instrumentationState Config
	tracerProvider       *sdktrace.TracerProvider
	registry             *prometheus.Registry
	instruments          *metricSet
)

type snapshot struct {
	logger   *slog.Logger
	cfg      Config
	provider *sdktrace.TracerProvider
	metrics  *metricSet
}

func current() snapshot {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return snapshot{
		logger:   instrumentationLog,
		cfg:      instrumentationState,
		provider: tracerProvider,
		metrics:  instruments,
	}
}

// Setup installs a tracer provider and a metrics registry when cfg.Enabled
// is set. Calling it again replaces the previous setup; the returned func
// flushes spans, logs a metrics summary and resets it.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	var (
		provider *sdktrace.TracerProvider
		reg      *prometheus.Registry
		metrics  *metricSet
	)
	if cfg.Enabled {
		exporter := cfg.Exporter
		if exporter == nil {
			exporter = &logExporter{logger: logger}
		}
		provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

		reg = prometheus.NewRegistry()
		var err error
		if metrics, err = newMetricSet(reg); err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
	}

	loggerMu.Lock()
	previous := tracerProvider
	instrumentationLog = logger
	instrumentationState = cfg
	tracerProvider = provider
	registry = reg
	instruments = metrics
	loggerMu.Unlock()

	if previous != nil {
		_ = previous.Shutdown(ctx)
	}
	if logger != nil && cfg.Enabled {
		logger.DebugContext(ctx, "[OBSERVABILITY] spans and metrics enabled")
	}

	return func(ctx context.Context) error {
		loggerMu.Lock()
		if tracerProvider != provider {
			// Replaced by a later Setup; nothing of ours is installed.
			loggerMu.Unlock()
			return nil
		}
		instrumentationLog = nil
		instrumentationState = Config{}
		tracerProvider = nil
		registry = nil
		instruments = nil
		loggerMu.Unlock()

		if provider == nil {
			return nil
		}
		logSummary(ctx, logger, reg)
		return provider.Shutdown(ctx)
	}, nil
}

// Registry returns the active metrics registry, nil when disabled.
func Registry() *prometheus.Registry {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return registry
}

func logSummary(ctx context.Context, logger *slog.Logger, reg *prometheus.Registry) {
	if logger == nil || reg == nil {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		logger.WarnContext(ctx, "[OBSERVABILITY] failed to gather metrics", slog.Any("error", err))
		return
	}
	for _, family := range families {
		logger.DebugContext(ctx, "[OBSERVABILITY] metric summary",
			slog.String("metric", family.GetName()),
			slog.Int("series", len(family.GetMetric())),
		)
	}
}
