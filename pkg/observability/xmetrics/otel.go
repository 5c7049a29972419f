package xmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xgeo/xmetrics"

	metricRequests      = "xgeo.cache.requests"
	metricRemovals      = "xgeo.cache.removals"
	metricRouteDistance = "xgeo.cache.route.distance"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Recorder 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认使用 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelRecorder 创建基于 OpenTelemetry 的 Recorder。
func NewOTelRecorder(opts ...Option) (Recorder, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	requests, err := meter.Int64Counter(
		metricRequests,
		metric.WithDescription("cache requests by node, operation and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	removals, err := meter.Int64Counter(
		metricRemovals,
		metric.WithDescription("cache entries removed by node and reason"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}

	distance, err := meter.Float64Histogram(
		metricRouteDistance,
		metric.WithDescription("great-circle distance from caller to the selected node"),
		metric.WithUnit("km"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &otelRecorder{
		requests: requests,
		removals: removals,
		distance: distance,
	}, nil
}

type otelRecorder struct {
	requests metric.Int64Counter
	removals metric.Int64Counter
	distance metric.Float64Histogram
}

func (r *otelRecorder) Request(ctx context.Context, node string, op Op, outcome Outcome) {
	r.requests.Add(normalize(ctx), 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("op", string(op)),
		attribute.String("result", string(outcome)),
	))
}

func (r *otelRecorder) Removal(ctx context.Context, node string, reason string, n int) {
	if n <= 0 {
		return
	}
	r.removals.Add(normalize(ctx), int64(n), metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("reason", reason),
	))
}

func (r *otelRecorder) Route(ctx context.Context, node string, distanceKm float64) {
	r.distance.Record(normalize(ctx), distanceKm, metric.WithAttributes(
		attribute.String("node", node),
	))
}

func normalize(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
