package xmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMeterProvider 创建用于测试的 MeterProvider
func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// sumWhere 汇总满足全部属性条件的数据点。
func sumWhere(t *testing.T, m metricdata.Metrics, kv ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, want := range kv {
			got, ok := dp.Attributes.Value(want.Key)
			if !ok || got.Emit() != want.Value.Emit() {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestNewOTelRecorder_Default(t *testing.T) {
	rec, err := NewOTelRecorder()
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestOTelRecorder_Requests(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	rec, err := NewOTelRecorder(WithMeterProvider(mp), WithInstrumentationName("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rec.Request(ctx, "n1", OpGet, OutcomeHit)
	rec.Request(ctx, "n1", OpGet, OutcomeHit)
	rec.Request(ctx, "n1", OpGet, OutcomeMiss)
	rec.Request(ctx, "n2", OpSet, OutcomeOK)
	rec.Request(nil, "", OpGet, OutcomeError) //nolint:staticcheck // nil ctx 会被归一化

	m, ok := findMetric(collect(t, reader), metricRequests)
	require.True(t, ok)

	assert.Equal(t, int64(2), sumWhere(t, m,
		attribute.String("node", "n1"), attribute.String("result", "hit")))
	assert.Equal(t, int64(1), sumWhere(t, m,
		attribute.String("node", "n1"), attribute.String("result", "miss")))
	assert.Equal(t, int64(1), sumWhere(t, m,
		attribute.String("node", "n2"), attribute.String("op", "set")))
	assert.Equal(t, int64(1), sumWhere(t, m, attribute.String("result", "error")))
}

func TestOTelRecorder_Removals(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	rec, err := NewOTelRecorder(WithMeterProvider(mp))
	require.NoError(t, err)

	ctx := context.Background()
	rec.Removal(ctx, "n1", "capacity", 1)
	rec.Removal(ctx, "n1", "expired", 3)
	rec.Removal(ctx, "n1", "expired", 0) // 忽略

	m, ok := findMetric(collect(t, reader), metricRemovals)
	require.True(t, ok)
	assert.Equal(t, int64(1), sumWhere(t, m, attribute.String("reason", "capacity")))
	assert.Equal(t, int64(3), sumWhere(t, m, attribute.String("reason", "expired")))
}

func TestOTelRecorder_Route(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	rec, err := NewOTelRecorder(WithMeterProvider(mp))
	require.NoError(t, err)

	rec.Route(context.Background(), "n1", 3545.3)
	rec.Route(context.Background(), "n1", 100)

	m, ok := findMetric(collect(t, reader), metricRouteDistance)
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 3645.3, hist.DataPoints[0].Sum, 1e-6)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		rec.Request(context.Background(), "n", OpGet, OutcomeHit)
		rec.Removal(context.Background(), "n", "expired", 1)
		rec.Route(context.Background(), "n", 1)
	})
}
