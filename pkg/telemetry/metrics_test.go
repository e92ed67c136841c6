package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func installMeterReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	globalTelemetry = &Telemetry{
		meterProvider: provider,
		meter:         provider.Meter("test"),
	}
	t.Cleanup(func() { globalTelemetry = nil })
	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestCounter_IncAndAdd(t *testing.T) {
	reader := installMeterReader(t)
	ctx := context.Background()

	counter, err := NewCounter(MetricOpts{
		Name:        "calendar_grid_cache_total",
		Description: "Month grid cache lookups",
		Unit:        "1",
	})
	require.NoError(t, err)

	counter.Inc(ctx, CacheResultAttr(true))
	counter.Add(ctx, 2, CacheResultAttr(true))

	metrics := collect(t, reader)
	sum, ok := metrics["calendar_grid_cache_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestHistogram_Record(t *testing.T) {
	reader := installMeterReader(t)

	histogram, err := NewHistogram(MetricOpts{
		Name: "calendar_grid_build_duration_ms",
		Unit: "ms",
	}, 1, 5, 25, 100)
	require.NoError(t, err)

	histogram.Record(context.Background(), 3.5, OperationAttr("grid"))
	histogram.Record(context.Background(), 42, OperationAttr("grid"))

	metrics := collect(t, reader)
	hist, ok := metrics["calendar_grid_build_duration_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, []float64{1, 5, 25, 100}, hist.DataPoints[0].Bounds)
}

func TestNewCounter_NilGlobal(t *testing.T) {
	globalTelemetry = nil

	counter, err := NewCounter(MetricOpts{Name: "noop_counter"})
	require.NoError(t, err)
	counter.Inc(context.Background())
}

func TestCacheResultAttr(t *testing.T) {
	assert.Equal(t, "hit", CacheResultAttr(true).Value.AsString())
	assert.Equal(t, "miss", CacheResultAttr(false).Value.AsString())
}
