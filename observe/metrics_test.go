package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns Metrics backed by a ManualReader.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sum(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)

	data, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)

	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range data.DataPoints {
		if dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestRecordFrame(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFrame(ctx, "ask/4040/d10", "ASK")
	m.RecordFrame(ctx, "ask/4040/d10", "ASK")
	m.RecordFrame(ctx, "fsk/25000/20000/d8", "FSK")

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sum(t, rm, "rtltpms.frames.emitted",
		attribute.String("branch", "ask/4040/d10"), attribute.String("modulation", "ASK")))
	assert.Equal(t, int64(1), sum(t, rm, "rtltpms.frames.emitted",
		attribute.String("branch", "fsk/25000/20000/d8"), attribute.String("modulation", "FSK")))
}

func TestRecordCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRejected(ctx, "ask/8400/d10")
	m.RecordSamples(ctx, 16384)
	m.RecordSamples(ctx, 100)
	m.RecordBurst(ctx)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sum(t, rm, "rtltpms.decode.rejected", attribute.String("branch", "ask/8400/d10")))
	assert.Equal(t, int64(16484), sum(t, rm, "rtltpms.samples.read"))
	assert.Equal(t, int64(1), sum(t, rm, "rtltpms.bursts.written"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordFrame(ctx, "b", "ASK")
		m.RecordRejected(ctx, "b")
		m.RecordSamples(ctx, 1)
		m.RecordBurst(ctx)
	})
}
