// Package observe provides OpenTelemetry metrics for the receiver.
//
// Instruments are created from a [metric.MeterProvider] so tests can inspect
// them with a ManualReader. [InitProvider] installs a Prometheus exporter so
// the same instruments can be scraped from the -metrics endpoint.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bemasher/rtltpms"

// Metrics holds the receiver's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// FramesEmitted counts frames captured per branch. Attributes:
	//   attribute.String("branch", ...), attribute.String("modulation", ...)
	FramesEmitted metric.Int64Counter

	// DecodeRejected counts frames the decoder refused. Attributes:
	//   attribute.String("branch", ...)
	DecodeRejected metric.Int64Counter

	// SamplesRead counts complex samples read from the source.
	SamplesRead metric.Int64Counter

	// BurstsWritten counts segments written by the burst recorder.
	BurstsWritten metric.Int64Counter
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesEmitted, err = m.Int64Counter("rtltpms.frames.emitted",
		metric.WithDescription("Frames captured by branch and modulation."),
	); err != nil {
		return nil, err
	}
	if met.DecodeRejected, err = m.Int64Counter("rtltpms.decode.rejected",
		metric.WithDescription("Frames rejected by the payload decoder."),
	); err != nil {
		return nil, err
	}
	if met.SamplesRead, err = m.Int64Counter("rtltpms.samples.read",
		metric.WithDescription("Complex samples read from the sample source."),
	); err != nil {
		return nil, err
	}
	if met.BurstsWritten, err = m.Int64Counter("rtltpms.bursts.written",
		metric.WithDescription("Raw IQ segments written by the burst recorder."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordFrame counts one frame from branch.
func (m *Metrics) RecordFrame(ctx context.Context, branch, modulation string) {
	if m == nil {
		return
	}
	m.FramesEmitted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("branch", branch),
			attribute.String("modulation", modulation),
		),
	)
}

// RecordRejected counts one decoder rejection of a frame from branch.
func (m *Metrics) RecordRejected(ctx context.Context, branch string) {
	if m == nil {
		return
	}
	m.DecodeRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("branch", branch)))
}

// RecordSamples counts n samples read from the source.
func (m *Metrics) RecordSamples(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.SamplesRead.Add(ctx, int64(n))
}

// RecordBurst counts one written burst segment.
func (m *Metrics) RecordBurst(ctx context.Context) {
	if m == nil {
		return
	}
	m.BurstsWritten.Add(ctx, 1)
}
