package frame

import (
	"context"

	"github.com/bemasher/rtltpms/observe"
	"github.com/sirupsen/logrus"
)

// Dispatcher forwards frames from every branch to a single decoder.
type Dispatcher struct {
	dec     Decoder
	log     logrus.FieldLogger
	metrics *observe.Metrics
}

// NewDispatcher returns a dispatcher for dec. log and metrics may be nil.
func NewDispatcher(dec Decoder, log logrus.FieldLogger, metrics *observe.Metrics) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{dec: dec, log: log, metrics: metrics}
}

// Dispatch hands one frame to the decoder. Decoder errors are logged and
// counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, f Frame) {
	d.metrics.RecordFrame(ctx, f.Branch, f.Modulation.String())

	if err := d.dec.Decode(f.Bits, f.Attributes); err != nil {
		d.metrics.RecordRejected(ctx, f.Branch)
		d.log.WithFields(logrus.Fields{
			"branch":     f.Branch,
			"symbolrate": f.SymbolRate,
			"code":       f.AccessCode,
		}).WithError(err).Debug("frame rejected")
	}
}

// Run dispatches frames until in is closed or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, in <-chan Frame) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-in:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, f)
		}
	}
}
