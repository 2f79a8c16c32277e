package decode

import (
	"time"

	"github.com/bemasher/rtltpms/frame"
	"github.com/pkg/errors"
)

// JSON, XML and CSV all implement this interface so we can simplify log
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

// Reporter is a frame.Decoder that decodes, filters and encodes messages.
type Reporter struct {
	decoders []Decoder
	filters  FilterChain
	enc      Encoder

	// OnMessage, if set, is called after each message is encoded.
	OnMessage func(LogMessage)

	now func() time.Time
}

func NewReporter(enc Encoder, filters FilterChain, decoders ...Decoder) *Reporter {
	return &Reporter{
		decoders: decoders,
		filters:  filters,
		enc:      enc,
		now:      time.Now,
	}
}

// Decode tries each decoder in turn, the first to accept the frame wins.
// Frames removed by the filter chain are not errors.
func (r *Reporter) Decode(bits []byte, attrs frame.Attributes) error {
	var (
		msg Message
		err = ErrNoDecoder
	)
	for _, d := range r.decoders {
		if msg, err = d.Decode(bits, attrs); err == nil {
			break
		}
	}
	if err != nil {
		return err
	}

	logMsg := NewLogMessage(r.now(), attrs, msg)
	if !r.filters.Match(logMsg) {
		return nil
	}

	if err := r.enc.Encode(logMsg); err != nil {
		return errors.Wrap(err, "encode message")
	}

	if r.OnMessage != nil {
		r.OnMessage(logMsg)
	}

	return nil
}
