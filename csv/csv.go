package csv

import (
	"encoding/csv"
	"io"

	"golang.org/x/xerrors"
)

// Produces a list of fields making up a record.
type Recorder interface {
	Record() []string
}

// Produces the column names of a record. Written once before the first record.
type Headerer interface {
	Header() []string
}

// An Encoder writes CSV records to an output stream.
type Encoder struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: csv.NewWriter(w)}
}

// Encode writes a CSV record representing v to the stream followed by a
// newline character. Value given must implement the Recorder interface. If v
// also implements Headerer its header row precedes the first record.
func (enc *Encoder) Encode(v interface{}) (err error) {
	defer func() {
		if r, _ := recover().(error); r != nil {
			err = xerrors.Errorf("recovered: %w", r)
		}
	}()

	rec := v.(Recorder)

	if h, ok := v.(Headerer); ok && !enc.wroteHeader {
		if err := enc.w.Write(h.Header()); err != nil {
			return err
		}
		enc.wroteHeader = true
	}

	if err := enc.w.Write(rec.Record()); err != nil {
		return err
	}
	enc.w.Flush()

	return enc.w.Error()
}
