package source

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Sample file formats.
const (
	FormatU8   = "u8"   // Interleaved unsigned 8-bit IQ, as rtl_sdr writes.
	FormatCF32 = "cf32" // Interleaved little-endian float32 IQ.
)

var ErrFormat = errors.New("unknown sample format")

// File replays samples from a reader.
type File struct {
	r      *bufio.Reader
	closer io.Closer
	format string
	rate   float64

	raw []byte
	lut ByteLUT
}

// Open replays the sample file at path, sampled at rate.
func Open(path, format string, rate float64) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sample file")
	}

	src, err := NewFile(f, format, rate)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f

	return src, nil
}

// NewFile replays samples read from r. Close does not close r.
func NewFile(r io.Reader, format string, rate float64) (*File, error) {
	format = strings.ToLower(format)
	if format != FormatU8 && format != FormatCF32 {
		return nil, errors.Wrapf(ErrFormat, "%q", format)
	}
	if rate <= 0 {
		return nil, errors.Errorf("invalid sample rate: %f", rate)
	}

	return &File{
		r:      bufio.NewReaderSize(r, 1<<16),
		format: format,
		rate:   rate,
		lut:    NewByteLUT(),
	}, nil
}

func (f *File) SampleRate() float64 {
	return f.rate
}

func (f *File) Format() string {
	return f.format
}

func (f *File) sampleSize() int {
	if f.format == FormatCF32 {
		return 8
	}
	return 2
}

func (f *File) Read(samples []complex64) (int, error) {
	size := f.sampleSize()
	if need := len(samples) * size; cap(f.raw) < need {
		f.raw = make([]byte, need)
	}
	f.raw = f.raw[:len(samples)*size]

	n, err := readFull(f.r, f.raw, size)

	if f.format == FormatU8 {
		f.lut.Convert(samples[:n], f.raw)
		return n, err
	}

	for idx := range samples[:n] {
		i := math.Float32frombits(binary.LittleEndian.Uint32(f.raw[idx*8:]))
		q := math.Float32frombits(binary.LittleEndian.Uint32(f.raw[idx*8+4:]))
		samples[idx] = complex(i, q)
	}

	return n, err
}

func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
