// RTLTPMS - An rtl-sdr receiver for tire pressure monitoring sensors.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package source provides complex sample streams from rtl_tcp servers,
// sample files and memory.
package source

import (
	"io"

	"github.com/pkg/errors"
)

// Source produces complex samples at a fixed rate.
type Source interface {
	io.Closer

	// SampleRate never changes for the lifetime of a source.
	SampleRate() float64

	// Read fills samples and returns the number read. Returns io.EOF once the
	// stream is exhausted.
	Read(samples []complex64) (int, error)
}

// ByteLUT maps unsigned 8-bit samples to [-1, 1].
type ByteLUT [256]float32

func NewByteLUT() (lut ByteLUT) {
	for idx := range lut {
		lut[idx] = (float32(idx) - 127.5) / 127.5
	}
	return
}

// Convert interleaved IQ bytes in src to complex samples in dst.
func (lut ByteLUT) Convert(dst []complex64, src []byte) {
	for idx := range dst {
		dst[idx] = complex(lut[src[idx<<1]], lut[src[idx<<1+1]])
	}
}

// readFull reads whole frames of size bytes into buf. A short final read is
// truncated to whole frames and reported as io.EOF.
func readFull(r io.Reader, buf []byte, size int) (int, error) {
	n, err := io.ReadFull(r, buf)
	switch err {
	case nil:
	case io.ErrUnexpectedEOF:
		err = io.EOF
	case io.EOF:
	default:
		return n / size, errors.Wrap(err, "read samples")
	}
	return n / size, err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Slice replays samples held in memory.
type Slice struct {
	nopCloser
	rate    float64
	samples []complex64
}

func NewSlice(rate float64, samples []complex64) *Slice {
	return &Slice{rate: rate, samples: samples}
}

func (s *Slice) SampleRate() float64 {
	return s.rate
}

func (s *Slice) Read(samples []complex64) (int, error) {
	if len(s.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(samples, s.samples)
	s.samples = s.samples[n:]
	return n, nil
}
