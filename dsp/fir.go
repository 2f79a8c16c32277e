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

package dsp

import "fmt"

// Sample is the set of sample types the streaming filters operate on.
type Sample interface {
	~float64 | ~complex128
}

// FIR is a streaming decimating FIR filter. History is carried between calls
// so block boundaries do not affect the output.
type FIR[T Sample] struct {
	taps       []T // Reversed, the oldest sample in a window meets the last design tap.
	decimation int

	history []T
	skip    int
}

// NewFIR returns a filter with the given taps which keeps every
// decimation'th output.
func NewFIR[T Sample](taps []T, decimation int) *FIR[T] {
	if len(taps) == 0 {
		panic(fmt.Errorf("fir: no taps"))
	}
	if decimation < 1 {
		panic(fmt.Errorf("fir: invalid decimation: %d", decimation))
	}

	f := &FIR[T]{
		taps:       make([]T, len(taps)),
		decimation: decimation,
	}

	for idx, t := range taps {
		f.taps[len(taps)-1-idx] = t
	}

	// Prime the history with zeros so the first output corresponds to the
	// first input sample.
	f.history = make([]T, len(taps)-1)

	return f
}

// Len returns the number of taps.
func (f *FIR[T]) Len() int {
	return len(f.taps)
}

// Decimation returns the decimation factor.
func (f *FIR[T]) Decimation() int {
	return f.decimation
}

// Filter appends the filtered and decimated src to dst and returns the
// extended slice.
func (f *FIR[T]) Filter(dst, src []T) []T {
	f.history = append(f.history, src...)

	n := len(f.taps)
	idx := f.skip
	for ; idx+n <= len(f.history); idx += f.decimation {
		window := f.history[idx : idx+n]

		var acc T
		for k, t := range f.taps {
			acc += t * window[k]
		}
		dst = append(dst, acc)
	}

	// Drop consumed history, remembering any samples we still need to skip
	// when the decimation is larger than the remaining history.
	consumed := min(idx, len(f.history))
	f.skip = idx - consumed
	f.history = append(f.history[:0], f.history[consumed:]...)

	return dst
}
