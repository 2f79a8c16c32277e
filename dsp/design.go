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

// Package dsp contains the filter design and streaming filter primitives
// shared by the demodulator banks.
package dsp

import (
	"math"

	"github.com/pkg/errors"
)

// ErrNyquist is returned when a filter's passband plus transition band would
// extend past the Nyquist frequency of the filter's output sample rate.
var ErrNyquist = errors.New("filter passband exceeds output nyquist frequency")

// CheckNyquist validates that cutoff+transition fits below half of
// outputRate.
func CheckNyquist(outputRate, cutoff, transition float64) error {
	nyquist := outputRate / 2
	if cutoff+transition > nyquist {
		return errors.Wrapf(ErrNyquist, "cutoff %.1fHz + transition %.1fHz > nyquist %.1fHz",
			cutoff, transition, nyquist,
		)
	}
	return nil
}

// NumTaps estimates the number of taps a windowed-sinc filter needs to reach
// the given stop-band attenuation over the given transition width. The result
// is always odd so the filter has an integer group delay.
func NumTaps(sampleRate, transition, attenuation float64) int {
	n := int(attenuation * sampleRate / (22 * transition))
	if n&1 == 0 {
		n++
	}
	return n
}

// Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}

	m := float64(n - 1)
	for idx := range w {
		w[idx] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(idx)/m)
	}
	return w
}

// LowPass designs a Hamming windowed-sinc low-pass filter normalized to the
// given DC gain.
func LowPass(gain, sampleRate, cutoff, transition, attenuation float64) ([]float64, error) {
	switch {
	case sampleRate <= 0:
		return nil, errors.Errorf("invalid sample rate: %f", sampleRate)
	case cutoff <= 0 || cutoff >= sampleRate/2:
		return nil, errors.Errorf("cutoff %.1fHz outside (0, %.1fHz)", cutoff, sampleRate/2)
	case transition <= 0:
		return nil, errors.Errorf("invalid transition width: %f", transition)
	}

	n := NumTaps(sampleRate, transition, attenuation)
	window := Hamming(n)
	taps := make([]float64, n)

	mid := (n - 1) / 2
	wc := 2 * math.Pi * cutoff / sampleRate

	var sum float64
	for idx := range taps {
		k := float64(idx - mid)
		if idx == mid {
			taps[idx] = wc / math.Pi * window[idx]
		} else {
			taps[idx] = math.Sin(k*wc) / (k * math.Pi) * window[idx]
		}
		sum += taps[idx]
	}

	// Normalize for the requested gain at DC.
	for idx := range taps {
		taps[idx] *= gain / sum
	}

	return taps, nil
}

// ToComplex converts real taps for use with a complex-valued FIR.
func ToComplex(taps []float64) []complex128 {
	c := make([]complex128, len(taps))
	for idx, t := range taps {
		c[idx] = complex(t, 0)
	}
	return c
}

// Shift frequency-translates taps to be centered on freq, turning a low-pass
// prototype into a band-pass filter.
func Shift(taps []float64, freq, sampleRate float64) []complex128 {
	c := make([]complex128, len(taps))
	for idx, t := range taps {
		s, co := math.Sincos(2 * math.Pi * freq * float64(idx) / sampleRate)
		c[idx] = complex(t*co, t*s)
	}
	return c
}
