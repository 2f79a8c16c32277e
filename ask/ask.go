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

// Package ask implements the amplitude shift keyed demodulator bank.
package ask

import (
	"math"

	"github.com/bemasher/rtltpms/dsp"
)

const (
	cutoffScale     = 0.7
	transitionScale = 0.28
	attenuation     = 40

	// EnvelopeAlpha is the smoothing factor of the envelope trackers.
	EnvelopeAlpha = 0.02
)

// ChannelFilter band limits and decimates a magnitude signal.
type ChannelFilter struct {
	fir        *dsp.FIR[float64]
	outputRate float64
}

// NewChannelFilter designs a low-pass filter for symbols at symbolRate. Fails
// with dsp.ErrNyquist if the filter's stop band edge lies beyond the
// decimated signal's Nyquist frequency.
func NewChannelFilter(inputRate float64, decimation int, symbolRate float64) (*ChannelFilter, error) {
	cutoff := symbolRate * cutoffScale
	transition := symbolRate * transitionScale
	outputRate := inputRate / float64(decimation)

	if err := dsp.CheckNyquist(outputRate, cutoff, transition); err != nil {
		return nil, err
	}

	taps, err := dsp.LowPass(1, inputRate, cutoff, transition, attenuation)
	if err != nil {
		return nil, err
	}

	return &ChannelFilter{
		fir:        dsp.NewFIR(taps, decimation),
		outputRate: outputRate,
	}, nil
}

func (cf *ChannelFilter) OutputRate() float64 {
	return cf.outputRate
}

func (cf *ChannelFilter) Process(dst, src []float64) []float64 {
	return cf.fir.Filter(dst, src)
}

// Envelope normalizes a magnitude signal to roughly +/-1 about the midpoint
// of its tracked peak and trough.
type Envelope struct {
	alpha    float64
	max, min float64
}

func NewEnvelope(alpha float64) *Envelope {
	return &Envelope{alpha: alpha}
}

// Process normalizes buf in place and returns it.
func (e *Envelope) Process(buf []float64) []float64 {
	for idx, x := range buf {
		e.max = math.Max(e.max, x)
		e.min = math.Min(e.min, x)

		center := (e.max + e.min) / 2
		half := (e.max - e.min) / 2

		// Both trackers relax toward the midpoint.
		e.max -= e.alpha * (e.max - center)
		e.min -= e.alpha * (e.min - center)

		if half > 0 {
			buf[idx] = (x - center) / half
		} else {
			buf[idx] = 0
		}
	}
	return buf
}

// Magnitude appends |x| for every sample in src to dst.
func Magnitude(dst []float64, src []complex128) []float64 {
	for _, v := range src {
		dst = append(dst, math.Hypot(real(v), imag(v)))
	}
	return dst
}
