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

// Package clock implements Mueller and Muller symbol timing recovery for
// binary real-valued signals.
package clock

import (
	"fmt"
	"math"
)

const (
	// DefaultOmegaLimit is the relative symbol rate error the loop tolerates.
	DefaultOmegaLimit = 0.02

	// Loop gain is inversely proportional to the oversampling ratio.
	muGainScale = 0.4
	initialMu   = 0.5
)

// Recovery recovers one bit per symbol from an oversampled signal.
type Recovery struct {
	omega    float64 // Current estimate of samples per symbol.
	omegaMid float64
	omegaLim float64

	gainOmega float64
	gainMu    float64

	mu   float64 // Fractional sample offset of the next symbol.
	last float64 // Previous interpolated symbol.

	buf []float64
	idx int
}

// Option configures a Recovery.
type Option func(*Recovery)

// WithOmegaLimit sets the relative symbol rate tolerance, 0.02 being 2%.
func WithOmegaLimit(limit float64) Option {
	return func(r *Recovery) {
		r.omegaLim = r.omegaMid * limit
	}
}

// WithGain overrides the phase loop gain. The frequency loop gain is derived
// from it.
func WithGain(gainMu float64) Option {
	return func(r *Recovery) {
		r.gainMu = gainMu
		r.gainOmega = 0.25 * gainMu * gainMu
	}
}

// New returns a Recovery for a signal sampled at inputRate carrying symbols
// at symbolRate. Low oversampling ratios are accepted and simply degrade
// recovery quality.
func New(inputRate, symbolRate float64, opts ...Option) *Recovery {
	if inputRate <= 0 || symbolRate <= 0 {
		panic(fmt.Errorf("clock: invalid rates: input %f symbol %f", inputRate, symbolRate))
	}

	sps := inputRate / symbolRate

	r := &Recovery{
		omega:    sps,
		omegaMid: sps,
		omegaLim: sps * DefaultOmegaLimit,
		mu:       initialMu,
	}
	WithGain(muGainScale / sps)(r)

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SamplesPerSymbol returns the nominal oversampling ratio.
func (r *Recovery) SamplesPerSymbol() float64 {
	return r.omegaMid
}

// Omega returns the loop's current samples per symbol estimate.
func (r *Recovery) Omega() float64 {
	return r.omega
}

// Process appends one bit decision per recovered symbol in src to dst.
func (r *Recovery) Process(dst []byte, src []float64) []byte {
	r.buf = append(r.buf, src...)

	idx := r.idx
	for idx+1 < len(r.buf) {
		// Linear interpolation between the samples straddling the symbol.
		cur := r.buf[idx] + r.mu*(r.buf[idx+1]-r.buf[idx])

		mm := clip(slice(r.last)*cur-slice(cur)*r.last, 1)
		r.last = cur

		r.omega = r.omegaMid + clip(r.omega+r.gainOmega*mm-r.omegaMid, r.omegaLim)

		r.mu += r.omega + r.gainMu*mm
		if r.mu < 0 {
			r.mu = 0
		}

		step := math.Floor(r.mu)
		idx += int(step)
		r.mu -= step

		dst = append(dst, Decide(cur))
	}

	consumed := min(idx, len(r.buf))
	r.idx = idx - consumed
	r.buf = append(r.buf[:0], r.buf[consumed:]...)

	return dst
}

// Decide slices a sample at zero, non-negative values are 1.
func Decide(val float64) byte {
	if val >= 0 {
		return 1
	}
	return 0
}

func slice(val float64) float64 {
	if val < 0 {
		return -1
	}
	return 1
}

func clip(val, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, val))
}
