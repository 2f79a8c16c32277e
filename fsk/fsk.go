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

// Package fsk implements carrier centering and the frequency shift keyed
// demodulator bank.
package fsk

import (
	"math"
	"math/cmplx"

	"github.com/bemasher/rtltpms/dsp"
	"hz.tools/rf"
)

const (
	// Center tracking averages over this many symbols at trackingSymbolRate.
	trackingSymbols    = 20
	trackingSymbolRate = 19200

	cutoffScale     = 0.75
	transitionScale = 0.25
	attenuation     = 40
)

// TrackingWindow returns the center tracker's delay and averaging length in
// samples at ifRate.
func TrackingWindow(ifRate float64) int {
	return int(math.Round(ifRate / trackingSymbolRate * trackingSymbols))
}

// CenterTracker removes the mean carrier offset from a complex signal.
type CenterTracker struct {
	delay *dsp.Delay[complex128]
	avg   *dsp.MovingAverage

	prev  complex128
	phase float64
}

func NewCenterTracker(ifRate float64) *CenterTracker {
	window := TrackingWindow(ifRate)
	return &CenterTracker{
		delay: dsp.NewDelay[complex128](window),
		avg:   dsp.NewMovingAverage(window),
	}
}

// Window returns the tracker's delay in samples.
func (ct *CenterTracker) Window() int {
	return ct.delay.Len()
}

// Process appends the centered signal to dst. Output lags input by Window()
// samples.
func (ct *CenterTracker) Process(dst, src []complex128) []complex128 {
	for _, x := range src {
		delayed := ct.delay.Next(x)

		// Instantaneous frequency in radians per sample.
		freq := cmplx.Phase(x * cmplx.Conj(ct.prev))
		ct.prev = x

		offset := ct.avg.Next(freq)

		s, c := math.Sincos(ct.phase)
		dst = append(dst, delayed*complex(c, s))

		ct.phase = math.Remainder(ct.phase-offset, 2*math.Pi)
	}
	return dst
}

// Demodulator compares the energy at +deviation and -deviation and low-pass
// filters the difference.
type Demodulator struct {
	high, low *dsp.FIR[complex128]
	lpf       *dsp.FIR[float64]

	outputRate float64

	hbuf, lbuf []complex128
	diff       []float64
}

// NewDemodulator designs the sideband and output filters for one profile.
// The sideband filters are boxes one channel symbol long. Fails with
// dsp.ErrNyquist if the output filter doesn't fit the decimated rate.
func NewDemodulator(inputRate float64, deviation rf.Hz, decimation int, channelRate float64) (*Demodulator, error) {
	cutoff := channelRate * cutoffScale
	transition := channelRate * transitionScale
	outputRate := inputRate / float64(decimation)

	if err := dsp.CheckNyquist(outputRate, cutoff, transition); err != nil {
		return nil, err
	}

	taps, err := dsp.LowPass(1, inputRate, cutoff, transition, attenuation)
	if err != nil {
		return nil, err
	}

	n := max(1, int(math.Round(inputRate/channelRate)))
	box := make([]float64, n)
	for idx := range box {
		box[idx] = 1 / float64(n)
	}

	dev := float64(deviation)
	return &Demodulator{
		high:       dsp.NewFIR(dsp.Shift(box, dev, inputRate), 1),
		low:        dsp.NewFIR(dsp.Shift(box, -dev, inputRate), 1),
		lpf:        dsp.NewFIR(taps, decimation),
		outputRate: outputRate,
	}, nil
}

func (d *Demodulator) OutputRate() float64 {
	return d.outputRate
}

// Process appends the decimated discriminator output for src to dst.
// Positive values indicate the upper tone.
func (d *Demodulator) Process(dst []float64, src []complex128) []float64 {
	d.hbuf = d.high.Filter(d.hbuf[:0], src)
	d.lbuf = d.low.Filter(d.lbuf[:0], src)

	d.diff = d.diff[:0]
	for idx := range d.hbuf {
		d.diff = append(d.diff, cmplx.Abs(d.hbuf[idx])-cmplx.Abs(d.lbuf[idx]))
	}

	return d.lpf.Filter(dst, d.diff)
}
