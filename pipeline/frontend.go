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

package pipeline

import (
	"math"

	"github.com/bemasher/rtltpms/dsp"
	"github.com/pkg/errors"
)

const (
	frontCutoffScale     = 0.4
	frontTransitionScale = 0.1
	frontAttenuation     = 40
)

var ErrSampleRate = errors.New("source rate is not an integer multiple of the IF rate")

// FrontEnd converts source samples and decimates them to the IF rate.
type FrontEnd struct {
	decimation int
	fir        *dsp.FIR[complex128]

	buf []complex128
}

func NewFrontEnd(sourceRate, ifRate float64) (*FrontEnd, error) {
	if sourceRate <= 0 || ifRate <= 0 {
		return nil, errors.Wrapf(ErrSampleRate, "source %.0fHz, if %.0fHz", sourceRate, ifRate)
	}

	ratio := sourceRate / ifRate
	decimation := int(math.Round(ratio))
	if decimation < 1 || math.Abs(ratio-float64(decimation)) > 1e-9*ratio {
		return nil, errors.Wrapf(ErrSampleRate, "source %.0fHz, if %.0fHz", sourceRate, ifRate)
	}

	fe := &FrontEnd{decimation: decimation}
	if decimation == 1 {
		return fe, nil
	}

	taps, err := dsp.LowPass(1, sourceRate,
		frontCutoffScale*ifRate, frontTransitionScale*ifRate, frontAttenuation,
	)
	if err != nil {
		return nil, errors.Wrap(err, "front end")
	}
	fe.fir = dsp.NewFIR(dsp.ToComplex(taps), decimation)

	return fe, nil
}

func (fe *FrontEnd) Decimation() int {
	return fe.decimation
}

// Process returns a newly allocated block of IF samples. Downstream stages
// share the block so it is never reused.
func (fe *FrontEnd) Process(src []complex64) []complex128 {
	if fe.fir == nil {
		out := make([]complex128, len(src))
		for idx, s := range src {
			out[idx] = complex128(s)
		}
		return out
	}

	fe.buf = fe.buf[:0]
	for _, s := range src {
		fe.buf = append(fe.buf, complex128(s))
	}

	return fe.fir.Filter(make([]complex128, 0, len(src)/fe.decimation+1), fe.buf)
}
