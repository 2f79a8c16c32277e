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

// Package correlate searches recovered bit streams for access codes and
// captures the fixed length frames that follow them.
package correlate

import (
	"math/bits"
	"time"

	"github.com/bemasher/rtltpms/clock"
	"github.com/bemasher/rtltpms/frame"
	"github.com/pkg/errors"
)

// MaxCodeLen is the longest access code the shift register can hold.
const MaxCodeLen = 64

var ErrAccessCode = errors.New("malformed access code")

// AccessCode is a bit pattern and the number of bit errors tolerated when
// matching it.
type AccessCode struct {
	Bits      string
	Threshold int

	pattern uint64
	mask    uint64
}

// ParseAccessCode validates a string of ascii 0's and 1's.
func ParseAccessCode(code string, threshold int) (AccessCode, error) {
	if len(code) == 0 || len(code) > MaxCodeLen {
		return AccessCode{}, errors.Wrapf(ErrAccessCode, "%q: length %d not in 1..%d", code, len(code), MaxCodeLen)
	}
	if threshold < 0 || threshold >= len(code) {
		return AccessCode{}, errors.Wrapf(ErrAccessCode, "%q: threshold %d not in 0..%d", code, threshold, len(code)-1)
	}

	ac := AccessCode{Bits: code, Threshold: threshold}
	for idx, c := range code {
		ac.pattern <<= 1
		switch c {
		case '0':
		case '1':
			ac.pattern |= 1
		default:
			return AccessCode{}, errors.Wrapf(ErrAccessCode, "%q: invalid bit %q at %d", code, c, idx)
		}
	}

	ac.mask = ^uint64(0) >> uint(MaxCodeLen-len(code))

	return ac, nil
}

// Len returns the code length in bits.
func (ac AccessCode) Len() int {
	return len(ac.Bits)
}

// Distance returns the number of bits in which the low Len() bits of reg
// differ from the code.
func (ac AccessCode) Distance(reg uint64) int {
	return bits.OnesCount64((reg ^ ac.pattern) & ac.mask)
}

type State int

const (
	Searching State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "Capturing"
	}
	return "Searching"
}

// Framer scans one bit stream for one access code.
type Framer struct {
	code  AccessCode
	attrs frame.Attributes

	state  State
	reg    uint64
	filled int
	buf    []byte

	now func() time.Time
}

// NewFramer returns a framer tagging every frame with attrs. The access code
// in attrs is set from code.
func NewFramer(code AccessCode, attrs frame.Attributes) *Framer {
	attrs.AccessCode = code.Bits
	return &Framer{
		code:  code,
		attrs: attrs,
		buf:   make([]byte, 0, frame.Bits),
		now:   time.Now,
	}
}

func (f *Framer) Attributes() frame.Attributes {
	return f.attrs
}

func (f *Framer) State() State {
	return f.state
}

// Process consumes bits and appends every completed frame to dst.
func (f *Framer) Process(dst []frame.Frame, in []byte) []frame.Frame {
	for _, bit := range in {
		bit &= 1

		if f.state == Capturing {
			f.buf = append(f.buf, bit)
			if len(f.buf) == frame.Bits {
				dst = append(dst, frame.New(f.buf, f.attrs, f.now()))
				f.reset()
			}
			continue
		}

		f.reg = f.reg<<1 | uint64(bit)
		if f.filled < f.code.Len() {
			f.filled++
		}

		if f.filled == f.code.Len() && f.code.Distance(f.reg) <= f.code.Threshold {
			f.state = Capturing
			f.buf = f.buf[:0]
		}
	}

	return dst
}

// reset returns to Searching with an empty window.
func (f *Framer) reset() {
	f.state = Searching
	f.reg = 0
	f.filled = 0
	f.buf = f.buf[:0]
}

// Chain is one clock recovery loop feeding every framer for its symbol rate.
type Chain struct {
	rec     *clock.Recovery
	framers []*Framer
	bits    []byte
}

func NewChain(rec *clock.Recovery, framers ...*Framer) *Chain {
	return &Chain{rec: rec, framers: framers}
}

func (c *Chain) Recovery() *clock.Recovery {
	return c.rec
}

func (c *Chain) Framers() []*Framer {
	return c.framers
}

// Process recovers bits from samples and appends completed frames to dst.
func (c *Chain) Process(dst []frame.Frame, samples []float64) []frame.Frame {
	c.bits = c.rec.Process(c.bits[:0], samples)
	for _, f := range c.framers {
		dst = f.Process(dst, c.bits)
	}
	return dst
}
