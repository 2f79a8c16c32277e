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

// Package frame defines captured frames, the attributes every branch tags
// them with and the dispatcher that hands them to a payload decoder.
package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"hz.tools/rf"
)

// Bits is the fixed length of every captured frame.
const Bits = 256

type Modulation int

const (
	ModulationUnknown Modulation = iota
	ASK
	FSK
)

func (m Modulation) String() string {
	switch m {
	case ASK:
		return "ASK"
	case FSK:
		return "FSK"
	}
	return "Unknown"
}

func (m Modulation) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Modulation) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "ASK":
		*m = ASK
	case "FSK":
		*m = FSK
	default:
		return fmt.Errorf("invalid modulation: %q", text)
	}
	return nil
}

var ErrAttributes = errors.New("incomplete frame attributes")

// Attributes identify the branch, rate and access code that produced a frame.
// Deviation is zero for ASK.
type Attributes struct {
	Modulation Modulation
	SymbolRate float64
	Deviation  rf.Hz
	AccessCode string
	Branch     string
}

// Validate rejects attributes a decoder couldn't use to select a layout.
func (a Attributes) Validate() error {
	switch {
	case a.Modulation != ASK && a.Modulation != FSK:
		return errors.Wrapf(ErrAttributes, "modulation %q", a.Modulation)
	case a.SymbolRate <= 0:
		return errors.Wrapf(ErrAttributes, "symbol rate %f", a.SymbolRate)
	case a.Modulation == FSK && a.Deviation <= 0:
		return errors.Wrapf(ErrAttributes, "deviation %f", float64(a.Deviation))
	case a.AccessCode == "":
		return errors.Wrap(ErrAttributes, "empty access code")
	}
	return nil
}

func (a Attributes) String() string {
	if a.Modulation == FSK {
		return fmt.Sprintf("{Branch:%s Modulation:%s SymbolRate:%.0f Deviation:%.0f AccessCode:%s}",
			a.Branch, a.Modulation, a.SymbolRate, float64(a.Deviation), a.AccessCode)
	}
	return fmt.Sprintf("{Branch:%s Modulation:%s SymbolRate:%.0f AccessCode:%s}",
		a.Branch, a.Modulation, a.SymbolRate, a.AccessCode)
}

// Frame is a captured sequence of bit values, 0 or 1. New guarantees Bits
// holds exactly Bits entries.
type Frame struct {
	Bits []byte
	Attributes
	Time time.Time
}

// New copies bits into a new frame. Panics if bits isn't exactly Bits long.
func New(bits []byte, attrs Attributes, t time.Time) Frame {
	if len(bits) != Bits {
		panic(fmt.Errorf("frame: invalid length: %d", len(bits)))
	}

	f := Frame{
		Bits:       make([]byte, Bits),
		Attributes: attrs,
		Time:       t,
	}
	copy(f.Bits, bits)

	return f
}

// Decoder consumes captured frames. Rejections are the decoder's concern and
// never affect the pipeline.
type Decoder interface {
	Decode(bits []byte, attrs Attributes) error
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(bits []byte, attrs Attributes) error

func (fn DecoderFunc) Decode(bits []byte, attrs Attributes) error {
	return fn(bits, attrs)
}
