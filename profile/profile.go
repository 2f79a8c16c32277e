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

// Package profile holds the tables that drive construction of the ASK and
// FSK demodulator banks.
package profile

import (
	"fmt"

	"github.com/bemasher/rtltpms/clock"
	"github.com/bemasher/rtltpms/correlate"
	"github.com/bemasher/rtltpms/frame"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"hz.tools/rf"
)

// DefaultIFRate is the sample rate every bank operates at.
var DefaultIFRate = Frequency(rf.KHz * 400)

// Frequency is an rf.Hz that decodes from YAML as either a bare number of
// hertz or a string with a unit, ex. 25000 or 25kHz. It encodes as a bare
// number like every other rate in the table.
type Frequency rf.Hz

func (f Frequency) Hz() rf.Hz {
	return rf.Hz(f)
}

func (f Frequency) String() string {
	return rf.Hz(f).String()
}

func (f *Frequency) UnmarshalYAML(value *yaml.Node) error {
	var hz float64
	if err := value.Decode(&hz); err == nil {
		*f = Frequency(hz)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return errors.Wrapf(ErrRate, "line %d: frequency %q", value.Line, value.Value)
	}

	parsed, err := rf.ParseHz(s)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*f = Frequency(parsed)
	return nil
}

func (f Frequency) MarshalYAML() (interface{}, error) {
	return float64(f), nil
}

var ErrRate = errors.New("invalid rate")

// Rate is one candidate symbol rate and the access codes sent at it.
type Rate struct {
	SymbolRate  float64  `yaml:"symbol_rate"`
	AccessCodes []string `yaml:"access_codes"`
}

func (r Rate) Validate() error {
	if r.SymbolRate <= 0 {
		return errors.Wrapf(ErrRate, "symbol rate %f", r.SymbolRate)
	}
	if len(r.AccessCodes) == 0 {
		return errors.Wrapf(correlate.ErrAccessCode, "symbol rate %.0f: no access codes", r.SymbolRate)
	}
	for _, code := range r.AccessCodes {
		if _, err := correlate.ParseAccessCode(code, 0); err != nil {
			return errors.Wrapf(err, "symbol rate %.0f", r.SymbolRate)
		}
	}
	return nil
}

// Chain builds the clock recovery loop and framers for this rate. base
// supplies the branch's modulation, deviation and name.
func (r Rate) Chain(inputRate float64, base frame.Attributes, threshold int) (*correlate.Chain, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	attrs := base
	attrs.SymbolRate = r.SymbolRate

	framers := make([]*correlate.Framer, 0, len(r.AccessCodes))
	for _, code := range r.AccessCodes {
		ac, err := correlate.ParseAccessCode(code, min(threshold, len(code)-1))
		if err != nil {
			return nil, errors.Wrapf(err, "symbol rate %.0f", r.SymbolRate)
		}

		f := correlate.NewFramer(ac, attrs)
		if err := f.Attributes().Validate(); err != nil {
			return nil, err
		}
		framers = append(framers, f)
	}

	return correlate.NewChain(clock.New(inputRate, r.SymbolRate), framers...), nil
}

func validateRates(rates []Rate) error {
	if len(rates) == 0 {
		return errors.Wrap(ErrRate, "no symbol rates")
	}
	for _, r := range rates {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ASK describes one ASK channel filter and the rates demodulated behind it.
type ASK struct {
	FilterRate float64 `yaml:"filter_rate"`
	Decimation int     `yaml:"decimation"`
	Rates      []Rate  `yaml:"rates"`
}

func (p ASK) Name() string {
	return fmt.Sprintf("ask/%.0f/d%d", p.FilterRate, p.Decimation)
}

func (p ASK) Validate() error {
	if p.FilterRate <= 0 {
		return errors.Wrapf(ErrRate, "%s: filter rate %f", p.Name(), p.FilterRate)
	}
	if p.Decimation < 1 {
		return errors.Wrapf(ErrRate, "%s: decimation %d", p.Name(), p.Decimation)
	}
	return errors.Wrap(validateRates(p.Rates), p.Name())
}

// FSK describes one FSK demodulator and the rates demodulated behind it.
type FSK struct {
	Deviation   Frequency `yaml:"deviation"`
	Decimation  int       `yaml:"decimation"`
	ChannelRate float64   `yaml:"channel_rate"`
	Rates       []Rate    `yaml:"rates"`
}

func (p FSK) Name() string {
	return fmt.Sprintf("fsk/%.0f/%.0f/d%d", float64(p.Deviation), p.ChannelRate, p.Decimation)
}

func (p FSK) Validate() error {
	if p.Deviation <= 0 {
		return errors.Wrapf(ErrRate, "%s: deviation %f", p.Name(), float64(p.Deviation))
	}
	if p.ChannelRate <= 0 {
		return errors.Wrapf(ErrRate, "%s: channel rate %f", p.Name(), p.ChannelRate)
	}
	if p.Decimation < 1 {
		return errors.Wrapf(ErrRate, "%s: decimation %d", p.Name(), p.Decimation)
	}
	return errors.Wrap(validateRates(p.Rates), p.Name())
}

// Table is the complete set of profiles a pipeline is built from.
type Table struct {
	IFRate    Frequency `yaml:"if_rate"`
	Threshold int       `yaml:"threshold"`
	ASK       []ASK     `yaml:"ask"`
	FSK       []FSK     `yaml:"fsk"`
}

// Validate rejects malformed tables before any filter is designed.
func (t Table) Validate() error {
	if t.IFRate <= 0 {
		return errors.Wrapf(ErrRate, "if rate %f", float64(t.IFRate))
	}
	if t.Threshold < 0 {
		return errors.Errorf("invalid threshold: %d", t.Threshold)
	}
	if len(t.ASK)+len(t.FSK) == 0 {
		return errors.New("no profiles")
	}
	for _, p := range t.ASK {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, p := range t.FSK {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
