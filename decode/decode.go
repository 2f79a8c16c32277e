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

// Package decode turns captured frames into log messages.
package decode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bemasher/rtltpms/csv"
	"github.com/bemasher/rtltpms/frame"
	"github.com/pkg/errors"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

var (
	decoderMutex sync.Mutex
	decoders     = make(map[string]NewDecoderFunc)
)

type NewDecoderFunc func() Decoder

func Register(name string, decoderFn NewDecoderFunc) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	if decoderFn == nil {
		panic("decoder: new decoder func is nil")
	}
	if _, dup := decoders[name]; dup {
		panic(fmt.Sprintf("decoder: decoder already registered (%s)", name))
	}
	decoders[name] = decoderFn
}

func New(name string) (Decoder, error) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	if decoderFn, exists := decoders[name]; exists {
		return decoderFn(), nil
	}
	return nil, fmt.Errorf("invalid decoder: %q", name)
}

// Names lists registered decoders in order.
func Names() (names []string) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Decoder interprets the bits of one frame. Returning an error rejects the
// frame.
type Decoder interface {
	Decode(bits []byte, attrs frame.Attributes) (Message, error)
}

type Data struct {
	Bits  string
	Bytes []byte
}

// NewData packs bit values, most significant bit first. A trailing partial
// byte is padded with zeros.
func NewData(bits []byte) (d Data) {
	var sb strings.Builder
	d.Bytes = make([]byte, (len(bits)+7)>>3)
	for idx, b := range bits {
		b &= 1
		sb.WriteByte('0' + b)
		d.Bytes[idx>>3] |= b << uint(7-idx&7)
	}
	d.Bits = sb.String()
	return
}

func (d Data) String() string {
	return fmt.Sprintf("%02X", d.Bytes)
}

type Message interface {
	csv.Recorder
	MsgType() string
	Payload() []byte
}

// LogMessage is a decoded message and the attributes of the branch that
// captured it.
type LogMessage struct {
	Time       time.Time
	Branch     string
	Modulation frame.Modulation
	SymbolRate float64
	AccessCode string
	Message
}

func NewLogMessage(t time.Time, attrs frame.Attributes, msg Message) LogMessage {
	return LogMessage{
		Time:       t,
		Branch:     attrs.Branch,
		Modulation: attrs.Modulation,
		SymbolRate: attrs.SymbolRate,
		AccessCode: attrs.AccessCode,
		Message:    msg,
	}
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s Branch:%s SymbolRate:%.0f %s:%s}",
		msg.Time.Format(TimeFormat), msg.Branch, msg.SymbolRate, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) Header() []string {
	return []string{"time", "branch", "modulation", "symbol_rate", "access_code", "type", "payload"}
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, msg.Branch)
	r = append(r, msg.Modulation.String())
	r = append(r, strconv.FormatFloat(msg.SymbolRate, 'f', -1, 64))
	r = append(r, msg.AccessCode)
	r = append(r, msg.MsgType())
	r = append(r, msg.Message.Record()...)
	return r
}

type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg LogMessage) bool {
	if len(fc) == 0 {
		return true
	}

	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(LogMessage) bool
}

var ErrNoDecoder = errors.New("no decoder accepted frame")
