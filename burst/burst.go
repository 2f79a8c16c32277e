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

// Package burst records raw IQ segments whenever the input carries sustained
// energy. Recording never affects decoding.
package burst

import (
	"context"
	"math"
	"time"

	"github.com/bemasher/rtltpms/observe"
	"github.com/pkg/errors"
)

// Sink stores one recorded segment.
type Sink interface {
	WriteSegment(start time.Time, rate float64, samples []complex64) error
}

type Config struct {
	Threshold   float64       // Smoothed power threshold in dBFS.
	MinDuration time.Duration // Shorter bursts are discarded.
	Hangover    time.Duration // Quiet time that ends a burst.
	MaxDuration time.Duration // Longer bursts are split.
}

func DefaultConfig() Config {
	return Config{
		Threshold:   -30,
		MinDuration: 2 * time.Millisecond,
		Hangover:    5 * time.Millisecond,
		MaxDuration: 250 * time.Millisecond,
	}
}

func (cfg Config) Validate() error {
	if cfg.MinDuration < 0 || cfg.Hangover <= 0 || cfg.MaxDuration <= cfg.MinDuration {
		return errors.Errorf("invalid burst durations: min %s hangover %s max %s",
			cfg.MinDuration, cfg.Hangover, cfg.MaxDuration)
	}
	return nil
}

// Power smoothing time constant.
const smoothing = 100 * time.Microsecond

// Recorder detects bursts in a sample stream and writes them to a sink.
type Recorder struct {
	sink    Sink
	rate    float64
	metrics *observe.Metrics

	threshold float64 // Linear power.
	alpha     float64
	power     float64

	minLen, hangLen, maxLen int

	active bool
	quiet  int
	start  time.Time
	seg    []complex64

	now func() time.Time
}

type Option func(*Recorder)

func WithMetrics(m *observe.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(cfg Config, rate float64, sink Sink, opts ...Option) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, errors.Errorf("invalid sample rate: %f", rate)
	}

	samples := func(d time.Duration) int {
		return int(math.Ceil(d.Seconds() * rate))
	}

	r := &Recorder{
		sink:      sink,
		rate:      rate,
		threshold: math.Pow(10, cfg.Threshold/10),
		alpha:     1 - math.Exp(-1/(smoothing.Seconds()*rate)),
		minLen:    samples(cfg.MinDuration),
		hangLen:   samples(cfg.Hangover),
		maxLen:    samples(cfg.MaxDuration),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Process scans one block, writing every burst that ends within it.
func (r *Recorder) Process(ctx context.Context, block []complex128) error {
	for _, x := range block {
		p := real(x)*real(x) + imag(x)*imag(x)
		r.power += r.alpha * (p - r.power)
		loud := r.power >= r.threshold

		if !r.active {
			if !loud {
				continue
			}
			r.active = true
			r.quiet = 0
			r.start = r.now()
			r.seg = r.seg[:0]
		}

		r.seg = append(r.seg, complex64(x))

		if loud {
			r.quiet = 0
		} else {
			r.quiet++
		}

		if r.quiet >= r.hangLen || len(r.seg) >= r.maxLen {
			if err := r.end(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes any burst in progress.
func (r *Recorder) Close(ctx context.Context) error {
	if !r.active {
		return nil
	}
	return r.end(ctx)
}

func (r *Recorder) end(ctx context.Context) error {
	r.active = false

	if len(r.seg)-r.quiet < r.minLen {
		return nil
	}

	if err := r.sink.WriteSegment(r.start, r.rate, r.seg); err != nil {
		return errors.Wrap(err, "write burst")
	}
	r.metrics.RecordBurst(ctx)

	return nil
}
