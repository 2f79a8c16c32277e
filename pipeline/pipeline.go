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

// Package pipeline connects a sample source to every demodulation branch and
// the frame dispatcher.
package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/bemasher/rtltpms/ask"
	"github.com/bemasher/rtltpms/burst"
	"github.com/bemasher/rtltpms/frame"
	"github.com/bemasher/rtltpms/fsk"
	"github.com/bemasher/rtltpms/observe"
	"github.com/bemasher/rtltpms/profile"
	"github.com/bemasher/rtltpms/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQueueLength = 16
	DefaultBlockSize   = 1 << 14
)

type Config struct {
	Profiles profile.Table

	// QueueLength is the capacity of every channel between stages.
	QueueLength int

	// BlockSize is the number of source samples per read.
	BlockSize int
}

func DefaultConfig() Config {
	return Config{
		Profiles:    profile.Default(),
		QueueLength: DefaultQueueLength,
		BlockSize:   DefaultBlockSize,
	}
}

type Option func(*Pipeline)

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRecorder taps the IF stream into a burst recorder. The recorder must be
// built for the table's IF rate.
func WithRecorder(r *burst.Recorder) Option {
	return func(p *Pipeline) { p.rec = r }
}

type Pipeline struct {
	cfg Config
	src source.Source

	front *FrontEnd
	ask   *ask.Bank
	fsk   *fsk.Bank
	disp  *frame.Dispatcher
	rec   *burst.Recorder

	log     logrus.FieldLogger
	metrics *observe.Metrics
}

// New builds every stage for src. Configuration errors are returned before
// anything is read from the source.
func New(cfg Config, src source.Source, dec frame.Decoder, opts ...Option) (*Pipeline, error) {
	if cfg.QueueLength <= 0 {
		cfg.QueueLength = DefaultQueueLength
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	if err := cfg.Profiles.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, src: src, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(p)
	}

	ifRate := float64(cfg.Profiles.IFRate)

	var err error
	if p.front, err = NewFrontEnd(src.SampleRate(), ifRate); err != nil {
		return nil, err
	}
	if p.ask, err = ask.NewBank(ifRate, cfg.Profiles.ASK, cfg.Profiles.Threshold); err != nil {
		return nil, err
	}
	if p.fsk, err = fsk.NewBank(ifRate, cfg.Profiles.FSK, cfg.Profiles.Threshold); err != nil {
		return nil, err
	}

	p.disp = frame.NewDispatcher(dec, p.log, p.metrics)

	return p, nil
}

// Log the pipeline configuration.
func (p *Pipeline) Log() {
	p.log.WithFields(logrus.Fields{
		"samplerate": p.src.SampleRate(),
		"ifrate":     float64(p.cfg.Profiles.IFRate),
		"decimation": p.front.Decimation(),
		"blocksize":  p.cfg.BlockSize,
		"queue":      p.cfg.QueueLength,
		"threshold":  p.cfg.Profiles.Threshold,
	}).Info("pipeline")

	for _, b := range p.ask.Branches() {
		for _, c := range b.Chains() {
			for _, f := range c.Framers() {
				p.log.WithField("branch", b.Name()).Debug(f.Attributes())
			}
		}
	}
	for _, b := range p.fsk.Branches() {
		for _, c := range b.Chains() {
			for _, f := range c.Framers() {
				p.log.WithField("branch", b.Name()).Debug(f.Attributes())
			}
		}
	}
}

// Branches lists the name of every branch in the order they were built.
func (p *Pipeline) Branches() (names []string) {
	for _, b := range p.ask.Branches() {
		names = append(names, b.Name())
	}
	for _, b := range p.fsk.Branches() {
		names = append(names, b.Name())
	}
	return names
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run streams the source through every stage until the source is exhausted or
// ctx is cancelled. Both return nil, only source and recorder errors are
// returned. A pipeline runs once.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	queue := p.cfg.QueueLength

	askIn := make(chan []complex128, queue)
	fskIn := make(chan []complex128, queue)
	outs := []chan []complex128{askIn, fskIn}

	if p.rec != nil {
		recIn := make(chan []complex128, queue)
		outs = append(outs, recIn)
		g.Go(func() error { return p.record(ctx, recIn) })
	}

	g.Go(func() error { return p.read(ctx, outs) })

	frames := make(chan frame.Frame, queue)
	var producers sync.WaitGroup

	askBranches := make([]chan []float64, len(p.ask.Branches()))
	for idx, b := range p.ask.Branches() {
		b := b
		in := make(chan []float64, queue)
		askBranches[idx] = in

		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			var buf []frame.Frame
			for mag := range in {
				buf = b.Process(buf[:0], mag)
				if !sendFrames(ctx, frames, buf) {
					return nil
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer closeAll(askBranches)
		for iq := range askIn {
			mag := ask.Magnitude(nil, iq)
			for _, out := range askBranches {
				if !send(ctx, out, mag) {
					return nil
				}
			}
		}
		return nil
	})

	fskBranches := make([]chan []complex128, len(p.fsk.Branches()))
	for idx, b := range p.fsk.Branches() {
		b := b
		in := make(chan []complex128, queue)
		fskBranches[idx] = in

		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			var buf []frame.Frame
			for centered := range in {
				buf = b.Process(buf[:0], centered)
				if !sendFrames(ctx, frames, buf) {
					return nil
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer closeAll(fskBranches)
		tracker := p.fsk.Tracker()
		for iq := range fskIn {
			centered := tracker.Process(nil, iq)
			for _, out := range fskBranches {
				if !send(ctx, out, centered) {
					return nil
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		producers.Wait()
		close(frames)
		return nil
	})

	g.Go(func() error { return p.disp.Run(ctx, frames) })

	return g.Wait()
}

func (p *Pipeline) read(ctx context.Context, outs []chan []complex128) error {
	defer closeAll(outs)

	block := make([]complex64, p.cfg.BlockSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := p.src.Read(block)
		if n > 0 {
			p.metrics.RecordSamples(ctx, n)

			iq := p.front.Process(block[:n])
			if len(iq) > 0 {
				for _, out := range outs {
					if !send(ctx, out, iq) {
						return nil
					}
				}
			}
		}

		if err == io.EOF {
			p.log.Debug("source exhausted")
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read source")
		}
	}
}

func (p *Pipeline) record(ctx context.Context, in <-chan []complex128) error {
	for iq := range in {
		if err := p.rec.Process(ctx, iq); err != nil {
			return errors.Wrap(err, "record burst")
		}
	}

	// Bursts in progress are only written when the source is exhausted.
	if ctx.Err() != nil {
		return nil
	}
	return errors.Wrap(p.rec.Close(ctx), "record burst")
}

func sendFrames(ctx context.Context, ch chan<- frame.Frame, frames []frame.Frame) bool {
	for _, f := range frames {
		if !send(ctx, ch, f) {
			return false
		}
	}
	return true
}

func closeAll[T any](chs []chan T) {
	for _, ch := range chs {
		close(ch)
	}
}
