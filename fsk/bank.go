package fsk

import (
	"github.com/bemasher/rtltpms/correlate"
	"github.com/bemasher/rtltpms/frame"
	"github.com/bemasher/rtltpms/profile"
	"github.com/pkg/errors"
)

// Branch is one demodulator and every symbol rate recovered behind it.
type Branch struct {
	name   string
	demod  *Demodulator
	chains []*correlate.Chain

	buf []float64
}

// NewBranch builds the chain for one profile row of centered samples at
// ifRate. Errors name the failing profile.
func NewBranch(ifRate float64, p profile.FSK, threshold int) (*Branch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	demod, err := NewDemodulator(ifRate, p.Deviation.Hz(), p.Decimation, p.ChannelRate)
	if err != nil {
		return nil, errors.Wrap(err, p.Name())
	}

	b := &Branch{name: p.Name(), demod: demod}

	base := frame.Attributes{
		Modulation: frame.FSK,
		Deviation:  p.Deviation.Hz(),
		Branch:     b.name,
	}
	for _, r := range p.Rates {
		chain, err := r.Chain(demod.OutputRate(), base, threshold)
		if err != nil {
			return nil, errors.Wrap(err, p.Name())
		}
		b.chains = append(b.chains, chain)
	}

	return b, nil
}

func (b *Branch) Name() string {
	return b.name
}

func (b *Branch) Chains() []*correlate.Chain {
	return b.chains
}

// Process demodulates a block of centered samples and appends completed
// frames to dst.
func (b *Branch) Process(dst []frame.Frame, centered []complex128) []frame.Frame {
	b.buf = b.demod.Process(b.buf[:0], centered)
	for _, c := range b.chains {
		dst = c.Process(dst, b.buf)
	}
	return dst
}

// Bank is the shared center tracker and every FSK branch built from a table.
type Bank struct {
	tracker  *CenterTracker
	branches []*Branch
	centered []complex128
}

func NewBank(ifRate float64, rows []profile.FSK, threshold int) (*Bank, error) {
	bank := &Bank{tracker: NewCenterTracker(ifRate)}
	for _, p := range rows {
		b, err := NewBranch(ifRate, p, threshold)
		if err != nil {
			return nil, err
		}
		bank.branches = append(bank.branches, b)
	}
	return bank, nil
}

func (bank *Bank) Tracker() *CenterTracker {
	return bank.tracker
}

func (bank *Bank) Branches() []*Branch {
	return bank.branches
}

// Process centers one block of IF samples and runs every branch over it, on
// the calling goroutine. pipeline.Run drives the tracker and each branch from
// their own goroutines and doesn't call this.
func (bank *Bank) Process(dst []frame.Frame, iq []complex128) []frame.Frame {
	bank.centered = bank.tracker.Process(bank.centered[:0], iq)
	for _, b := range bank.branches {
		dst = b.Process(dst, bank.centered)
	}
	return dst
}
