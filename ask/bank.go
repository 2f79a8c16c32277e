package ask

import (
	"github.com/bemasher/rtltpms/correlate"
	"github.com/bemasher/rtltpms/frame"
	"github.com/bemasher/rtltpms/profile"
	"github.com/pkg/errors"
)

// Branch is one channel filter and every symbol rate demodulated behind it.
type Branch struct {
	name   string
	filter *ChannelFilter
	env    *Envelope
	chains []*correlate.Chain

	buf []float64
}

// NewBranch builds the chain for one profile row of magnitude samples at
// ifRate. Errors name the failing profile.
func NewBranch(ifRate float64, p profile.ASK, threshold int) (*Branch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	filter, err := NewChannelFilter(ifRate, p.Decimation, p.FilterRate)
	if err != nil {
		return nil, errors.Wrap(err, p.Name())
	}

	b := &Branch{
		name:   p.Name(),
		filter: filter,
		env:    NewEnvelope(EnvelopeAlpha),
	}

	base := frame.Attributes{Modulation: frame.ASK, Branch: b.name}
	for _, r := range p.Rates {
		chain, err := r.Chain(filter.OutputRate(), base, threshold)
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

// Process filters a block of magnitude samples and appends completed frames
// to dst.
func (b *Branch) Process(dst []frame.Frame, mag []float64) []frame.Frame {
	b.buf = b.env.Process(b.filter.Process(b.buf[:0], mag))
	for _, c := range b.chains {
		dst = c.Process(dst, b.buf)
	}
	return dst
}

// Bank is every ASK branch built from a profile table.
type Bank struct {
	branches []*Branch
	mag      []float64
}

func NewBank(ifRate float64, rows []profile.ASK, threshold int) (*Bank, error) {
	bank := &Bank{}
	for _, p := range rows {
		b, err := NewBranch(ifRate, p, threshold)
		if err != nil {
			return nil, err
		}
		bank.branches = append(bank.branches, b)
	}
	return bank, nil
}

func (bank *Bank) Branches() []*Branch {
	return bank.branches
}

// Process runs every branch over one block of IF samples in turn, on the
// calling goroutine. pipeline.Run drives the same branches from one goroutine
// each and doesn't call this.
func (bank *Bank) Process(dst []frame.Frame, iq []complex128) []frame.Frame {
	bank.mag = Magnitude(bank.mag[:0], iq)
	for _, b := range bank.branches {
		dst = b.Process(dst, bank.mag)
	}
	return dst
}
