package fsk

import (
	"math"
	"math/cmplx"
	"math/rand"
	"strings"
	"testing"

	"github.com/bemasher/rtltpms/dsp"
	"github.com/bemasher/rtltpms/frame"
	"github.com/bemasher/rtltpms/gen"
	"github.com/bemasher/rtltpms/profile"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hz.tools/rf"
)

const ifRate = 400000

func toComplex128(samples []complex64) []complex128 {
	out := make([]complex128, len(samples))
	for idx, v := range samples {
		out[idx] = complex128(v)
	}
	return out
}

func tone(freq float64, n int) []complex128 {
	out := make([]complex128, n)
	for idx := range out {
		s, c := math.Sincos(2 * math.Pi * freq * float64(idx) / ifRate)
		out[idx] = complex(c, s)
	}
	return out
}

func TestTrackingWindow(t *testing.T) {
	assert.Equal(t, 417, TrackingWindow(ifRate))
	assert.Equal(t, 417, NewCenterTracker(ifRate).Window())
}

func TestCenterTrackerRemovesOffset(t *testing.T) {
	ct := NewCenterTracker(ifRate)
	out := ct.Process(nil, tone(3000, 8000))
	require.Len(t, out, 8000)

	// Once the average has filled, the output is a constant phasor.
	for idx := 4000; idx < len(out)-1; idx++ {
		freq := cmplx.Phase(out[idx+1]*cmplx.Conj(out[idx])) * ifRate / (2 * math.Pi)
		if math.Abs(freq) > 1 {
			t.Fatalf("sample %d: residual offset %f Hz\n", idx, freq)
		}
	}
}

func TestCenterTrackerDelay(t *testing.T) {
	ct := NewCenterTracker(ifRate)

	in := make([]complex128, 1000)
	in[0] = 1
	out := ct.Process(nil, in)

	for idx, v := range out {
		if idx == ct.Window() {
			assert.InDelta(t, 1.0, cmplx.Abs(v), 1e-12)
			continue
		}
		assert.Zero(t, v, "sample %d", idx)
	}
}

func TestDemodulatorSign(t *testing.T) {
	d, err := NewDemodulator(ifRate, 25000, 4, 20000)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, d.OutputRate())

	high := d.Process(nil, tone(25000, 4000))
	require.Len(t, high, 1000)
	for _, v := range high[100:] {
		require.Greater(t, v, 0.5)
	}

	d, err = NewDemodulator(ifRate, 25000, 4, 20000)
	require.NoError(t, err)
	low := d.Process(nil, tone(-25000, 4000))
	for _, v := range low[100:] {
		require.Less(t, v, -0.5)
	}
}

func TestDefaultProfilesRespectNyquist(t *testing.T) {
	for _, p := range profile.Default().FSK {
		outputRate := ifRate / float64(p.Decimation)
		assert.LessOrEqual(t, p.ChannelRate*(cutoffScale+transitionScale), outputRate/2, p.Name())

		b, err := NewBranch(ifRate, p, 0)
		require.NoError(t, err, p.Name())
		assert.Equal(t, p.Name(), b.Name())
		assert.Len(t, b.Chains(), len(p.Rates))
	}
}

func TestNyquistViolation(t *testing.T) {
	p := profile.FSK{
		Deviation:   25000,
		Decimation:  10,
		ChannelRate: 20001,
		Rates:       []profile.Rate{{SymbolRate: 20000, AccessCodes: []string{"0101"}}},
	}

	_, err := NewBank(ifRate, []profile.FSK{p}, 0)
	require.Error(t, err)
	assert.Equal(t, dsp.ErrNyquist, errors.Cause(err))
	assert.Contains(t, err.Error(), "fsk/25000/20001/d10")
}

func TestBankFramesSyntheticBurst(t *testing.T) {
	const code = "0101010101010101010101010101011001"

	r := rand.New(rand.NewSource(5))
	data := make([]byte, frame.Bits/16)
	r.Read(data)
	payload := gen.UnpackBits(gen.NewManchesterLUT().Encode(data))

	bits := gen.Concat(
		gen.Bits(strings.Repeat("01", 32)),
		gen.Bits(code),
		payload,
		gen.Bits(strings.Repeat("01", 16)),
	)

	// Transmitter carrier is 4kHz off center.
	signal := gen.FSK(bits, ifRate, 19200, 4000, float64(25*rf.KHz), 0.8)
	iq := toComplex128(append(signal, make([]complex64, 4000)...))

	bank, err := NewBank(ifRate, profile.Default().FSK, 0)
	require.NoError(t, err)

	var frames []frame.Frame
	for start := 0; start < len(iq); start += 16384 {
		frames = bank.Process(frames, iq[start:min(start+16384, len(iq))])
	}

	var matched []frame.Frame
	for _, f := range frames {
		if f.Branch == "fsk/25000/20000/d4" && f.AccessCode == code {
			matched = append(matched, f)
		}
	}

	require.Len(t, matched, 1)
	assert.Equal(t, payload, matched[0].Bits)
	assert.Equal(t, frame.FSK, matched[0].Modulation)
	assert.Equal(t, 19200.0, matched[0].SymbolRate)
	assert.Equal(t, rf.Hz(25000), matched[0].Deviation)
}

func TestBankSilence(t *testing.T) {
	bank, err := NewBank(ifRate, profile.Default().FSK, 0)
	require.NoError(t, err)

	block := make([]complex128, 16384)

	var frames []frame.Frame
	for n := 0; n < ifRate/len(block); n++ {
		frames = bank.Process(frames, block)
	}
	assert.Empty(t, frames)
}

func BenchmarkCenterTracker(b *testing.B) {
	ct := NewCenterTracker(ifRate)
	in := tone(3000, 16384)
	out := make([]complex128, 0, len(in))

	b.SetBytes(int64(len(in)))
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		out = ct.Process(out[:0], in)
	}
}

func BenchmarkDemodulator(b *testing.B) {
	d, err := NewDemodulator(ifRate, 25000, 4, 20000)
	if err != nil {
		b.Fatal(err)
	}
	in := tone(25000, 16384)
	out := make([]float64, 0, len(in))

	b.SetBytes(int64(len(in)))
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		out = d.Process(out[:0], in)
	}
}
