package ask

import (
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
)

const ifRate = 400000

func TestDefaultProfilesRespectNyquist(t *testing.T) {
	for _, p := range profile.Default().ASK {
		outputRate := ifRate / float64(p.Decimation)
		assert.LessOrEqual(t, p.FilterRate*(cutoffScale+transitionScale), outputRate/2, p.Name())

		b, err := NewBranch(ifRate, p, 0)
		require.NoError(t, err, p.Name())
		assert.Equal(t, p.Name(), b.Name())
		assert.Len(t, b.Chains(), len(p.Rates))
	}
}

func TestNyquistViolation(t *testing.T) {
	p := profile.ASK{
		FilterRate: 25000,
		Decimation: 10,
		Rates:      []profile.Rate{{SymbolRate: 25000, AccessCodes: []string{"0101"}}},
	}

	_, err := NewBank(ifRate, []profile.ASK{p}, 0)
	require.Error(t, err)
	assert.Equal(t, dsp.ErrNyquist, errors.Cause(err))
	assert.Contains(t, err.Error(), "ask/25000/d10")
}

func TestChannelFilterDecimates(t *testing.T) {
	cf, err := NewChannelFilter(ifRate, 10, 4040)
	require.NoError(t, err)
	assert.Equal(t, 40000.0, cf.OutputRate())

	out := cf.Process(nil, make([]float64, 4000))
	assert.Len(t, out, 400)
}

func TestEnvelopeNormalizes(t *testing.T) {
	sq := make([]float64, 400)
	for idx := range sq {
		if (idx/10)&1 == 0 {
			sq[idx] = 0.3
		} else {
			sq[idx] = 0.1
		}
	}

	out := NewEnvelope(EnvelopeAlpha).Process(sq)
	for idx, v := range out[100:] {
		if (idx/10)&1 == 0 {
			assert.Greater(t, v, 0.5, "sample %d", idx+100)
		} else {
			assert.Less(t, v, -0.5, "sample %d", idx+100)
		}
	}
}

func TestEnvelopeSilence(t *testing.T) {
	out := NewEnvelope(EnvelopeAlpha).Process(make([]float64, 100))
	assert.Equal(t, make([]float64, 100), out)
}

func TestMagnitude(t *testing.T) {
	mag := Magnitude(nil, []complex128{complex(3, 4), 0, complex(0, -2)})
	assert.Equal(t, []float64{5, 0, 2}, mag)
}

func manchesterPayload(r *rand.Rand) []byte {
	data := make([]byte, frame.Bits/16)
	r.Read(data)
	return gen.UnpackBits(gen.NewManchesterLUT().Encode(data))
}

func toComplex128(samples []complex64) []complex128 {
	out := make([]complex128, len(samples))
	for idx, v := range samples {
		out[idx] = complex128(v)
	}
	return out
}

func TestBankFramesSyntheticBurst(t *testing.T) {
	const code = "110011001100110011001011"

	payload := manchesterPayload(rand.New(rand.NewSource(4)))
	bits := gen.Concat(
		gen.Bits(strings.Repeat("10", 32)),
		gen.Bits(code),
		payload,
		gen.Bits(strings.Repeat("10", 16)),
	)

	signal := gen.ASK(bits, ifRate, 4667, 0, 0.8)
	signal = append(signal, make([]complex64, 4000)...)

	bank, err := NewBank(ifRate, profile.Default().ASK, 0)
	require.NoError(t, err)

	iq := toComplex128(signal)

	var frames []frame.Frame
	for start := 0; start < len(iq); start += 16384 {
		frames = bank.Process(frames, iq[start:min(start+16384, len(iq))])
	}

	var matched []frame.Frame
	for _, f := range frames {
		if f.SymbolRate == 4667 && f.AccessCode == code {
			matched = append(matched, f)
		}
	}

	require.Len(t, matched, 1)
	assert.Equal(t, payload, matched[0].Bits)
	assert.Equal(t, frame.ASK, matched[0].Modulation)
	assert.Equal(t, "ask/4040/d10", matched[0].Branch)
}

func TestBankSilence(t *testing.T) {
	bank, err := NewBank(ifRate, profile.Default().ASK, 0)
	require.NoError(t, err)

	block := make([]complex128, 16384)

	var frames []frame.Frame
	for n := 0; n < ifRate/len(block); n++ {
		frames = bank.Process(frames, block)
	}
	assert.Empty(t, frames)
}

func BenchmarkBranch(b *testing.B) {
	branch, err := NewBranch(ifRate, profile.Default().ASK[0], 0)
	if err != nil {
		b.Fatal(err)
	}

	bits := gen.RandomBits(rand.New(rand.NewSource(1)), 512)
	signal := toComplex128(gen.ASK(bits, ifRate, 4667, 0, 1))
	mag := Magnitude(nil, signal)

	var frames []frame.Frame
	b.SetBytes(int64(len(mag)))
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		frames = branch.Process(frames[:0], mag)
	}
}
