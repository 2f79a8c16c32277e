// Package gen synthesizes bit streams and IQ signals for exercising the
// demodulators.
package gen

import (
	"fmt"
	"math"
	"math/rand"
)

type ManchesterLUT [16]byte

func NewManchesterLUT() ManchesterLUT {
	return ManchesterLUT{
		85, 86, 89, 90, 101, 102, 105, 106, 149, 150, 153, 154, 165, 166, 169, 170,
	}
}

// Encode Manchester encodes data, a one is sent as 10 and a zero as 01.
func (lut ManchesterLUT) Encode(data []byte) (manchester []byte) {
	manchester = make([]byte, len(data)<<1)

	for idx := range data {
		manchester[idx<<1] = lut[data[idx]>>4]
		manchester[idx<<1+1] = lut[data[idx]&0x0F]
	}

	return
}

// UnpackBits expands each byte of data into eight values of 0 or 1, most
// significant bit first.
func UnpackBits(data []byte) []byte {
	bits := make([]byte, len(data)<<3)

	for idx, b := range data {
		offset := idx << 3
		for bit := 7; bit >= 0; bit-- {
			bits[offset+(7-bit)] = (b >> uint8(bit)) & 0x01
		}
	}

	return bits
}

// Bits converts a string of ascii 0's and 1's to numerical 0's and 1's.
func Bits(s string) []byte {
	bits := make([]byte, len(s))
	for idx, c := range s {
		switch c {
		case '0':
		case '1':
			bits[idx] = 1
		default:
			panic(fmt.Errorf("invalid bit %q at %d", c, idx))
		}
	}
	return bits
}

// RandomBits returns n bits drawn from r.
func RandomBits(r *rand.Rand, n int) []byte {
	bits := make([]byte, n)
	for idx := range bits {
		bits[idx] = byte(r.Intn(2))
	}
	return bits
}

// Concat joins bit slices.
func Concat(parts ...[]byte) (bits []byte) {
	for _, p := range parts {
		bits = append(bits, p...)
	}
	return bits
}

func numSamples(bits []byte, sampleRate, symbolRate float64) int {
	return int(math.Ceil(float64(len(bits)) * sampleRate / symbolRate))
}

// Shaped produces a +/-1 baseband signal with raised cosine transitions
// between symbol centers, sps samples per symbol.
func Shaped(bits []byte, sps float64) []float64 {
	level := func(idx int) float64 {
		idx = max(0, min(idx, len(bits)-1))
		return float64(bits[idx])*2 - 1
	}

	signal := make([]float64, int(math.Ceil(float64(len(bits))*sps)))
	for n := range signal {
		pos := float64(n)/sps - 0.5
		k := int(math.Floor(pos))
		u := pos - float64(k)

		a, b := level(k), level(k+1)
		signal[n] = a + (b-a)*(1-math.Cos(math.Pi*u))/2
	}

	return signal
}

// ASK produces an on-off keyed carrier at freq relative to the center of the
// band.
func ASK(bits []byte, sampleRate, symbolRate, freq, amplitude float64) []complex64 {
	signal := make([]complex64, numSamples(bits, sampleRate, symbolRate))

	for n := range signal {
		bit := bits[min(int(float64(n)*symbolRate/sampleRate), len(bits)-1)]
		if bit == 0 {
			continue
		}

		s, c := math.Sincos(2 * math.Pi * freq * float64(n) / sampleRate)
		signal[n] = complex64(complex(c*amplitude, s*amplitude))
	}

	return signal
}

// FSK produces a continuous phase binary FSK signal centered on freq, a one
// is sent at freq+deviation and a zero at freq-deviation.
func FSK(bits []byte, sampleRate, symbolRate, freq, deviation, amplitude float64) []complex64 {
	signal := make([]complex64, numSamples(bits, sampleRate, symbolRate))

	var phase float64
	for n := range signal {
		bit := bits[min(int(float64(n)*symbolRate/sampleRate), len(bits)-1)]

		f := freq - deviation
		if bit == 1 {
			f = freq + deviation
		}

		s, c := math.Sincos(phase)
		signal[n] = complex64(complex(c*amplitude, s*amplitude))

		phase = math.Remainder(phase+2*math.Pi*f/sampleRate, 2*math.Pi)
	}

	return signal
}

// Noise returns n samples of uniform complex noise with the given peak
// amplitude.
func Noise(r *rand.Rand, n int, amplitude float64) []complex64 {
	signal := make([]complex64, n)
	for idx := range signal {
		i := (r.Float64() - 0.5) * 2 * amplitude
		q := (r.Float64() - 0.5) * 2 * amplitude
		signal[idx] = complex64(complex(i, q))
	}
	return signal
}

// Add sums b into a in place, a must be at least as long as b.
func Add(a, b []complex64) {
	if len(a) < len(b) {
		panic(fmt.Errorf("arrays must have compatible dimensions: %d < %d", len(a), len(b)))
	}
	for idx, v := range b {
		a[idx] += v
	}
}

// ToU8 converts samples to interleaved unsigned 8-bit IQ as produced by
// rtl-sdr dongles.
func ToU8(samples []complex64) []byte {
	u8 := make([]byte, len(samples)<<1)
	for idx, v := range samples {
		u8[idx<<1] = toU8(real(v))
		u8[idx<<1+1] = toU8(imag(v))
	}
	return u8
}

func toU8(val float32) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(val)*127.5+127.5))))
}
