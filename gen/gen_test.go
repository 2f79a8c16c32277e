package gen

import (
	"bytes"
	"math"
	"math/cmplx"
	"testing"
)

func TestManchesterLUT(t *testing.T) {
	lut := NewManchesterLUT()

	recv := lut.Encode([]byte{0x00})
	expt := []byte{0x55, 0x55}
	if !bytes.Equal(recv, expt) {
		t.Fatalf("Expected %02X got %02X\n", expt, recv)
	}

	recv = lut.Encode([]byte{0xF9, 0x53})
	expt = []byte{0xAA, 0x96, 0x66, 0x5A}
	if !bytes.Equal(recv, expt) {
		t.Fatalf("Expected %02X got %02X\n", expt, recv)
	}
}

func TestUnpackBits(t *testing.T) {
	recv := UnpackBits([]byte{0xF9, 0x53})
	expt := Bits("1111100101010011")
	if !bytes.Equal(recv, expt) {
		t.Fatalf("Expected %d got %d\n", expt, recv)
	}
}

func TestBitsInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid bit string")
		}
	}()
	Bits("01x")
}

func TestShapedCenters(t *testing.T) {
	bits := Bits("1011001")
	sps := 8.57
	signal := Shaped(bits, sps)

	for idx, bit := range bits {
		center := int(math.Round((float64(idx) + 0.5) * sps))
		if center >= len(signal) {
			break
		}
		want := float64(bit)*2 - 1
		if math.Abs(signal[center]-want) > 0.1 {
			t.Fatalf("symbol %d: expected %f got %f\n", idx, want, signal[center])
		}
	}
}

func TestASKEnvelope(t *testing.T) {
	signal := ASK(Bits("10"), 400000, 4000, 10000, 0.5)
	if len(signal) != 200 {
		t.Fatalf("expected 200 samples got %d\n", len(signal))
	}

	if mag := cmplx.Abs(complex128(signal[50])); math.Abs(mag-0.5) > 1e-6 {
		t.Fatalf("expected magnitude 0.5 got %f\n", mag)
	}
	if signal[150] != 0 {
		t.Fatalf("expected silence got %v\n", signal[150])
	}
}

func TestFSKFrequency(t *testing.T) {
	const sampleRate = 400000

	signal := FSK(Bits("10"), sampleRate, 20000, 0, 25000, 1)

	freq := func(idx int) float64 {
		d := complex128(signal[idx+1]) * cmplx.Conj(complex128(signal[idx]))
		return cmplx.Phase(d) * sampleRate / (2 * math.Pi)
	}

	if f := freq(5); math.Abs(f-25000) > 1 {
		t.Fatalf("expected mark at 25000Hz got %f\n", f)
	}
	if f := freq(25); math.Abs(f+25000) > 1 {
		t.Fatalf("expected space at -25000Hz got %f\n", f)
	}
}

func TestToU8(t *testing.T) {
	u8 := ToU8([]complex64{complex(1, -1), 0})
	expt := []byte{255, 0, 128, 128}
	if !bytes.Equal(u8, expt) {
		t.Fatalf("Expected %d got %d\n", expt, u8)
	}
}
