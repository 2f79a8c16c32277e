package source

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/bemasher/rtltpms/gen"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteLUT(t *testing.T) {
	lut := NewByteLUT()
	assert.Equal(t, float32(-1), lut[0])
	assert.Equal(t, float32(1), lut[255])
	assert.InDelta(t, 0, lut[127]+lut[128], 1e-6)
}

func TestFileU8(t *testing.T) {
	raw := []byte{255, 0, 0, 255, 128}

	f, err := NewFile(bytes.NewReader(raw), "U8", 2.4e6)
	require.NoError(t, err)
	assert.Equal(t, 2.4e6, f.SampleRate())

	samples := make([]complex64, 4)
	n, err := f.Read(samples)
	assert.Equal(t, io.EOF, err, "trailing half sample is dropped")
	require.Equal(t, 2, n)
	assert.Equal(t, complex64(complex(1, -1)), samples[0])
	assert.Equal(t, complex64(complex(-1, 1)), samples[1])

	n, err = f.Read(samples)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestFileCF32(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []float32{0.5, -0.25, 1, 0} {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}

	f, err := NewFile(&buf, FormatCF32, 1e6)
	require.NoError(t, err)

	samples := make([]complex64, 2)
	n, err := f.Read(samples)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []complex64{complex(0.5, -0.25), complex(1, 0)}, samples)
}

func TestFileInvalid(t *testing.T) {
	_, err := NewFile(bytes.NewReader(nil), "s16", 1e6)
	assert.Equal(t, ErrFormat, errors.Cause(err))

	_, err = NewFile(bytes.NewReader(nil), FormatU8, 0)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.bin"), FormatU8, 1e6)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.u8")
	require.NoError(t, os.WriteFile(path, gen.ToU8([]complex64{complex(1, 1), 0}), 0644))

	f, err := Open(path, FormatU8, 2.4e6)
	require.NoError(t, err)
	defer f.Close()

	samples := make([]complex64, 2)
	n, err := f.Read(samples)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, complex64(complex(1, 1)), samples[0])
}

func TestSlice(t *testing.T) {
	s := NewSlice(400000, []complex64{1, 2, 3})

	buf := make([]complex64, 2)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []complex64{1, 2}, buf[:n])

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []complex64{3}, buf[:n])

	_, err = s.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, s.Close())
}

type command struct {
	Command   uint8
	Parameter uint32
}

// fakeServer accepts one client, sends dongle info, reads count commands and
// then streams raw.
func fakeServer(t *testing.T, count int, raw []byte) (string, <-chan []command) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	cmds := make(chan []command, 1)
	go func() {
		defer close(cmds)

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		info := struct {
			Magic     [4]byte
			Tuner     uint32
			GainCount uint32
		}{[4]byte{'R', 'T', 'L', '0'}, 5, 29}
		if binary.Write(conn, binary.BigEndian, info) != nil {
			return
		}

		received := make([]command, count)
		if binary.Read(conn, binary.BigEndian, received) != nil {
			return
		}
		cmds <- received

		conn.Write(raw)
	}()

	return ln.Addr().String(), cmds
}

func TestRTLTCP(t *testing.T) {
	raw := gen.ToU8([]complex64{complex(1, -1), complex(-1, 1), 0})
	addr, cmds := fakeServer(t, 3, raw)

	r := NewRTLTCP()
	require.NoError(t, r.Dial(addr))
	defer r.Close()

	assert.Equal(t, uint32(29), r.Info.GainCount)
	assert.Equal(t, DefaultSampleRate, r.SampleRate())

	logger, hook := test.NewNullLogger()
	require.NoError(t, r.Configure(func(string) bool { return false }, logger))
	assert.Equal(t, "connected to rtl_tcp", hook.LastEntry().Message)

	samples := make([]complex64, 8)
	var got []complex64
	for {
		n, err := r.Read(samples)
		got = append(got, samples[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []command{
		{1, uint32(DefaultCenterFreq)},
		{2, uint32(DefaultSampleRate)},
		{3, 0},
	}, <-cmds)

	require.Len(t, got, 3)
	assert.Equal(t, complex64(complex(1, -1)), got[0])
	assert.Equal(t, complex64(complex(-1, 1)), got[1])
}

func TestRTLTCPUnconnected(t *testing.T) {
	assert.NoError(t, NewRTLTCP().Close())
}
