package csv

import (
	"bytes"
	"errors"
	"runtime"
	"testing"

	"golang.org/x/xerrors"
)

func TestRecorderNil(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)

	if err := enc.Encode(nil); err == nil {
		t.Fatalf("%+v\n", err)
	}
}

type Msg struct{}

func (m Msg) Record() []string {
	return []string{"a", "b"}
}

func TestRecorder(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)

	if err := enc.Encode(Msg{}); err != nil {
		t.Fatalf("%+v\n", err)
	}
	if buf.String() != "a,b\n" {
		t.Fatalf("Expected %q got %q\n", "a,b\n", buf.String())
	}
}

type HeaderMsg struct {
	Msg
}

func (m HeaderMsg) Header() []string {
	return []string{"first", "second"}
}

func TestHeaderOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)

	for i := 0; i < 2; i++ {
		if err := enc.Encode(HeaderMsg{}); err != nil {
			t.Fatalf("%+v\n", err)
		}
	}

	expected := "first,second\na,b\na,b\n"
	if buf.String() != expected {
		t.Fatalf("Expected %q got %q\n", expected, buf.String())
	}
}

type NonRecorder struct{}

func TestNonRecorder(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)

	err := enc.Encode(NonRecorder{})

	var runtimeErr runtime.Error
	if !xerrors.As(err, &runtimeErr) {
		t.Fatalf("%+v\n", runtimeErr)
	}
}

type failWriter struct{}

var errWrite = errors.New("write failed")

func (failWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestWriteError(t *testing.T) {
	enc := NewEncoder(failWriter{})

	if err := enc.Encode(Msg{}); !errors.Is(err, errWrite) {
		t.Fatalf("Expected %v got %v\n", errWrite, err)
	}
}
