package profile

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load decodes and validates a table from YAML. Unknown keys are rejected so
// misspelled fields don't silently fall back to zero values. An omitted
// if_rate defaults to DefaultIFRate.
func Load(r io.Reader) (Table, error) {
	var t Table

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Table{}, errors.Wrap(err, "decode profiles")
	}

	if t.IFRate == 0 {
		t.IFRate = DefaultIFRate
	}

	if err := t.Validate(); err != nil {
		return Table{}, err
	}

	return t, nil
}

func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, errors.Wrap(err, "open profiles")
	}
	defer f.Close()

	t, err := Load(f)
	return t, errors.Wrap(err, path)
}

// Write encodes t as YAML, suitable as a starting point for a profile file.
func Write(w io.Writer, t Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return errors.Wrap(err, "encode profiles")
	}
	return errors.Wrap(enc.Close(), "encode profiles")
}
