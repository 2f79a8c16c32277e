package burst

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/pkg/errors"
)

// DefaultPattern names segments after the time they started.
const DefaultPattern = "burst_%Y%m%d_%H%M%S"

// FileSink writes each segment to its own little-endian cf32 file named
// <pattern>_<rate>_<seq>.cf32 in dir.
type FileSink struct {
	dir     string
	pattern *strftime.Strftime
	seq     int
}

func NewFileSink(dir, pattern string) (*FileSink, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "burst file pattern")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "burst directory")
	}

	return &FileSink{dir: dir, pattern: p}, nil
}

func (fs *FileSink) WriteSegment(start time.Time, rate float64, samples []complex64) (err error) {
	name := fmt.Sprintf("%s_%.0f_%04d.cf32", fs.pattern.FormatString(start), rate, fs.seq)
	fs.seq++

	f, err := os.Create(filepath.Join(fs.dir, name))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return err
	}
	return w.Flush()
}
