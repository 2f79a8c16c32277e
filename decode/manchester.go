package decode

import (
	"fmt"

	"github.com/bemasher/rtltpms/frame"
	"github.com/pkg/errors"
)

// DefaultMinBytes is the shortest payload a TPMS sensor sends.
const DefaultMinBytes = 8

var ErrTooShort = errors.New("manchester payload too short")

// ManchesterDecoder decodes symbol pairs, 10 as one and 01 as zero, until
// the first invalid pair. Frames are fixed length while payloads aren't, so
// the first violation marks the end of the transmission.
type ManchesterDecoder struct {
	MinBytes int
}

func (md ManchesterDecoder) Decode(bits []byte, attrs frame.Attributes) (Message, error) {
	decoded := make([]byte, 0, len(bits)>>1)
	for idx := 0; idx+1 < len(bits); idx += 2 {
		pair := bits[idx]<<1 | bits[idx+1]
		if pair == 0x2 {
			decoded = append(decoded, 1)
		} else if pair == 0x1 {
			decoded = append(decoded, 0)
		} else {
			break
		}
	}

	// Only whole bytes are kept.
	decoded = decoded[:len(decoded)&^7]
	if len(decoded)>>3 < md.MinBytes {
		return nil, errors.Wrapf(ErrTooShort, "%d bytes", len(decoded)>>3)
	}

	return Manchester{NewData(decoded)}, nil
}

type Manchester struct {
	Data
}

func (m Manchester) MsgType() string {
	return "Manchester"
}

func (m Manchester) Payload() []byte {
	return m.Bytes
}

func (m Manchester) String() string {
	return fmt.Sprintf("{Length:%d Payload:%02X}", len(m.Bytes), m.Bytes)
}

func (m Manchester) Record() []string {
	return []string{fmt.Sprintf("%02X", m.Bytes)}
}
