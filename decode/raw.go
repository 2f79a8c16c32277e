package decode

import (
	"fmt"

	"github.com/bemasher/rtltpms/frame"
)

func init() {
	Register("raw", func() Decoder { return RawDecoder{} })
	Register("manchester", func() Decoder { return ManchesterDecoder{MinBytes: DefaultMinBytes} })
}

// RawDecoder accepts every frame as is.
type RawDecoder struct{}

func (RawDecoder) Decode(bits []byte, attrs frame.Attributes) (Message, error) {
	return Raw{NewData(bits)}, nil
}

type Raw struct {
	Data
}

func (r Raw) MsgType() string {
	return "Raw"
}

func (r Raw) Payload() []byte {
	return r.Bytes
}

func (r Raw) String() string {
	return fmt.Sprintf("{Payload:%02X}", r.Bytes)
}

func (r Raw) Record() []string {
	return []string{fmt.Sprintf("%02X", r.Bytes)}
}
