package source

import (
	"flag"
	"net"

	"github.com/bemasher/rtltcp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Front end defaults for 315MHz TPMS sensors.
const (
	DefaultCenterFreq = 315e6
	DefaultSampleRate = 2.4e6
)

// RTLTCP reads unsigned 8-bit IQ from an rtl_tcp server.
type RTLTCP struct {
	rtltcp.SDR

	raw []byte
	lut ByteLUT
}

func NewRTLTCP() *RTLTCP {
	r := &RTLTCP{lut: NewByteLUT()}
	r.Flags.CenterFreq = DefaultCenterFreq
	r.Flags.SampleRate = DefaultSampleRate
	return r
}

// RegisterFlags registers the rtl_tcp flags on the go flag set with this
// package's defaults.
func (r *RTLTCP) RegisterFlags() {
	r.SDR.RegisterFlags()
	flag.Lookup("centerfreq").DefValue = "315M"
	flag.Lookup("samplerate").DefValue = "2.4M"
}

// Configure tunes the dongle and applies every rtl_tcp flag for which changed
// reports true. Tuner AGC is enabled unless a gain flag was given.
func (r *RTLTCP) Configure(changed func(name string) bool, log logrus.FieldLogger) error {
	gainFlagSet := false
	for _, name := range []string{"gainbyindex", "tunergainmode", "tunergain", "agcmode"} {
		gainFlagSet = gainFlagSet || changed(name)
	}

	if err := r.SetCenterFreq(uint32(r.Flags.CenterFreq)); err != nil {
		return errors.Wrap(err, "set center frequency")
	}
	if err := r.SetSampleRate(uint32(r.Flags.SampleRate)); err != nil {
		return errors.Wrap(err, "set sample rate")
	}
	if !gainFlagSet {
		if err := r.SetGainMode(true); err != nil {
			return errors.Wrap(err, "set gain mode")
		}
	}

	fl := r.Flags
	commands := []struct {
		name string
		exec func() error
	}{
		{"tunergainmode", func() error { return r.SetGainMode(fl.TunerGainMode) }},
		{"tunergain", func() error { return r.SetGain(uint32(fl.TunerGain * 10.0)) }},
		{"freqcorrection", func() error { return r.SetFreqCorrection(uint32(fl.FreqCorrection)) }},
		{"testmode", func() error { return r.SetTestMode(fl.TestMode) }},
		{"agcmode", func() error { return r.SetAGCMode(fl.AgcMode) }},
		{"directsampling", func() error { return r.SetDirectSampling(fl.DirectSampling) }},
		{"offsettuning", func() error { return r.SetOffsetTuning(fl.OffsetTuning) }},
		{"rtlxtalfreq", func() error { return r.SetRTLXtalFreq(uint32(fl.RtlXtalFreq)) }},
		{"tunerxtalfreq", func() error { return r.SetTunerXtalFreq(uint32(fl.TunerXtalFreq)) }},
		{"gainbyindex", func() error { return r.SetGainByIndex(uint32(fl.GainByIndex)) }},
	}
	for _, cmd := range commands {
		if !changed(cmd.name) {
			continue
		}
		if err := cmd.exec(); err != nil {
			return errors.Wrap(err, cmd.name)
		}
	}

	log.WithFields(logrus.Fields{
		"server":     fl.ServerAddr,
		"centerfreq": uint32(fl.CenterFreq),
		"samplerate": uint32(fl.SampleRate),
		"tuner":      r.Info.Tuner.String(),
		"gaincount":  r.Info.GainCount,
	}).Info("connected to rtl_tcp")

	return nil
}

// Dial connects to the server at addr, or the -server flag if addr is empty.
func (r *RTLTCP) Dial(addr string) error {
	var tcpAddr *net.TCPAddr
	if addr != "" {
		var err error
		if tcpAddr, err = net.ResolveTCPAddr("tcp", addr); err != nil {
			return errors.Wrap(err, "resolve rtl_tcp address")
		}
	}
	return errors.Wrap(r.Connect(tcpAddr), "connect")
}

func (r *RTLTCP) SampleRate() float64 {
	return float64(r.Flags.SampleRate)
}

// Read shadows the embedded connection's Read, filling samples with whole IQ
// pairs.
func (r *RTLTCP) Read(samples []complex64) (int, error) {
	if need := len(samples) << 1; cap(r.raw) < need {
		r.raw = make([]byte, need)
	}
	r.raw = r.raw[:len(samples)<<1]

	n, err := readFull(r.TCPConn, r.raw, 2)
	r.lut.Convert(samples[:n], r.raw)

	return n, err
}

func (r *RTLTCP) Close() error {
	if r.TCPConn == nil {
		return nil
	}
	return r.TCPConn.Close()
}
