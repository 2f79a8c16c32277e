// RTLTPMS - An rtl-sdr receiver for tire pressure monitoring sensors.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bemasher/rtltpms/burst"
	"github.com/bemasher/rtltpms/csv"
	"github.com/bemasher/rtltpms/decode"
	"github.com/bemasher/rtltpms/pipeline"
	"github.com/bemasher/rtltpms/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var sampleFilename = pflag.String("samplefile", "", "replay samples from file instead of rtl_tcp")
var sampleFormat = pflag.String("sampleformat", source.FormatU8, "sample file format: u8 or cf32")
var sampleFileRate = pflag.Float64("filerate", source.DefaultSampleRate, "sample rate of the sample file")

var profileFilename = pflag.String("profiles", "", "yaml file replacing the built in profile table")
var dumpProfiles = pflag.Bool("dumpprofiles", false, "write the profile table in use as yaml and exit")
var threshold = pflag.Int("threshold", 0, "access code bit errors tolerated, overrides the profile table")

var blockSize = pflag.Int("blocksize", pipeline.DefaultBlockSize, "samples per source read")
var queueLength = pflag.Int("queue", pipeline.DefaultQueueLength, "blocks buffered between stages")

var decoderNames = pflag.StringSlice("decoder", []string{"manchester"}, "payload decoders tried in order: "+strings.Join(decode.Names(), ", "))

var timeLimit = pflag.Duration("duration", 0, "time to run for, 0 for infinite, ex. 1h5m10s")

var unique = pflag.Duration("unique", 0, "suppress repeated payloads within this window, 0 to disable")
var branchFilter = decode.BranchFilter{StringMap: make(decode.StringMap)}

var format = pflag.String("format", "plain", "decoded message output format: plain, csv, json, or xml")
var encoder decode.Encoder

var single = pflag.Bool("single", false, "one shot execution, exit after the first decoded message")

var logLevel = pflag.String("loglevel", "info", "log level: debug, info, warn or error")
var metricsAddr = pflag.String("metrics", "", "serve prometheus metrics on this address, ex. :9100")

var burstDir = pflag.String("burstdir", "", "record bursts to cf32 files in this directory")
var burstPattern = pflag.String("burstpattern", burst.DefaultPattern, "strftime pattern for burst file names")
var burstThreshold = pflag.Float64("burstthreshold", burst.DefaultConfig().Threshold, "burst power threshold in dBFS")

var version = pflag.Bool("version", false, "display build date and commit hash")

func RegisterFlags() {
	pflag.Var(branchFilter, "filterbranch", "display only messages from branches in a comma-separated list, ex. ask/4040/d10")

	rtltpmsFlags := map[string]bool{}
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		rtltpmsFlags[f.Name] = true
	})

	// The rtl_tcp flags are registered on the go flag set.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	printDefaults := func(validFlags map[string]bool, inclusion bool) {
		pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
			if validFlags[f.Name] != inclusion {
				return
			}

			fmt.Fprintf(os.Stderr, "  --%s=%s: %s\n", f.Name, f.DefValue, f.Usage)
		})
	}

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		printDefaults(rtltpmsFlags, true)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "rtltcp specific:")
		printDefaults(rtltpmsFlags, false)
	}
}

func EnvOverride() {
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		envName := "RTLTPMS_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue == "" {
			return
		}

		log := logrus.WithFields(logrus.Fields{"env": envName, "flag": f.Name, "value": flagValue})
		if err := pflag.Set(f.Name, flagValue); err != nil {
			log.WithError(err).Warn("environment variable failed to override flag")
		} else {
			log.Info("environment variable overrides flag")
		}
	})
}

func HandleFlags() error {
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return errors.Wrap(err, "loglevel")
	}
	logrus.SetLevel(level)

	*format = strings.ToLower(*format)
	switch *format {
	case "plain":
		encoder = PlainEncoder{}
	case "csv":
		encoder = csv.NewEncoder(os.Stdout)
	case "json":
		encoder = json.NewEncoder(os.Stdout)
	case "xml":
		encoder = xml.NewEncoder(os.Stdout)
	default:
		return errors.Errorf("invalid format: %q", *format)
	}

	return nil
}

// NewReporter builds the decoders and filters selected by flags.
func NewReporter() (*decode.Reporter, error) {
	var decoders []decode.Decoder
	for _, name := range *decoderNames {
		d, err := decode.New(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		decoders = append(decoders, d)
	}

	var fc decode.FilterChain
	if *unique > 0 {
		fc.Add(decode.NewUniqueFilter(*unique))
	}
	if pflag.CommandLine.Changed("filterbranch") {
		fc.Add(branchFilter)
	}

	return decode.NewReporter(encoder, fc, decoders...), nil
}

type PlainEncoder struct{}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	_, err = fmt.Println(msg)
	return
}
