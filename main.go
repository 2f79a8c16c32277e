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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bemasher/rtltpms/burst"
	"github.com/bemasher/rtltpms/decode"
	"github.com/bemasher/rtltpms/observe"
	"github.com/bemasher/rtltpms/pipeline"
	"github.com/bemasher/rtltpms/profile"
	"github.com/bemasher/rtltpms/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})
}

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	rtl := source.NewRTLTCP()
	rtl.RegisterFlags()
	RegisterFlags()
	EnvOverride()
	pflag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	if err := HandleFlags(); err != nil {
		logrus.Fatal(err)
	}

	if err := run(rtl); err != nil {
		logrus.WithError(err).Fatal("receiver stopped")
	}
}

func loadProfiles() (profile.Table, error) {
	table := profile.Default()
	if *profileFilename != "" {
		var err error
		if table, err = profile.LoadFile(*profileFilename); err != nil {
			return table, err
		}
	}

	if pflag.CommandLine.Changed("threshold") {
		table.Threshold = *threshold
	}

	return table, table.Validate()
}

func openSource(rtl *source.RTLTCP) (source.Source, error) {
	if *sampleFilename != "" {
		return source.Open(*sampleFilename, *sampleFormat, *sampleFileRate)
	}

	if err := rtl.Dial(""); err != nil {
		return nil, err
	}
	if err := rtl.Configure(pflag.CommandLine.Changed, logrus.StandardLogger()); err != nil {
		rtl.Close()
		return nil, err
	}

	return rtl, nil
}

func run(rtl *source.RTLTCP) error {
	table, err := loadProfiles()
	if err != nil {
		return err
	}

	if *dumpProfiles {
		return profile.Write(os.Stdout, table)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *timeLimit != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeLimit)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logrus.StandardLogger()
	opts := []pipeline.Option{pipeline.WithLogger(log)}

	var metrics *observe.Metrics
	if *metricsAddr != "" {
		mp, shutdown, err := observe.InitProvider()
		if err != nil {
			return err
		}
		defer shutdown(context.Background())

		if metrics, err = observe.NewMetrics(mp); err != nil {
			return err
		}
		opts = append(opts, pipeline.WithMetrics(metrics))

		go func() {
			if err := observe.Serve(ctx, *metricsAddr, log); err != nil {
				log.WithError(err).Error("metrics")
			}
		}()
	}

	if *burstDir != "" {
		sink, err := burst.NewFileSink(*burstDir, *burstPattern)
		if err != nil {
			return err
		}

		cfg := burst.DefaultConfig()
		cfg.Threshold = *burstThreshold

		rec, err := burst.NewRecorder(cfg, float64(table.IFRate), sink, burst.WithMetrics(metrics))
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithRecorder(rec))
	}

	reporter, err := NewReporter()
	if err != nil {
		return err
	}
	if *single {
		reporter.OnMessage = func(decode.LogMessage) { cancel() }
	}

	src, err := openSource(rtl)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer src.Close()

	cfg := pipeline.Config{
		Profiles:    table,
		QueueLength: *queueLength,
		BlockSize:   *blockSize,
	}

	p, err := pipeline.New(cfg, src, reporter, opts...)
	if err != nil {
		return err
	}
	p.Log()

	start := time.Now()
	log.Info("running")
	if err := p.Run(ctx); err != nil {
		return err
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.WithField("runtime", time.Since(start)).Info("time limit reached")
	}

	return nil
}
