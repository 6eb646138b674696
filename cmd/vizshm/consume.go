// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/gilbarel1/audioviz-shm"
	"github.com/gilbarel1/audioviz-shm/config"
)

// transient errors leave the reader usable; the next read simply retries.
func transient(err error) bool {
	return errors.Is(err, shm.ErrTimeout) ||
		errors.Is(err, shm.ErrStale) ||
		errors.Is(err, shm.ErrTornRead) ||
		errors.Is(err, shm.ErrInvalidMagic) ||
		errors.Is(err, shm.ErrBinCountOutOfRange)
}

func consume(log *slog.Logger, cfg *config.Config, opts shm.Options, bars bool, stop <-chan os.Signal) error {
	c, err := shm.NewConsumer(opts)
	if err != nil {
		return err
	}
	defer func() { should("consumer.Close", c.Close()) }()

	var out *spectrumLine
	if bars {
		out = newSpectrumLine(os.Stdout)
		defer out.Finish()
	}

	log.Info("vizshm: consuming", "segment", opts.SegmentName, "catch_up", opts.CatchUp)

	timeout := cfg.ReadTimeout()
	for !stopped(stop) {
		f, err := c.ReadFrame(timeout)
		switch {
		case err == nil:
		case errors.Is(err, shm.ErrTimeout):
			continue
		case transient(err):
			log.Debug("vizshm: read failed", "err", err)
			continue
		default:
			return err
		}

		if out != nil {
			out.Draw(f)
		}

		if s := c.Stats(); s.FramesRead%uint64(cfg.StatsEvery) == 0 {
			log.Info("vizshm: stats",
				"read", s.FramesRead,
				"dropped", s.FramesDropped,
				"stale", s.StaleRejected,
				"invalid", s.InvalidFrames,
				"torn", s.TornReads,
				"last", s.LastSequence,
				"sample_rate", f.SampleRate,
				"bins", f.BinCount)
		}
	}

	return nil
}
