// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gilbarel1/audioviz-shm"
	"github.com/gilbarel1/audioviz-shm/config"
	"github.com/gilbarel1/audioviz-shm/internal/synth"
)

func produce(log *slog.Logger, cfg *config.Config, opts shm.Options, duration time.Duration, stop <-chan os.Signal) error {
	kind, err := synth.ParseKind(cfg.Signal)
	if err != nil {
		return err
	}

	p, err := shm.NewProducer(opts)
	if err != nil {
		return err
	}
	defer func() { should("producer.Close", p.Close()) }()

	gen := synth.New(kind, cfg.Bins, cfg.SampleRate, cfg.TargetFPS, uint64(time.Now().UnixNano()))

	ticker := time.NewTicker(cfg.FrameInterval())
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	log.Info("vizshm: producing",
		"segment", opts.SegmentName,
		"signal", kind,
		"fps", cfg.TargetFPS,
		"bins", cfg.Bins)

	start := time.Now()
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-deadline:
			break loop
		case <-ticker.C:
			mag, phase := gen.Next()
			if err := p.WriteFrame(mag, phase, cfg.SampleRate); err != nil {
				return err
			}
		}
	}

	elapsed := time.Since(start)
	s := p.Stats()
	log.Info("vizshm: producer finished",
		"sent", s.FramesProduced,
		"dropped", s.FramesDropped,
		"truncated", s.FramesTruncated,
		"duration", elapsed.Round(time.Millisecond),
		"fps", float64(s.FramesProduced)/elapsed.Seconds())
	return nil
}
