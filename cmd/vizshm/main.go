// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

// Command vizshm drives both ends of an audio visualisation ring: a
// synthetic producer, a consumer that reports statistics, and an inspector
// that dumps every slot.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/gilbarel1/audioviz-shm"
	"github.com/gilbarel1/audioviz-shm/config"
)

func must(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed with err: %v\n", name, err)
		os.Exit(1)
	}
}

func should(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed with err: %v\n", name, err)
	}
}

type flags struct {
	role       string
	configPath string
	unlink     bool
	mode       string

	duration   time.Duration
	bars       bool
	continuous bool
	interval   time.Duration
	format     string
}

func main() {
	cfg := config.Default()

	var f flags
	flag.StringVar(&f.role, "role", "produce", "produce/consume/inspect")
	flag.StringVar(&f.configPath, "config", "", "YAML configuration file")
	flag.BoolVar(&f.unlink, "unlink", false, "unlink shared memory and semaphore, then exit")
	flag.StringVar(&f.mode, "mode", "", "create/attach (default: create for produce, attach otherwise)")

	flag.StringVar(&cfg.SegmentName, "segment", cfg.SegmentName, "shared memory name, or \"random\"")
	flag.StringVar(&cfg.SemaphoreName, "sem", cfg.SemaphoreName, "semaphore name")
	flag.IntVar(&cfg.Slots, "slots", cfg.Slots, "ring slots")
	flag.StringVar(&cfg.CatchUp, "catch-up", cfg.CatchUp, "advance/latest")
	flag.BoolVar(&cfg.Replace, "replace", cfg.Replace, "replace stale resources when creating")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug/info/warn/error")

	flag.StringVar(&cfg.Signal, "signal", cfg.Signal, "sweep/noise/chord/rhythm (produce)")
	flag.IntVar(&cfg.TargetFPS, "fps", cfg.TargetFPS, "frames per second (produce)")
	flag.IntVar(&cfg.Bins, "bins", cfg.Bins, "bins per frame (produce)")
	flag.DurationVar(&f.duration, "duration", 0, "stop after this long, 0 runs until interrupted (produce)")

	flag.BoolVar(&f.bars, "bars", false, "draw a spectrum line per frame (consume)")
	flag.IntVar(&cfg.StatsEvery, "stats-every", cfg.StatsEvery, "log statistics every n frames (consume)")

	flag.BoolVar(&f.continuous, "continuous", false, "keep inspecting (inspect)")
	flag.DurationVar(&f.interval, "interval", time.Second, "time between dumps (inspect)")
	flag.StringVar(&f.format, "format", "text", "text/msgpack (inspect)")

	flag.Parse()

	switch f.role {
	case "produce", "consume", "inspect":
	default:
		flag.PrintDefaults()
		os.Exit(2)
	}

	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		must("config.Load", err)

		// Flags given on the command line win over the file.
		set := map[string]bool{}
		flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
		mergeFlags(loaded, cfg, set)
		cfg = loaded
	}

	if cfg.SegmentName == "random" {
		cfg.SegmentName = "/audioviz_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	must("config.Validate", config.Validate(cfg))

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	shm.SetLogger(log)

	mode := shm.ModeAttach
	if f.mode == "create" || (f.mode == "" && f.role == "produce") {
		mode = shm.ModeCreate
	}
	opts := cfg.Options(mode, log)

	if f.unlink {
		must("Unlink", shm.Unlink(opts))
		log.Info("vizshm: unlinked", "segment", opts.SegmentName, "semaphore", opts.SemaphoreName)
		return
	}

	// Termination
	// http://stackoverflow.com/a/18158859
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, unix.SIGTERM)

	switch f.role {
	case "produce":
		must("produce", produce(log, cfg, opts, f.duration, stop))
	case "consume":
		must("consume", consume(log, cfg, opts, f.bars, stop))
	case "inspect":
		must("inspect", inspect(opts, f.format, f.continuous, f.interval, stop))
	}
}

// mergeFlags copies the explicitly set flag values from src into dst.
func mergeFlags(dst, src *config.Config, set map[string]bool) {
	if set["segment"] {
		dst.SegmentName = src.SegmentName
	}
	if set["sem"] {
		dst.SemaphoreName = src.SemaphoreName
	}
	if set["slots"] {
		dst.Slots = src.Slots
	}
	if set["catch-up"] {
		dst.CatchUp = src.CatchUp
	}
	if set["replace"] {
		dst.Replace = src.Replace
	}
	if set["log-level"] {
		dst.LogLevel = src.LogLevel
	}
	if set["signal"] {
		dst.Signal = src.Signal
	}
	if set["fps"] {
		dst.TargetFPS = src.TargetFPS
	}
	if set["bins"] {
		dst.Bins = src.Bins
	}
	if set["stats-every"] {
		dst.StatsEvery = src.StatsEvery
	}
}

func stopped(stop <-chan os.Signal) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
