// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

// Package config loads the YAML settings shared by the vizshm producer,
// consumer and inspector.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	shm "github.com/gilbarel1/audioviz-shm"
)

// Config is the complete vizshm configuration.
type Config struct {
	SegmentName   string `yaml:"segment_name"`
	SemaphoreName string `yaml:"semaphore_name"`
	Slots         int    `yaml:"slots"`
	CatchUp       string `yaml:"catch_up"`        // advance, latest
	ReadTimeoutMS int    `yaml:"read_timeout_ms"` // consumer wait bound
	TargetFPS     int    `yaml:"target_fps"`
	SampleRate    uint32 `yaml:"sample_rate"`
	Bins          int    `yaml:"bins"`
	Signal        string `yaml:"signal"` // sweep, noise, chord, rhythm
	StatsEvery    int    `yaml:"stats_every"`
	LogLevel      string `yaml:"log_level"` // debug, info, warn, error
	Replace       bool   `yaml:"replace"`
	UnlinkOnClose bool   `yaml:"unlink_on_close"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SegmentName:   shm.DefaultSegmentName,
		SemaphoreName: shm.DefaultSemaphoreName,
		Slots:         shm.DefaultSlots,
		CatchUp:       "advance",
		ReadTimeoutMS: 100,
		TargetFPS:     43,
		SampleRate:    44100,
		Bins:          shm.MaxBins,
		Signal:        "sweep",
		StatsEvery:    100,
		LogLevel:      "info",
		UnlinkOnClose: true,
	}
}

// Load reads a YAML configuration file. Keys that are absent keep their
// Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var signals = map[string]bool{
	"sweep":  true,
	"noise":  true,
	"chord":  true,
	"rhythm": true,
}

// Validate checks that cfg is usable.
func Validate(cfg *Config) error {
	if cfg.SegmentName == "" {
		return fmt.Errorf("segment_name is required")
	}
	if cfg.SemaphoreName == "" {
		return fmt.Errorf("semaphore_name is required")
	}
	if cfg.SegmentName == cfg.SemaphoreName {
		return fmt.Errorf("segment_name and semaphore_name must differ")
	}
	if cfg.Slots < 1 {
		return fmt.Errorf("slots must be > 0")
	}
	if _, err := shm.ParseCatchUpPolicy(cfg.CatchUp); err != nil {
		return fmt.Errorf("catch_up: %w", err)
	}
	if cfg.ReadTimeoutMS < 0 {
		return fmt.Errorf("read_timeout_ms must be >= 0")
	}
	if cfg.TargetFPS <= 0 {
		return fmt.Errorf("target_fps must be > 0")
	}
	if cfg.SampleRate == 0 {
		return fmt.Errorf("sample_rate must be > 0")
	}
	if cfg.Bins < 1 || cfg.Bins > shm.MaxBins {
		return fmt.Errorf("bins must be between 1 and %d, got %d", shm.MaxBins, cfg.Bins)
	}
	if !signals[cfg.Signal] {
		return fmt.Errorf("unknown signal %q", cfg.Signal)
	}
	if cfg.StatsEvery <= 0 {
		return fmt.Errorf("stats_every must be > 0")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}

	return nil
}

// Options converts cfg into endpoint options for mode.
func (cfg *Config) Options(mode shm.Mode, logger *slog.Logger) shm.Options {
	policy, _ := shm.ParseCatchUpPolicy(cfg.CatchUp)

	return shm.Options{
		SegmentName:   cfg.SegmentName,
		SemaphoreName: cfg.SemaphoreName,
		Slots:         cfg.Slots,
		Mode:          mode,
		Replace:       cfg.Replace,
		UnlinkOnClose: cfg.UnlinkOnClose,
		CatchUp:       policy,
		Logger:        logger,
	}
}

// ReadTimeout returns the consumer wait bound.
func (cfg *Config) ReadTimeout() time.Duration {
	return time.Duration(cfg.ReadTimeoutMS) * time.Millisecond
}

// FrameInterval returns the producer period for TargetFPS.
func (cfg *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(cfg.TargetFPS)
}

// SlogLevel returns the configured log level.
func (cfg *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(cfg.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
