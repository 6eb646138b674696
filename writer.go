// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"fmt"
	"log/slog"
)

// WriterStats is a snapshot of a Writer's counters.
type WriterStats struct {
	FramesProduced  uint64
	FramesDropped   uint64 // signal units discarded by backpressure
	FramesTruncated uint64
	NextSequence    uint64
}

// Writer is the producer endpoint of a ring. It never blocks on the
// consumer. A Writer is not safe for concurrent use.
type Writer struct {
	ring  *Ring
	sig   Signal
	log   *slog.Logger
	clock func() uint64

	scratch []byte
	next    uint64
	stats   WriterStats
	closed  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the Writer's logger.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithClock replaces the monotonic microsecond clock used for timestamps.
func WithClock(clock func() uint64) WriterOption {
	return func(w *Writer) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// NewWriter returns a Writer that publishes into ring and announces each
// frame on sig. The first frame gets sequence 1.
func NewWriter(ring *Ring, sig Signal, opts ...WriterOption) *Writer {
	w := &Writer{
		ring:    ring,
		sig:     sig,
		log:     logger(),
		clock:   monotonicMicros,
		scratch: make([]byte, SlotSize),
		next:    1,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteFrame publishes one analysis window. Input longer than MaxBins is
// truncated. phase may be nil; otherwise it must match magnitude in length.
//
// If the consumer is a full ring behind, the frame is still written
// but the signal is not incremented and the drop is counted; this is not
// an error.
func (w *Writer) WriteFrame(magnitude, phase []float32, sampleRate uint32) error {
	if w.closed {
		return ErrClosed
	}

	if len(magnitude) > MaxBins {
		w.log.Warn("shm: truncating frame", "bins", len(magnitude), "max", MaxBins, "sequence", w.next)
		magnitude = magnitude[:MaxBins]
		if len(phase) > MaxBins {
			phase = phase[:MaxBins]
		}
		w.stats.FramesTruncated++
	}

	f := Frame{
		Header: Header{
			Sequence:    w.next,
			TimestampUS: w.clock(),
			SampleRate:  sampleRate,
		},
		Magnitude: magnitude,
		Phase:     phase,
	}

	if err := EncodeFrame(w.scratch, &f); err != nil {
		return err
	}

	seq := w.next
	w.next++

	publish(w.ring.Slot(seq), w.scratch)
	w.stats.FramesProduced++

	posted, err := w.sig.Post()
	if err != nil {
		return fmt.Errorf("post frame %d: %w", seq, err)
	}

	if !posted {
		w.stats.FramesDropped++
		w.log.Debug("shm: consumer behind, dropping oldest unit", "sequence", seq, "dropped", w.stats.FramesDropped)
	}

	return nil
}

// Stats returns the Writer's counters.
func (w *Writer) Stats() WriterStats {
	s := w.stats
	s.NextSequence = w.next
	return s
}

// Close stops the Writer. It does not close the ring or the signal.
func (w *Writer) Close() error {
	w.closed = true
	return nil
}
