// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CatchUpPolicy selects what a Reader does when it finds the ring has been
// lapped since its last read.
type CatchUpPolicy int

const (
	// CatchUpAdvance always reads the slot after the last sequence seen,
	// delivering whatever the producer last wrote there.
	CatchUpAdvance CatchUpPolicy = iota

	// CatchUpLatest scans every slot once a lap is detected and delivers
	// the freshest valid frame instead.
	CatchUpLatest
)

func (p CatchUpPolicy) String() string {
	switch p {
	case CatchUpAdvance:
		return "advance"
	case CatchUpLatest:
		return "latest"
	default:
		return fmt.Sprintf("CatchUpPolicy(%d)", int(p))
	}
}

// ParseCatchUpPolicy parses "advance" or "latest".
func ParseCatchUpPolicy(s string) (CatchUpPolicy, error) {
	switch s {
	case "", "advance":
		return CatchUpAdvance, nil
	case "latest":
		return CatchUpLatest, nil
	default:
		return 0, fmt.Errorf("unknown catch-up policy %q", s)
	}
}

// ReaderStats is a snapshot of a Reader's counters.
type ReaderStats struct {
	FramesRead    uint64
	FramesDropped uint64 // inferred from sequence gaps
	StaleRejected uint64
	InvalidFrames uint64
	TornReads     uint64
	Timeouts      uint64
	LastSequence  uint64
}

// Reader is the consumer endpoint of a ring. It tracks its own expected
// sequence; nothing but the signal is shared with the producer. A Reader
// is not safe for concurrent use.
type Reader struct {
	ring   *Ring
	sig    Signal
	log    *slog.Logger
	policy CatchUpPolicy

	buf    []byte
	last   uint64
	stats  ReaderStats
	closed bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderLogger sets the Reader's logger.
func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithCatchUp sets the Reader's catch-up policy.
func WithCatchUp(p CatchUpPolicy) ReaderOption {
	return func(r *Reader) {
		r.policy = p
	}
}

// NewReader returns a Reader that has seen no frames.
func NewReader(ring *Ring, sig Signal, opts ...ReaderOption) *Reader {
	r := &Reader{
		ring: ring,
		sig:  sig,
		log:  logger(),
		buf:  make([]byte, SlotSize),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReadFrame waits up to timeout (or indefinitely for Forever) for the next
// frame. ErrTimeout, ErrStale, ErrTornRead, ErrInvalidMagic and
// ErrBinCountOutOfRange are transient: the Reader's state is unchanged and
// the caller may simply call again.
func (r *Reader) ReadFrame(timeout time.Duration) (*Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}

	if err := r.sig.Wait(timeout); err != nil {
		if errors.Is(err, ErrTimeout) {
			r.stats.Timeouts++
		}
		return nil, err
	}

	expected := r.last + 1

	f, err := r.copyOut(r.ring.Slot(expected))
	switch {
	case errors.Is(err, ErrTornRead):
		r.stats.TornReads++
		return nil, err
	case err != nil:
		r.stats.InvalidFrames++
		return nil, fmt.Errorf("slot %d: %w", r.ring.Index(expected), err)
	}

	if f.Sequence <= r.last {
		r.stats.StaleRejected++
		r.log.Debug("shm: stale frame", "sequence", f.Sequence, "last", r.last)
		return nil, fmt.Errorf("%w: sequence %d, last seen %d", ErrStale, f.Sequence, r.last)
	}

	if f.Sequence > expected && r.policy == CatchUpLatest {
		if latest := r.freshest(f.Sequence); latest != nil {
			f = latest
		}
	}

	if gap := f.Sequence - expected; gap > 0 {
		r.stats.FramesDropped += gap
		r.log.Debug("shm: frames dropped", "count", gap, "sequence", f.Sequence)
	}

	r.last = f.Sequence
	r.stats.FramesRead++
	return f, nil
}

// copyOut copies slot into the private buffer and decodes it. Nothing is
// ever decoded in place.
func (r *Reader) copyOut(slot []byte) (*Frame, error) {
	copy(r.buf, slot)

	if !unchanged(slot, r.buf) {
		return nil, ErrTornRead
	}

	return DecodeFrame(r.buf)
}

// freshest returns the valid frame with the greatest sequence above floor,
// or nil if there is none or it cannot be read cleanly.
func (r *Reader) freshest(floor uint64) *Frame {
	best, bestSeq := -1, floor
	for i := 0; i < r.ring.Slots(); i++ {
		slot := r.ring.slotAt(i)
		if loadMagic(slot) != Magic {
			continue
		}
		if seq := loadSequence(slot); seq > bestSeq {
			best, bestSeq = i, seq
		}
	}

	if best < 0 {
		return nil
	}

	f, err := r.copyOut(r.ring.slotAt(best))
	if err != nil || f.Sequence <= floor {
		return nil
	}
	return f
}

// LastSequence returns the sequence of the last frame delivered, or 0.
func (r *Reader) LastSequence() uint64 { return r.last }

// Stats returns the Reader's counters.
func (r *Reader) Stats() ReaderStats {
	s := r.stats
	s.LastSequence = r.last
	return s
}

// Close stops the Reader. It does not close the ring or the signal.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}
