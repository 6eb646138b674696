// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"errors"
	"fmt"
	"log/slog"
)

// Default resource names shared by both endpoints.
const (
	DefaultSegmentName   = "/audioviz_shm"
	DefaultSemaphoreName = "/audioviz_sem_write"
)

// Mode selects whether an endpoint creates the shared resources or
// attaches to ones created by its peer.
type Mode int

const (
	ModeAttach Mode = iota
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeAttach:
		return "attach"
	case ModeCreate:
		return "create"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options describes how an endpoint reaches its ring. Both peers must agree
// on SegmentName, SemaphoreName and Slots.
type Options struct {
	SegmentName   string
	SemaphoreName string
	Slots         int
	Mode          Mode

	// Replace unlinks stale resources of the same name when creating.
	Replace bool

	// UnlinkOnClose removes the names on Close if this endpoint created
	// them.
	UnlinkOnClose bool

	// CatchUp applies to consumers only.
	CatchUp CatchUpPolicy

	Logger *slog.Logger
}

// DefaultOptions returns options for attaching to the default ring.
func DefaultOptions() Options {
	return Options{
		SegmentName:   DefaultSegmentName,
		SemaphoreName: DefaultSemaphoreName,
		Slots:         DefaultSlots,
		Mode:          ModeAttach,
		UnlinkOnClose: true,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger()
}

// endpoint holds the OS resources shared by Producer and Consumer.
type endpoint struct {
	opts Options
	seg  *Segment
	sem  *Semaphore
	ring *Ring
	log  *slog.Logger
}

func openEndpoint(opts Options, role string) (*endpoint, error) {
	if opts.Slots < 1 {
		return nil, fmt.Errorf("%w: slot count %d", ErrInvalidSharedMemory, opts.Slots)
	}

	e := &endpoint{
		opts: opts,
		log:  opts.logger().With("role", role, "segment", opts.SegmentName),
	}

	if err := e.acquire(); err != nil {
		e.release()
		return nil, fmt.Errorf("shm: %s: %w", role, err)
	}

	e.log.Info("shm: endpoint ready",
		"mode", opts.Mode,
		"semaphore", opts.SemaphoreName,
		"slots", opts.Slots,
		"size", e.ring.Size())
	return e, nil
}

func (e *endpoint) acquire() error {
	size := RegionSize(e.opts.Slots)

	var err error
	switch e.opts.Mode {
	case ModeCreate:
		if e.seg, err = CreateSegment(e.opts.SegmentName, size, e.opts.Replace); err != nil {
			return fmt.Errorf("create segment: %w", err)
		}
		if e.sem, err = CreateSemaphore(e.opts.SemaphoreName, e.opts.Slots, e.opts.Replace); err != nil {
			return fmt.Errorf("create semaphore: %w", err)
		}
	case ModeAttach:
		if e.seg, err = OpenSegment(e.opts.SegmentName, size); err != nil {
			return fmt.Errorf("open segment: %w", err)
		}
		if e.sem, err = OpenSemaphore(e.opts.SemaphoreName); err != nil {
			return fmt.Errorf("open semaphore: %w", err)
		}
		if e.sem.Limit() != e.opts.Slots {
			return fmt.Errorf("%w: limit %d does not match %d slots",
				ErrInvalidSemaphore, e.sem.Limit(), e.opts.Slots)
		}
	default:
		return fmt.Errorf("unknown mode %v", e.opts.Mode)
	}

	e.ring, err = NewRing(e.seg.Bytes(), e.opts.Slots)
	return err
}

// release closes local handles and, for a creator that either failed setup
// or was asked to, unlinks the names.
func (e *endpoint) release() error {
	var errs []error

	if e.sem != nil {
		errs = append(errs, e.sem.Close())
	}
	if e.seg != nil {
		errs = append(errs, e.seg.Close())
	}

	if e.opts.Mode == ModeCreate && (e.opts.UnlinkOnClose || e.ring == nil) {
		if e.sem != nil && e.sem.Created() {
			errs = append(errs, UnlinkSemaphore(e.opts.SemaphoreName))
		}
		if e.seg != nil && e.seg.Created() {
			errs = append(errs, UnlinkSegment(e.opts.SegmentName))
		}
	}

	return errors.Join(errs...)
}

func (e *endpoint) close() error {
	err := e.release()
	e.log.Info("shm: endpoint closed")
	return err
}

// Producer is a Writer bound to a named ring.
type Producer struct {
	*Writer
	e *endpoint
}

// NewProducer opens the ring described by opts for writing.
func NewProducer(opts Options) (*Producer, error) {
	e, err := openEndpoint(opts, "producer")
	if err != nil {
		return nil, err
	}

	return &Producer{
		Writer: NewWriter(e.ring, e.sem, WithWriterLogger(e.log)),
		e:      e,
	}, nil
}

// Ring returns the underlying ring.
func (p *Producer) Ring() *Ring { return p.e.ring }

// Close stops the Writer and releases the shared resources.
func (p *Producer) Close() error {
	p.Writer.Close()

	s := p.Writer.Stats()
	p.e.log.Info("shm: producer summary",
		"produced", s.FramesProduced,
		"dropped", s.FramesDropped,
		"truncated", s.FramesTruncated)
	return p.e.close()
}

// Consumer is a Reader bound to a named ring.
type Consumer struct {
	*Reader
	e *endpoint
}

// NewConsumer opens the ring described by opts for reading.
func NewConsumer(opts Options) (*Consumer, error) {
	e, err := openEndpoint(opts, "consumer")
	if err != nil {
		return nil, err
	}

	return &Consumer{
		Reader: NewReader(e.ring, e.sem, WithReaderLogger(e.log), WithCatchUp(opts.CatchUp)),
		e:      e,
	}, nil
}

// Ring returns the underlying ring.
func (c *Consumer) Ring() *Ring { return c.e.ring }

// Close stops the Reader and releases the shared resources.
func (c *Consumer) Close() error {
	c.Reader.Close()

	s := c.Reader.Stats()
	c.e.log.Info("shm: consumer summary",
		"read", s.FramesRead,
		"dropped", s.FramesDropped,
		"stale", s.StaleRejected,
		"invalid", s.InvalidFrames,
		"torn", s.TornReads,
		"last", s.LastSequence)
	return c.e.close()
}

// Unlink removes both names described by opts.
func Unlink(opts Options) error {
	return errors.Join(
		UnlinkSegment(opts.SegmentName),
		UnlinkSemaphore(opts.SemaphoreName),
	)
}

// Inspect attaches to the segment described by opts and reports every
// slot. It does not touch the semaphore.
func Inspect(opts Options) ([]SlotInfo, error) {
	seg, err := OpenSegment(opts.SegmentName, RegionSize(opts.Slots))
	if err != nil {
		return nil, err
	}
	defer seg.Close()

	ring, err := NewRing(seg.Bytes(), opts.Slots)
	if err != nil {
		return nil, err
	}
	return ring.Inspect(), nil
}
