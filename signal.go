// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"sync"
	"time"
)

// Forever makes Wait block until a unit is available. Any negative timeout
// behaves the same way.
const Forever time.Duration = -1

// Signal is a counting "slot ready" signal shared by exactly one producer
// and one consumer. The count never exceeds the limit the signal was
// created with.
type Signal interface {
	// Post adds one unit without blocking. It reports false, leaving the
	// count unchanged, if the count is already at its limit.
	Post() (bool, error)

	// Wait takes one unit, blocking for at most timeout. A negative
	// timeout, such as Forever, blocks indefinitely. It returns ErrTimeout
	// if no unit arrived in time.
	Wait(timeout time.Duration) error

	// Close releases the local handle.
	Close() error
}

// LocalSignal is an in-process Signal, used to wire a Writer and Reader
// in the same process and in tests.
type LocalSignal struct {
	mu     sync.Mutex
	count  uint32
	limit  uint32
	ready  chan struct{}
	closed bool
}

var _ Signal = (*LocalSignal)(nil)

// NewLocalSignal returns a LocalSignal whose count is capped at limit.
func NewLocalSignal(limit int) *LocalSignal {
	return &LocalSignal{
		limit: uint32(limit),
		ready: make(chan struct{}),
	}
}

// Value returns the current count.
func (s *LocalSignal) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.count)
}

func (s *LocalSignal) Post() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if s.count >= s.limit {
		return false, nil
	}

	s.count++

	close(s.ready)
	s.ready = make(chan struct{})
	return true, nil
}

func (s *LocalSignal) Wait(timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.count > 0 {
			s.count--
			s.mu.Unlock()
			return nil
		}
		ready := s.ready
		s.mu.Unlock()

		select {
		case <-ready:
		case <-expired:
			return ErrTimeout
		}
	}
}

func (s *LocalSignal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ready)
	}
	return nil
}
