// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"errors"
	"sync/atomic"
	"time"
	"unsafe"
)

// Semaphore object layout. The words are host-endian: both parties of a
// semaphore always run on the same host.
const (
	semMagic   = 0x5653454D // "VSEM"
	semVersion = 1
	semSize    = 64

	semOffMagic   = 0
	semOffVersion = 4
	semOffCount   = 8
	semOffWaiters = 12
	semOffLimit   = 16
)

// Semaphore is a named, process-shared counting semaphore with a fixed
// upper bound. It lives in its own shared memory object so that it can be
// created and attached independently of the ring region.
type Semaphore struct {
	name    string
	mem     []byte
	created bool

	count   *uint32
	waiters *uint32
	limit   uint32
}

var _ Signal = (*Semaphore)(nil)

func newSemaphore(name string, mem []byte, created bool) *Semaphore {
	return &Semaphore{
		name:    name,
		mem:     mem,
		created: created,
		count:   semWord(mem, semOffCount),
		waiters: semWord(mem, semOffWaiters),
		limit:   atomic.LoadUint32(semWord(mem, semOffLimit)),
	}
}

func semWord(mem []byte, off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[off]))
}

// initSemaphore formats a freshly truncated object. The magic is stored
// last so an attacher never sees a half-initialised semaphore as valid.
func initSemaphore(mem []byte, limit uint32) {
	atomic.StoreUint32(semWord(mem, semOffVersion), semVersion)
	atomic.StoreUint32(semWord(mem, semOffCount), 0)
	atomic.StoreUint32(semWord(mem, semOffWaiters), 0)
	atomic.StoreUint32(semWord(mem, semOffLimit), limit)
	atomic.StoreUint32(semWord(mem, semOffMagic), semMagic)
}

func validateSemaphore(mem []byte) error {
	if len(mem) < semSize {
		return ErrInvalidSemaphore
	}
	if atomic.LoadUint32(semWord(mem, semOffMagic)) != semMagic ||
		atomic.LoadUint32(semWord(mem, semOffVersion)) != semVersion ||
		atomic.LoadUint32(semWord(mem, semOffLimit)) == 0 {
		return ErrInvalidSemaphore
	}
	return nil
}

// Name returns the name the semaphore was opened with.
func (s *Semaphore) Name() string { return s.name }

// Created reports whether this handle created the underlying object.
func (s *Semaphore) Created() bool { return s.created }

// Limit returns the upper bound of the count.
func (s *Semaphore) Limit() int { return int(s.limit) }

// Value returns the current count.
func (s *Semaphore) Value() int {
	if s.mem == nil {
		return 0
	}
	return int(atomic.LoadUint32(s.count))
}

func (s *Semaphore) Post() (bool, error) {
	if s.mem == nil {
		return false, ErrClosed
	}

	for {
		c := atomic.LoadUint32(s.count)
		if c >= s.limit {
			return false, nil
		}
		if atomic.CompareAndSwapUint32(s.count, c, c+1) {
			break
		}
	}

	if atomic.LoadUint32(s.waiters) != 0 {
		if err := futexWake(s.count, 1); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Semaphore) tryAcquire() bool {
	for {
		c := atomic.LoadUint32(s.count)
		if c == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(s.count, c, c-1) {
			return true
		}
	}
}

func (s *Semaphore) Wait(timeout time.Duration) error {
	if s.mem == nil {
		return ErrClosed
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if s.tryAcquire() {
			return nil
		}

		remaining := Forever
		if timeout >= 0 {
			if remaining = time.Until(deadline); remaining <= 0 {
				return ErrTimeout
			}
		}

		// A Post landing between the failed acquire and the futex call
		// changes count away from 0, so the kernel refuses to sleep.
		atomic.AddUint32(s.waiters, 1)
		err := futexWait(s.count, 0, remaining)
		atomic.AddUint32(s.waiters, ^uint32(0))

		if err != nil && !errors.Is(err, ErrTimeout) {
			return err
		}
	}
}

// Close unmaps the local handle. The named object survives until
// UnlinkSemaphore.
func (s *Semaphore) Close() error {
	if s.mem == nil {
		return nil
	}

	mem := s.mem
	s.mem, s.count, s.waiters = nil, nil, nil
	return unmap(mem)
}
