// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import "errors"

var (
	ErrInvalidSharedMemory = errors.New("invalid shared memory")
	ErrInvalidName         = errors.New("invalid shared memory name")
	ErrMisaligned          = errors.New("shared memory is not 8-byte aligned")
	ErrSlotSize            = errors.New("buffer is not exactly one slot")
	ErrInvalidMagic        = errors.New("invalid frame magic")
	ErrBinCountOutOfRange  = errors.New("bin count out of range")
	ErrPhaseLength         = errors.New("phase length does not match magnitude length")
	ErrTimeout             = errors.New("wait timed out")
	ErrStale               = errors.New("stale frame")
	ErrTornRead            = errors.New("slot overwritten during read")
	ErrClosed              = errors.New("endpoint closed")
	ErrInvalidSemaphore    = errors.New("invalid semaphore")
	ErrNotMultipleOf64     = errors.New("size is not a multiple of 64")
	ErrUnsupported         = errors.New("shared memory transport not supported on this platform")
)
