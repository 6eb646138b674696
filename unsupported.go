// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build !linux

package shm

import "time"

var processStart = time.Now()

func monotonicMicros() uint64 {
	return uint64(time.Since(processStart).Microseconds())
}

func unmap(mem []byte) error { return nil }

func futexWait(addr *uint32, val uint32, timeout time.Duration) error {
	return ErrUnsupported
}

func futexWake(addr *uint32, n int) error {
	return ErrUnsupported
}

func CreateSegment(name string, size int, replace bool) (*Segment, error) {
	return nil, ErrUnsupported
}

func OpenSegment(name string, size int) (*Segment, error) {
	return nil, ErrUnsupported
}

func CreateSemaphore(name string, limit int, replace bool) (*Semaphore, error) {
	return nil, ErrUnsupported
}

func OpenSemaphore(name string) (*Semaphore, error) {
	return nil, ErrUnsupported
}

func UnlinkSegment(name string) error { return ErrUnsupported }

func UnlinkSemaphore(name string) error { return ErrUnsupported }
