// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build linux

package shm

import "golang.org/x/sys/unix"

// monotonicMicros reads CLOCK_MONOTONIC, which is shared by every process
// on the host, so producer and consumer timestamps are comparable.
func monotonicMicros() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Nano() / 1e3)
}
