// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build linux

package shm

import (
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// createObject exclusively creates a named object of the given size and
// maps it. With replace, an existing object of the same name is unlinked
// and creation retried once.
func createObject(name string, size int, replace bool) ([]byte, error) {
	flag := unix.O_CREAT | unix.O_EXCL | unix.O_TRUNC | unix.O_RDWR

	file, err := shmOpen(name, flag, 0600)
	if errors.Is(err, unix.EEXIST) && replace {
		if err = unlinkObject(name); err != nil {
			return nil, err
		}
		file, err = shmOpen(name, flag, 0600)
	}
	if err != nil {
		return nil, err
	}

	defer file.Close()

	cleanup := func() {
		os.Remove(file.Name())
	}

	if err = file.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("ftruncate %s: %w", file.Name(), err)
	}

	data, err := mapFile(file, size)
	if err != nil {
		cleanup()
		return nil, err
	}

	return data, nil
}

// CreateSegment creates a new zero-filled segment of size bytes.
func CreateSegment(name string, size int, replace bool) (*Segment, error) {
	if size <= 0 || size&0x3f != 0 {
		return nil, ErrNotMultipleOf64
	}

	/*
	 * ftruncate already zeroed the region, so every slot starts with an
	 * invalid magic and reads as "never written".
	 */
	data, err := createObject(name, size, replace)
	if err != nil {
		return nil, err
	}

	return &Segment{name: name, mem: data, created: true}, nil
}

// CreateSemaphore creates a new semaphore with a zero count whose count
// never exceeds limit.
func CreateSemaphore(name string, limit int, replace bool) (*Semaphore, error) {
	if limit < 1 || uint64(limit) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidSemaphore, limit)
	}

	data, err := createObject(name, semSize, replace)
	if err != nil {
		return nil, err
	}

	initSemaphore(data, uint32(limit))
	return newSemaphore(name, data, true), nil
}
