// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build linux

package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// shmDir is where glibc's shm_open places POSIX shared memory objects.
var shmDir = "/dev/shm"

func shmPath(name string) (string, error) {
	n, err := objectName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(shmDir, n), nil
}

func shmOpen(name string, flag int, perm uint32) (*os.File, error) {
	path, err := shmPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, flag|unix.O_CLOEXEC|unix.O_NOFOLLOW, perm)
	if err != nil {
		return nil, &os.PathError{Op: "shm_open", Path: path, Err: err}
	}

	return os.NewFile(uintptr(fd), path), nil
}

// mapFile maps exactly size bytes of file, which must already be that size.
func mapFile(file *os.File, size int) ([]byte, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() != int64(size) {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrInvalidSharedMemory, file.Name(), info.Size(), size)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", file.Name(), err)
	}
	return data, nil
}

func unmap(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// OpenSegment attaches to an existing segment of exactly size bytes.
func OpenSegment(name string, size int) (*Segment, error) {
	file, err := shmOpen(name, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	data, err := mapFile(file, size)
	if err != nil {
		return nil, err
	}

	return &Segment{name: name, mem: data}, nil
}

// OpenSemaphore attaches to an existing semaphore. It fails with
// ErrInvalidSemaphore if the creator has not finished initialising it.
func OpenSemaphore(name string) (*Semaphore, error) {
	file, err := shmOpen(name, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	data, err := mapFile(file, semSize)
	if err != nil {
		return nil, err
	}

	if err = validateSemaphore(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("%w: %s", err, name)
	}

	return newSemaphore(name, data, false), nil
}
