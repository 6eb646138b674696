// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build linux

package shm

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func unlinkObject(name string) error {
	path, err := shmPath(name)
	if err != nil {
		return err
	}

	if err = unix.Unlink(path); err != nil && !errors.Is(err, unix.ENOENT) {
		return &os.PathError{Op: "shm_unlink", Path: path, Err: err}
	}
	return nil
}

// UnlinkSegment removes the segment's name. Existing mappings stay valid;
// the memory is reclaimed once every party has closed it. Unlinking a name
// that does not exist is not an error.
func UnlinkSegment(name string) error {
	return unlinkObject(name)
}

// UnlinkSemaphore removes the semaphore's name with the same semantics as
// UnlinkSegment.
func UnlinkSemaphore(name string) error {
	return unlinkObject(name)
}
