// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import "strings"

// Segment is a mapped, named shared memory object.
type Segment struct {
	name    string
	mem     []byte
	created bool
}

// Name returns the name the segment was opened with.
func (s *Segment) Name() string { return s.name }

// Bytes returns the mapped region. It is invalid after Close.
func (s *Segment) Bytes() []byte { return s.mem }

// Created reports whether this handle created the underlying object.
func (s *Segment) Created() bool { return s.created }

// Close unmaps the region. The named object survives until UnlinkSegment.
func (s *Segment) Close() error {
	if s.mem == nil {
		return nil
	}

	mem := s.mem
	s.mem = nil
	return unmap(mem)
}

// objectName validates a POSIX shared memory name ("/name" or "name") and
// returns it without the leading slash.
func objectName(name string) (string, error) {
	n := strings.TrimPrefix(name, "/")
	if n == "" || n == "." || n == ".." || len(n) > 255 || strings.ContainsRune(n, '/') || strings.ContainsRune(n, 0) {
		return "", ErrInvalidName
	}
	return n, nil
}
