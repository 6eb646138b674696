// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"encoding/binary"
	"math"
)

// cursor walks a byte slice in protocol (little-endian) order. Bounds are
// checked by the slice indexing itself; callers size buffers up front.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) skip(n int) { c.off += n }

func (c *cursor) putUint32(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[c.off:], v)
	c.off += 4
}

func (c *cursor) putUint64(v uint64) {
	binary.LittleEndian.PutUint64(c.buf[c.off:], v)
	c.off += 8
}

func (c *cursor) putFloat32(v float32) {
	c.putUint32(math.Float32bits(v))
}

func (c *cursor) zero(n int) {
	clear(c.buf[c.off : c.off+n])
	c.off += n
}

func (c *cursor) uint32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v
}

func (c *cursor) uint64() uint64 {
	v := binary.LittleEndian.Uint64(c.buf[c.off:])
	c.off += 8
	return v
}

func (c *cursor) float32() float32 {
	return math.Float32frombits(c.uint32())
}
