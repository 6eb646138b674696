// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"fmt"
	"unsafe"
)

// RegionSize returns the byte size of a ring with the given slot count.
func RegionSize(slots int) int {
	return slots * SlotSize
}

// Ring maps a flat shared region onto fixed-size slots. A slot carries no
// occupancy flag of its own; validity is inferred from the embedded frame's
// magic and sequence.
type Ring struct {
	mem   []byte
	slots uint64
}

// NewRing wraps mem, which must be exactly RegionSize(slots) bytes and
// 8-byte aligned.
func NewRing(mem []byte, slots int) (*Ring, error) {
	if slots < 1 {
		return nil, fmt.Errorf("%w: slot count %d", ErrInvalidSharedMemory, slots)
	}
	if len(mem) != RegionSize(slots) {
		return nil, fmt.Errorf("%w: region is %d bytes, want %d for %d slots",
			ErrInvalidSharedMemory, len(mem), RegionSize(slots), slots)
	}
	if uintptr(unsafe.Pointer(&mem[0]))&0x7 != 0 {
		return nil, ErrMisaligned
	}

	return &Ring{mem: mem, slots: uint64(slots)}, nil
}

// Slots returns the number of slots.
func (r *Ring) Slots() int { return int(r.slots) }

// Size returns the region size in bytes.
func (r *Ring) Size() int { return len(r.mem) }

// Index returns the slot that holds sequence seq.
func (r *Ring) Index(seq uint64) int {
	return int(seq % r.slots)
}

// Offset returns the byte offset of the slot that holds sequence seq.
func (r *Ring) Offset(seq uint64) int {
	return r.Index(seq) * SlotSize
}

// Slot returns the bytes of the slot that holds sequence seq. The slice is
// capacity-limited so appends can never spill into the next slot.
func (r *Ring) Slot(seq uint64) []byte {
	off := r.Offset(seq)
	return r.mem[off : off+SlotSize : off+SlotSize]
}

// slotAt returns slot i by index rather than by sequence.
func (r *Ring) slotAt(i int) []byte {
	off := i * SlotSize
	return r.mem[off : off+SlotSize : off+SlotSize]
}

// SlotInfo describes the current contents of one slot.
type SlotInfo struct {
	Index     int       `msgpack:"index"`
	Valid     bool      `msgpack:"valid"`
	RawMagic  uint32    `msgpack:"raw_magic"`
	Header    Header    `msgpack:"header"`
	FirstBins []float32 `msgpack:"first_bins"`
}

// inspectBins is the number of leading magnitude bins reported by Inspect.
const inspectBins = 5

// Inspect reports every slot. It reads shared memory without any
// synchronisation and without consuming signal units, so results may be
// torn; it is a diagnostic aid only.
func (r *Ring) Inspect() []SlotInfo {
	infos := make([]SlotInfo, r.slots)

	var buf [SlotSize]byte
	for i := range infos {
		copy(buf[:], r.slotAt(i))

		info := &infos[i]
		info.Index = i

		c := cursor{buf: buf[:]}
		info.RawMagic = c.uint32()

		h, err := DecodeHeader(buf[:])
		if err != nil {
			continue
		}

		info.Valid, info.Header = true, h

		n := min(int(h.BinCount), inspectBins)
		info.FirstBins = make([]float32, n)

		c.off = offMagnitude
		for j := range info.FirstBins {
			info.FirstBins[j] = c.float32()
		}
	}

	return infos
}
