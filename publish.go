// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// The magic word at offset 0 of every slot doubles as a publication flag.
// The writer clears it before touching the body and stores it again last,
// so a reader that finds the word unchanged (and the sequence unchanged)
// after copying a slot out knows the copy was not overwritten mid-way.
// Slots start on SlotSize boundaries of an 8-byte aligned region, so the
// word is always 4-byte aligned.

func magicWord(slot []byte) *uint32 {
	return (*uint32)(unsafe.Pointer(&slot[offMagic]))
}

// toWire converts v to the host representation of its little-endian bytes.
func toWire(v uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return binary.NativeEndian.Uint32(b[:])
}

func fromWire(w uint32) uint32 {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], w)
	return binary.LittleEndian.Uint32(b[:])
}

// publish copies an encoded frame into slot.
func publish(slot, encoded []byte) {
	word := magicWord(slot)
	atomic.StoreUint32(word, 0)
	copy(slot[offMagic+4:], encoded[offMagic+4:])
	atomic.StoreUint32(word, toWire(binary.LittleEndian.Uint32(encoded[offMagic:])))
}

// loadMagic reads the slot's magic word.
func loadMagic(slot []byte) uint32 {
	return fromWire(atomic.LoadUint32(magicWord(slot)))
}

// loadSequence reads the slot's sequence without validating it.
func loadSequence(slot []byte) uint64 {
	return binary.LittleEndian.Uint64(slot[offSequence:])
}

// unchanged reports whether slot still holds the frame that was copied
// into snapshot.
func unchanged(slot, snapshot []byte) bool {
	return loadMagic(slot) == binary.LittleEndian.Uint32(snapshot[offMagic:]) &&
		loadSequence(slot) == binary.LittleEndian.Uint64(snapshot[offSequence:])
}
