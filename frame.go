// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import "fmt"

// Protocol constants. Every frame occupies exactly SlotSize bytes:
//
//	[header 64B][magnitude float32 x MaxBins][phase float32 x MaxBins][padding]
//
// All fields are little-endian regardless of host byte order.
const (
	Magic        = 0x56495A46 // "VIZF"
	HeaderSize   = 64
	MaxBins      = 512
	SlotSize     = 8192
	DefaultSlots = 8
)

const (
	offMagic      = 0
	offSequence   = 4
	offTimestamp  = 12
	offSampleRate = 20
	offBinCount   = 24
	offReserved   = 28
	offMagnitude  = HeaderSize
	offPhase      = offMagnitude + 4*MaxBins
	payloadEnd    = offPhase + 4*MaxBins

	reservedSize = HeaderSize - offReserved
	paddingSize  = SlotSize - payloadEnd
)

// Fails to compile if the payload outgrows the slot or the header fields
// outgrow the fixed header.
const (
	_ = uint(paddingSize)
	_ = uint(reservedSize)
)

func init() {
	var buf [HeaderSize]byte
	c := cursor{buf: buf[:]}
	encodeHeader(&c, Header{})
	if c.off != HeaderSize {
		panic(fmt.Sprintf("shm: encoded header is %d bytes, want %d", c.off, HeaderSize))
	}

	slot := make([]byte, SlotSize)
	full := &Frame{Magnitude: make([]float32, MaxBins), Phase: make([]float32, MaxBins)}
	if err := EncodeFrame(slot, full); err != nil {
		panic("shm: full frame does not fit a slot: " + err.Error())
	}
}

// Header is the fixed-width prefix of every slot.
type Header struct {
	Magic       uint32
	Sequence    uint64
	TimestampUS uint64
	SampleRate  uint32
	BinCount    uint32
}

// Frame is one decoded unit of transport. After decoding, Magnitude and
// Phase both have exactly BinCount entries.
type Frame struct {
	Header

	Magnitude []float32
	Phase     []float32
}

func encodeHeader(c *cursor, h Header) {
	c.putUint32(h.Magic)
	c.putUint64(h.Sequence)
	c.putUint64(h.TimestampUS)
	c.putUint32(h.SampleRate)
	c.putUint32(h.BinCount)
	c.zero(reservedSize)
}

func decodeHeader(c *cursor) Header {
	h := Header{
		Magic:       c.uint32(),
		Sequence:    c.uint64(),
		TimestampUS: c.uint64(),
		SampleRate:  c.uint32(),
		BinCount:    c.uint32(),
	}
	c.skip(reservedSize)
	return h
}

// EncodeFrame writes f into dst, which must be exactly SlotSize bytes. The
// magic and bin count fields are derived, not taken from f.Header. A nil
// Phase encodes as zeros.
func EncodeFrame(dst []byte, f *Frame) error {
	if len(dst) != SlotSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSlotSize, len(dst), SlotSize)
	}

	n := len(f.Magnitude)
	if n > MaxBins {
		return fmt.Errorf("%w: %d exceeds %d", ErrBinCountOutOfRange, n, MaxBins)
	}
	if len(f.Phase) != 0 && len(f.Phase) != n {
		return fmt.Errorf("%w: %d phase values for %d bins", ErrPhaseLength, len(f.Phase), n)
	}

	c := cursor{buf: dst}

	h := f.Header
	h.Magic, h.BinCount = Magic, uint32(n)
	encodeHeader(&c, h)

	for _, v := range f.Magnitude {
		c.putFloat32(v)
	}
	c.zero(4 * (MaxBins - n))

	if len(f.Phase) == 0 {
		c.zero(4 * MaxBins)
	} else {
		for _, v := range f.Phase {
			c.putFloat32(v)
		}
		c.zero(4 * (MaxBins - n))
	}

	c.zero(paddingSize)
	return nil
}

// DecodeHeader validates and returns the header of an encoded slot.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, want at least %d", ErrSlotSize, len(src), HeaderSize)
	}

	c := cursor{buf: src}
	h := decodeHeader(&c)

	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, h.Magic)
	}
	if h.BinCount > MaxBins {
		return Header{}, fmt.Errorf("%w: %d exceeds %d", ErrBinCountOutOfRange, h.BinCount, MaxBins)
	}

	return h, nil
}

// DecodeFrame decodes one slot. On error the returned frame is nil; the
// slot's content should be discarded.
func DecodeFrame(src []byte) (*Frame, error) {
	if len(src) != SlotSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSlotSize, len(src), SlotSize)
	}

	h, err := DecodeHeader(src)
	if err != nil {
		return nil, err
	}

	n := int(h.BinCount)
	f := &Frame{
		Header:    h,
		Magnitude: make([]float32, n),
		Phase:     make([]float32, n),
	}

	c := cursor{buf: src, off: offMagnitude}
	for i := range f.Magnitude {
		f.Magnitude[i] = c.float32()
	}

	c.off = offPhase
	for i := range f.Phase {
		f.Phase[i] = c.float32()
	}

	return f, nil
}
