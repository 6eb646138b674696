// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"errors"
	"testing"
)

func newTestRing(t *testing.T, slots int) *Ring {
	t.Helper()

	r, err := NewRing(make([]byte, RegionSize(slots)), slots)
	if err != nil {
		t.Fatalf("NewRing(%d) failed: %v", slots, err)
	}
	return r
}

func TestRingAddressing(t *testing.T) {
	r := newTestRing(t, DefaultSlots)

	if r.Size() != DefaultSlots*SlotSize {
		t.Fatalf("Size() = %d, want %d", r.Size(), DefaultSlots*SlotSize)
	}

	tests := []struct {
		seq    uint64
		index  int
		offset int
	}{
		{0, 0, 0},
		{1, 1, SlotSize},
		{7, 7, 7 * SlotSize},
		{8, 0, 0},
		{9, 1, SlotSize},
		{1<<64 - 1, 7, 7 * SlotSize},
	}

	for _, tt := range tests {
		if got := r.Index(tt.seq); got != tt.index {
			t.Errorf("Index(%d) = %d, want %d", tt.seq, got, tt.index)
		}
		if got := r.Offset(tt.seq); got != tt.offset {
			t.Errorf("Offset(%d) = %d, want %d", tt.seq, got, tt.offset)
		}
		if s := r.Slot(tt.seq); len(s) != SlotSize || cap(s) != SlotSize {
			t.Errorf("Slot(%d) has len %d cap %d, want %d", tt.seq, len(s), cap(s), SlotSize)
		}
	}
}

func TestRingSlotsDisjoint(t *testing.T) {
	r := newTestRing(t, 3)

	for seq := uint64(0); seq < 3; seq++ {
		s := r.Slot(seq)
		for i := range s {
			s[i] = byte(seq + 1)
		}
	}

	for seq := uint64(0); seq < 3; seq++ {
		for i, b := range r.Slot(seq) {
			if b != byte(seq+1) {
				t.Fatalf("slot %d byte %d = %d, want %d", seq, i, b, seq+1)
			}
		}
	}
}

func TestNewRingErrors(t *testing.T) {
	aligned := make([]byte, RegionSize(2)+8)

	tests := []struct {
		name  string
		mem   []byte
		slots int
		want  error
	}{
		{"no slots", aligned[:0], 0, ErrInvalidSharedMemory},
		{"short", aligned[:RegionSize(2)-1], 2, ErrInvalidSharedMemory},
		{"long", aligned[:RegionSize(2)+8], 2, ErrInvalidSharedMemory},
		{"misaligned", aligned[1 : RegionSize(2)+1], 2, ErrMisaligned},
	}

	for _, tt := range tests {
		if _, err := NewRing(tt.mem, tt.slots); !errors.Is(err, tt.want) {
			t.Errorf("%s: NewRing() = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestRingInspect(t *testing.T) {
	r := newTestRing(t, 4)

	f := &Frame{
		Header:    Header{Sequence: 6, SampleRate: 44100},
		Magnitude: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
	}
	if err := EncodeFrame(r.Slot(6), f); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	infos := r.Inspect()
	if len(infos) != 4 {
		t.Fatalf("Inspect() returned %d slots, want 4", len(infos))
	}

	for i, info := range infos {
		if info.Index != i {
			t.Errorf("slot %d reports index %d", i, info.Index)
		}
		if i != 2 && (info.Valid || info.RawMagic != 0) {
			t.Errorf("slot %d = %+v, want empty", i, info)
		}
	}

	got := infos[2]
	if !got.Valid || got.RawMagic != Magic || got.Header.Sequence != 6 || got.Header.BinCount != 7 {
		t.Fatalf("slot 2 = %+v", got)
	}
	if len(got.FirstBins) != inspectBins || got.FirstBins[4] != 0.5 {
		t.Fatalf("FirstBins = %v, want first %d magnitudes", got.FirstBins, inspectBins)
	}
}
