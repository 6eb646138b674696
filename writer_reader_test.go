// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

type pipe struct {
	ring *Ring
	sig  *LocalSignal
	w    *Writer
	r    *Reader
}

func newPipe(t *testing.T, slots int, policy CatchUpPolicy) *pipe {
	t.Helper()

	ring := newTestRing(t, slots)
	sig := NewLocalSignal(slots)

	var clock uint64
	return &pipe{
		ring: ring,
		sig:  sig,
		w:    NewWriter(ring, sig, WithClock(func() uint64 { clock += 23220; return clock })),
		r:    NewReader(ring, sig, WithCatchUp(policy)),
	}
}

// write publishes frames whose first magnitude encodes their ordinal.
func (p *pipe) write(t *testing.T, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		mag := []float32{float32(p.w.Stats().NextSequence), 0.5}
		if err := p.w.WriteFrame(mag, nil, 44100); err != nil {
			t.Fatalf("WriteFrame() = %v", err)
		}
	}
}

func (p *pipe) read(t *testing.T) *Frame {
	t.Helper()

	f, err := p.r.ReadFrame(0)
	if err != nil {
		t.Fatalf("ReadFrame() = %v", err)
	}
	if f.Magnitude[0] != float32(f.Sequence) {
		t.Fatalf("frame %d carries the payload of frame %v", f.Sequence, f.Magnitude[0])
	}
	return f
}

func TestInOrderNoLoss(t *testing.T) {
	p := newPipe(t, DefaultSlots, CatchUpAdvance)

	var ts uint64
	for round := 0; round < 3; round++ {
		p.write(t, DefaultSlots)

		for i := 1; i <= DefaultSlots; i++ {
			f := p.read(t)
			if want := uint64(round*DefaultSlots + i); f.Sequence != want {
				t.Fatalf("read sequence %d, want %d", f.Sequence, want)
			}
			if f.TimestampUS <= ts {
				t.Fatalf("timestamp %d not after %d", f.TimestampUS, ts)
			}
			ts = f.TimestampUS
			if f.SampleRate != 44100 || f.BinCount != 2 || len(f.Phase) != 2 {
				t.Fatalf("unexpected frame %+v", f.Header)
			}
		}
	}

	ws, rs := p.w.Stats(), p.r.Stats()
	if ws.FramesProduced != 3*DefaultSlots || ws.FramesDropped != 0 || ws.NextSequence != 3*DefaultSlots+1 {
		t.Fatalf("writer stats = %+v", ws)
	}
	if rs.FramesRead != 3*DefaultSlots || rs.FramesDropped != 0 || rs.LastSequence != 3*DefaultSlots {
		t.Fatalf("reader stats = %+v", rs)
	}
}

func TestLappedReaderAdvance(t *testing.T) {
	p := newPipe(t, 8, CatchUpAdvance)
	p.write(t, 10)

	if ws := p.w.Stats(); ws.FramesProduced != 10 || ws.FramesDropped != 2 {
		t.Fatalf("writer stats = %+v, want 10 produced and 2 dropped", ws)
	}
	if v := p.sig.Value(); v != 8 {
		t.Fatalf("signal count = %d, want 8", v)
	}

	f := p.read(t)
	if f.Sequence != 9 {
		t.Fatalf("read sequence %d, want 9", f.Sequence)
	}
	if rs := p.r.Stats(); rs.FramesDropped != 8 {
		t.Fatalf("reader dropped %d, want 8", rs.FramesDropped)
	}

	if f := p.read(t); f.Sequence != 10 {
		t.Fatalf("read sequence %d, want 10", f.Sequence)
	}

	// The remaining units point at slots the writer has not refreshed.
	_, err := p.r.ReadFrame(0)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrStale)
	}

	rs := p.r.Stats()
	if rs.FramesRead != 2 || rs.FramesDropped != 8 || rs.StaleRejected != 1 || rs.LastSequence != 10 {
		t.Fatalf("reader stats = %+v", rs)
	}
}

func TestLappedReaderLatest(t *testing.T) {
	p := newPipe(t, 8, CatchUpLatest)
	p.write(t, 10)

	f := p.read(t)
	if f.Sequence != 10 {
		t.Fatalf("read sequence %d, want 10", f.Sequence)
	}
	if rs := p.r.Stats(); rs.FramesDropped != 9 || rs.LastSequence != 10 {
		t.Fatalf("reader stats = %+v, want 9 dropped", rs)
	}

	if _, err := p.r.ReadFrame(0); !errors.Is(err, ErrStale) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrStale)
	}
}

func TestGapAfterProgress(t *testing.T) {
	p := newPipe(t, 3, CatchUpAdvance)

	for i := 0; i < 5; i++ {
		p.write(t, 1)
		p.read(t)
	}
	if last := p.r.LastSequence(); last != 5 {
		t.Fatalf("LastSequence() = %d, want 5", last)
	}

	p.write(t, 4) // 6..9, sequence 9 lands in the slot of 6

	if f := p.read(t); f.Sequence != 9 {
		t.Fatalf("read sequence %d, want 9", f.Sequence)
	}
	if rs := p.r.Stats(); rs.FramesDropped != 3 {
		t.Fatalf("reader dropped %d, want 3", rs.FramesDropped)
	}
}

func TestStaleRejectedWithoutStateChange(t *testing.T) {
	p := newPipe(t, 1, CatchUpAdvance)

	for i := 0; i < 5; i++ {
		p.write(t, 1)
		p.read(t)
	}

	// A duplicate unit with no new frame behind it.
	if ok, err := p.sig.Post(); !ok || err != nil {
		t.Fatalf("Post() = %v, %v", ok, err)
	}

	before := p.r.Stats()
	if _, err := p.r.ReadFrame(0); !errors.Is(err, ErrStale) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrStale)
	}

	after := p.r.Stats()
	if after.LastSequence != 5 || after.FramesRead != before.FramesRead || after.FramesDropped != before.FramesDropped {
		t.Fatalf("stats changed from %+v to %+v", before, after)
	}
	if after.StaleRejected != 1 {
		t.Fatalf("StaleRejected = %d, want 1", after.StaleRejected)
	}

	p.write(t, 1)
	if f := p.read(t); f.Sequence != 6 {
		t.Fatalf("read sequence %d, want 6", f.Sequence)
	}
}

func TestReadTimeout(t *testing.T) {
	p := newPipe(t, 4, CatchUpAdvance)

	if _, err := p.r.ReadFrame(10 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrTimeout)
	}
	if rs := p.r.Stats(); rs.Timeouts != 1 || rs.LastSequence != 0 {
		t.Fatalf("reader stats = %+v", rs)
	}
}

func TestReadInvalidSlot(t *testing.T) {
	p := newPipe(t, 4, CatchUpAdvance)

	// A unit with nothing written behind it.
	p.sig.Post()
	if _, err := p.r.ReadFrame(0); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrInvalidMagic)
	}

	p.write(t, 1)
	binary.LittleEndian.PutUint32(p.ring.Slot(1)[offBinCount:], MaxBins+1)
	if _, err := p.r.ReadFrame(0); !errors.Is(err, ErrBinCountOutOfRange) {
		t.Fatalf("ReadFrame() = %v, want %v", err, ErrBinCountOutOfRange)
	}

	if rs := p.r.Stats(); rs.InvalidFrames != 2 || rs.LastSequence != 0 {
		t.Fatalf("reader stats = %+v", rs)
	}
}

func TestWriterTruncates(t *testing.T) {
	p := newPipe(t, 2, CatchUpAdvance)

	mag := make([]float32, MaxBins+100)
	phase := make([]float32, MaxBins+100)
	mag[0], mag[MaxBins-1], mag[MaxBins] = 1, 2, 3

	if err := p.w.WriteFrame(mag, phase, 48000); err != nil {
		t.Fatalf("WriteFrame() = %v", err)
	}
	if ws := p.w.Stats(); ws.FramesTruncated != 1 || ws.FramesProduced != 1 {
		t.Fatalf("writer stats = %+v", ws)
	}

	f, err := p.r.ReadFrame(0)
	if err != nil {
		t.Fatalf("ReadFrame() = %v", err)
	}
	if f.BinCount != MaxBins || len(f.Magnitude) != MaxBins || f.Magnitude[MaxBins-1] != 2 {
		t.Fatalf("got %d bins, last %v", f.BinCount, f.Magnitude[len(f.Magnitude)-1])
	}
}

func TestWriterRejectsPhaseMismatch(t *testing.T) {
	p := newPipe(t, 2, CatchUpAdvance)

	err := p.w.WriteFrame(make([]float32, 4), make([]float32, 3), 44100)
	if !errors.Is(err, ErrPhaseLength) {
		t.Fatalf("WriteFrame() = %v, want %v", err, ErrPhaseLength)
	}

	ws := p.w.Stats()
	if ws.NextSequence != 1 || ws.FramesProduced != 0 {
		t.Fatalf("failed write consumed a sequence: %+v", ws)
	}
	if v := p.sig.Value(); v != 0 {
		t.Fatalf("failed write posted the signal: count %d", v)
	}
}

func TestTornReadDetected(t *testing.T) {
	ring := newTestRing(t, 1)
	encoded := make([]byte, SlotSize)

	put := func(seq uint64) {
		if err := EncodeFrame(encoded, &Frame{Header: Header{Sequence: seq}}); err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
		publish(ring.Slot(seq), encoded)
	}

	put(1)
	snapshot := append([]byte(nil), ring.Slot(1)...)
	if !unchanged(ring.Slot(1), snapshot) {
		t.Fatal("unchanged() = false for an untouched slot")
	}

	put(2)
	if unchanged(ring.Slot(1), snapshot) {
		t.Fatal("unchanged() = true after the slot was overwritten")
	}

	// A writer caught between clearing and restoring the magic.
	put(1)
	snapshot = append(snapshot[:0], ring.Slot(1)...)
	*magicWord(ring.Slot(1)) = 0
	if unchanged(ring.Slot(1), snapshot) {
		t.Fatal("unchanged() = true while the slot is being written")
	}
	if loadMagic(snapshot) != Magic {
		t.Fatalf("loadMagic() = 0x%08X, want 0x%08X", loadMagic(snapshot), Magic)
	}
}

func TestClosedEndpoints(t *testing.T) {
	p := newPipe(t, 2, CatchUpAdvance)

	p.w.Close()
	p.r.Close()

	if err := p.w.WriteFrame([]float32{1}, nil, 44100); !errors.Is(err, ErrClosed) {
		t.Fatalf("WriteFrame() after Close = %v, want %v", err, ErrClosed)
	}
	if _, err := p.r.ReadFrame(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("ReadFrame() after Close = %v, want %v", err, ErrClosed)
	}
}

func TestParseCatchUpPolicy(t *testing.T) {
	for _, p := range []CatchUpPolicy{CatchUpAdvance, CatchUpLatest} {
		got, err := ParseCatchUpPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseCatchUpPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseCatchUpPolicy("oldest"); err == nil {
		t.Error("ParseCatchUpPolicy(\"oldest\") succeeded")
	}
}
