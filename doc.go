// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

// Package shm carries fixed-size spectrum frames from one producer process
// to one consumer process through a named shared memory ring.
//
// The ring holds N slots of SlotSize bytes; frame sequence s lives in slot
// s mod N. A named counting semaphore, capped at N, announces each frame.
// The producer never blocks: when the cap is reached the frame is still
// written and the drop is counted. The consumer waits with a bound, copies
// the slot out, validates it and infers loss from sequence gaps.
//
// One side creates the segment and semaphore (ModeCreate) and owns their
// names; the other attaches (ModeAttach):
//
//	p, err := shm.NewProducer(shm.Options{
//		SegmentName:   shm.DefaultSegmentName,
//		SemaphoreName: shm.DefaultSemaphoreName,
//		Slots:         shm.DefaultSlots,
//		Mode:          shm.ModeCreate,
//		UnlinkOnClose: true,
//	})
//
//	c, err := shm.NewConsumer(shm.DefaultOptions())
//	f, err := c.ReadFrame(100 * time.Millisecond)
package shm
