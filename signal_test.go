// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package shm

import (
	"errors"
	"testing"
	"time"
)

// testSignal exercises any Signal created with a limit of 3 and a zero
// count.
func testSignal(t *testing.T, s Signal) {
	t.Helper()

	for i := 0; i < 3; i++ {
		ok, err := s.Post()
		if err != nil || !ok {
			t.Fatalf("Post() #%d = %v, %v, want true, nil", i+1, ok, err)
		}
	}

	if ok, err := s.Post(); err != nil || ok {
		t.Fatalf("Post() at limit = %v, %v, want false, nil", ok, err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Wait(0); err != nil {
			t.Fatalf("Wait(0) #%d = %v", i+1, err)
		}
	}

	start := time.Now()
	if err := s.Wait(50 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Wait() on empty signal = %v, want %v", err, ErrTimeout)
	}
	if d := time.Since(start); d < 40*time.Millisecond || d > 2*time.Second {
		t.Fatalf("Wait(50ms) returned after %v", d)
	}

	done := make(chan error, 1)
	go func() { done <- s.Wait(Forever) }()

	time.Sleep(20 * time.Millisecond)
	if ok, err := s.Post(); err != nil || !ok {
		t.Fatalf("Post() = %v, %v", ok, err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait(Forever) = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait(Forever) was not woken by Post")
	}
}

func TestLocalSignal(t *testing.T) {
	s := NewLocalSignal(3)
	testSignal(t, s)

	if v := s.Value(); v != 0 {
		t.Fatalf("Value() = %d, want 0", v)
	}
}

func TestLocalSignalClose(t *testing.T) {
	s := NewLocalSignal(1)

	done := make(chan error, 1)
	go func() { done <- s.Wait(Forever) }()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("Wait() after Close = %v, want %v", err, ErrClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() was not woken by Close")
	}

	if _, err := s.Post(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Post() after Close = %v, want %v", err, ErrClosed)
	}
}

func TestLocalSignalNegativeTimeoutBlocks(t *testing.T) {
	s := NewLocalSignal(1)

	done := make(chan error, 1)
	go func() { done <- s.Wait(-5 * time.Second) }()

	select {
	case err := <-done:
		t.Fatalf("Wait(-5s) returned %v before any Post", err)
	case <-time.After(30 * time.Millisecond):
	}

	s.Post()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait(-5s) = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait(-5s) was not woken by Post")
	}
}
