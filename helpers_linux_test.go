// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

//go:build linux

package shm

import (
	"os"
	"testing"

	"github.com/google/uuid"
)

// testName returns a shared memory name unique to this run and removes the
// object when the test ends.
func testName(t *testing.T, kind string) string {
	t.Helper()

	if _, err := os.Stat(shmDir); err != nil {
		t.Skipf("%s unavailable: %v", shmDir, err)
	}

	name := "/audioviz_test_" + kind + "_" + uuid.NewString()
	t.Cleanup(func() { unlinkObject(name) })
	return name
}

func createTestSegment(t *testing.T, slots int) *Segment {
	t.Helper()

	seg, err := CreateSegment(testName(t, "seg"), RegionSize(slots), false)
	if err != nil {
		t.Fatalf("CreateSegment failed: %v", err)
	}
	t.Cleanup(func() { seg.Close() })
	return seg
}
