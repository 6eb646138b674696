// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/gilbarel1/audioviz-shm"
)

// snapshot is one inspector dump as exported with -format msgpack.
type snapshot struct {
	Segment string         `msgpack:"segment"`
	Time    time.Time      `msgpack:"time"`
	Slots   []shm.SlotInfo `msgpack:"slots"`
}

func inspect(opts shm.Options, format string, continuous bool, interval time.Duration, stop <-chan os.Signal) error {
	var dump func(io.Writer, *snapshot) error
	switch format {
	case "text":
		dump = writeText
	case "msgpack":
		enc := msgpack.NewEncoder(os.Stdout)
		dump = func(_ io.Writer, s *snapshot) error { return enc.Encode(s) }
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	clearScreen := continuous && format == "text" && terminal.IsTerminal(int(os.Stdout.Fd()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		slots, err := shm.Inspect(opts)
		if err != nil {
			return err
		}

		if clearScreen {
			io.WriteString(os.Stdout, "\x1b[H\x1b[2J")
		}

		if err := dump(os.Stdout, &snapshot{
			Segment: opts.SegmentName,
			Time:    time.Now(),
			Slots:   slots,
		}); err != nil {
			return err
		}

		if !continuous {
			return nil
		}

		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
}

func writeText(w io.Writer, s *snapshot) error {
	fmt.Fprintf(w, "%s  %s  %d slots x %d bytes\n",
		s.Time.Format(time.TimeOnly), s.Segment, len(s.Slots), shm.SlotSize)

	for _, info := range s.Slots {
		if !info.Valid {
			fmt.Fprintf(w, "  [%d] empty (magic 0x%08X)\n", info.Index, info.RawMagic)
			continue
		}

		h := info.Header
		fmt.Fprintf(w, "  [%d] seq=%d ts=%dus rate=%d bins=%d first=%.3f\n",
			info.Index, h.Sequence, h.TimestampUS, h.SampleRate, h.BinCount, info.FirstBins)
	}

	_, err := fmt.Fprintln(w)
	return err
}
