// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/gilbarel1/audioviz-shm"
	"github.com/gilbarel1/audioviz-shm/internal/mathx"
)

var levels = []rune(" ▁▂▃▄▅▆▇█")

const (
	defaultWidth = 80
	maxWidth     = 1024
	labelWidth   = 24
)

// spectrumLine draws each frame as a single line of block characters, one
// column per group of bins. On a terminal the line is redrawn in place.
type spectrumLine struct {
	w       io.Writer
	inPlace bool
	width   int
	buf     strings.Builder
}

func newSpectrumLine(f *os.File) *spectrumLine {
	l := &spectrumLine{w: f, width: defaultWidth}

	fd := int(f.Fd())
	if terminal.IsTerminal(fd) {
		l.inPlace = true
		if w, _, err := terminal.GetSize(fd); err == nil && mathx.Between(w-labelWidth, 1, maxWidth) {
			l.width = w - labelWidth
		}
	}
	return l
}

func (l *spectrumLine) Draw(f *shm.Frame) {
	l.buf.Reset()
	if l.inPlace {
		l.buf.WriteByte('\r')
	}

	fmt.Fprintf(&l.buf, "%10d ", f.Sequence)
	columns(&l.buf, f.Magnitude, l.width)

	if !l.inPlace {
		l.buf.WriteByte('\n')
	}
	io.WriteString(l.w, l.buf.String())
}

// Finish ends an in-place line.
func (l *spectrumLine) Finish() {
	if l.inPlace {
		io.WriteString(l.w, "\n")
	}
}

// columns writes mag as at most width columns, each the peak of its bins.
func columns(b *strings.Builder, mag []float32, width int) {
	n := min(len(mag), width)
	for c := 0; c < n; c++ {
		lo, hi := c*len(mag)/n, (c+1)*len(mag)/n

		var peak float32
		for _, v := range mag[lo:hi] {
			peak = max(peak, v)
		}
		b.WriteRune(levels[mathx.Scale(peak, len(levels)-1)])
	}
}
