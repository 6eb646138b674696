// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

// Package synth produces synthetic magnitude and phase spectra for driving
// a producer without an audio pipeline.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gilbarel1/audioviz-shm/internal/mathx"
)

// Kind selects the synthetic signal.
type Kind string

const (
	Sweep  Kind = "sweep"  // logarithmic tone sweep, 100 Hz to 8 kHz every 5 s
	Noise  Kind = "noise"  // white noise
	Chord  Kind = "chord"  // C major triad
	Rhythm Kind = "rhythm" // 120 bpm kick drum
)

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Sweep, Noise, Chord, Rhythm:
		return k, nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

const (
	sweepLow    = 100.0
	sweepHigh   = 8000.0
	sweepPeriod = 5.0
	noiseLevel  = 0.3
	beatPeriod  = 60.0 / 120
	kickLength  = 0.1
)

var chordFreqs = [...]float64{261.63, 329.63, 392.00}

// Generator yields one spectrum per call to Next, advancing its clock by
// one frame period each time. It reuses its output buffers.
type Generator struct {
	kind       Kind
	sampleRate uint32
	period     float64
	frame      uint64
	rng        *rand.Rand

	mag, phase []float32
}

// New returns a Generator of bins-wide spectra at fps frames per second.
func New(kind Kind, bins int, sampleRate uint32, fps int, seed uint64) *Generator {
	return &Generator{
		kind:       kind,
		sampleRate: sampleRate,
		period:     1 / float64(fps),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		mag:        make([]float32, bins),
		phase:      make([]float32, bins),
	}
}

// Elapsed returns the signal time of the next frame in seconds.
func (g *Generator) Elapsed() float64 {
	return float64(g.frame) * g.period
}

// Next returns the next magnitude and phase spectra. Magnitudes are in
// [0, 1] and phases in [-π, π). The slices are overwritten by the following
// call.
func (g *Generator) Next() (magnitude, phase []float32) {
	t := g.Elapsed()
	g.frame++

	clear(g.mag)

	switch g.kind {
	case Sweep:
		pos := math.Mod(t, sweepPeriod) / sweepPeriod
		g.tone(math.Exp(mathx.Lerp(math.Log(sweepLow), math.Log(sweepHigh), pos)), 1)
	case Noise:
		for i := range g.mag {
			g.mag[i] = float32(g.rng.Float64() * noiseLevel)
		}
	case Chord:
		for _, f := range chordFreqs {
			g.tone(f, 1/float64(len(chordFreqs))*2)
		}
	case Rhythm:
		if since := math.Mod(t, beatPeriod); since < kickLength {
			g.tone(60*math.Exp(-20*since), math.Exp(-10*since))
		}
	}

	binWidth := g.binWidth()
	for i := range g.phase {
		g.mag[i] = mathx.Clamp(g.mag[i], 0, 1)

		p := math.Mod(2*math.Pi*float64(i)*binWidth*t, 2*math.Pi) - math.Pi
		g.phase[i] = float32(p)
	}

	return g.mag, g.phase
}

// binWidth returns the frequency span of one bin, with the bins covering
// 0 Hz up to Nyquist.
func (g *Generator) binWidth() float64 {
	return float64(g.sampleRate) / 2 / float64(len(g.mag))
}

// tone adds a peak of height amp centred on freq, spread over a few bins.
func (g *Generator) tone(freq, amp float64) {
	centre := freq / g.binWidth()
	const spread = 1.5

	lo := max(int(centre-4*spread), 0)
	hi := min(int(centre+4*spread)+1, len(g.mag))
	for i := lo; i < hi; i++ {
		d := (float64(i) - centre) / spread
		g.mag[i] += float32(amp * math.Exp(-d*d))
	}
}
