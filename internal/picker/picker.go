// Package picker turns resolved chords into concrete MIDI pitches.
package picker

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/cbegin/chordsheet-go/internal/theory"
)

// Picker voices chords. Implementations are stateful: each Pick updates the
// state exactly once, after the pitches are chosen. A Picker is owned by a
// single goroutine.
type Picker interface {
	Pick(ch theory.Chord) []int
	Reset()
	Snapshot() State
	Restore(State)
}

// State is an opaque snapshot of a picker's voice-leading context.
type State interface {
	clone() State
}

type Kind string

const (
	KindKeyboard Kind = "keyboard"
	KindGuitar   Kind = "guitar"
)

func abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func minMax[T constraints.Ordered](xs []T) (T, T) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func mean[T constraints.Integer | constraints.Float](xs []T) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func midiPitch(octave, pc int) int {
	return (octave+1)*12 + pc
}
