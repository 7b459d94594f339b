package picker

import (
	"math"
	"sort"

	"github.com/cbegin/chordsheet-go/internal/theory"
)

const (
	maxKeyboardSpan = 24
	registerWindow  = 14.0
)

type KeyboardConfig struct {
	ChordOctave int
	BassOctave  int
	AddBass     bool
}

func DefaultKeyboardConfig() KeyboardConfig {
	return KeyboardConfig{ChordOctave: 4, BassOctave: 2, AddBass: true}
}

// KeyboardState holds the previous chord tones (bass excluded) and the
// octave the next chord is built around.
type KeyboardState struct {
	Prev            []int
	PreferredOctave int
}

func (s KeyboardState) clone() State {
	return KeyboardState{Prev: append([]int(nil), s.Prev...), PreferredOctave: s.PreferredOctave}
}

// Keyboard voices chords for a keyboard with smooth voice leading.
type Keyboard struct {
	cfg   KeyboardConfig
	state KeyboardState
}

func NewKeyboard(cfg KeyboardConfig) *Keyboard {
	cfg.ChordOctave = clamp(cfg.ChordOctave, 1, 8)
	cfg.BassOctave = clamp(cfg.BassOctave, 0, cfg.ChordOctave)
	k := &Keyboard{cfg: cfg}
	k.Reset()
	return k
}

func (k *Keyboard) Reset() {
	k.state = KeyboardState{PreferredOctave: k.cfg.ChordOctave}
}

func (k *Keyboard) Snapshot() State {
	return k.state.clone()
}

func (k *Keyboard) Restore(s State) {
	if ks, ok := s.(KeyboardState); ok {
		k.state = ks.clone().(KeyboardState)
	}
}

// Pick returns the bass (when enabled) followed by the chord tones in
// ascending order.
func (k *Keyboard) Pick(ch theory.Chord) []int {
	pcs := ch.PitchClasses()
	if len(pcs) == 0 {
		return nil
	}
	chord := k.voice(pcs)

	out := make([]int, 0, len(chord)+1)
	if k.cfg.AddBass {
		bass := midiPitch(k.cfg.BassOctave, ch.BassPitchClass())
		for bass >= chord[0] && bass-12 >= 0 {
			bass -= 12
		}
		if bass < chord[0] {
			out = append(out, bass)
		}
	}
	out = append(out, chord...)

	k.state.Prev = append(k.state.Prev[:0:0], chord...)
	meanOctave := mean(chord)/12 - 1
	if math.Abs(meanOctave-float64(k.cfg.ChordOctave)) > 1 {
		k.state.PreferredOctave = roundInt(meanOctave)
	} else {
		k.state.PreferredOctave = k.cfg.ChordOctave
	}
	return out
}

func (k *Keyboard) center() float64 {
	return float64(midiPitch(k.cfg.ChordOctave, 6))
}

func (k *Keyboard) voice(pcs []int) []int {
	center := k.center()
	comfortLow := center - 12

	var best []int
	bestScore := math.Inf(1)
	for _, order := range voicingOrders(pcs) {
		for off := -1; off <= 1; off++ {
			cand := stack(order, k.state.PreferredOctave+off)
			lo, hi := minMax(cand)
			if lo < 0 || hi > 127 || hi-lo > maxKeyboardSpan {
				continue
			}
			m := mean(cand)
			if math.Abs(m-center) > registerWindow {
				continue
			}
			score := transitionCost(k.state.Prev, cand) + 0.5*math.Abs(m-center)
			if float64(lo) < comfortLow {
				score += 2 * (comfortLow - float64(lo))
			}
			if score < bestScore {
				best, bestScore = cand, score
			}
		}
	}
	if best != nil {
		return best
	}

	sorted := append([]int(nil), pcs...)
	sort.Ints(sorted)
	out := make([]int, len(sorted))
	for i, pc := range sorted {
		out[i] = midiPitch(k.cfg.ChordOctave, pc)
	}
	return out
}

// voicingOrders lists the close-position rotations of pcs followed by the
// chord as spelled, which keeps upper extensions above the seventh.
func voicingOrders(pcs []int) [][]int {
	closed := append([]int(nil), pcs...)
	sort.Ints(closed)
	orders := make([][]int, 0, len(closed)+1)
	for r := range closed {
		rot := make([]int, 0, len(closed))
		rot = append(rot, closed[r:]...)
		rot = append(rot, closed[:r]...)
		orders = append(orders, rot)
	}
	return append(orders, pcs)
}

// stack places order[0] in octave and each following pitch class on the
// nearest pitch above its predecessor.
func stack(order []int, octave int) []int {
	out := make([]int, len(order))
	out[0] = midiPitch(octave, order[0])
	for i := 1; i < len(order); i++ {
		p := out[i-1] + 1
		for p%12 != order[i] {
			p++
		}
		out[i] = p
	}
	return out
}

func transitionCost(prev, cand []int) float64 {
	if len(prev) == 0 {
		return 0
	}
	var cost float64
	for _, n := range cand {
		d := math.MaxInt
		for _, p := range prev {
			if v := abs(n - p); v < d {
				d = v
			}
		}
		switch {
		case d == 0:
			cost -= 2
		case d <= 2:
			cost += float64(d)
		case d <= 5:
			cost += float64(d) * 1.5
		default:
			cost += float64(d) * 3
		}
	}
	return cost
}
