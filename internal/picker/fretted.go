package picker

import (
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/cbegin/chordsheet-go/internal/theory"
)

const (
	Muted = -1

	maxFret       = 12
	maxShapeShift = 7
	maxStretch    = 4
	maxFingers    = 4
	minCandidates = 3
	perWindow     = 4
	maxSearched   = 24
)

// Fingering is one fret per string, lowest string first. Muted strings hold
// Muted and open strings 0.
type Fingering [6]int

func (f Fingering) String() string {
	var b strings.Builder
	for _, fr := range f {
		switch {
		case fr == Muted:
			b.WriteByte('x')
		case fr > 9:
			b.WriteString("(" + strconv.Itoa(fr) + ")")
		default:
			b.WriteString(strconv.Itoa(fr))
		}
	}
	return b.String()
}

// Pitches returns the sounding MIDI pitches in ascending order.
func (f Fingering) Pitches(t Tuning) []int {
	out := make([]int, 0, 6)
	for s, fr := range f {
		if fr != Muted {
			out = append(out, t[s]+fr)
		}
	}
	sort.Ints(out)
	return out
}

func (f Fingering) fretted() []int {
	out := make([]int, 0, 6)
	for _, fr := range f {
		if fr > 0 {
			out = append(out, fr)
		}
	}
	return out
}

// Sounding counts strings that are not muted.
func (f Fingering) Sounding() int {
	n := 0
	for _, fr := range f {
		if fr != Muted {
			n++
		}
	}
	return n
}

// Position is the lowest fretted fret, or 0 for an all-open fingering.
func (f Fingering) Position() int {
	fr := f.fretted()
	if len(fr) == 0 {
		return 0
	}
	lo, _ := minMax(fr)
	return lo
}

// Stretch is the distance in frets between the lowest and highest fretted
// strings.
func (f Fingering) Stretch() int {
	fr := f.fretted()
	if len(fr) == 0 {
		return 0
	}
	lo, hi := minMax(fr)
	return hi - lo
}

// Fingers counts fretted strings, one finger each.
func (f Fingering) Fingers() int {
	return len(f.fretted())
}

// BarreFeasible reports whether one finger laid across the lowest fretted
// fret, from the first string using it upward, leaves at most three more
// fingers and covers no open string.
func (f Fingering) BarreFeasible() bool {
	pos := f.Position()
	if pos == 0 {
		return false
	}
	first := -1
	for s, fr := range f {
		if fr == pos {
			first = s
			break
		}
	}
	fingers := 1
	for s := first; s < len(f); s++ {
		if f[s] == 0 {
			return false
		}
	}
	for _, fr := range f {
		if fr > pos {
			fingers++
		}
	}
	return fingers <= maxFingers
}

func (f Fingering) Playable() bool {
	if f.Stretch() > maxStretch {
		return false
	}
	return f.Fingers() <= maxFingers || f.BarreFeasible()
}

type FrettedConfig struct {
	Tuning Tuning
}

func DefaultFrettedConfig() FrettedConfig {
	return FrettedConfig{Tuning: StandardTuning()}
}

// FrettedState is the previous fingering; HasPrev is false before the first
// chord and after a silent one.
type FrettedState struct {
	Prev    Fingering
	HasPrev bool
}

func (s FrettedState) clone() State { return s }

type voicingKey struct {
	mask uint16
	bass int
	root int
}

// Fretted voices chords as fingerings on a six-string fretted instrument.
type Fretted struct {
	tuning Tuning
	table  [6][maxFret + 1]int
	cache  map[voicingKey][]Fingering
	state  FrettedState
}

func NewFretted(cfg FrettedConfig) *Fretted {
	if !cfg.Tuning.Valid() {
		cfg.Tuning = StandardTuning()
	}
	f := &Fretted{tuning: cfg.Tuning, cache: map[voicingKey][]Fingering{}}
	for s := 0; s < 6; s++ {
		for fr := 0; fr <= maxFret; fr++ {
			f.table[s][fr] = (cfg.Tuning[s] + fr) % 12
		}
	}
	return f
}

func (f *Fretted) Tuning() Tuning { return f.tuning }

func (f *Fretted) Reset() {
	f.state = FrettedState{}
}

func (f *Fretted) Snapshot() State {
	return f.state.clone()
}

func (f *Fretted) Restore(s State) {
	if fs, ok := s.(FrettedState); ok {
		f.state = fs
	}
}

func (f *Fretted) Pick(ch theory.Chord) []int {
	pcs := ch.PitchClasses()
	if len(pcs) == 0 {
		return nil
	}
	bass := ch.BassPitchClass()
	cands := f.candidates(pcs, bass, ch.RootPitchClass())

	var best Fingering
	if len(cands) == 0 {
		fb, ok := f.fallback(ch.RootPitchClass())
		if !ok {
			f.state = FrettedState{}
			return nil
		}
		best = fb
	} else {
		best = f.choose(cands, bass)
	}
	f.state = FrettedState{Prev: best, HasPrev: true}
	return best.Pitches(f.tuning)
}

func (f *Fretted) candidates(pcs []int, bass, root int) []Fingering {
	var chordMask uint16
	for _, pc := range pcs {
		chordMask |= 1 << pc
	}
	key := voicingKey{mask: chordMask, bass: bass, root: root}
	if c, ok := f.cache[key]; ok {
		return c
	}

	required := reduceRequired(chordMask, root)
	allowed := chordMask | 1<<bass
	seen := map[Fingering]bool{}
	var out []Fingering
	add := func(fg Fingering) bool {
		if seen[fg] || !f.matches(fg, required, allowed) || !fg.Playable() {
			return false
		}
		seen[fg] = true
		out = append(out, fg)
		return true
	}

	for _, sh := range shapeLibrary {
		for shift := 0; shift <= maxShapeShift; shift++ {
			fg, ok := transpose(sh.frets, shift)
			if ok {
				add(fg)
			}
		}
	}
	if len(out) < minCandidates {
		f.search(required, allowed, add)
	}
	f.cache[key] = out
	return out
}

// reduceRequired drops the fifth, then the eleventh, then the ninth until
// the chord fits on five strings.
func reduceRequired(mask uint16, root int) uint16 {
	for _, iv := range []int{7, 5, 2} {
		if bits.OnesCount16(mask) <= 5 {
			break
		}
		mask &^= 1 << ((root + iv) % 12)
	}
	return mask
}

func transpose(shape Fingering, shift int) (Fingering, bool) {
	var out Fingering
	for s, fr := range shape {
		if fr == Muted {
			out[s] = Muted
			continue
		}
		if fr+shift > maxFret {
			return out, false
		}
		out[s] = fr + shift
	}
	return out, true
}

func (f *Fretted) matches(fg Fingering, required, allowed uint16) bool {
	if fg.Sounding() < 2 {
		return false
	}
	var got uint16
	for s, fr := range fg {
		if fr == Muted {
			continue
		}
		got |= 1 << f.table[s][fr]
	}
	return got&^allowed == 0 && got&required == required
}

// search scans four-fret windows up the neck, restricting every string to
// frets that sound an allowed pitch class, and tries contiguous string
// groups of four, three, five and six strings.
func (f *Fretted) search(required, allowed uint16, add func(Fingering) bool) {
	total := 0
	for w := 0; w+maxStretch-1 <= maxFret && total < maxSearched; w++ {
		lo, hi := max(w, 1), w+maxStretch-1
		var options [6][]int
		for s := 0; s < 6; s++ {
			if allowed&(1<<f.table[s][0]) != 0 {
				options[s] = append(options[s], 0)
			}
			for fr := lo; fr <= hi; fr++ {
				if allowed&(1<<f.table[s][fr]) != 0 {
					options[s] = append(options[s], fr)
				}
			}
		}

		found := 0
		for _, size := range []int{4, 3, 5, 6} {
			for start := 0; start+size <= 6 && found < perWindow; start++ {
				fg := Fingering{Muted, Muted, Muted, Muted, Muted, Muted}
				var walk func(s int)
				walk = func(s int) {
					if found >= perWindow {
						return
					}
					if s == start+size {
						if add(fg) {
							found++
						}
						return
					}
					for _, fr := range options[s] {
						fg[s] = fr
						walk(s + 1)
					}
					fg[s] = Muted
				}
				walk(start)
			}
		}
		total += found
	}
}

func (f *Fretted) choose(cands []Fingering, bass int) Fingering {
	best := cands[0]
	bestScore := 0.0
	for i, c := range cands {
		score := f.score(c, bass)
		if i == 0 || score < bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func (f *Fretted) score(c Fingering, bass int) float64 {
	pitches := c.Pitches(f.tuning)
	bassOK := len(pitches) > 0 && pitches[0]%12 == bass

	if !f.state.HasPrev {
		score := float64(c.Position())*2 + float64(c.Stretch())*1.5 - 0.5*float64(c.Sounding())
		if bassOK {
			score -= 20
		}
		return score
	}
	prev := f.state.Prev
	score := float64(abs(c.Position()-prev.Position()))*3 + 0.5*float64(patternDistance(c, prev)) + float64(c.Stretch())
	if bassOK {
		score -= 8
	}
	return score
}

func patternDistance(a, b Fingering) int {
	d := 0
	for s := range a {
		switch {
		case a[s] == b[s]:
		case a[s] == Muted || b[s] == Muted:
			d += 3
		default:
			d += abs(a[s] - b[s])
		}
	}
	return d
}

// fallback plays the root alone on the lowest string that reaches it.
func (f *Fretted) fallback(root int) (Fingering, bool) {
	for s := 0; s < 6; s++ {
		for fr := 0; fr <= maxFret; fr++ {
			if f.table[s][fr] == root {
				fg := Fingering{Muted, Muted, Muted, Muted, Muted, Muted}
				fg[s] = fr
				return fg, true
			}
		}
	}
	return Fingering{Muted, Muted, Muted, Muted, Muted, Muted}, false
}
