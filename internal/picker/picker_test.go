package picker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/chordsheet-go/internal/theory"
)

var progressionSymbols = []string{
	"C", "Am", "F", "G7", "Dm7", "Em", "Bb", "Ebmaj7", "F#m7b5", "B7",
	"Cmaj9", "Ab13", "Db", "Gsus4", "E7#9", "Calt", "D/F#", "C/G", "A5", "Bdim7",
	"Fm6", "Gm11", "C#m", "Eb7b9",
}

func mustResolve(t *testing.T, sym string) theory.Chord {
	t.Helper()
	c, err := theory.NewResolver(theory.NotationStandard).Resolve(sym, "", false)
	require.NoError(t, err, sym)
	return c
}

func randomProgression(t *testing.T, seed int64, n int) []theory.Chord {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	out := make([]theory.Chord, n)
	for i := range out {
		out[i] = mustResolve(t, progressionSymbols[rng.Intn(len(progressionSymbols))])
	}
	return out
}

func TestKeyboardSpanAndJumpBounded(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		k := NewKeyboard(KeyboardConfig{ChordOctave: 4, BassOctave: 2, AddBass: false})
		prevMean := -1.0
		for _, ch := range randomProgression(t, seed, 64) {
			notes := k.Pick(ch)
			require.NotEmpty(t, notes, ch.Symbol)
			lo, hi := minMax(notes)
			assert.LessOrEqual(t, hi-lo, 24, "%s spans %v", ch.Symbol, notes)
			m := mean(notes)
			if prevMean >= 0 {
				assert.Less(t, abs(m-prevMean), 30.0, "%s jumped to %v", ch.Symbol, notes)
			}
			prevMean = m
		}
	}
}

func TestKeyboardCoversChordTones(t *testing.T) {
	k := NewKeyboard(KeyboardConfig{ChordOctave: 4, BassOctave: 2})
	for _, sym := range progressionSymbols {
		ch := mustResolve(t, sym)
		got := map[int]bool{}
		for _, n := range k.Pick(ch) {
			got[n%12] = true
		}
		for _, pc := range ch.PitchClasses() {
			assert.True(t, got[pc], "%s missing pitch class %d", sym, pc)
		}
	}
}

func TestKeyboardRetainsCommonTones(t *testing.T) {
	k := NewKeyboard(KeyboardConfig{ChordOctave: 4, BassOctave: 2})
	first := k.Pick(mustResolve(t, "C"))
	second := k.Pick(mustResolve(t, "Am"))

	common := 0
	for _, a := range first {
		for _, b := range second {
			if a == b {
				common++
			}
		}
	}
	assert.GreaterOrEqual(t, common, 2, "C %v -> Am %v", first, second)
}

func TestKeyboardBassBelowChord(t *testing.T) {
	k := NewKeyboard(DefaultKeyboardConfig())
	notes := k.Pick(mustResolve(t, "C/G"))
	require.Len(t, notes, 4)
	assert.Equal(t, 7, notes[0]%12)
	assert.Less(t, notes[0], notes[1])
	assert.Equal(t, 43, notes[0])

	notes = k.Pick(mustResolve(t, "F"))
	assert.Equal(t, 5, notes[0]%12)
}

func TestKeyboardSnapshotRestore(t *testing.T) {
	k := NewKeyboard(DefaultKeyboardConfig())
	k.Pick(mustResolve(t, "C"))
	snap := k.Snapshot()

	after := k.Pick(mustResolve(t, "Ab"))
	k.Pick(mustResolve(t, "E"))
	k.Restore(snap)
	assert.Equal(t, after, k.Pick(mustResolve(t, "Ab")))

	k.Reset()
	assert.Empty(t, k.Snapshot().(KeyboardState).Prev)
}

func TestKeyboardPreferredOctaveHysteresis(t *testing.T) {
	k := NewKeyboard(KeyboardConfig{ChordOctave: 4, BassOctave: 2})
	c := mustResolve(t, "C")

	k.Restore(KeyboardState{Prev: []int{76, 79, 84}, PreferredOctave: 4})
	assert.Equal(t, []int{76, 79, 84}, k.Pick(c))
	assert.Equal(t, 6, k.Snapshot().(KeyboardState).PreferredOctave, "more than an octave of drift migrates")

	k.Restore(KeyboardState{Prev: []int{64, 67, 72}, PreferredOctave: 5})
	assert.Equal(t, []int{64, 67, 72}, k.Pick(c))
	assert.Equal(t, 4, k.Snapshot().(KeyboardState).PreferredOctave, "within an octave snaps back")
}

func TestKeyboardSnapshotIsACopy(t *testing.T) {
	k := NewKeyboard(DefaultKeyboardConfig())
	k.Pick(mustResolve(t, "C"))
	snap := k.Snapshot().(KeyboardState)
	want := append([]int(nil), snap.Prev...)
	k.Pick(mustResolve(t, "F#"))
	assert.Equal(t, want, snap.Prev)
}

func TestFrettedOpenChordsInStandardTuning(t *testing.T) {
	f := NewFretted(DefaultFrettedConfig())
	notes := f.Pick(mustResolve(t, "C"))
	assert.Equal(t, Fingering{Muted, 3, 2, 0, 1, 0}, f.Snapshot().(FrettedState).Prev)
	assert.Equal(t, []int{48, 52, 55, 60, 64}, notes)

	f.Reset()
	f.Pick(mustResolve(t, "G"))
	assert.Equal(t, Fingering{3, 2, 0, 0, 0, 3}, f.Snapshot().(FrettedState).Prev)
}

func TestFrettedRespectsPlayability(t *testing.T) {
	for _, name := range TuningNames() {
		tuning, ok := LookupTuning(name)
		require.True(t, ok)
		for seed := int64(1); seed <= 5; seed++ {
			f := NewFretted(FrettedConfig{Tuning: tuning})
			for _, ch := range randomProgression(t, seed, 40) {
				notes := f.Pick(ch)
				st := f.Snapshot().(FrettedState)
				require.True(t, st.HasPrev, "%s in %s", ch.Symbol, name)
				fg := st.Prev
				assert.LessOrEqual(t, fg.Stretch(), 4, "%s %s in %s", ch.Symbol, fg, name)
				assert.True(t, fg.Fingers() <= 4 || fg.BarreFeasible(), "%s %s in %s", ch.Symbol, fg, name)
				assert.Equal(t, fg.Pitches(tuning), notes)

				allowed := map[int]bool{ch.BassPitchClass(): true}
				for _, pc := range ch.PitchClasses() {
					allowed[pc] = true
				}
				for _, n := range notes {
					assert.True(t, allowed[n%12], "%s sounds foreign pitch %d via %s", ch.Symbol, n, fg)
				}
			}
		}
	}
}

func TestFrettedPrefersCorrectBass(t *testing.T) {
	f := NewFretted(DefaultFrettedConfig())
	notes := f.Pick(mustResolve(t, "A"))
	require.NotEmpty(t, notes)
	assert.Equal(t, 9, notes[0]%12)
}

func TestFrettedSnapshotRestore(t *testing.T) {
	f := NewFretted(DefaultFrettedConfig())
	f.Pick(mustResolve(t, "Em"))
	snap := f.Snapshot()
	want := f.Pick(mustResolve(t, "Bm7"))
	f.Pick(mustResolve(t, "Eb"))
	f.Restore(snap)
	assert.Equal(t, want, f.Pick(mustResolve(t, "Bm7")))
}

func TestFingeringBarre(t *testing.T) {
	barreF := Fingering{1, 3, 3, 2, 1, 1}
	assert.True(t, barreF.BarreFeasible())
	assert.True(t, barreF.Playable())

	openUnderBarre := Fingering{1, 3, 3, 2, 0, 1}
	assert.False(t, openUnderBarre.BarreFeasible())
	assert.False(t, openUnderBarre.Playable())

	tooWide := Fingering{1, Muted, 6, Muted, Muted, Muted}
	assert.False(t, tooWide.Playable())
	assert.Equal(t, "x(10)(12)xxx", Fingering{Muted, 10, 12, Muted, Muted, Muted}.String())
}

func TestLookupTuning(t *testing.T) {
	tn, ok := LookupTuning("Drop D")
	require.True(t, ok)
	assert.Equal(t, 38, tn[0])
	_, ok = LookupTuning("banjo")
	assert.False(t, ok)
}
