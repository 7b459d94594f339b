package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/chordsheet-go/internal/errkind"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

func parseOne(t *testing.T, text string) []Item {
	t.Helper()
	song := Parse(text, ParseOptions{})
	require.Len(t, song.Lines, 1)
	return song.Lines[0].Items
}

func TestParseChordsAndDurations(t *testing.T) {
	items := parseOne(t, "C*2 G | Am7*1.5   F")
	require.Len(t, items, 4)

	c := items[0].(*Chord)
	assert.Equal(t, "C", c.Symbol)
	assert.Equal(t, 2.0, c.Beats)
	assert.True(t, c.Valid)
	assert.Equal(t, 0, c.Pos)

	g := items[1].(*Chord)
	assert.Equal(t, "G", g.Symbol)
	assert.Zero(t, g.Beats)
	assert.Equal(t, 4, g.Pos)

	am := items[2].(*Chord)
	assert.Equal(t, "Am7", am.Symbol)
	assert.Equal(t, 1.5, am.Beats)
}

func TestParseMarksInvalidChords(t *testing.T) {
	items := parseOne(t, "C Hmaj G*0 X")
	require.Len(t, items, 4)
	assert.True(t, items[0].(*Chord).Valid)

	bad := items[1].(*Chord)
	assert.False(t, bad.Valid)
	assert.True(t, errkind.Is(bad.Err, errkind.ParseInvalid))

	assert.False(t, items[2].(*Chord).Valid, "zero beats")

	nc := items[3].(*Chord)
	assert.True(t, nc.Valid)
	assert.True(t, nc.NoChord)
}

func TestParseRomanNumerals(t *testing.T) {
	items := parseOne(t, "I vi IV V7 Bb")
	require.Len(t, items, 5)
	for _, it := range items[:4] {
		c := it.(*Chord)
		assert.True(t, c.Relative, c.Symbol)
		assert.True(t, c.Valid, c.Symbol)
	}
	assert.False(t, items[4].(*Chord).Relative)
}

func TestParseNotation(t *testing.T) {
	song := Parse("H7 Fis", ParseOptions{Notation: theory.NotationGerman})
	for _, it := range song.Lines[0].Items {
		assert.True(t, it.(*Chord).Valid)
	}
}

func TestParseDirectives(t *testing.T) {
	items := parseOne(t, "{bpm: 90}{tempo: +20} {bpm: -5} {bpm: 50%} {bpm: 2x} {bpm: reset} {time: 3/4} {key: Eb} {label: verse} {loop: verse} {loop: verse 3}")
	require.Len(t, items, 11)

	want := []TempoChange{
		{TempoAbsolute, 90}, {TempoRelative, 20}, {TempoRelative, -5},
		{TempoPercentage, 50}, {TempoMultiplier, 2}, {TempoReset, 0},
	}
	for i, w := range want {
		d := items[i].(*Directive)
		require.True(t, d.Valid, "%d: %v", i, d.Err)
		assert.Equal(t, DirectiveTempo, d.Kind)
		assert.Equal(t, w, d.Tempo)
	}

	ts := items[6].(*Directive)
	assert.Equal(t, DirectiveTimeSignature, ts.Kind)
	assert.Equal(t, event.TimeSignature{Beats: 3, Unit: 4}, ts.Time)

	key := items[7].(*Directive)
	assert.Equal(t, DirectiveKey, key.Kind)
	assert.Equal(t, "Eb", key.Key)

	label := items[8].(*Directive)
	assert.Equal(t, DirectiveLabel, label.Kind)
	assert.Equal(t, "verse", label.Label)

	loop := items[9].(*Directive)
	assert.Equal(t, DirectiveLoop, loop.Kind)
	assert.Equal(t, "verse", loop.Label)
	assert.Equal(t, 2, loop.Count)
	assert.Equal(t, 3, items[10].(*Directive).Count)
}

func TestParseInvalidDirectives(t *testing.T) {
	cases := []struct {
		text string
		kind DirectiveKind
	}{
		{"{bpm: fast}", DirectiveTempo},
		{"{bpm: 0}", DirectiveTempo},
		{"{bpm: -x%}", DirectiveTempo},
		{"{time: 4/3}", DirectiveTimeSignature},
		{"{time: four}", DirectiveTimeSignature},
		{"{key: Q}", DirectiveKey},
		{"{label: }", DirectiveLabel},
		{"{loop: a b c}", DirectiveLoop},
		{"{loop: a 0}", DirectiveLoop},
		{"{capo: 2}", DirectiveUnknown},
		{"{bpm: 100", DirectiveUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			items := parseOne(t, tc.text)
			require.Len(t, items, 1)
			d := items[0].(*Directive)
			assert.False(t, d.Valid)
			assert.Equal(t, tc.kind, d.Kind)
			assert.True(t, errkind.Is(d.Err, errkind.DirectiveInvalid), "%v", d.Err)
		})
	}
}

func TestParseSkipsCommentsAndKeepsLineIndexes(t *testing.T) {
	song := Parse("# intro\nC G\n\n  # note\nAm", ParseOptions{})
	require.Len(t, song.Lines, 5)
	assert.Empty(t, song.Lines[0].Items)
	assert.Len(t, song.Lines[1].Items, 2)
	assert.Empty(t, song.Lines[2].Items)
	assert.Empty(t, song.Lines[3].Items)
	assert.Len(t, song.Lines[4].Items, 1)
	assert.Equal(t, 3, song.ChordCount())
}

func TestProblems(t *testing.T) {
	song := Parse("C Zz7\n{bpm: nope} G", ParseOptions{})
	probs := song.Problems()
	require.Len(t, probs, 2)
	assert.Equal(t, 0, probs[0].Line)
	assert.Equal(t, "Zz7", probs[0].Text)
	assert.Equal(t, 1, probs[1].Line)
	assert.Contains(t, probs[1].String(), "2:1:")
}

func TestTempoApply(t *testing.T) {
	cases := []struct {
		change TempoChange
		want   float64
	}{
		{TempoChange{TempoRelative, 20}, 140},
		{TempoChange{TempoPercentage, 50}, 60},
		{TempoChange{TempoMultiplier, 2}, 240},
		{TempoChange{TempoReset, 0}, 100},
		{TempoChange{TempoAbsolute, 1000}, MaxTempo},
		{TempoChange{TempoRelative, -200}, MinTempo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.change.Apply(120, 100), tc.change.String())
	}
}
