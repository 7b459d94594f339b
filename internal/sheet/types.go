// Package sheet parses chord-sheet text into lines of chord occurrences and
// inline directives.
package sheet

import (
	"fmt"
	"math"

	"github.com/cbegin/chordsheet-go/internal/event"
)

// Item is a chord occurrence or a directive. The set is closed.
type Item interface {
	Position() int
	isItem()
}

// Chord is one chord occurrence. Beats is zero when the chord lasts the
// current measure.
type Chord struct {
	Symbol   string
	Pos      int
	Valid    bool
	Relative bool
	NoChord  bool
	Beats    float64
	Err      error
}

func (c *Chord) Position() int { return c.Pos }
func (*Chord) isItem()          {}

type DirectiveKind int

const (
	DirectiveUnknown DirectiveKind = iota
	DirectiveTempo
	DirectiveTimeSignature
	DirectiveKey
	DirectiveLoop
	DirectiveLabel
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveTempo:
		return "tempo"
	case DirectiveTimeSignature:
		return "time"
	case DirectiveKey:
		return "key"
	case DirectiveLoop:
		return "loop"
	case DirectiveLabel:
		return "label"
	}
	return "unknown"
}

type TempoMode int

const (
	TempoAbsolute TempoMode = iota
	TempoRelative
	TempoPercentage
	TempoMultiplier
	TempoReset
)

const (
	MinTempo = 20.0
	MaxTempo = 400.0
)

type TempoChange struct {
	Mode  TempoMode
	Value float64
}

// Apply computes the tempo that follows current. initial is the session's
// starting tempo, used by TempoReset. The result is clamped to
// [MinTempo, MaxTempo].
func (tc TempoChange) Apply(current, initial float64) float64 {
	var next float64
	switch tc.Mode {
	case TempoAbsolute:
		next = tc.Value
	case TempoRelative:
		next = current + tc.Value
	case TempoPercentage:
		next = current * tc.Value / 100
	case TempoMultiplier:
		next = current * tc.Value
	case TempoReset:
		next = initial
	default:
		next = current
	}
	return math.Min(MaxTempo, math.Max(MinTempo, next))
}

func (tc TempoChange) String() string {
	switch tc.Mode {
	case TempoRelative:
		return fmt.Sprintf("%+g", tc.Value)
	case TempoPercentage:
		return fmt.Sprintf("%g%%", tc.Value)
	case TempoMultiplier:
		return fmt.Sprintf("%gx", tc.Value)
	case TempoReset:
		return "reset"
	}
	return fmt.Sprintf("%g", tc.Value)
}

// Directive is an inline "{name: value}" instruction. Only the fields
// matching Kind are set. Invalid directives keep Name and Value for display
// and carry the reason in Err.
type Directive struct {
	Kind  DirectiveKind
	Name  string
	Value string
	Pos   int
	Valid bool
	Err   error

	Tempo TempoChange
	Time  event.TimeSignature
	Key   string
	Label string
	Count int
}

func (d *Directive) Position() int { return d.Pos }
func (*Directive) isItem()          {}

type Line struct {
	Text  string
	Items []Item
}

type Song struct {
	Lines []Line
}

// Problem locates an invalid chord or directive.
type Problem struct {
	Line int
	Pos  int
	Text string
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("%d:%d: %q: %v", p.Line+1, p.Pos+1, p.Text, p.Err)
}

// Problems lists every invalid item in document order.
func (s Song) Problems() []Problem {
	var out []Problem
	for li, line := range s.Lines {
		for _, it := range line.Items {
			switch v := it.(type) {
			case *Chord:
				if !v.Valid {
					out = append(out, Problem{Line: li, Pos: v.Pos, Text: v.Symbol, Err: v.Err})
				}
			case *Directive:
				if !v.Valid {
					out = append(out, Problem{Line: li, Pos: v.Pos, Text: "{" + v.Name + ": " + v.Value + "}", Err: v.Err})
				}
			}
		}
	}
	return out
}

// ChordCount counts chord occurrences, valid or not.
func (s Song) ChordCount() int {
	n := 0
	for _, line := range s.Lines {
		for _, it := range line.Items {
			if _, ok := it.(*Chord); ok {
				n++
			}
		}
	}
	return n
}
