// Package event defines the timed note events that flow from the scheduler
// to sinks and files.
package event

import (
	"fmt"
	"strings"
)

type Type int

const (
	NoteOn Type = iota + 1
	NoteOff
	Rest
	EndOfSong
)

func (t Type) String() string {
	switch t {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case Rest:
		return "Rest"
	case EndOfSong:
		return "EndOfSong"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// TimeSignature is beats per bar over the beat unit.
type TimeSignature struct {
	Beats int
	Unit  int
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.Unit)
}

// Valid reports whether ts has a positive beat count and a power-of-two unit.
func (ts TimeSignature) Valid() bool {
	if ts.Beats <= 0 || ts.Unit <= 0 {
		return false
	}
	return ts.Unit&(ts.Unit-1) == 0
}

// Meta carries the playback context of an event for progress reporting.
type Meta struct {
	Symbol    string
	Bar       int
	Line      int
	Tempo     float64
	TimeSig   TimeSignature
	Key       string
	TotalBars int
}

// Event is one entry of the scheduled stream. Time is in seconds from the
// start of the session. Events are immutable once enqueued: Notes must not
// be modified after the event is pushed.
type Event struct {
	Time     float64
	Type     Type
	Notes    []int
	Velocity int
	Meta     Meta
}

func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8.3f %-9s", e.Time, e.Type)
	if len(e.Notes) > 0 {
		fmt.Fprintf(&b, " %v", e.Notes)
	}
	if e.Meta.Symbol != "" {
		fmt.Fprintf(&b, " %s", e.Meta.Symbol)
	}
	if e.Meta.Bar > 0 {
		fmt.Fprintf(&b, " bar=%d/%d", e.Meta.Bar, e.Meta.TotalBars)
	}
	return b.String()
}
