package scheduler

import (
	"math"

	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/picker"
)

const beatEpsilon = 1e-9

// state is the scan state threaded through one pass over the song.
type state struct {
	tempo   float64
	timeSig event.TimeSignature
	key     string

	cursor       float64 // seconds
	barBase      int     // bars completed before the current time signature
	beatsInMeter float64 // beats since the current time signature began

	frames      map[int]loopFrame // keyed by the loop directive's entry
	checkpoints map[string]checkpoint
}

// loopFrame tracks one armed loop directive. Remaining counts the jumps
// back to the label still owed.
type loopFrame struct {
	Label     string
	Total     int
	Remaining int
}

// checkpoint is stored by value. The cursor is deliberately absent: loops
// restore musical context, never time.
type checkpoint struct {
	tempo   float64
	timeSig event.TimeSignature
	key     string
	picker  picker.State
}

func newState(o Options) *state {
	return &state{
		tempo:       o.Tempo,
		timeSig:     o.TimeSig,
		key:         o.Key,
		frames:      map[int]loopFrame{},
		checkpoints: map[string]checkpoint{},
	}
}

func (s *state) checkpoint(ps picker.State) checkpoint {
	return checkpoint{tempo: s.tempo, timeSig: s.timeSig, key: s.key, picker: ps}
}

func (s *state) restore(cp checkpoint) {
	s.tempo = cp.tempo
	s.key = cp.key
	s.setTimeSig(cp.timeSig)
}

// setTimeSig closes the current meter, rounding a partial bar up so the new
// meter starts on a fresh bar.
func (s *state) setTimeSig(ts event.TimeSignature) {
	if ts == s.timeSig {
		return
	}
	s.barBase += int(math.Ceil(s.beatsInMeter/float64(s.timeSig.Beats) - beatEpsilon))
	s.beatsInMeter = 0
	s.timeSig = ts
}

// bar is the 1-based bar holding the next beat.
func (s *state) bar() int {
	return s.barBase + int(math.Floor(s.beatsInMeter/float64(s.timeSig.Beats)+beatEpsilon)) + 1
}

// barsUsed counts bars touched so far, a trailing partial bar included.
func (s *state) barsUsed() int {
	return s.barBase + int(math.Ceil(s.beatsInMeter/float64(s.timeSig.Beats)-beatEpsilon))
}

func (s *state) seconds(beats float64) float64 {
	return beats * 60 / s.tempo
}
