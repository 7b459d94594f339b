// Package midifile writes scheduled event streams as Standard MIDI Files.
package midifile

import (
	"io"
	"math"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/chordsheet-go/internal/event"
)

const TicksPerQuarter = 960

type Options struct {
	Channel uint8
	// Program is sent once at the start; negative leaves the default.
	Program int
	// Markers writes each chord symbol as a marker meta event.
	Markers bool
	Name    string
}

func DefaultOptions() Options {
	return Options{Program: -1, Markers: true}
}

// tempoMap converts event seconds into ticks across tempo changes.
type tempoMap struct {
	segSec  float64
	segTick uint64
	bpm     float64
}

func (m *tempoMap) ticks(sec float64) uint64 {
	d := (sec - m.segSec) * m.bpm / 60 * TicksPerQuarter
	if d < 0 {
		d = 0
	}
	return m.segTick + uint64(math.Round(d))
}

func (m *tempoMap) change(sec, bpm float64) uint64 {
	tick := m.ticks(sec)
	m.segSec, m.segTick, m.bpm = sec, tick, bpm
	return tick
}

type trackWriter struct {
	tr   smf.Track
	last uint64
}

func (w *trackWriter) add(tick uint64, msg []byte) {
	if tick < w.last {
		tick = w.last
	}
	w.tr.Add(uint32(tick-w.last), msg)
	w.last = tick
}

// Encode builds a single-track SMF from events. Each chord's tempo and time
// signature come from its metadata, so the file plays back with the same
// wall-clock timing the scheduler produced.
func Encode(events []event.Event, opts Options) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var w trackWriter
	if opts.Name != "" {
		w.add(0, smf.MetaTrackSequenceName(opts.Name))
	}
	var tm tempoMap
	var meter event.TimeSignature
	if opts.Program >= 0 && opts.Program <= 127 {
		w.add(0, midi.ProgramChange(opts.Channel, uint8(opts.Program)))
	}

	end := uint64(0)
	for _, ev := range events {
		if ev.Meta.Tempo > 0 && ev.Meta.Tempo != tm.bpm && ev.Type != event.NoteOff {
			if tm.bpm == 0 {
				tm.bpm = ev.Meta.Tempo
				w.add(0, smf.MetaTempo(ev.Meta.Tempo))
			} else {
				w.add(tm.change(ev.Time, ev.Meta.Tempo), smf.MetaTempo(ev.Meta.Tempo))
			}
		}
		if tm.bpm == 0 {
			tm.bpm = 120
		}
		tick := tm.ticks(ev.Time)
		if ev.Meta.TimeSig.Valid() && ev.Meta.TimeSig != meter && ev.Type != event.NoteOff {
			meter = ev.Meta.TimeSig
			w.add(tick, smf.MetaMeter(uint8(meter.Beats), uint8(meter.Unit)))
		}

		switch ev.Type {
		case event.NoteOn:
			if opts.Markers && ev.Meta.Symbol != "" {
				w.add(tick, smf.MetaMarker(ev.Meta.Symbol))
			}
			for _, n := range ev.Notes {
				if validKey(n) {
					w.add(tick, midi.NoteOn(opts.Channel, uint8(n), uint8(clampVelocity(ev.Velocity))))
				}
			}
		case event.NoteOff:
			for _, n := range ev.Notes {
				if validKey(n) {
					w.add(tick, midi.NoteOff(opts.Channel, uint8(n)))
				}
			}
		case event.Rest:
			if opts.Markers && ev.Meta.Symbol != "" {
				w.add(tick, smf.MetaMarker(ev.Meta.Symbol))
			}
		}
		end = max(end, tick)
	}

	w.tr.Close(uint32(end - w.last))
	if err := s.Add(w.tr); err != nil {
		return nil, fault.Wrap(err, fmsg.With("add track"))
	}
	return s, nil
}

// Write encodes events and writes the file to out.
func Write(out io.Writer, events []event.Event, opts Options) error {
	s, err := Encode(events, opts)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(out); err != nil {
		return fault.Wrap(err, fmsg.With("write midi file"))
	}
	return nil
}

func validKey(n int) bool { return n >= 0 && n <= 127 }

func clampVelocity(v int) int {
	return min(127, max(1, v))
}

// Recorder is a sink that keeps every event for later export.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *Recorder) Send(ev event.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Export writes everything recorded so far.
func (r *Recorder) Export(out io.Writer, opts Options) error {
	return Write(out, r.Events(), opts)
}
