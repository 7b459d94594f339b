// Package scheduler walks a parsed chord sheet and emits a timed stream of
// note events into a bounded buffer.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cbegin/chordsheet-go/internal/buffer"
	"github.com/cbegin/chordsheet-go/internal/errkind"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/picker"
	"github.com/cbegin/chordsheet-go/internal/sheet"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

const (
	DefaultTempo    = 120.0
	DefaultVelocity = 90
	DefaultKey      = "C"
	defaultPushWait = 50 * time.Millisecond
)

var DefaultTimeSig = event.TimeSignature{Beats: 4, Unit: 4}

type Options struct {
	Tempo    float64
	TimeSig  event.TimeSignature
	Key      string
	Velocity int
	// Start resumes playback at an item. Earlier chords advance the bar
	// count only and earlier directives still apply.
	Start Position
	// PushWait bounds each attempt to enqueue so cancellation is noticed
	// while the buffer is full.
	PushWait time.Duration
	Resolver *theory.Resolver
	Picker   picker.Picker
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Tempo <= 0 {
		o.Tempo = DefaultTempo
	}
	o.Tempo = min(sheet.MaxTempo, max(sheet.MinTempo, o.Tempo))
	if !o.TimeSig.Valid() {
		o.TimeSig = DefaultTimeSig
	}
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.Velocity <= 0 || o.Velocity > 127 {
		o.Velocity = DefaultVelocity
	}
	if o.PushWait <= 0 {
		o.PushWait = defaultPushWait
	}
	if o.Resolver == nil {
		o.Resolver = theory.NewResolver(theory.NotationStandard)
	}
	if o.Picker == nil {
		o.Picker = picker.NewKeyboard(picker.DefaultKeyboardConfig())
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Scheduler produces the event stream for one playback session. It owns
// its picker for the duration of Run.
type Scheduler struct {
	opts      Options
	idx       index
	start     int
	totalBars int
	log       *slog.Logger
}

func New(song sheet.Song, opts Options) *Scheduler {
	opts = opts.withDefaults()
	s := &Scheduler{
		opts:  opts,
		idx:   buildIndex(song),
		log:   opts.Logger,
	}
	s.start = s.idx.startIndex(opts.Start)
	for _, p := range s.idx.duplicates {
		s.log.Warn("duplicate label ignored", "line", p.Line, "item", p.Item)
	}
	s.totalBars = s.dryRun()
	return s
}

// TotalBars is the song length in bars with every loop expanded.
func (s *Scheduler) TotalBars() int { return s.totalBars }

// Run emits events into buf until the song ends, ctx is cancelled or buf is
// closed. It returns buffer.ErrClosed when the consumer shut the buffer and
// ctx.Err() on cancellation. Run does not close buf.
func (s *Scheduler) Run(ctx context.Context, buf *buffer.Buffer[event.Event]) error {
	s.opts.Picker.Reset()
	w := &walker{s: s, st: newState(s.opts), emit: func(ev event.Event) error {
		return s.push(ctx, buf, ev)
	}}
	return w.run(ctx)
}

// Events runs the scheduler to completion without a consumer and returns
// the full stream.
func (s *Scheduler) Events(ctx context.Context) ([]event.Event, error) {
	s.opts.Picker.Reset()
	var out []event.Event
	w := &walker{s: s, st: newState(s.opts), emit: func(ev event.Event) error {
		out = append(out, ev)
		return nil
	}}
	err := w.run(ctx)
	return out, err
}

func (s *Scheduler) push(ctx context.Context, buf *buffer.Buffer[event.Event], ev event.Event) error {
	for {
		ok, err := buf.Push(ev, s.opts.PushWait)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *Scheduler) dryRun() int {
	w := &walker{s: s, st: newState(s.opts), dry: true}
	_ = w.run(context.Background())
	return w.st.barsUsed()
}

// walker performs one pass. A dry pass only tracks beats, loops and meter:
// it resolves nothing, touches no picker, logs nothing and emits nothing.
type walker struct {
	s       *Scheduler
	st      *state
	dry     bool
	emit    func(event.Event) error
	started bool
}

func (w *walker) run(ctx context.Context) error {
	entries := w.s.idx.entries
	for i := 0; i < len(entries); {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.started && i >= w.s.start {
			w.started = true
		}
		e := entries[i]
		next := i + 1
		switch it := e.item.(type) {
		case *sheet.Directive:
			next = w.directive(i, e.pos, it)
		case *sheet.Chord:
			if err := w.chord(e.pos, it); err != nil {
				return err
			}
		}
		i = next
	}
	if w.dry {
		return nil
	}
	return w.emit(event.Event{Time: w.st.cursor, Type: event.EndOfSong, Meta: w.meta("", -1)})
}

// directive applies d at entry i and returns the next entry to visit.
func (w *walker) directive(i int, pos Position, d *sheet.Directive) int {
	st := w.st
	if !d.Valid {
		w.warn("ignoring invalid directive", pos, "directive", d.Name, "error", d.Err)
		return i + 1
	}
	switch d.Kind {
	case sheet.DirectiveTempo:
		st.tempo = d.Tempo.Apply(st.tempo, w.s.opts.Tempo)
	case sheet.DirectiveTimeSignature:
		st.setTimeSig(d.Time)
	case sheet.DirectiveKey:
		st.key = d.Key
	case sheet.DirectiveLabel:
		if w.s.idx.labels[d.Label] != i {
			return i + 1
		}
		if _, ok := st.checkpoints[d.Label]; !ok {
			st.checkpoints[d.Label] = st.checkpoint(w.snapshot())
		}
	case sheet.DirectiveLoop:
		return w.loop(i, pos, d)
	}
	return i + 1
}

// loop handles a loop directive at entry i. The first encounter arms a
// frame owned by this directive and jumps back to the label. Later
// encounters jump again while the frame owes passes and disarm it
// otherwise. Only the owner touches its frame, so loops sharing a label
// count independently and a loop replayed by an outer loop is armed afresh.
func (w *walker) loop(i int, pos Position, d *sheet.Directive) int {
	st := w.st
	target, ok := w.s.idx.labels[d.Label]
	if !ok || target > i {
		err := errkind.New(errkind.MissingLabel, "loop references a label not seen before it")
		w.warn("ignoring loop", pos, "label", d.Label, "error", err)
		return i + 1
	}
	cp := st.checkpoints[d.Label]

	if f, armed := st.frames[i]; armed {
		if f.Remaining == 0 {
			delete(st.frames, i)
			return i + 1
		}
		f.Remaining--
		st.frames[i] = f
		w.restore(cp)
		return target
	}
	if d.Count <= 1 {
		return i + 1
	}
	st.frames[i] = loopFrame{Label: d.Label, Total: d.Count, Remaining: d.Count - 2}
	w.restore(cp)
	return target
}

func (w *walker) chord(pos Position, c *sheet.Chord) error {
	st := w.st
	if !c.Valid {
		w.warn("skipping invalid chord", pos, "symbol", c.Symbol, "error", c.Err)
		return nil
	}
	beats := c.Beats
	if beats <= 0 {
		beats = float64(st.timeSig.Beats)
	}
	if w.dry || !w.started {
		st.beatsInMeter += beats
		return nil
	}

	var notes []int
	if !c.NoChord {
		resolved, err := w.s.opts.Resolver.Resolve(c.Symbol, st.key, c.Relative)
		if err != nil {
			w.warn("skipping unresolvable chord", pos, "symbol", c.Symbol, "key", st.key, "error", err)
			return nil
		}
		notes = w.s.opts.Picker.Pick(resolved)
	}

	meta := w.meta(c.Symbol, pos.Line)
	dur := st.seconds(beats)
	if len(notes) == 0 {
		if err := w.emit(event.Event{Time: st.cursor, Type: event.Rest, Meta: meta}); err != nil {
			return err
		}
	} else {
		on := event.Event{Time: st.cursor, Type: event.NoteOn, Notes: notes, Velocity: w.s.opts.Velocity, Meta: meta}
		off := event.Event{Time: st.cursor + dur, Type: event.NoteOff, Notes: notes, Meta: meta}
		if err := w.emit(on); err != nil {
			return err
		}
		if err := w.emit(off); err != nil {
			return err
		}
	}
	st.cursor += dur
	st.beatsInMeter += beats
	return nil
}

func (w *walker) meta(symbol string, line int) event.Meta {
	st := w.st
	bar := st.bar()
	if symbol == "" {
		bar = st.barsUsed()
	}
	return event.Meta{
		Symbol:    symbol,
		Bar:       bar,
		Line:      line,
		Tempo:     st.tempo,
		TimeSig:   st.timeSig,
		Key:       st.key,
		TotalBars: w.s.totalBars,
	}
}

func (w *walker) snapshot() picker.State {
	if w.dry {
		return nil
	}
	return w.s.opts.Picker.Snapshot()
}

func (w *walker) restore(cp checkpoint) {
	w.st.restore(cp)
	if !w.dry && cp.picker != nil {
		w.s.opts.Picker.Restore(cp.picker)
	}
}

func (w *walker) warn(msg string, pos Position, args ...any) {
	if w.dry {
		return
	}
	w.s.log.Warn(msg, append([]any{"line", pos.Line, "item", pos.Item}, args...)...)
}

// IsStopped reports whether err from Run means the session was stopped
// rather than failed.
func IsStopped(err error) bool {
	return errors.Is(err, buffer.ErrClosed) || errors.Is(err, context.Canceled)
}
