// Package chordsheet plays chord sheets: it resolves chord symbols, voices
// them for a keyboard or a guitar and streams the result to a sink in real
// time, or renders it offline to events, MIDI or WAV.
package chordsheet

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cbegin/chordsheet-go/internal/audio"
	"github.com/cbegin/chordsheet-go/internal/buffer"
	"github.com/cbegin/chordsheet-go/internal/config"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/playback"
	"github.com/cbegin/chordsheet-go/internal/scheduler"
	"github.com/cbegin/chordsheet-go/internal/sheet"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

// PlaybackEvent carries progress from Watch().
type PlaybackEvent struct {
	Kind    EventKind
	Session string
	// Event is the chord or rest that just sounded (EventChord only).
	Event event.Event
	// Err is why playback ended early, nil on a normal end or Stop.
	Err error
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventChord
	EventPlaybackEnded
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	cfg    config.Config
	sink   playback.Sink
	clock  playback.Clock
	logger *slog.Logger
	start  scheduler.Position
}

func newPlayerConfig(opts []PlayerOption) playerConfig {
	pc := playerConfig{cfg: config.Default()}
	for _, opt := range opts {
		opt(&pc)
	}
	return pc
}

func WithConfig(cfg config.Config) PlayerOption {
	return func(pc *playerConfig) {
		pc.cfg = cfg
	}
}

// WithSink sends events to sink instead of the SoundFont synthesizer.
func WithSink(sink playback.Sink) PlayerOption {
	return func(pc *playerConfig) {
		pc.sink = sink
	}
}

func WithClock(clock playback.Clock) PlayerOption {
	return func(pc *playerConfig) {
		pc.clock = clock
	}
}

func WithLogger(logger *slog.Logger) PlayerOption {
	return func(pc *playerConfig) {
		pc.logger = logger
	}
}

// WithStart begins playback at an item of a line; both are zero-based.
func WithStart(line, item int) PlayerOption {
	return func(pc *playerConfig) {
		pc.start = scheduler.Position{Line: line, Item: item}
	}
}

func (pc playerConfig) schedulerOptions(logger *slog.Logger) (scheduler.Options, error) {
	ts, err := pc.cfg.TimeSignature()
	if err != nil {
		return scheduler.Options{}, err
	}
	return scheduler.Options{
		Tempo:    pc.cfg.Tempo,
		TimeSig:  ts,
		Key:      pc.cfg.Key,
		Velocity: pc.cfg.Velocity,
		Start:    pc.start,
		Resolver: theory.NewResolver(pc.cfg.NotationValue()),
		Picker:   pc.cfg.NewPicker(),
		Logger:   logger,
	}, nil
}

func (pc playerConfig) log() *slog.Logger {
	if pc.logger != nil {
		return pc.logger
	}
	return slog.Default()
}

// Player runs one playback session at a time: the scheduler fills the event
// buffer while the consumer paces it out to the sink.
type Player struct {
	mu       sync.Mutex
	cfg      playerConfig
	sink     playback.Sink
	synth    *audio.Synth
	output   *audio.Output
	session  string
	cancel   context.CancelFunc
	buf      *buffer.Buffer[event.Event]
	consumer *playback.Consumer
	done     chan struct{}
	err      error

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

// NewPlayer validates the configuration and prepares the sink. Without
// WithSink the configured SoundFont is loaded here so a bad path fails early.
func NewPlayer(opts ...PlayerOption) (*Player, error) {
	pc := newPlayerConfig(opts)
	if err := pc.cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Player{cfg: pc, sink: pc.sink}
	if p.sink == nil {
		if pc.cfg.Audio.SoundFont == "" {
			return nil, fault.New("no sink: set audio.soundfont or use WithSink")
		}
		sf, err := audio.LoadSoundFont(pc.cfg.Audio.SoundFont)
		if err != nil {
			return nil, err
		}
		synth, err := audio.NewSynth(sf, pc.cfg.Audio.SampleRate, pc.cfg.Audio.Program)
		if err != nil {
			return nil, err
		}
		p.synth, p.sink = synth, synth
	}
	return p, nil
}

// Compile parses sheet text with the given notation.
func Compile(text string, notation theory.Notation) sheet.Song {
	return sheet.Parse(text, sheet.ParseOptions{Notation: notation})
}

func (p *Player) PlaySheet(text string) error {
	return p.Play(Compile(text, p.cfg.cfg.NotationValue()))
}

// Play stops any running session and starts song. It returns once both
// goroutines are running; use Wait or Watch to follow progress.
func (p *Player) Play(song sheet.Song) error {
	if err := p.Stop(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.synth != nil && p.output == nil {
		out, err := audio.NewOutput(p.cfg.cfg.Audio.SampleRate, p.synth)
		if err != nil {
			return err
		}
		p.output = out
		p.output.Start()
	}

	session := uuid.NewString()
	logger := p.cfg.log().With("session", session)
	schedOpts, err := p.cfg.schedulerOptions(logger)
	if err != nil {
		return err
	}
	sched := scheduler.New(song, schedOpts)
	buf := buffer.New[event.Event](p.cfg.cfg.Buffer)
	consumer := playback.New(buf, p.sink, playback.Options{
		Clock:  p.cfg.clock,
		Logger: logger,
		OnEvent: func(ev event.Event) {
			if ev.Type == event.NoteOn || ev.Type == event.Rest {
				p.sendEvent(PlaybackEvent{Kind: EventChord, Session: session, Event: ev})
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.session, p.cancel, p.buf, p.consumer, p.done, p.err = session, cancel, buf, consumer, done, nil
	logger.Info("playback started", "bars", sched.TotalBars(), "tempo", schedOpts.Tempo, "key", schedOpts.Key)
	p.sendEvent(PlaybackEvent{Kind: EventStarted, Session: session})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := sched.Run(gctx, buf)
		buf.Close()
		if scheduler.IsStopped(err) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := consumer.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	go func() {
		err := g.Wait()
		cancel()
		if err != nil {
			err = fault.Wrap(err, fmsg.With("playback"))
			logger.Error("playback failed", "error", err)
		} else {
			logger.Info("playback ended")
		}
		p.mu.Lock()
		if p.done == done {
			p.err = err
		}
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Session: session, Err: err})
		close(done)
	}()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumer != nil {
		p.consumer.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumer != nil {
		p.consumer.Resume()
	}
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consumer != nil && p.consumer.Paused()
}

// Stop cancels the running session and waits for both goroutines to exit.
// Stopping an idle player is a no-op.
func (p *Player) Stop() error {
	p.mu.Lock()
	cancel, buf, done := p.cancel, p.buf, p.done
	p.cancel, p.buf, p.consumer = nil, nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	buf.Close()
	buf.Clear()
	<-done
	return nil
}

// Wait blocks until the current session ends and returns its error.
// It returns immediately when nothing is playing.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Watch returns a channel that receives playback events: EventStarted per
// session, EventChord for every chord or rest as it sounds, and
// EventPlaybackEnded when the session finishes or is stopped.
//
// The channel is buffered (cap 64) and events are dropped when it is full.
// Only the most recent Watch() channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 64)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Session is the ID of the current or last session.
func (p *Player) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Close stops playback and releases the audio device.
func (p *Player) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	out := p.output
	p.output = nil
	p.mu.Unlock()
	if out != nil {
		return out.Close()
	}
	return nil
}
