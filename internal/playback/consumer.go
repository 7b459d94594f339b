// Package playback drains the event buffer in real time and hands each event
// to a sink when it falls due.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cbegin/chordsheet-go/internal/buffer"
	"github.com/cbegin/chordsheet-go/internal/event"
)

const (
	defaultPopWait = 50 * time.Millisecond
	// maxSleep bounds a single wait so pause and stop stay responsive.
	maxSleep = 20 * time.Millisecond
)

// Sink receives events in timestamp order on the consumer goroutine.
type Sink interface {
	Send(ev event.Event) error
}

type SinkFunc func(ev event.Event) error

func (f SinkFunc) Send(ev event.Event) error { return f(ev) }

// Silencer is implemented by sinks that can cut sounding notes, which the
// consumer does on pause and on exit.
type Silencer interface {
	Silence()
}

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func RealClock() Clock { return realClock{} }

type Options struct {
	Clock   Clock
	PopWait time.Duration
	Logger  *slog.Logger
	// OnEvent runs after each successful Send.
	OnEvent func(event.Event)
}

// Consumer pops events and releases them to the sink at their timestamps.
// Pausing only stops the consumer; the producer keeps filling the buffer.
type Consumer struct {
	buf     *buffer.Buffer[event.Event]
	sink    Sink
	clock   Clock
	popWait time.Duration
	log     *slog.Logger
	onEvent func(event.Event)

	mu         sync.Mutex
	paused     bool
	pauseStart time.Time
	pausedFor  time.Duration
	resumed    chan struct{}
}

func New(buf *buffer.Buffer[event.Event], sink Sink, opts Options) *Consumer {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.PopWait <= 0 {
		opts.PopWait = defaultPopWait
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Consumer{
		buf:     buf,
		sink:    sink,
		clock:   opts.Clock,
		popWait: opts.PopWait,
		log:     opts.Logger,
		onEvent: opts.OnEvent,
	}
}

func (c *Consumer) Pause() {
	c.mu.Lock()
	if c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = true
	c.pauseStart = c.clock.Now()
	c.resumed = make(chan struct{})
	c.mu.Unlock()
	c.silence()
}

func (c *Consumer) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.pausedFor += c.clock.Now().Sub(c.pauseStart)
	close(c.resumed)
}

func (c *Consumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Run consumes until EndOfSong, until the buffer is closed and drained, or
// until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.silence()
	start := c.clock.Now()
	for {
		if err := c.waitWhilePaused(ctx); err != nil {
			return err
		}
		ev, ok := c.buf.Pop(c.popWait)
		if !ok {
			if c.buf.Closed() && c.buf.Len() == 0 {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if err := c.waitUntil(ctx, start, ev.Time); err != nil {
			return err
		}
		if err := c.sink.Send(ev); err != nil {
			return fault.Wrap(err, fmsg.With("sink rejected "+ev.Type.String()))
		}
		if c.onEvent != nil {
			c.onEvent(ev)
		}
		if ev.Type == event.EndOfSong {
			c.log.Debug("playback finished", "at", ev.Time)
			return nil
		}
	}
}

func (c *Consumer) waitUntil(ctx context.Context, start time.Time, at float64) error {
	offset := time.Duration(at * float64(time.Second))
	for {
		if err := c.waitWhilePaused(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		due := start.Add(offset + c.pausedFor)
		c.mu.Unlock()
		d := due.Sub(c.clock.Now())
		if d <= 0 {
			return nil
		}
		select {
		case <-c.clock.After(min(d, maxSleep)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) waitWhilePaused(ctx context.Context) error {
	for {
		c.mu.Lock()
		paused, resumed := c.paused, c.resumed
		c.mu.Unlock()
		if !paused {
			return ctx.Err()
		}
		select {
		case <-resumed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) silence() {
	if s, ok := c.sink.(Silencer); ok {
		s.Silence()
	}
}
