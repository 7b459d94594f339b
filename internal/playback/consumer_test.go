package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/chordsheet-go/internal/buffer"
	"github.com/cbegin/chordsheet-go/internal/event"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After advances virtual time immediately.
func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type recordingSink struct {
	mu       sync.Mutex
	clock    Clock
	start    time.Time
	events   []event.Event
	at       []time.Duration
	silenced int
	err      error
}

func (r *recordingSink) Send(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	r.at = append(r.at, r.clock.Now().Sub(r.start))
	return nil
}

func (r *recordingSink) Silence() {
	r.mu.Lock()
	r.silenced++
	r.mu.Unlock()
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func filled(t *testing.T, evs ...event.Event) *buffer.Buffer[event.Event] {
	t.Helper()
	buf := buffer.New[event.Event](len(evs) + 1)
	for _, ev := range evs {
		ok, err := buf.Push(ev, 0)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return buf
}

func TestConsumerPacesEventsToTimestamps(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{clock: clock, start: clock.Now()}
	buf := filled(t,
		event.Event{Time: 0, Type: event.NoteOn, Notes: []int{60}},
		event.Event{Time: 1, Type: event.NoteOff, Notes: []int{60}},
		event.Event{Time: 1, Type: event.NoteOn, Notes: []int{67}},
		event.Event{Time: 3, Type: event.NoteOff, Notes: []int{67}},
		event.Event{Time: 3, Type: event.EndOfSong},
	)

	var seen int
	c := New(buf, sink, Options{Clock: clock, OnEvent: func(event.Event) { seen++ }})
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, sink.events, 5)
	want := []time.Duration{0, time.Second, time.Second, 3 * time.Second, 3 * time.Second}
	assert.Equal(t, want, sink.at)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 1, sink.silenced, "silenced once on exit")
}

func TestConsumerStopsAtEndOfSong(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{clock: clock, start: clock.Now()}
	buf := filled(t,
		event.Event{Time: 0, Type: event.EndOfSong},
		event.Event{Time: 1, Type: event.NoteOn},
	)
	require.NoError(t, New(buf, sink, Options{Clock: clock}).Run(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, buf.Len())
}

func TestConsumerReturnsWhenBufferClosedAndDrained(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{clock: clock, start: clock.Now()}
	buf := filled(t, event.Event{Time: 0.5, Type: event.Rest})
	buf.Close()
	require.NoError(t, New(buf, sink, Options{Clock: clock}).Run(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestConsumerHonoursCancel(t *testing.T) {
	buf := buffer.New[event.Event](2)
	sink := &recordingSink{clock: RealClock(), start: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(buf, sink, Options{PopWait: 5 * time.Millisecond}).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer ignored cancel")
	}
}

func TestConsumerPauseHoldsEvents(t *testing.T) {
	buf := filled(t, event.Event{Time: 0, Type: event.NoteOn}, event.Event{Time: 0, Type: event.EndOfSong})
	sink := &recordingSink{clock: RealClock(), start: time.Now()}
	c := New(buf, sink, Options{})
	c.Pause()
	require.True(t, c.Paused())
	assert.Equal(t, 1, sink.silenced)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, sink.count())

	c.Resume()
	assert.False(t, c.Paused())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not resume")
	}
	assert.Equal(t, 2, sink.count())
}

func TestConsumerReportsSinkErrors(t *testing.T) {
	clock := newFakeClock()
	boom := errors.New("device gone")
	sink := &recordingSink{clock: clock, err: boom}
	buf := filled(t, event.Event{Time: 0, Type: event.NoteOn})
	err := New(buf, sink, Options{Clock: clock}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSinkFunc(t *testing.T) {
	var got event.Type
	s := SinkFunc(func(ev event.Event) error { got = ev.Type; return nil })
	require.NoError(t, s.Send(event.Event{Type: event.Rest}))
	assert.Equal(t, event.Rest, got)
}
