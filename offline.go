package chordsheet

import (
	"context"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cbegin/chordsheet-go/internal/audio"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/midifile"
	"github.com/cbegin/chordsheet-go/internal/scheduler"
	"github.com/cbegin/chordsheet-go/internal/sheet"
)

// Rendering is a song scheduled without real-time pacing.
type Rendering struct {
	Events    []event.Event
	TotalBars int
}

// Duration is the time of the last event in seconds.
func (r Rendering) Duration() float64 {
	if len(r.Events) == 0 {
		return 0
	}
	return r.Events[len(r.Events)-1].Time
}

// RenderEvents schedules song as fast as possible. WithSink and WithClock
// are ignored.
func RenderEvents(ctx context.Context, song sheet.Song, opts ...PlayerOption) (Rendering, error) {
	return render(ctx, song, newPlayerConfig(opts))
}

func render(ctx context.Context, song sheet.Song, pc playerConfig) (Rendering, error) {
	if err := pc.cfg.Validate(); err != nil {
		return Rendering{}, err
	}
	schedOpts, err := pc.schedulerOptions(pc.log())
	if err != nil {
		return Rendering{}, err
	}
	sched := scheduler.New(song, schedOpts)
	evs, err := sched.Events(ctx)
	if err != nil {
		return Rendering{}, err
	}
	return Rendering{Events: evs, TotalBars: sched.TotalBars()}, nil
}

// WriteMIDI renders song to a Standard MIDI File on out. The configured
// audio program becomes the file's program change.
func WriteMIDI(ctx context.Context, out io.Writer, song sheet.Song, opts ...PlayerOption) error {
	r, err := RenderEvents(ctx, song, opts...)
	if err != nil {
		return err
	}
	return r.WriteMIDI(out, opts...)
}

// WriteWAV renders song through the configured SoundFont into a 32-bit
// float stereo WAV file on out.
func WriteWAV(ctx context.Context, out io.Writer, song sheet.Song, opts ...PlayerOption) error {
	r, err := RenderEvents(ctx, song, opts...)
	if err != nil {
		return err
	}
	return r.WriteWAV(out, opts...)
}

// WriteMIDI encodes the already scheduled events. Only the audio program
// of the configuration is used.
func (r Rendering) WriteMIDI(out io.Writer, opts ...PlayerOption) error {
	pc := newPlayerConfig(opts)
	mo := midifile.DefaultOptions()
	mo.Program = pc.cfg.Audio.Program
	return midifile.Write(out, r.Events, mo)
}

// WriteWAV plays the already scheduled events through the configured
// SoundFont.
func (r Rendering) WriteWAV(out io.Writer, opts ...PlayerOption) error {
	pc := newPlayerConfig(opts)
	if pc.cfg.Audio.SoundFont == "" {
		return fault.New("wav rendering needs audio.soundfont")
	}
	sf, err := audio.LoadSoundFont(pc.cfg.Audio.SoundFont)
	if err != nil {
		return err
	}
	rate := pc.cfg.Audio.SampleRate
	synth, err := audio.NewSynth(sf, rate, pc.cfg.Audio.Program)
	if err != nil {
		return err
	}
	samples, err := audio.Render(synth, r.Events, rate, audio.DefaultTail)
	if err != nil {
		return err
	}
	if _, err := out.Write(audio.EncodeWAV(samples, rate, 2)); err != nil {
		return fault.Wrap(err, fmsg.With("write wav"))
	}
	return nil
}
