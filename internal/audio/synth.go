// Package audio renders the event stream through a SoundFont synthesizer and
// plays it on the system audio device.
package audio

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/cbegin/chordsheet-go/internal/event"
)

const (
	DefaultSampleRate = 44100
	// renderBlock matches meltysynth's internal effect block size.
	renderBlock = 1024
	channel     = 0
	programMsg  = 0xC0
)

// synthesizer is the part of meltysynth.Synthesizer the sink drives.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// newSynthesizer is swapped out in tests.
var newSynthesizer = func(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (synthesizer, error) {
	return meltysynth.NewSynthesizer(sf, settings)
}

func LoadSoundFont(path string) (*meltysynth.SoundFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read soundfont"))
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse soundfont "+path))
	}
	return sf, nil
}

// Synth is both the event sink and the sample source: the consumer
// goroutine sends note events while the audio thread renders.
type Synth struct {
	mu     sync.Mutex
	syn    synthesizer
	active map[int]int
	left   []float32
	right  []float32
}

func NewSynth(sf *meltysynth.SoundFont, sampleRate, program int) (*Synth, error) {
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	settings.BlockSize = renderBlock
	syn, err := newSynthesizer(sf, settings)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create synthesizer"))
	}
	if program >= 0 && program <= 127 {
		syn.ProcessMidiMessage(channel, programMsg, int32(program), 0)
	}
	return &Synth{syn: syn, active: map[int]int{}}, nil
}

func (s *Synth) Send(ev event.Event) error {
	for _, n := range ev.Notes {
		if n < 0 || n > 127 {
			return fault.New(fmt.Sprintf("key %d outside the MIDI range", n))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Type {
	case event.NoteOn:
		for _, n := range ev.Notes {
			s.syn.NoteOn(channel, int32(n), int32(ev.Velocity))
			s.active[n]++
		}
	case event.NoteOff:
		for _, n := range ev.Notes {
			if s.active[n] == 0 {
				continue
			}
			s.syn.NoteOff(channel, int32(n))
			if s.active[n]--; s.active[n] == 0 {
				delete(s.active, n)
			}
		}
	}
	return nil
}

// Silence releases every sounding key.
func (s *Synth) Silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n := range s.active {
		s.syn.NoteOff(channel, int32(n))
		delete(s.active, n)
	}
}

func (s *Synth) Process(dst []float32) {
	frames := len(dst) / 2
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	left, right := s.left[:frames], s.right[:frames]
	s.syn.Render(left, right)
	for i := 0; i < frames; i++ {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
}
