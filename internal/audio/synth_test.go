package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/chordsheet-go/internal/event"
)

type noteAction struct {
	key int
	vel int
	on  bool
}

type mockSynth struct {
	programs []int32
	events   []noteAction
	at       []int
	rendered int
}

func (m *mockSynth) ProcessMidiMessage(channel int32, command int32, data1, data2 int32) {
	if command == programMsg {
		m.programs = append(m.programs, data1)
	}
}

func (m *mockSynth) NoteOn(channel, key, vel int32) {
	m.events = append(m.events, noteAction{key: int(key), vel: int(vel), on: true})
	m.at = append(m.at, m.rendered)
}

func (m *mockSynth) NoteOff(channel, key int32) {
	m.events = append(m.events, noteAction{key: int(key)})
	m.at = append(m.at, m.rendered)
}

func (m *mockSynth) Render(left, right []float32) {
	for i := range left {
		left[i] = 0.25
		right[i] = -0.5
	}
	m.rendered += len(left)
}

func withMock(t *testing.T) *mockSynth {
	t.Helper()
	ms := &mockSynth{}
	orig := newSynthesizer
	newSynthesizer = func(*meltysynth.SoundFont, *meltysynth.SynthesizerSettings) (synthesizer, error) {
		return ms, nil
	}
	t.Cleanup(func() { newSynthesizer = orig })
	return ms
}

func TestSynthSendsProgramOnCreate(t *testing.T) {
	ms := withMock(t)
	_, err := NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, 24)
	require.NoError(t, err)
	assert.Equal(t, []int32{24}, ms.programs)

	ms = withMock(t)
	_, err = NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, -1)
	require.NoError(t, err)
	assert.Empty(t, ms.programs)
}

func TestSynthCreateError(t *testing.T) {
	orig := newSynthesizer
	t.Cleanup(func() { newSynthesizer = orig })
	boom := errors.New("bad font")
	newSynthesizer = func(*meltysynth.SoundFont, *meltysynth.SynthesizerSettings) (synthesizer, error) {
		return nil, boom
	}
	_, err := NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, 0)
	assert.ErrorIs(t, err, boom)
}

func TestSynthNoteOnOff(t *testing.T) {
	ms := withMock(t)
	s, err := NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, -1)
	require.NoError(t, err)

	require.NoError(t, s.Send(event.Event{Type: event.NoteOn, Notes: []int{48, 52}, Velocity: 90}))
	require.NoError(t, s.Send(event.Event{Type: event.Rest}))
	require.NoError(t, s.Send(event.Event{Type: event.NoteOff, Notes: []int{48, 52, 71}}))

	assert.Equal(t, []noteAction{
		{key: 48, vel: 90, on: true},
		{key: 52, vel: 90, on: true},
		{key: 48},
		{key: 52},
	}, ms.events, "keys never struck are not released")
}

func TestSynthSilenceReleasesHeldKeys(t *testing.T) {
	ms := withMock(t)
	s, err := NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, -1)
	require.NoError(t, err)

	require.NoError(t, s.Send(event.Event{Type: event.NoteOn, Notes: []int{60}, Velocity: 80}))
	s.Silence()
	s.Silence()
	require.Len(t, ms.events, 2)
	assert.Equal(t, noteAction{key: 60}, ms.events[1])

	require.NoError(t, s.Send(event.Event{Type: event.NoteOff, Notes: []int{60}}))
	assert.Len(t, ms.events, 2)
}

func TestStreamReaderInterleavesFrames(t *testing.T) {
	ms := withMock(t)
	s, err := NewSynth(&meltysynth.SoundFont{}, DefaultSampleRate, -1)
	require.NoError(t, err)

	r := NewStreamReader(s)
	p := make([]byte, 8*16+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 8*16, n)
	assert.Equal(t, 16, ms.rendered)

	left := math.Float32frombits(binary.LittleEndian.Uint32(p[0:]))
	right := math.Float32frombits(binary.LittleEndian.Uint32(p[4:]))
	assert.Equal(t, float32(0.25), left)
	assert.Equal(t, float32(-0.5), right)

	n, err = r.Read(make([]byte, 7))
	require.NoError(t, err)
	assert.Zero(t, n)
}

type loudSource struct{}

func (loudSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = 3
		if i%2 == 1 {
			dst[i] = -3
		}
	}
}

func TestStreamReaderClampsSamples(t *testing.T) {
	p := make([]byte, 8)
	n, err := NewStreamReader(loudSource{}).Read(p)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(p[0:])))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(p[4:])))
}

func TestRenderAppliesEventsAtTheirFrames(t *testing.T) {
	ms := withMock(t)
	s, err := NewSynth(&meltysynth.SoundFont{}, 1000, -1)
	require.NoError(t, err)

	evs := []event.Event{
		{Time: 0, Type: event.NoteOn, Notes: []int{60}, Velocity: 90},
		{Time: 0.25, Type: event.NoteOff, Notes: []int{60}},
		{Time: 0.25, Type: event.NoteOn, Notes: []int{67}, Velocity: 90},
		{Time: 0.5, Type: event.EndOfSong},
		{Time: 0.9, Type: event.NoteOn, Notes: []int{72}, Velocity: 90},
	}
	out, err := Render(s, evs, 1000, 100*time.Millisecond)
	require.NoError(t, err)

	assert.Len(t, out, 600*2)
	assert.Equal(t, 600, ms.rendered)
	assert.Equal(t, []int{0, 250, 250, 500}, ms.at, "held note released at end of song")
	assert.Equal(t, noteAction{key: 67}, ms.events[3])
	assert.Equal(t, float32(0.25), out[len(out)-2])
}

func TestRenderStopsOnBadKey(t *testing.T) {
	withMock(t)
	s, err := NewSynth(&meltysynth.SoundFont{}, 1000, -1)
	require.NoError(t, err)

	_, err = Render(s, []event.Event{
		{Time: 0, Type: event.NoteOn, Notes: []int{60, 130}, Velocity: 90},
	}, 1000, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key 130")
}

func TestEncodeWAVHeader(t *testing.T) {
	wav := EncodeWAV([]float32{0.5, -0.5, 1, -1}, 48000, 2)
	require.Len(t, wav, 44+16)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(wav[20:]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[24:]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(wav[44+12:])))
}
