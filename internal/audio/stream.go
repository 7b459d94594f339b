package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// OutputLatency is the device buffer. Chords reach the speaker this long
// after the consumer sends them.
const OutputLatency = 50 * time.Millisecond

// SampleSource fills dst with interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader pulls whole stereo frames from a SampleSource and encodes
// them as little-endian float32, the layout NewPlayerF32 reads. Samples are
// clamped to [-1, 1] since a six-note chord at full velocity can overshoot.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	frames []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

// Read fills as many whole frames as fit in p. A short p yields 0 bytes.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p) / 8 * 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.frames) < n {
		r.frames = make([]float32, n)
	}
	r.frames = r.frames[:n]
	r.source.Process(r.frames)
	for i, v := range r.frames {
		v = min(1, max(-1, v))
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}

func (r *StreamReader) Close() error { return nil }

// Output keeps the synthesizer audible for the life of a Player. The
// device runs continuously; pausing and stopping playback silence the
// synthesizer instead of the device.
type Output struct {
	once   sync.Once
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	deviceOnce sync.Once
	device     *ebitaudio.Context
	deviceRate int
)

// sharedDevice opens the process-wide ebiten context. It is fixed to the
// first sample rate asked for.
func sharedDevice(sampleRate int) (*ebitaudio.Context, error) {
	deviceOnce.Do(func() {
		deviceRate = sampleRate
		device = ebitaudio.NewContext(sampleRate)
	})
	if deviceRate != sampleRate {
		return nil, fault.New(fmt.Sprintf("audio device already open at %d Hz, audio.sample_rate is %d", deviceRate, sampleRate))
	}
	return device, nil
}

func NewOutput(sampleRate int, source SampleSource) (*Output, error) {
	dev, err := sharedDevice(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := dev.NewPlayerF32(reader)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open audio output"))
	}
	pl.SetBufferSize(OutputLatency)
	return &Output{player: pl, reader: reader}, nil
}

// Start begins pulling samples. Later calls do nothing.
func (o *Output) Start() {
	o.once.Do(o.player.Play)
}

func (o *Output) Close() error {
	if err := o.player.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close audio output"))
	}
	return o.reader.Close()
}
