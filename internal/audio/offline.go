package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/cbegin/chordsheet-go/internal/event"
)

// DefaultTail leaves room for releases after the last note off.
const DefaultTail = 2 * time.Second

// Render plays events through s without a device and returns interleaved
// stereo samples. Each event is applied at the sample frame nearest its
// timestamp; rendering stops at EndOfSong or the last event, plus tail.
func Render(s *Synth, events []event.Event, sampleRate int, tail time.Duration) ([]float32, error) {
	var out []float32
	frame := 0
	advance := func(to int) {
		if to <= frame {
			return
		}
		out = append(out, make([]float32, (to-frame)*2)...)
		s.Process(out[frame*2 : to*2])
		frame = to
	}
	for _, ev := range events {
		advance(int(math.Round(ev.Time * float64(sampleRate))))
		if ev.Type == event.EndOfSong {
			break
		}
		if err := s.Send(ev); err != nil {
			return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("render event at %.3fs", ev.Time)))
		}
	}
	s.Silence()
	advance(frame + int(tail.Seconds()*float64(sampleRate)))
	return out, nil
}

// EncodeWAV wraps float32 samples in a WAVE_FORMAT_IEEE_FLOAT file.
func EncodeWAV(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(v))
	}
	return out
}
