// Package config loads playback settings from YAML.
//
// A missing file is not an error: every field has a default, and a file only
// needs to name what it changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/chordsheet-go/internal/errkind"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/picker"
	"github.com/cbegin/chordsheet-go/internal/scheduler"
	"github.com/cbegin/chordsheet-go/internal/sheet"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

const (
	DefaultBuffer     = 64
	DefaultSampleRate = 44100
)

const defaultConfigYAML = `# chordsheet configuration
tempo: 120
time: 4/4
key: C
# standard, german or solfege
notation: standard
velocity: 90
# events queued between the scheduler and playback
buffer: 64

picker:
  # keyboard or guitar
  kind: keyboard
  keyboard:
    chord_octave: 4
    bass_octave: 2
    add_bass: true
  guitar:
    # a preset name or six MIDI pitches, lowest string first
    tuning: standard

audio:
  soundfont: ""
  sample_rate: 44100
  # General MIDI program, -1 keeps the soundfont default
  program: 0
`

type KeyboardConfig struct {
	ChordOctave int  `yaml:"chord_octave"`
	BassOctave  int  `yaml:"bass_octave"`
	AddBass     bool `yaml:"add_bass"`
}

type GuitarConfig struct {
	Tuning Tuning `yaml:"tuning"`
}

type PickerConfig struct {
	Kind     picker.Kind    `yaml:"kind"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	Guitar   GuitarConfig   `yaml:"guitar"`
}

type AudioConfig struct {
	SoundFont  string `yaml:"soundfont"`
	SampleRate int    `yaml:"sample_rate"`
	Program    int    `yaml:"program"`
}

// Config models the YAML settings file.
type Config struct {
	Tempo    float64      `yaml:"tempo"`
	Time     string       `yaml:"time"`
	Key      string       `yaml:"key"`
	Notation string       `yaml:"notation"`
	Velocity int          `yaml:"velocity"`
	Buffer   int          `yaml:"buffer"`
	Picker   PickerConfig `yaml:"picker"`
	Audio    AudioConfig  `yaml:"audio"`
}

// Tuning is a guitar tuning that reads from YAML as either a preset name or
// a list of six open-string pitches.
type Tuning struct {
	Name    string
	Pitches picker.Tuning
}

func (t *Tuning) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		pitches, ok := picker.LookupTuning(node.Value)
		if !ok {
			return fmt.Errorf("line %d: unknown tuning %q (want one of %s)",
				node.Line, node.Value, strings.Join(picker.TuningNames(), ", "))
		}
		t.Name, t.Pitches = node.Value, pitches
		return nil
	case yaml.SequenceNode:
		var list []int
		if err := node.Decode(&list); err != nil {
			return err
		}
		if len(list) != len(t.Pitches) {
			return fmt.Errorf("line %d: tuning needs %d strings, got %d", node.Line, len(t.Pitches), len(list))
		}
		t.Name = ""
		copy(t.Pitches[:], list)
		return nil
	}
	return fmt.Errorf("line %d: tuning must be a name or a list", node.Line)
}

func (t Tuning) MarshalYAML() (any, error) {
	if t.Name != "" {
		return t.Name, nil
	}
	return t.Pitches[:], nil
}

func (t Tuning) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprint(t.Pitches[:])
}

func Default() Config {
	kb := picker.DefaultKeyboardConfig()
	return Config{
		Tempo:    scheduler.DefaultTempo,
		Time:     scheduler.DefaultTimeSig.String(),
		Key:      scheduler.DefaultKey,
		Notation: "standard",
		Velocity: scheduler.DefaultVelocity,
		Buffer:   DefaultBuffer,
		Picker: PickerConfig{
			Kind: picker.KindKeyboard,
			Keyboard: KeyboardConfig{
				ChordOctave: kb.ChordOctave,
				BassOctave:  kb.BassOctave,
				AddBass:     kb.AddBass,
			},
			Guitar: GuitarConfig{Tuning: Tuning{Name: "standard", Pitches: picker.StandardTuning()}},
		},
		Audio: AudioConfig{SampleRate: DefaultSampleRate},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fault.Wrap(err, fmsg.With("config: read "+path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errkind.Wrap(err, errkind.ConfigInvalid, "config: parse "+path)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sample returns a commented config file holding the defaults.
func Sample() string {
	return defaultConfigYAML
}

func (c *Config) normalize() {
	c.Key = strings.TrimSpace(c.Key)
	c.Time = strings.TrimSpace(c.Time)
	c.Picker.Kind = picker.Kind(strings.ToLower(strings.TrimSpace(string(c.Picker.Kind))))
	if c.Picker.Kind == "" {
		c.Picker.Kind = picker.KindKeyboard
	}
	if c.Buffer == 0 {
		c.Buffer = DefaultBuffer
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}
}

func (c Config) Validate() error {
	var problems []string
	if c.Tempo < sheet.MinTempo || c.Tempo > sheet.MaxTempo {
		problems = append(problems, fmt.Sprintf("tempo %v outside %v-%v", c.Tempo, sheet.MinTempo, sheet.MaxTempo))
	}
	if _, err := c.TimeSignature(); err != nil {
		problems = append(problems, fmt.Sprintf("time %q is not a valid signature", c.Time))
	}
	if _, _, ok := theory.ParseKey(c.Key); !ok {
		problems = append(problems, fmt.Sprintf("key %q is not a note name", c.Key))
	}
	if _, ok := theory.ParseNotation(c.Notation); !ok {
		problems = append(problems, fmt.Sprintf("notation %q is unknown", c.Notation))
	}
	if c.Velocity < 1 || c.Velocity > 127 {
		problems = append(problems, fmt.Sprintf("velocity %d outside 1-127", c.Velocity))
	}
	if c.Buffer < 1 {
		problems = append(problems, fmt.Sprintf("buffer %d must be positive", c.Buffer))
	}
	switch c.Picker.Kind {
	case picker.KindKeyboard, picker.KindGuitar:
	default:
		problems = append(problems, fmt.Sprintf("picker kind %q is unknown", c.Picker.Kind))
	}
	if kb := c.Picker.Keyboard; kb.ChordOctave < 1 || kb.ChordOctave > 8 || kb.BassOctave < 0 || kb.BassOctave > kb.ChordOctave {
		problems = append(problems, fmt.Sprintf("keyboard octaves %d/%d out of range", kb.ChordOctave, kb.BassOctave))
	}
	if !c.Picker.Guitar.Tuning.Pitches.Valid() {
		problems = append(problems, fmt.Sprintf("tuning %s is out of MIDI range", c.Picker.Guitar.Tuning))
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		problems = append(problems, fmt.Sprintf("sample rate %d out of range", c.Audio.SampleRate))
	}
	if c.Audio.Program < -1 || c.Audio.Program > 127 {
		problems = append(problems, fmt.Sprintf("program %d outside -1..127", c.Audio.Program))
	}
	if len(problems) == 0 {
		return nil
	}
	return errkind.New(errkind.ConfigInvalid, "config: "+strings.Join(problems, "; "))
}

func (c Config) TimeSignature() (event.TimeSignature, error) {
	return sheet.ParseTimeSignature(c.Time)
}

func (c Config) NotationValue() theory.Notation {
	n, _ := theory.ParseNotation(c.Notation)
	return n
}

// NewPicker builds the configured picker.
func (c Config) NewPicker() picker.Picker {
	if c.Picker.Kind == picker.KindGuitar {
		return picker.NewFretted(picker.FrettedConfig{Tuning: c.Picker.Guitar.Tuning.Pitches})
	}
	kb := c.Picker.Keyboard
	return picker.NewKeyboard(picker.KeyboardConfig{
		ChordOctave: kb.ChordOctave,
		BassOctave:  kb.BassOctave,
		AddBass:     kb.AddBass,
	})
}
