package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/chordsheet-go/internal/errkind"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/picker"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chordsheet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)), 0o644))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestSampleMatchesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, Sample()))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
tempo: 96
time: 6/8
key: Bb
picker:
  kind: Guitar
  guitar:
    tuning: drop d
`))
	require.NoError(t, err)
	assert.Equal(t, 96.0, cfg.Tempo)
	assert.Equal(t, 90, cfg.Velocity)
	assert.Equal(t, picker.KindGuitar, cfg.Picker.Kind)
	assert.Equal(t, 4, cfg.Picker.Keyboard.ChordOctave)

	ts, err := cfg.TimeSignature()
	require.NoError(t, err)
	assert.Equal(t, event.TimeSignature{Beats: 6, Unit: 8}, ts)

	dropD, _ := picker.LookupTuning("drop-d")
	assert.Equal(t, dropD, cfg.Picker.Guitar.Tuning.Pitches)

	f, ok := cfg.NewPicker().(*picker.Fretted)
	require.True(t, ok)
	assert.Equal(t, dropD, f.Tuning())
}

func TestTuningAcceptsPitchList(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
picker:
  kind: guitar
  guitar:
    tuning: [38, 45, 50, 55, 59, 64]
`))
	require.NoError(t, err)
	assert.Equal(t, picker.Tuning{38, 45, 50, 55, 59, 64}, cfg.Picker.Guitar.Tuning.Pitches)
	assert.Equal(t, "[38 45 50 55 59 64]", cfg.Picker.Guitar.Tuning.String())

	out, err := yaml.Marshal(cfg.Picker.Guitar)
	require.NoError(t, err)
	assert.Contains(t, string(out), "- 38")
}

func TestTuningRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"unknown preset": "picker:\n  guitar:\n    tuning: banjo",
		"short list":     "picker:\n  guitar:\n    tuning: [40, 45, 50]",
		"mapping":        "picker:\n  guitar:\n    tuning: {low: 40}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errkind.Is(err, errkind.ConfigInvalid))
		})
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Tempo = 5
	cfg.Time = "3/5"
	cfg.Key = "Q"
	cfg.Notation = "klingon"
	cfg.Velocity = 200
	cfg.Picker.Kind = "banjo"
	cfg.Audio.Program = 128

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.ConfigInvalid))
	for _, want := range []string{"tempo", "time", "key", "notation", "velocity", "picker kind", "program"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNotationValue(t *testing.T) {
	cfg := Default()
	cfg.Notation = "German"
	assert.Equal(t, theory.NotationGerman, cfg.NotationValue())
}

func TestNewPickerDefaultsToKeyboard(t *testing.T) {
	_, ok := Default().NewPicker().(*picker.Keyboard)
	assert.True(t, ok)
}
