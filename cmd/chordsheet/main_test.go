package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveShowsGuitarShape(t *testing.T) {
	out, err := run(t, "", "resolve", "--picker", "guitar", "C", "G7")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "x32010")
	assert.Contains(t, lines[0], "notes C E G")
}

func TestResolveRomanNumeralsFollowKey(t *testing.T) {
	out, err := run(t, "", "resolve", "--key", "G", "V7")
	require.NoError(t, err)
	assert.Contains(t, out, "D7")
	assert.Contains(t, out, "notes D F# A C")
}

func TestResolveSuggestsSpelling(t *testing.T) {
	out, err := run(t, "", "resolve", "Cdimm7")
	require.Error(t, err)
	assert.Contains(t, out, "did you mean Cdim7?")
}

func TestCheckReportsProblems(t *testing.T) {
	out, err := run(t, "C Xyz {tempo: fast}\nG\n", "check", "-")
	require.Error(t, err)
	assert.Contains(t, out, "1:3:")
	assert.Contains(t, out, "3 chords, 2 problems")
	assert.Contains(t, out, `unknown chord root in "Xyz"`)
	assert.Contains(t, out, `bad tempo "fast"`)
	assert.NotContains(t, out, "<ftag>")

	out, err = run(t, "", "check", "--sheet", "C G {loop: A}")
	require.NoError(t, err)
	assert.Contains(t, out, "2 chords, 0 problems")
}

func TestEventsPrintsStream(t *testing.T) {
	out, err := run(t, "", "events", "--sheet", "C G")
	require.NoError(t, err)
	assert.Contains(t, out, "EndOfSong")
	assert.Contains(t, out, "5 events, 2 bars, 4 seconds")
}

func TestRenderWritesMIDI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	out, err := run(t, "", "render", "--sheet", "C G Am F", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "", "render", "--sheet", "C", "-o", filepath.Join(t.TempDir(), "song.txt"))
	assert.Error(t, err)
}

func TestPlayNeedsSoundFont(t *testing.T) {
	_, err := run(t, "", "play", "--sheet", "C")
	assert.Error(t, err)
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tempo: 60\n"), 0o644))
	out, err := run(t, "", "events", "--config", path, "--sheet", "C")
	require.NoError(t, err)
	assert.Contains(t, out, "4 seconds")

	out, err = run(t, "", "events", "--config", path, "--tempo", "240", "--sheet", "C")
	require.NoError(t, err)
	assert.Contains(t, out, "1 second")

	_, err = run(t, "", "events", "--tuning", "banjo", "--sheet", "C")
	assert.Error(t, err)
}

func TestConfigPrintsSample(t *testing.T) {
	out, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "picker:")
}
