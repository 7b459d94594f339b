package picker

import (
	"sort"
	"strings"
)

// Tuning lists open-string MIDI pitches from the lowest string up.
type Tuning [6]int

var tunings = map[string]Tuning{
	"standard":       {40, 45, 50, 55, 59, 64},
	"drop-d":         {38, 45, 50, 55, 59, 64},
	"half-step-down": {39, 44, 49, 54, 58, 63},
	"open-g":         {38, 43, 50, 55, 59, 62},
	"open-d":         {38, 45, 50, 54, 57, 62},
	"dadgad":         {38, 45, 50, 55, 57, 62},
}

func StandardTuning() Tuning {
	return tunings["standard"]
}

// LookupTuning returns a named preset. Names are case-insensitive and accept
// spaces or underscores in place of dashes.
func LookupTuning(name string) (Tuning, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	t, ok := tunings[key]
	return t, ok
}

func TuningNames() []string {
	names := make([]string, 0, len(tunings))
	for n := range tunings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether every string is a MIDI pitch that leaves room for
// twelve frets.
func (t Tuning) Valid() bool {
	for _, p := range t {
		if p < 0 || p+maxFret > 127 {
			return false
		}
	}
	return true
}
