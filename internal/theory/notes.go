package theory

import (
	"strings"
)

// Notation selects how note letters in chord symbols are read.
type Notation int

const (
	NotationStandard Notation = iota
	NotationSolfege
	NotationGerman
)

func ParseNotation(s string) (Notation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "english":
		return NotationStandard, true
	case "solfege", "fixed-do", "latin":
		return NotationSolfege, true
	case "german":
		return NotationGerman, true
	}
	return NotationStandard, false
}

var letterPitch = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// enharmonicRoots folds root spellings that sit on a white key.
var enharmonicRoots = map[string]string{
	"Cb": "B", "E#": "F", "Fb": "E", "B#": "C",
}

// solfegeSyllables maps fixed-do syllables to letters, longest first. Do and
// Fa collide with standard spellings (Do7, Fadd9) and are only honored in
// solfege notation.
var solfegeSyllables = []struct {
	syllable  string
	letter    string
	ambiguous bool
}{
	{"sol", "G", false},
	{"do", "C", true},
	{"re", "D", false},
	{"mi", "E", false},
	{"fa", "F", true},
	{"la", "A", false},
	{"si", "B", false},
	{"ti", "B", false},
}

// PitchClass returns the pitch class of a note name such as "Bb" or "F#".
func PitchClass(name string) (int, bool) {
	letter, acc, rest, ok := splitNote(name)
	if !ok || rest != "" {
		return 0, false
	}
	return mod12(letterPitch[letter] + acc), true
}

// NoteName spells pitch class pc with sharps or flats.
func NoteName(pc int, flats bool) string {
	if flats {
		return flatNames[mod12(pc)]
	}
	return sharpNames[mod12(pc)]
}

// splitNote reads an uppercase or lowercase letter and up to two accidentals.
func splitNote(s string) (letter byte, acc int, rest string, ok bool) {
	if s == "" {
		return 0, 0, s, false
	}
	letter = upper(s[0])
	if _, known := letterPitch[letter]; !known {
		return 0, 0, s, false
	}
	i := 1
	for i < len(s) && i <= 2 {
		if s[i] == '#' {
			acc++
		} else if s[i] == 'b' {
			acc--
		} else {
			break
		}
		i++
	}
	return letter, acc, s[i:], true
}

// convertNotation rewrites a leading note name in an alternate notation into
// a standard letter spelling.
func convertNotation(s string, n Notation) string {
	lower := strings.ToLower(s)
	for _, syl := range solfegeSyllables {
		if !strings.HasPrefix(lower, syl.syllable) {
			continue
		}
		if syl.ambiguous && n != NotationSolfege {
			break
		}
		letter := syl.letter
		if s[0] >= 'a' && s[0] <= 'z' {
			letter = strings.ToLower(letter)
		}
		return letter + s[len(syl.syllable):]
	}
	if n == NotationGerman {
		return convertGerman(s)
	}
	return s
}

func convertGerman(s string) string {
	if s == "" {
		return s
	}
	head := s[0]
	rest := s[1:]
	switch upper(head) {
	case 'H':
		return keepCase(head, "B") + rest
	case 'B':
		if !strings.HasPrefix(rest, "b") && !strings.HasPrefix(rest, "#") {
			return keepCase(head, "B") + "b" + rest
		}
		return s
	}
	if _, ok := letterPitch[upper(head)]; !ok {
		return s
	}
	switch {
	case strings.HasPrefix(rest, "is"):
		return string(head) + "#" + rest[2:]
	case strings.HasPrefix(rest, "es"):
		return string(head) + "b" + rest[2:]
	case (upper(head) == 'A' || upper(head) == 'E') && strings.HasPrefix(rest, "s") && !strings.HasPrefix(rest, "sus"):
		return string(head) + "b" + rest[1:]
	}
	return s
}

func keepCase(orig byte, letter string) string {
	if orig >= 'a' && orig <= 'z' {
		return strings.ToLower(letter)
	}
	return letter
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func mod12(v int) int {
	v %= 12
	if v < 0 {
		v += 12
	}
	return v
}

// spellRoot renders letter+accidental in canonical form, folding the
// white-key enharmonics and double accidentals.
func spellRoot(letter byte, acc int) string {
	var name string
	switch acc {
	case 0:
		name = string(letter)
	case 1:
		name = string(letter) + "#"
	case -1:
		name = string(letter) + "b"
	default:
		pc := mod12(letterPitch[letter] + acc)
		return NoteName(pc, acc < 0)
	}
	if folded, ok := enharmonicRoots[name]; ok {
		return folded
	}
	return name
}

// prefersFlats picks the accidental direction used to spell chord tones.
func prefersFlats(root string, minor bool) bool {
	if strings.HasSuffix(root, "b") {
		return true
	}
	if strings.HasSuffix(root, "#") {
		return false
	}
	if root == "F" {
		return true
	}
	if minor {
		switch root {
		case "D", "G", "C":
			return true
		}
	}
	return false
}
