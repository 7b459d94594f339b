package theory

import (
	"fmt"
	"regexp"
	"strings"
)

var romanPattern = regexp.MustCompile(`^([b#]?)(VII|VI|V|IV|III|II|I|vii|vi|v|iv|iii|ii|i)(°|dim|o|ø|\+)?(.*)$`)

var romanBassPattern = regexp.MustCompile(`^([b#]?)(VII|VI|V|IV|III|II|I|vii|vi|v|iv|iii|ii|i)$`)

// degreeSemitones is the major scale by numeral.
var degreeSemitones = map[string]int{
	"I": 0, "II": 2, "III": 4, "IV": 5, "V": 7, "VI": 9, "VII": 11,
}

// IsRoman reports whether symbol is written as a roman-numeral degree.
func IsRoman(symbol string) bool {
	main, _ := splitSlash(foldUnicode(strings.TrimSpace(symbol)))
	m := romanPattern.FindStringSubmatch(main)
	if m == nil {
		return false
	}
	// "vi" alone is a numeral; "VIm" too. Reject matches whose tail starts
	// with a letter that would make the whole token a word.
	tail := m[4]
	return tail == "" || !isWordStart(tail[0])
}

func isWordStart(c byte) bool {
	switch c {
	case 'm', 'a', 'd', 's', 'n', 'o', 'M', 'b':
		return false
	}
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ParseKey reads a key name such as "G", "Bb", "F#m" or "A minor".
func ParseKey(key string) (pc int, flats bool, ok bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, false, true
	}
	key = foldUnicode(key)
	letter, acc, rest, found := splitNote(key)
	if !found {
		return 0, false, false
	}
	minor := key[0] >= 'a' && key[0] <= 'z'
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "", "maj", "major":
	case "m", "min", "minor":
		minor = true
	default:
		if rest != "M" {
			return 0, false, false
		}
	}
	root := spellRoot(letter, acc)
	pc, _ = PitchClass(root)
	return pc, prefersFlats(root, minor), true
}

func (r *Resolver) resolveRoman(sym, key string) (Chord, error) {
	keyPC, flats, ok := ParseKey(key)
	if !ok {
		return Chord{}, invalid(fmt.Sprintf("unknown key %q for %q", key, sym))
	}
	main, bass := splitSlash(foldUnicode(sym))
	m := romanPattern.FindStringSubmatch(main)
	if m == nil {
		return Chord{}, invalid(fmt.Sprintf("not a roman numeral chord: %q", sym))
	}
	accidental, numeral, marker, quality := m[1], m[2], m[3], m[4]
	lowercase := numeral == strings.ToLower(numeral)
	rootPC := keyPC + degreeSemitones[strings.ToUpper(numeral)] + accidentalOffset(accidental)

	switch marker {
	case "°", "o", "dim":
		if strings.HasPrefix(quality, "7") {
			quality = "dim7" + quality[1:]
		} else {
			quality = "dim" + quality
		}
	case "ø":
		quality = "m7b5" + strings.TrimPrefix(quality, "7")
	case "+":
		quality = "aug" + quality
	default:
		if lowercase && impliesMinor(quality) {
			quality = "m" + quality
		}
	}

	abs := spell(NoteName(rootPC, flats || accidental == "b"), quality)
	if bass != "" {
		if bm := romanBassPattern.FindStringSubmatch(bass); bm != nil {
			bpc := keyPC + degreeSemitones[strings.ToUpper(bm[2])] + accidentalOffset(bm[1])
			bass = NoteName(bpc, flats || bm[1] == "b")
		}
		abs += "/" + bass
	}
	c, err := r.resolveAbsolute(abs)
	if err != nil {
		return Chord{}, err
	}
	c.Symbol = sym
	return c, nil
}

func accidentalOffset(a string) int {
	switch a {
	case "b":
		return -1
	case "#":
		return 1
	}
	return 0
}
