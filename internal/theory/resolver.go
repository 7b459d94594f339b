// Package theory resolves chord symbols, in any of the supported spellings
// and notations, into note names.
package theory

import (
	"fmt"
	"strings"

	"github.com/cbegin/chordsheet-go/internal/errkind"
)

// Chord is a resolved chord symbol. Notes lists the chord tones root first;
// Bass is the root, a chord tone or an explicit slash bass.
type Chord struct {
	Symbol  string
	Name    string
	Root    string
	Quality string
	Notes   []string
	Bass    string
}

// PitchClasses returns the pitch classes of Notes in order.
func (c Chord) PitchClasses() []int {
	out := make([]int, 0, len(c.Notes))
	for _, n := range c.Notes {
		if pc, ok := PitchClass(n); ok {
			out = append(out, pc)
		}
	}
	return out
}

func (c Chord) RootPitchClass() int {
	pc, _ := PitchClass(c.Root)
	return pc
}

func (c Chord) BassPitchClass() int {
	if c.Bass == "" {
		return c.RootPitchClass()
	}
	pc, _ := PitchClass(c.Bass)
	return pc
}

// HasSlashBass reports whether the bass differs from the root.
func (c Chord) HasSlashBass() bool {
	return c.Bass != "" && c.BassPitchClass() != c.RootPitchClass()
}

// Resolver turns chord symbols into chords. It keeps no state between calls.
type Resolver struct {
	notation Notation
}

func NewResolver(n Notation) *Resolver {
	return &Resolver{notation: n}
}

// Resolve resolves symbol. Roman numerals (relative) are read against key;
// absolute symbols ignore it.
func (r *Resolver) Resolve(symbol, key string, relative bool) (Chord, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return Chord{}, invalid("empty chord symbol")
	}
	if relative {
		return r.resolveRoman(sym, key)
	}
	return r.resolveAbsolute(sym)
}

func (r *Resolver) resolveAbsolute(sym string) (Chord, error) {
	main, bass := splitSlash(strings.ReplaceAll(sym, "6/9", "69"))
	root, quality, err := r.normalize(main)
	if err != nil {
		return Chord{}, err
	}
	intervals, ok := buildIntervals(quality)
	if !ok {
		return Chord{}, invalid(fmt.Sprintf("unknown chord quality %q in %q", quality, sym))
	}
	rootPC, _ := PitchClass(root)
	flats := prefersFlats(root, isMinorSet(intervals))

	notes := make([]string, 0, len(intervals))
	seen := map[int]bool{}
	for i, iv := range intervals {
		pc := mod12(rootPC + iv)
		if seen[pc] {
			continue
		}
		seen[pc] = true
		if i == 0 {
			notes = append(notes, root)
			continue
		}
		notes = append(notes, NoteName(pc, flats))
	}

	c := Chord{
		Symbol:  sym,
		Name:    spell(root, quality),
		Root:    root,
		Quality: quality,
		Notes:   notes,
		Bass:    root,
	}
	if bass != "" {
		b, err := r.normalizeNote(bass)
		if err != nil {
			return Chord{}, err
		}
		bpc, _ := PitchClass(b)
		for i, pc := range c.PitchClasses() {
			if pc == bpc {
				b = c.Notes[i]
				break
			}
		}
		c.Bass = b
		c.Name += "/" + b
	}
	return c, nil
}

// normalize runs the folding steps on one side of a slash chord and returns
// the canonical root and quality.
func (r *Resolver) normalize(s string) (string, string, error) {
	s = strings.Join(strings.Fields(s), "")
	s = convertNotation(s, r.notation)
	s = foldUnicode(s)
	letter, acc, rest, ok := splitNote(s)
	if !ok {
		return "", "", invalid(fmt.Sprintf("unknown chord root in %q", s))
	}
	lowercase := s[0] >= 'a' && s[0] <= 'z'
	root := spellRoot(letter, acc)

	q := foldQualityAliases(rest)
	if lowercase && impliesMinor(q) {
		q = "m" + q
	}
	q = foldSymbols(q)
	q = foldParentheses(q)
	q = foldOmitAdd(q)
	return root, q, nil
}

func (r *Resolver) normalizeNote(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = convertNotation(s, r.notation)
	s = foldUnicode(s)
	letter, acc, rest, ok := splitNote(s)
	if !ok || rest != "" {
		return "", invalid(fmt.Sprintf("unknown bass note %q", s))
	}
	return spellRoot(letter, acc), nil
}

// splitSlash splits on the last "/" outside parentheses.
func splitSlash(s string) (string, string) {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func isMinorSet(intervals []int) bool {
	minor, major := false, false
	for _, iv := range intervals {
		switch iv {
		case 3:
			minor = true
		case 4:
			major = true
		}
	}
	return minor && !major
}

// IsNoChord reports whether symbol is a no-chord marker.
func IsNoChord(symbol string) bool {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "N.C.", "N.C", "NC", "N/C", "X":
		return true
	}
	return false
}

// spell joins root and quality. A quality led by an accidental is
// parenthesized so it cannot be read back as part of the root.
func spell(root, quality string) string {
	if quality != "" && (quality[0] == 'b' || quality[0] == '#') {
		return root + "(" + quality + ")"
	}
	return root + quality
}

func invalid(msg string) error {
	return errkind.New(errkind.ParseInvalid, msg)
}
