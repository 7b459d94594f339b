package theory

import (
	"sort"
	"strings"
)

// qualityIntervals is the curated chord table: semitones above the root in
// the order the tones are listed. The empty quality is the major triad.
var qualityIntervals = map[string][]int{
	"":        {0, 4, 7},
	"m":       {0, 3, 7},
	"dim":     {0, 3, 6},
	"aug":     {0, 4, 8},
	"5":       {0, 7},
	"b5":      {0, 4, 6},
	"sus2":    {0, 2, 7},
	"sus4":    {0, 5, 7},
	"6":       {0, 4, 7, 9},
	"m6":      {0, 3, 7, 9},
	"69":      {0, 4, 7, 9, 14},
	"m69":     {0, 3, 7, 9, 14},
	"add9":    {0, 4, 7, 14},
	"madd9":   {0, 3, 7, 14},
	"add2":    {0, 2, 4, 7},
	"add4":    {0, 4, 5, 7},
	"add11":   {0, 4, 7, 17},
	"madd11":  {0, 3, 7, 17},
	"add13":   {0, 4, 7, 21},
	"7":       {0, 4, 7, 10},
	"m7":      {0, 3, 7, 10},
	"maj7":    {0, 4, 7, 11},
	"mmaj7":   {0, 3, 7, 11},
	"dim7":    {0, 3, 6, 9},
	"m7b5":    {0, 3, 6, 10},
	"aug7":    {0, 4, 8, 10},
	"augmaj7": {0, 4, 8, 11},
	"7sus4":   {0, 5, 7, 10},
	"7sus2":   {0, 2, 7, 10},
	"7b5":     {0, 4, 6, 10},
	"7#5":     {0, 4, 8, 10},
	"7b9":     {0, 4, 7, 10, 13},
	"7#9":     {0, 4, 7, 10, 15},
	"7#11":    {0, 4, 7, 10, 18},
	"7b13":    {0, 4, 7, 10, 20},
	"7#5#9":   {0, 4, 8, 10, 15},
	"7b5b9":   {0, 4, 6, 10, 13},
	"7b9b13":  {0, 4, 7, 10, 13, 20},
	"7no3":    {0, 7, 10},
	"7no5":    {0, 4, 10},
	"maj7#11": {0, 4, 7, 11, 18},
	"maj7#5":  {0, 4, 8, 11},
	"m7#5":    {0, 3, 8, 10},
	"9":       {0, 4, 7, 10, 14},
	"m9":      {0, 3, 7, 10, 14},
	"maj9":    {0, 4, 7, 11, 14},
	"mmaj9":   {0, 3, 7, 11, 14},
	"9sus4":   {0, 5, 7, 10, 14},
	"9#11":    {0, 4, 7, 10, 14, 18},
	"9b5":     {0, 4, 6, 10, 14},
	"9#5":     {0, 4, 8, 10, 14},
	"11":      {0, 4, 7, 10, 14, 17},
	"m11":     {0, 3, 7, 10, 14, 17},
	"maj11":   {0, 4, 7, 11, 14, 17},
	"13":      {0, 4, 7, 10, 14, 21},
	"m13":     {0, 3, 7, 10, 14, 17, 21},
	"maj13":   {0, 4, 7, 11, 14, 21},
	"13b9":    {0, 4, 7, 10, 13, 21},
	"13#11":   {0, 4, 7, 10, 14, 18, 21},
	"13sus4":  {0, 5, 7, 10, 14, 21},
	// One fixed altered-dominant voicing: R 3 b7 b9 #9 b13.
	"7alt": {0, 4, 10, 13, 15, 20},
}

// Qualities lists the curated quality names in a stable order.
func Qualities() []string {
	out := make([]string, 0, len(qualityIntervals))
	for q := range qualityIntervals {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// buildIntervals composes intervals for qualities missing from the curated
// table: a base (m, maj, mmaj, dim, aug), an optional extension and any
// number of modifiers.
func buildIntervals(q string) ([]int, bool) {
	if iv, ok := qualityIntervals[q]; ok {
		return append([]int(nil), iv...), true
	}
	third, fifth, seventh := 4, 7, -1
	majSeventh := false
	rest := q
	switch {
	case strings.HasPrefix(rest, "mmaj"):
		third, majSeventh = 3, true
		rest = rest[4:]
	case strings.HasPrefix(rest, "maj"):
		majSeventh = true
		rest = rest[3:]
	case strings.HasPrefix(rest, "dim"):
		third, fifth = 3, 6
		rest = rest[3:]
		if strings.HasPrefix(rest, "7") {
			seventh = 9
			rest = rest[1:]
		}
	case strings.HasPrefix(rest, "aug"):
		fifth = 8
		rest = rest[3:]
	case strings.HasPrefix(rest, "m") && !strings.HasPrefix(rest, "maj"):
		third = 3
		rest = rest[1:]
	}

	extra := map[int]bool{}
	ext, rest := leadingExtension(rest)
	switch ext {
	case 0:
		if majSeventh && q != "maj" && !strings.HasPrefix(rest, "add") {
			seventh = 11
		}
	case 6:
		extra[9] = true
	case 69:
		extra[9], extra[14] = true, true
	case 7, 9, 11, 13:
		if seventh < 0 {
			seventh = 10
			if majSeventh {
				seventh = 11
			}
		}
		if ext >= 9 {
			extra[14] = true
		}
		if ext >= 11 && (ext == 11 || third == 3) {
			extra[17] = true
		}
		if ext == 13 {
			extra[21] = true
		}
	default:
		return nil, false
	}

	noThird, noFifth := false, false
	for rest != "" {
		mod, next, ok := nextModifier(rest)
		if !ok {
			return nil, false
		}
		rest = next
		switch mod {
		case "b5":
			fifth = 6
		case "#5":
			fifth = 8
		case "b9":
			delete(extra, 14)
			extra[13] = true
		case "#9":
			delete(extra, 14)
			extra[15] = true
		case "#11":
			delete(extra, 17)
			extra[18] = true
		case "b13":
			delete(extra, 21)
			extra[20] = true
		case "add9", "add2":
			if mod == "add2" {
				extra[2] = true
			} else {
				extra[14] = true
			}
		case "add11", "add4":
			if mod == "add4" {
				extra[5] = true
			} else {
				extra[17] = true
			}
		case "add13", "add6":
			if mod == "add6" {
				extra[9] = true
			} else {
				extra[21] = true
			}
		case "sus2":
			third = 2
		case "sus4", "sus":
			third = 5
		case "no3":
			noThird = true
		case "no5":
			noFifth = true
		}
	}

	out := []int{0}
	if !noThird {
		out = append(out, third)
	}
	if !noFifth {
		out = append(out, fifth)
	}
	if seventh >= 0 {
		out = append(out, seventh)
	}
	ups := make([]int, 0, len(extra))
	for iv := range extra {
		ups = append(ups, iv)
	}
	sort.Ints(ups)
	return append(out, ups...), true
}

func leadingExtension(s string) (int, string) {
	for _, ext := range []string{"69", "13", "11", "9", "7", "6"} {
		if strings.HasPrefix(s, ext) {
			switch ext {
			case "69":
				return 69, s[2:]
			case "13":
				return 13, s[2:]
			case "11":
				return 11, s[2:]
			case "9":
				return 9, s[1:]
			case "7":
				return 7, s[1:]
			case "6":
				return 6, s[1:]
			}
		}
	}
	return 0, s
}

var modifiers = []string{
	"add13", "add11", "add9", "add6", "add4", "add2",
	"sus2", "sus4", "sus",
	"b13", "#11", "b9", "#9", "b5", "#5",
	"no3", "no5",
}

func nextModifier(s string) (string, string, bool) {
	for _, m := range modifiers {
		if strings.HasPrefix(s, m) {
			return m, s[len(m):], true
		}
	}
	return "", s, false
}

// hasSeventh reports whether a folded quality already carries a seventh, so
// a parenthesized extension can be absorbed into it.
func hasSeventh(q string) bool {
	base := q
	if i := strings.Index(base, "add"); i >= 0 {
		base = base[:i]
	}
	base = strings.ReplaceAll(base, "69", "")
	for _, ext := range []string{"7", "9", "11", "13"} {
		if strings.Contains(base, ext) {
			return true
		}
	}
	return false
}
