package theory

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSuggestDistance = 2

// Suggest proposes the closest resolvable spelling for an unresolvable
// absolute symbol, e.g. "Cmja7" -> "Cmaj7". It returns false when symbol
// already resolves or nothing is close enough.
func (r *Resolver) Suggest(symbol string) (string, bool) {
	sym := strings.TrimSpace(symbol)
	if _, err := r.resolveAbsolute(sym); err == nil {
		return "", false
	}
	main, bass := splitSlash(sym)
	s := foldUnicode(convertNotation(strings.Join(strings.Fields(main), ""), r.notation))
	letter, acc, rest, ok := splitNote(s)
	if !ok {
		return "", false
	}
	root := spellRoot(letter, acc)
	q := foldQualityAliases(rest)

	best, bestDist := "", maxSuggestDistance+1
	for _, cand := range Qualities() {
		d := levenshtein.ComputeDistance(q, cand)
		if d < bestDist || (d == bestDist && len(cand) < len(best)) {
			best, bestDist = cand, d
		}
	}
	if bestDist > maxSuggestDistance {
		return "", false
	}
	out := root + best
	if bass != "" {
		if b, err := r.normalizeNote(bass); err == nil {
			out += "/" + b
		}
	}
	return out, true
}
