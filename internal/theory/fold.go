package theory

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// glyphs folds accidental and dash glyphs into ASCII. Applied after NFKC so
// full-width letters and superscript digits are already plain.
var glyphs = strings.NewReplacer(
	"♭", "b",
	"♯", "#",
	"♮", "",
	"𝄫", "bb",
	"𝄪", "##",
	"−", "-",
	"–", "-",
	"—", "-",
)

var deltaGlyphs = []string{"Δ", "∆", "△", "^"}

func foldUnicode(s string) string {
	s = norm.NFKC.String(s)
	s = glyphs.Replace(s)
	for _, d := range deltaGlyphs {
		for {
			i := strings.Index(s, d)
			if i < 0 {
				break
			}
			tail := s[i+len(d):]
			repl := "maj7"
			if tail != "" && isDigit(tail[0]) {
				repl = "maj"
			}
			s = s[:i] + repl + tail
		}
	}
	return s
}

// foldQualityAliases rewrites alternative quality spellings into the
// canonical abbreviations used by the interval table.
func foldQualityAliases(q string) string {
	switch {
	case strings.HasPrefix(q, "Maj"), strings.HasPrefix(q, "MAJ"):
		q = "maj" + q[3:]
	case strings.HasPrefix(q, "maj"):
	case strings.HasPrefix(q, "ma") && !strings.HasPrefix(q, "madd"):
		q = "maj" + q[2:]
	case q == "M":
		q = ""
	case strings.HasPrefix(q, "M"):
		if len(q) > 1 && isDigit(q[1]) {
			q = "maj" + q[1:]
		} else {
			q = q[1:]
		}
	case strings.HasPrefix(q, "min"):
		q = "m" + q[3:]
	case strings.HasPrefix(q, "mi"):
		q = "m" + q[2:]
	case strings.HasPrefix(q, "-"):
		q = "m" + q[1:]
	case strings.HasPrefix(q, "dom"):
		rest := q[3:]
		if rest == "" || !isDigit(rest[0]) {
			rest = "7" + rest
		}
		q = rest
	}
	q = foldMinorMajor(q)
	q = foldInlineAlterations(q)
	switch q {
	case "alt", "7alt", "alt7":
		return "7alt"
	}
	return q
}

// foldMinorMajor spells a major seventh after the minor marker as "maj",
// so "mMaj7" and "mM7" read as "mmaj7".
func foldMinorMajor(q string) string {
	if !strings.HasPrefix(q, "m") {
		return q
	}
	rest := q[1:]
	switch {
	case strings.HasPrefix(rest, "Maj"), strings.HasPrefix(rest, "MAJ"):
		return "mmaj" + rest[3:]
	case len(rest) > 1 && rest[0] == 'M' && isDigit(rest[1]):
		return "mmaj" + rest[1:]
	}
	return q
}

// foldInlineAlterations turns "7-9" and "7+5" into "7b9" and "7#5". A
// leading sign is a quality marker and is left alone.
func foldInlineAlterations(q string) string {
	if len(q) < 2 {
		return q
	}
	b := []byte(q)
	for i := 1; i+1 < len(b); i++ {
		if !isDigit(b[i+1]) {
			continue
		}
		switch b[i] {
		case '-':
			b[i] = 'b'
		case '+':
			b[i] = '#'
		}
	}
	return string(b)
}

// impliesMinor reports whether a lowercase root should read as minor for
// quality q. Explicit qualities and power chords keep their meaning.
func impliesMinor(q string) bool {
	if q == "" {
		return true
	}
	if strings.HasPrefix(q, "5") {
		return false
	}
	return isDigit(q[0]) || strings.HasPrefix(q, "add") || strings.HasPrefix(q, "(")
}

func foldSymbols(q string) string {
	switch {
	case strings.HasPrefix(q, "°"):
		return "dim" + q[len("°"):]
	case strings.HasPrefix(q, "o") && !strings.HasPrefix(q, "omit"):
		return "dim" + q[1:]
	case strings.HasPrefix(q, "ø"), strings.HasPrefix(q, "Ø"):
		rest := q[len("ø"):]
		return "m7b5" + strings.TrimPrefix(rest, "7")
	case strings.HasPrefix(q, "+"):
		return "aug" + q[1:]
	case strings.HasPrefix(q, "m°"), strings.HasPrefix(q, "mø"):
		return foldSymbols(q[1:])
	}
	return q
}

// foldParentheses absorbs "(…)" groups. A quality that already carries a
// seventh takes a plain extension directly (7(9) -> 9); otherwise a plain
// number becomes an added tone (m(9) -> madd9).
func foldParentheses(q string) string {
	if !strings.Contains(q, "(") {
		return q
	}
	var base strings.Builder
	var inner []string
	depth := 0
	var cur strings.Builder
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
				inner = append(inner, cur.String())
				cur.Reset()
			}
		case depth > 0:
			cur.WriteByte(c)
		default:
			base.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		inner = append(inner, cur.String())
	}

	q = base.String()
	var mods strings.Builder
	for _, group := range inner {
		for _, tok := range strings.FieldsFunc(group, func(r rune) bool {
			return r == ',' || r == ' ' || r == '/'
		}) {
			tok = strings.Replace(tok, "omit", "no", 1)
			switch {
			case tok == "maj7":
				q += "maj7"
			case isNumber(tok):
				switch {
				case tok == "9" && strings.HasSuffix(q, "6"):
					q += "9"
				case hasSeventh(q):
					q = upgradeExtension(q, tok)
				default:
					mods.WriteString("add" + tok)
				}
			default:
				mods.WriteString(tok)
			}
		}
	}
	return q + mods.String()
}

// upgradeExtension replaces the seventh-bearing extension of q with ext when
// ext is higher.
func upgradeExtension(q, ext string) string {
	for i := 0; i < len(q); i++ {
		if !isDigit(q[i]) {
			continue
		}
		j := i
		for j < len(q) && isDigit(q[j]) {
			j++
		}
		cur := q[i:j]
		if i > 0 && (q[i-1] == 'b' || q[i-1] == '#') {
			i = j
			continue
		}
		switch cur {
		case "7", "9", "11":
			if atoiSmall(ext) > atoiSmall(cur) {
				return q[:i] + ext + q[j:]
			}
			return q
		}
		i = j
	}
	return q
}

func foldOmitAdd(q string) string {
	q = strings.ReplaceAll(q, "omit", "no")
	switch q {
	case "no3", "5no3":
		return "5"
	case "sus":
		return "sus4"
	case "2":
		return "sus2"
	case "4":
		return "sus4"
	case "mno3":
		return "5"
	}
	if strings.HasSuffix(q, "sus") {
		q += "4"
	}
	return q
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func atoiSmall(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
