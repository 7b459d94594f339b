package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cbegin/chordsheet-go/internal/errkind"
	"github.com/cbegin/chordsheet-go/internal/event"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

const DefaultLoopCount = 2

// validationKey is the context roman numerals are checked against while
// parsing; the scheduler resolves them against the key in effect.
const validationKey = "C"

type ParseOptions struct {
	Notation theory.Notation
}

// Parse splits text into lines and items. It never fails: malformed chords
// and directives are kept with Valid false.
func Parse(text string, opts ParseOptions) Song {
	p := &parser{resolver: theory.NewResolver(opts.Notation)}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	song := Song{Lines: make([]Line, 0, len(raw))}
	for _, l := range raw {
		song.Lines = append(song.Lines, p.line(l))
	}
	return song
}

type parser struct {
	resolver *theory.Resolver
}

func (p *parser) line(text string) Line {
	line := Line{Text: text}
	if strings.HasPrefix(strings.TrimSpace(text), "#") {
		return line
	}
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r), r == '|':
			i++
		case r == '{':
			end := i + 1
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			body := string(runes[i+1 : min(end, len(runes))])
			line.Items = append(line.Items, parseDirective(body, i, end < len(runes)))
			i = end + 1
		default:
			end := i
			for end < len(runes) && !unicode.IsSpace(runes[end]) && runes[end] != '{' && runes[end] != '|' {
				end++
			}
			line.Items = append(line.Items, p.chord(string(runes[i:end]), i))
			i = end
		}
	}
	return line
}

func (p *parser) chord(token string, pos int) *Chord {
	c := &Chord{Symbol: token, Pos: pos}
	if star := strings.LastIndex(token, "*"); star >= 0 {
		c.Symbol = token[:star]
		beats, err := strconv.ParseFloat(token[star+1:], 64)
		if err != nil || beats <= 0 {
			c.Err = errkind.New(errkind.ParseInvalid, fmt.Sprintf("bad duration in %q", token))
			return c
		}
		c.Beats = beats
	}
	if theory.IsNoChord(c.Symbol) {
		c.NoChord, c.Valid = true, true
		return c
	}
	c.Relative = theory.IsRoman(c.Symbol)
	if _, err := p.resolver.Resolve(c.Symbol, validationKey, c.Relative); err != nil {
		c.Err = err
		return c
	}
	c.Valid = true
	return c
}

func parseDirective(body string, pos int, closed bool) *Directive {
	name, value, _ := strings.Cut(body, ":")
	d := &Directive{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Value: strings.TrimSpace(value),
		Pos:   pos,
	}
	if !closed {
		d.Err = invalidDirective("unterminated directive %q", body)
		return d
	}
	var err error
	switch d.Name {
	case "bpm", "tempo":
		d.Kind = DirectiveTempo
		d.Tempo, err = parseTempo(d.Value)
	case "time":
		d.Kind = DirectiveTimeSignature
		d.Time, err = ParseTimeSignature(d.Value)
	case "key":
		d.Kind = DirectiveKey
		if _, _, ok := theory.ParseKey(d.Value); !ok || d.Value == "" {
			err = invalidDirective("unknown key %q", d.Value)
		}
		d.Key = d.Value
	case "label":
		d.Kind = DirectiveLabel
		d.Label = d.Value
		if d.Label == "" {
			err = invalidDirective("label needs a name")
		}
	case "loop":
		d.Kind = DirectiveLoop
		d.Label, d.Count, err = parseLoop(d.Value)
	default:
		err = invalidDirective("unknown directive %q", d.Name)
	}
	d.Err = err
	d.Valid = err == nil
	return d
}

func parseTempo(v string) (TempoChange, error) {
	lv := strings.ToLower(v)
	switch {
	case lv == "reset", lv == "original":
		return TempoChange{Mode: TempoReset}, nil
	case strings.HasSuffix(lv, "%"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(lv, "%"), 64)
		if err != nil || n <= 0 {
			return TempoChange{}, invalidDirective("bad tempo percentage %q", v)
		}
		return TempoChange{Mode: TempoPercentage, Value: n}, nil
	case strings.HasSuffix(lv, "x"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(lv, "x"), 64)
		if err != nil || n <= 0 {
			return TempoChange{}, invalidDirective("bad tempo multiplier %q", v)
		}
		return TempoChange{Mode: TempoMultiplier, Value: n}, nil
	case strings.HasPrefix(lv, "+"), strings.HasPrefix(lv, "-"):
		n, err := strconv.Atoi(lv)
		if err != nil {
			return TempoChange{}, invalidDirective("bad tempo change %q", v)
		}
		return TempoChange{Mode: TempoRelative, Value: float64(n)}, nil
	}
	n, err := strconv.Atoi(lv)
	if err != nil || n <= 0 {
		return TempoChange{}, invalidDirective("bad tempo %q", v)
	}
	return TempoChange{Mode: TempoAbsolute, Value: float64(n)}, nil
}

// ParseTimeSignature reads "B/U", e.g. "6/8".
func ParseTimeSignature(v string) (event.TimeSignature, error) {
	b, u, ok := strings.Cut(strings.ReplaceAll(v, " ", ""), "/")
	if !ok {
		return event.TimeSignature{}, invalidDirective("time signature %q is not B/U", v)
	}
	beats, err1 := strconv.Atoi(b)
	unit, err2 := strconv.Atoi(u)
	ts := event.TimeSignature{Beats: beats, Unit: unit}
	if err1 != nil || err2 != nil || !ts.Valid() {
		return event.TimeSignature{}, invalidDirective("bad time signature %q", v)
	}
	return ts, nil
}

func parseLoop(v string) (string, int, error) {
	fields := strings.Fields(v)
	switch len(fields) {
	case 1:
		return fields[0], DefaultLoopCount, nil
	case 2:
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return fields[0], 0, invalidDirective("bad loop count %q", fields[1])
		}
		return fields[0], n, nil
	}
	return "", 0, invalidDirective("loop wants a label and an optional count, got %q", v)
}

func invalidDirective(format string, args ...any) error {
	return errkind.New(errkind.DirectiveInvalid, fmt.Sprintf(format, args...))
}
