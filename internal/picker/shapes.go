package picker

// shape is a movable chord form written for standard tuning, low string
// first; "x" mutes a string.
type shape struct {
	name  string
	frets Fingering
}

var shapeLibrary = []shape{
	mustShape("C", "x32010"),
	mustShape("A", "x02220"),
	mustShape("G", "320003"),
	mustShape("E", "022100"),
	mustShape("D", "xx0232"),
	mustShape("Am", "x02210"),
	mustShape("Em", "022000"),
	mustShape("Dm", "xx0231"),
	mustShape("C7", "x32310"),
	mustShape("A7", "x02020"),
	mustShape("G7", "320001"),
	mustShape("E7", "020100"),
	mustShape("D7", "xx0212"),
	mustShape("B7", "x21202"),
	mustShape("Am7", "x02010"),
	mustShape("Em7", "020000"),
	mustShape("Dm7", "xx0211"),
	mustShape("Cmaj7", "x32000"),
	mustShape("Amaj7", "x02120"),
	mustShape("Fmaj7", "xx3210"),
	mustShape("Dmaj7", "xx0222"),
	mustShape("Emaj7", "021100"),
	mustShape("Asus4", "x02230"),
	mustShape("Dsus4", "xx0233"),
	mustShape("Esus4", "022200"),
	mustShape("Asus2", "x02200"),
	mustShape("Dsus2", "xx0230"),
	mustShape("Cadd9", "x32030"),
	mustShape("C9", "x3233x"),
	mustShape("Ddim7", "xx0101"),
	mustShape("E5", "022xxx"),
	mustShape("A5", "x022xx"),
	mustShape("Bm7b5", "x2323x"),
}

func mustShape(name, tab string) shape {
	if len(tab) != 6 {
		panic("picker: shape " + name + " must have six strings")
	}
	var f Fingering
	for i := 0; i < 6; i++ {
		switch c := tab[i]; {
		case c == 'x':
			f[i] = Muted
		case c >= '0' && c <= '9':
			f[i] = int(c - '0')
		default:
			panic("picker: bad fret in shape " + name)
		}
	}
	return shape{name: name, frets: f}
}
