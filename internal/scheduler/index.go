package scheduler

import (
	"github.com/cbegin/chordsheet-go/internal/sheet"
)

// Position addresses an item by line and index within the line.
type Position struct {
	Line int
	Item int
}

func (p Position) before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Item < o.Item)
}

type entry struct {
	pos  Position
	item sheet.Item
}

// index flattens the song into scan order and maps each label to its first
// occurrence. Later duplicates are reported and never used as targets.
type index struct {
	entries    []entry
	labels     map[string]int
	duplicates []Position
}

func buildIndex(song sheet.Song) index {
	idx := index{labels: map[string]int{}}
	for li, line := range song.Lines {
		for ii, it := range line.Items {
			pos := Position{Line: li, Item: ii}
			if d, ok := it.(*sheet.Directive); ok && d.Valid && d.Kind == sheet.DirectiveLabel {
				if _, seen := idx.labels[d.Label]; seen {
					idx.duplicates = append(idx.duplicates, pos)
				} else {
					idx.labels[d.Label] = len(idx.entries)
				}
			}
			idx.entries = append(idx.entries, entry{pos: pos, item: it})
		}
	}
	return idx
}

// startIndex is the first entry at or after p.
func (x index) startIndex(p Position) int {
	for i, e := range x.entries {
		if !e.pos.before(p) {
			return i
		}
	}
	return len(x.entries)
}
