package spatial

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// octaveSteps maps marker glyphs to octave offsets.
var octaveSteps = map[string]int{
	".": 1,
	"•": 1,
	":": 2,
	"*": 3,
}

// OctaveValue returns the octave offset of a marker glyph.
func OctaveValue(glyph string) (int, bool) {
	v, ok := octaveSteps[glyph]
	return v, ok
}

// octaves binds octave markers from upper lines (raising) and lower lines
// (lowering).
func (a *assigner) octaves() {
	var items []*item
	sign := make(map[*item]int)
	for _, role := range []score.LineRole{score.UpperLine, score.LowerLine} {
		s := 1
		if role == score.LowerLine {
			s = -1
		}
		for _, it := range consume(a.lines(role), score.TokenOctave) {
			items = append(items, it)
			sign[it] = s
		}
	}

	var unbound []*item
	for _, it := range items {
		if n := a.directOctave(it.Pos.Column); n != nil {
			bindOctave(n, it, sign[it])
			continue
		}
		unbound = append(unbound, it)
	}

	for _, it := range unbound {
		if n := a.nearestFree(it.Pos.Column); n != nil {
			bindOctave(n, it, sign[it])
			continue
		}
		a.warn(score.WarnOutOfRange, it.Pos,
			"octave marker %q has no unassigned note within %d columns", it.Value, MaxDistance)
	}
}

// directOctave returns the note at exactly col if it has no octave yet.
func (a *assigner) directOctave(col int) *score.Element {
	for _, n := range a.notes {
		if n.Column() == col && !n.Note.HasOctave() {
			return n
		}
	}
	return nil
}

// nearestFree returns the closest note without an octave within MaxDistance
// columns of col. Ties go to the leftmost note.
func (a *assigner) nearestFree(col int) *score.Element {
	var best *score.Element
	bestDist := MaxDistance + 1
	for _, n := range a.notes {
		if n.Note.HasOctave() {
			continue
		}
		d := n.Column() - col
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

func bindOctave(n *score.Element, it *item, sign int) {
	v, _ := OctaveValue(it.Value)
	pos := it.Pos
	n.Note.Octave += sign * v
	n.Note.OctaveFrom = &pos
}
