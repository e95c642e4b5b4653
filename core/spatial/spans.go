package spatial

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// span is a bound slur or beat-group span.
type span struct {
	Pos   score.Position
	Notes []int // positions in assigner.notes
}

// spanFamily describes how one family of spans reads and writes note roles.
type spanFamily struct {
	name string
	line score.LineRole
	role func(n *score.Note) *score.Role
}

var (
	slurFamily = spanFamily{
		name: "slur",
		line: score.UpperLine,
		role: func(n *score.Note) *score.Role { return &n.Slur },
	}
	beatGroupFamily = spanFamily{
		name: "beat group",
		line: score.LowerLine,
		role: func(n *score.Note) *score.Role { return &n.BeatGroup },
	}
)

func (a *assigner) slurs() []span {
	return a.spans(slurFamily)
}

func (a *assigner) beatGroups() []span {
	return a.spans(beatGroupFamily)
}

// spans binds each span of a family, in source order, to the notes in its
// column range. The first span to claim a note keeps it.
func (a *assigner) spans(f spanFamily) []span {
	claimedBy := make(map[int]score.Position)
	var bound []span

	for _, it := range consume(a.lines(f.line), score.TokenSpan) {
		covered := a.notesIn(it.Pos.Column, it.End())
		if len(covered) < 2 {
			a.warn(score.WarnDeferredSpan, it.Pos,
				"%s span covers %d note(s); at least 2 are needed", f.name, len(covered))
			continue
		}

		if conflict, ok := firstClaimed(covered, claimedBy); ok {
			a.warn(score.WarnConflict, it.Pos,
				"%s span at %s overlaps %s span at %s on note at %s; deferred",
				f.name, it.Pos, f.name, claimedBy[conflict], a.notes[conflict].Source.Position)
			continue
		}

		for i, idx := range covered {
			*f.role(a.notes[idx].Note) = score.RoleAt(i, len(covered))
			claimedBy[idx] = it.Pos
		}
		bound = append(bound, span{Pos: it.Pos, Notes: covered})
	}
	return bound
}

func firstClaimed(notes []int, claimedBy map[int]score.Position) (int, bool) {
	for _, idx := range notes {
		if _, ok := claimedBy[idx]; ok {
			return idx, true
		}
	}
	return 0, false
}

// mordents binds "~" on upper lines to the note in the same column.
func (a *assigner) mordents() {
	for _, it := range consume(a.lines(score.UpperLine), score.TokenMordent) {
		covered := a.notesIn(it.Pos.Column, it.Pos.Column)
		if len(covered) == 0 {
			a.warn(score.WarnOutOfRange, it.Pos, "mordent has no note in its column")
			continue
		}
		a.notes[covered[0]].Note.Ornament = "mordent"
	}
}
