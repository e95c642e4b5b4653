// Package spatial binds annotation tokens to content-line notes by column.
//
// Every family follows the same protocol. Tokens are first consumed: their
// value is moved out of the source into a temporary item, so a token can take
// part in at most one binding attempt. Items are then bound directly by
// column; octave markers that stay unbound fall back to the nearest free note.
// Whatever is left is reported as a warning carrying the original position.
//
// Families are processed in a fixed order: octave markers, slur spans,
// mordents, syllables (which need slur roles) and finally beat groups, which
// regroup the beats of the content line for rhythm analysis. Within the slur
// family and within the beat-group family the first span in source order
// claims its notes; the two families never compete with each other.
package spatial

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// MaxDistance is the largest column distance at which an octave marker falls
// back to a neighbouring note.
const MaxDistance = 5

// assigner holds the state of one stave's assignment.
type assigner struct {
	stave *score.Stave

	// notes are the note elements of the content line in order, and
	// elementIndex maps each of them back to ContentLine.Elements.
	notes        []*score.Element
	elementIndex []int
}

func newAssigner(stave *score.Stave) *assigner {
	a := &assigner{stave: stave}
	for i, e := range stave.Content.Elements {
		if e.Kind == score.ElementNote {
			a.notes = append(a.notes, e)
			a.elementIndex = append(a.elementIndex, i)
		}
	}
	return a
}

// Assign binds every annotation of a classified stave to its notes and
// regroups beats by beat-group spans. Non-fatal problems are recorded as
// stave warnings. The only error is an AssignmentInternalError, returned when
// a token was left unconsumed.
func Assign(stave *score.Stave) error {
	if stave.Content == nil {
		return nil
	}
	a := newAssigner(stave)

	a.ignoreForeign()
	a.octaves()
	a.slurs()
	a.mordents()
	a.syllables()
	groups := a.beatGroups()
	a.regroup(groups)

	score.SortWarnings(stave.Warnings)
	return Validate(stave)
}

// lines returns the annotation lines with the given role, top to bottom.
func (a *assigner) lines(role score.LineRole) []*score.AnnotationLine {
	var out []*score.AnnotationLine
	for _, l := range a.stave.Annotations() {
		if l.Role == role {
			out = append(out, l)
		}
	}
	return out
}

// notesIn returns the positions in a.notes of notes whose column lies in
// [start, end].
func (a *assigner) notesIn(start, end int) []int {
	var out []int
	for i, n := range a.notes {
		if c := n.Column(); c >= start && c <= end {
			out = append(out, i)
		}
	}
	return out
}

func (a *assigner) warn(kind score.WarningKind, pos score.Position, format string, args ...any) {
	a.stave.Warn(kind, pos, format, args...)
}
