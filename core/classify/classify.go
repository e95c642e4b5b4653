// Package classify assigns semantic roles to the annotation lines of a stave.
//
// The structural parser only knows which lines surround the content line.
// This pass looks at the shapes of their tokens and decides what each line
// means: octave markers and spans above the content line form an UpperLine,
// the same glyphs below it form a LowerLine, and runs of letters form a
// LyricsLine. Token positions are never changed.
package classify

import (
	"fmt"

	"github.com/FocuswithJustin/musictext/core/score"
)

// Shape counts the token shapes of one annotation line.
type Shape struct {
	Markers   int // octave markers and spans
	Words     int
	Mordents  int
	Unmatched int // single underscores and other glyphs
}

// ShapeOf tallies the tokens of line.
func ShapeOf(line *score.AnnotationLine) Shape {
	var s Shape
	for _, tok := range line.Tokens {
		switch {
		case tok.Kind.IsMarker():
			s.Markers++
		case tok.Kind == score.TokenWord:
			s.Words++
		case tok.Kind == score.TokenMordent:
			s.Mordents++
		default:
			s.Unmatched++
		}
	}
	return s
}

// Line decides the role of a single annotation line. The boolean is true
// when the decision is a best guess that should be reported.
func Line(line *score.AnnotationLine) (score.LineRole, bool) {
	s := ShapeOf(line)
	markerRole := score.UpperLine
	if line.Placement == score.Below {
		markerRole = score.LowerLine
	}

	switch {
	case s.Markers > 0 && s.Words == 0:
		return markerRole, false
	case s.Words > 0 && s.Markers == 0:
		return score.LyricsLine, false
	case s.Markers > 0 && s.Words > 0:
		if s.Words > s.Markers {
			return score.LyricsLine, true
		}
		return markerRole, true
	case s.Mordents > 0 && line.Placement == score.Above:
		// ornaments only live above the content line
		return score.UpperLine, false
	default:
		return score.TextLine, true
	}
}

// Stave classifies every annotation line of stave in place and records a
// classification warning for each ambiguous decision.
func Stave(stave *score.Stave) {
	for _, line := range stave.Annotations() {
		role, ambiguous := Line(line)
		line.Role = role
		if !ambiguous {
			continue
		}
		stave.Warn(score.WarnClassification, linePosition(line), "%s", reason(line, role))
	}
}

func reason(line *score.AnnotationLine, role score.LineRole) string {
	if role == score.TextLine {
		return "line has no markers or words and is kept as text"
	}
	s := ShapeOf(line)
	return fmt.Sprintf("line mixes %d marker(s) and %d word(s); classified as %s", s.Markers, s.Words, role)
}

// linePosition is the position of the first token, or column 1 when the
// line has none.
func linePosition(line *score.AnnotationLine) score.Position {
	if len(line.Tokens) > 0 {
		return line.Tokens[0].Source.Position
	}
	return score.Position{Line: line.Line, Column: 1}
}
