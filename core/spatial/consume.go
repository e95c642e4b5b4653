package spatial

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// item is an annotation token whose value has been moved out of its source.
type item struct {
	Value string
	Pos   score.Position
	Width int
	Line  *score.AnnotationLine
}

// End returns the last column covered by the item.
func (it *item) End() int {
	return it.Pos.Column + it.Width - 1
}

// consume takes every token of the given kinds out of lines, in source order.
// Tokens already consumed are skipped.
func consume(lines []*score.AnnotationLine, kinds ...score.TokenKind) []*item {
	want := make(map[score.TokenKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []*item
	for _, line := range lines {
		for _, tok := range line.Tokens {
			if !want[tok.Kind] {
				continue
			}
			v, ok := tok.Source.Take()
			if !ok {
				continue
			}
			out = append(out, &item{
				Value: v,
				Pos:   tok.Source.Position,
				Width: tok.Width,
				Line:  line,
			})
		}
	}
	return out
}

// families lists the token kinds each line role gives meaning to.
var families = map[score.LineRole]map[score.TokenKind]bool{
	score.UpperLine: {
		score.TokenOctave:  true,
		score.TokenSpan:    true,
		score.TokenMordent: true,
	},
	score.LowerLine: {
		score.TokenOctave: true,
		score.TokenSpan:   true,
	},
	score.LyricsLine: {
		score.TokenWord: true,
	},
}

// ignoreForeign consumes tokens that mean nothing on their line and reports
// each one. Every token of a TextLine is reported this way, in addition to
// the classifier's warning for the line.
func (a *assigner) ignoreForeign() {
	for _, line := range a.stave.Annotations() {
		family := families[line.Role]
		for _, tok := range line.Tokens {
			if family[tok.Kind] {
				continue
			}
			v, ok := tok.Source.Take()
			if !ok {
				continue
			}
			a.warn(score.WarnIgnoredToken, tok.Source.Position,
				"%s %q has no meaning on a %s line", tok.Kind, v, line.Role)
		}
	}
}
