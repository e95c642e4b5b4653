package parser

import (
	stderrors "errors"
	"strings"

	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/score"
)

// ErrNoContent is returned by ParseStave for a paragraph without a content
// line. It is not a user error: such paragraphs are headers or plain text.
var ErrNoContent = stderrors.New("paragraph has no content line")

// minShorthandRun is the number of consecutive pitches a barline-free line
// needs to be read as music.
const minShorthandRun = 3

// ParseStave recognizes the content line of a paragraph and splits the rest
// into unclassified annotation lines above and below it.
//
// With shorthand set (no barline anywhere in the input), a line is the
// content line when it tokenizes under a single system and holds at least
// three consecutive pitches. Otherwise the content line is the one line that
// contains a barline.
func ParseStave(p Paragraph, system notation.System, shorthand bool) (*score.Stave, error) {
	idx, err := findContentLine(p, shorthand)
	if err != nil {
		return nil, err
	}

	text := p.Lines[idx]
	lineNo := p.LineNumber(idx)
	content, err := parseContentLine(text, lineNo, system)
	if err != nil {
		return nil, err
	}
	content.Implicit = shorthand

	stave := &score.Stave{
		Index:     p.Index,
		StartLine: p.StartLine,
		Content:   content,
	}
	for i, line := range p.Lines {
		switch {
		case i < idx:
			stave.Above = append(stave.Above, TokenizeAnnotation(line, p.LineNumber(i), score.Above))
		case i > idx:
			stave.Below = append(stave.Below, TokenizeAnnotation(line, p.LineNumber(i), score.Below))
		}
	}
	return stave, nil
}

// findContentLine runs the structural lookahead over every line of the
// paragraph before any of them is treated as an annotation.
func findContentLine(p Paragraph, shorthand bool) (int, error) {
	found := -1
	for i, line := range p.Lines {
		if !isCandidate(line, shorthand) {
			continue
		}
		if found >= 0 {
			return -1, errors.NewStructural(p.LineNumber(i), firstColumn(line),
				"more than one content line in stave (first at line %d)", p.LineNumber(found))
		}
		found = i
	}
	if found < 0 {
		return -1, ErrNoContent
	}
	return found, nil
}

// isCandidate reports whether a line should be read as the content line.
// Barline lines are candidates even when they do not tokenize, so that bad
// notation surfaces as an error instead of silently becoming an annotation.
func isCandidate(line string, shorthand bool) bool {
	if !shorthand {
		return strings.Contains(line, "|")
	}
	for _, s := range notation.Candidates(line) {
		tl, err := notation.Tokenize(s, line)
		if err == nil && tl.LongestPitchRun() >= minShorthandRun {
			return true
		}
	}
	return false
}

func parseContentLine(text string, lineNo int, system notation.System) (*score.ContentLine, error) {
	tl, err := notation.Tokenize(system, text)
	if err != nil {
		var lexErr *notation.LexError
		col := firstColumn(text)
		if stderrors.As(err, &lexErr) {
			col = lexErr.Column
		}
		if others := notation.Candidates(text); len(others) > 0 {
			perr := errors.NewStructural(lineNo, col,
				"mixed notation systems: line reads as %s but the document uses %s", others[0], system)
			perr.Err = err
			return nil, perr
		}
		perr := errors.NewStructural(lineNo, col, "unrecognized character sequence %q", excerpt(text, col))
		perr.Err = err
		return nil, perr
	}

	content := &score.ContentLine{
		Line:   lineNo,
		Text:   text,
		System: system,
		Beats:  make([]*score.Beat, tl.Beats),
	}
	for i := range content.Beats {
		content.Beats[i] = &score.Beat{}
	}
	for _, tok := range tl.Tokens {
		el := &score.Element{
			Source: score.NewSource(tok.Value, score.Position{Line: lineNo, Column: tok.Column}),
			Beat:   tok.Beat,
		}
		switch tok.Kind {
		case notation.TokenPitch:
			el.Kind = score.ElementNote
			el.Note = &score.Note{Pitch: tok.Pitch}
		case notation.TokenDash:
			el.Kind = score.ElementDash
		case notation.TokenBreath:
			el.Kind = score.ElementBreath
		case notation.TokenBarline:
			el.Kind = score.ElementBarline
			el.Barline = score.BarlineKindOf(tok.Value)
		}
		content.Elements = append(content.Elements, el)
		if tok.Beat >= 0 {
			b := content.Beats[tok.Beat]
			b.Elements = append(b.Elements, len(content.Elements)-1)
		}
	}
	return content, nil
}

// firstColumn returns the column of the first non-blank character.
func firstColumn(line string) int {
	col := 1
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return col
		}
		col++
	}
	return 1
}

// excerpt returns up to eight characters of line starting at column col.
func excerpt(line string, col int) string {
	runes := []rune(line)
	if col < 1 || col > len(runes) {
		return line
	}
	end := col - 1 + 8
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[col-1 : end])
}
