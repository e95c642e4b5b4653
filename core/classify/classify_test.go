package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/musictext/core/parser"
	"github.com/FocuswithJustin/musictext/core/score"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		placement score.Placement
		want      score.LineRole
		ambiguous bool
	}{
		{"octaves above", ".  :", score.Above, score.UpperLine, false},
		{"octaves below", "*   •", score.Below, score.LowerLine, false},
		{"slur above", "_____", score.Above, score.UpperLine, false},
		{"beat group below", "  ___", score.Below, score.LowerLine, false},
		{"lyrics below", "A-ma-zing grace", score.Below, score.LyricsLine, false},
		{"lyrics above", "la la la", score.Above, score.LyricsLine, false},
		{"mordent above", "  ~", score.Above, score.UpperLine, false},
		{"mostly words", "la la __", score.Below, score.LyricsLine, true},
		{"tie favours markers", "la __", score.Above, score.UpperLine, true},
		{"mostly markers", ". : la", score.Below, score.LowerLine, true},
		{"punctuation only", "# @", score.Below, score.TextLine, true},
		{"mordent below", "~", score.Below, score.TextLine, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := parser.TokenizeAnnotation(tt.text, 1, tt.placement)
			role, ambiguous := Line(line)
			assert.Equal(t, tt.want, role)
			assert.Equal(t, tt.ambiguous, ambiguous)
		})
	}
}

func TestShapeOf(t *testing.T) {
	line := parser.TokenizeAnnotation(". __ la ~ _ #", 1, score.Above)
	assert.Equal(t, Shape{Markers: 2, Words: 1, Mordents: 1, Unmatched: 2}, ShapeOf(line))
}

func TestStave(t *testing.T) {
	doc, err := parser.Parse(".  __\n| 1 2 3 |\n  ___\nla la # la", "")
	require.NoError(t, err)
	require.Len(t, doc.Staves, 1)
	stave := doc.Staves[0]

	Stave(stave)

	assert.Equal(t, score.UpperLine, stave.Above[0].Role)
	assert.Equal(t, score.LowerLine, stave.Below[0].Role)
	assert.Equal(t, score.LyricsLine, stave.Below[1].Role)
	assert.Empty(t, stave.Warnings)

	// positions survive classification
	assert.Equal(t, score.Position{Line: 1, Column: 4}, stave.Above[0].Tokens[1].Source.Position)
	assert.Equal(t, "__", stave.Above[0].Tokens[1].Source.Peek())
}

func TestStaveWarnsOnAmbiguity(t *testing.T) {
	doc, err := parser.Parse("| 1 2 |\n la . la", "")
	require.NoError(t, err)
	stave := doc.Staves[0]

	Stave(stave)

	assert.Equal(t, score.LyricsLine, stave.Below[0].Role)
	require.Len(t, stave.Warnings, 1)
	w := stave.Warnings[0]
	assert.Equal(t, score.WarnClassification, w.Kind)
	assert.Equal(t, score.Position{Line: 2, Column: 2}, w.Position)
	assert.Contains(t, w.Message, "classified as lyrics")
}
