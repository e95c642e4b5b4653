package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/musictext/core/classify"
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/parser"
	"github.com/FocuswithJustin/musictext/core/score"
)

// assigned parses a single-stave input, classifies it and runs Assign.
func assigned(t *testing.T, input string) *score.Stave {
	t.Helper()
	doc, err := parser.Parse(input, "")
	require.NoError(t, err)
	require.Empty(t, doc.Failures)
	require.Len(t, doc.Staves, 1)

	stave := doc.Staves[0]
	classify.Stave(stave)
	require.NoError(t, Assign(stave))
	return stave
}

func notes(s *score.Stave) []*score.Note {
	var out []*score.Note
	for _, e := range s.Content.Notes() {
		out = append(out, e.Note)
	}
	return out
}

func kinds(s *score.Stave) []score.WarningKind {
	var out []score.WarningKind
	for _, w := range s.Warnings {
		out = append(out, w.Kind)
	}
	return out
}

func TestOctaveDirectBind(t *testing.T) {
	s := assigned(t, ". :\n1 2 |")
	n := notes(s)
	assert.Equal(t, 1, n[0].Octave)
	assert.Equal(t, 2, n[1].Octave)
	assert.Equal(t, &score.Position{Line: 1, Column: 3}, n[1].OctaveFrom)
	assert.Empty(t, s.Warnings)
}

func TestOctaveLowerLine(t *testing.T) {
	s := assigned(t, "1 2 3 |\n. * •")
	n := notes(s)
	assert.Equal(t, []int{-1, -3, -1}, []int{n[0].Octave, n[1].Octave, n[2].Octave})
}

func TestOctaveFallback(t *testing.T) {
	t.Run("tie goes left", func(t *testing.T) {
		s := assigned(t, "  .\n1   2 |")
		n := notes(s)
		assert.Equal(t, 1, n[0].Octave)
		assert.False(t, n[1].HasOctave())
		assert.Empty(t, s.Warnings)
	})

	t.Run("assigned note is skipped", func(t *testing.T) {
		s := assigned(t, ".\n.\n1 2 |")
		n := notes(s)
		assert.Equal(t, 1, n[0].Octave)
		assert.Equal(t, 1, n[1].Octave)
		assert.Equal(t, &score.Position{Line: 2, Column: 1}, n[1].OctaveFrom)
	})

	t.Run("out of range", func(t *testing.T) {
		s := assigned(t, "          .\n1 2 |")
		for _, n := range notes(s) {
			assert.False(t, n.HasOctave())
		}
		require.Len(t, s.Warnings, 1)
		assert.Equal(t, score.WarnOutOfRange, s.Warnings[0].Kind)
		assert.Equal(t, score.Position{Line: 1, Column: 11}, s.Warnings[0].Position)
	})
}

func TestSlurRoles(t *testing.T) {
	s := assigned(t, "_____\n1 2 3 |")
	n := notes(s)
	assert.Equal(t, []score.Role{score.RoleStart, score.RoleMiddle, score.RoleEnd},
		[]score.Role{n[0].Slur, n[1].Slur, n[2].Slur})
	assert.Empty(t, s.Warnings)
}

func TestSingleNoteSpanIsDeferred(t *testing.T) {
	s := assigned(t, "__\n1 2 3 |")
	for _, n := range notes(s) {
		assert.Equal(t, score.RoleNone, n.Slur)
	}
	assert.Equal(t, []score.WarningKind{score.WarnDeferredSpan}, kinds(s))
}

func TestOverlappingSlurIsDeferred(t *testing.T) {
	s := assigned(t, "___\n  ___\n1 2 3 |")
	n := notes(s)
	assert.Equal(t, score.RoleStart, n[0].Slur)
	assert.Equal(t, score.RoleEnd, n[1].Slur)
	assert.Equal(t, score.RoleNone, n[2].Slur)

	require.Len(t, s.Warnings, 1)
	w := s.Warnings[0]
	assert.Equal(t, score.WarnConflict, w.Kind)
	assert.Equal(t, score.Position{Line: 2, Column: 3}, w.Position)
	assert.Contains(t, w.Message, "2:3")
	assert.Contains(t, w.Message, "1:1")
}

func TestSlurAndBeatGroupAreIndependent(t *testing.T) {
	s := assigned(t, "___\n1 2 3 |\n___")
	n := notes(s)
	assert.Equal(t, score.RoleStart, n[0].Slur)
	assert.Equal(t, score.RoleStart, n[0].BeatGroup)
	assert.Equal(t, score.RoleEnd, n[1].Slur)
	assert.Equal(t, score.RoleEnd, n[1].BeatGroup)
	assert.Empty(t, s.Warnings)
}

func TestBeatGroupMergesBeats(t *testing.T) {
	s := assigned(t, "1 2 3 4 |\n  _____")
	c := s.Content
	require.Len(t, c.Beats, 2)
	assert.False(t, c.Beats[0].Grouped)
	assert.True(t, c.Beats[1].Grouped)
	assert.Len(t, c.Beats[1].Elements, 3)

	ns := c.Notes()
	assert.Equal(t, 0, ns[0].Beat)
	assert.Equal(t, 1, ns[1].Beat)
	assert.Equal(t, 1, ns[3].Beat)
	assert.Equal(t, score.RoleMiddle, ns[2].Note.BeatGroup)
}

func TestBeatGroupAcrossBarline(t *testing.T) {
	s := assigned(t, "1 2 | 3 4\n  _____")
	c := s.Content
	assert.Len(t, c.Beats, 4)
	assert.Equal(t, []score.WarningKind{score.WarnBeatGroupBarline}, kinds(s))

	ns := c.Notes()
	assert.Equal(t, score.RoleStart, ns[1].Note.BeatGroup)
	assert.Equal(t, score.RoleEnd, ns[2].Note.BeatGroup)
}

func TestSyllables(t *testing.T) {
	s := assigned(t, "___\n1 2 3 |\nge-na ta")
	n := notes(s)
	assert.Equal(t, "ge-", n[0].Syllable)
	assert.Equal(t, "", n[1].Syllable)
	assert.True(t, n[1].Continuation)
	assert.Equal(t, "na", n[2].Syllable)

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, score.WarnSurplusSyllable, s.Warnings[0].Kind)
	assert.Equal(t, score.Position{Line: 3, Column: 7}, s.Warnings[0].Position)
}

func TestNoContinuationWithoutLyrics(t *testing.T) {
	s := assigned(t, "___\n1 2 |")
	for _, n := range notes(s) {
		assert.False(t, n.Continuation)
	}
}

func TestSplitSyllables(t *testing.T) {
	assert.Equal(t, []string{"ge-", "na"}, SplitSyllables("ge-na"))
	assert.Equal(t, []string{"A-", "ma-", "zing"}, SplitSyllables("A-ma-zing"))
	assert.Equal(t, []string{"la"}, SplitSyllables("la"))
	assert.Equal(t, []string{"a--", "b"}, SplitSyllables("a--b"))
}

func TestMordent(t *testing.T) {
	s := assigned(t, "  ~\n1 2 |")
	n := notes(s)
	assert.Equal(t, "", n[0].Ornament)
	assert.Equal(t, "mordent", n[1].Ornament)
}

func TestForeignTokensAreReported(t *testing.T) {
	s := assigned(t, "# .\n1 2 |")
	assert.Equal(t, []score.WarningKind{score.WarnIgnoredToken}, kinds(s))
	assert.Equal(t, 1, notes(s)[1].Octave)
}

func TestTextLineTokensAreReported(t *testing.T) {
	s := assigned(t, "1 2 |\n# @")
	require.Len(t, s.Below, 1)
	line := s.Below[0]
	assert.Equal(t, score.TextLine, line.Role)

	var ignored []score.Position
	for _, w := range s.Warnings {
		if w.Kind == score.WarnIgnoredToken {
			ignored = append(ignored, w.Position)
		}
	}
	require.Len(t, ignored, len(line.Tokens))
	for i, tok := range line.Tokens {
		assert.True(t, tok.Source.Consumed())
		assert.Equal(t, tok.Source.Position, ignored[i])
	}
	assert.Equal(t, score.WarnClassification, s.Warnings[0].Kind)
}

func TestConsumptionCompleteness(t *testing.T) {
	inputs := []string{
		". :\n1 2 |",
		"___ ~ #\n.          .\n1 2 3 4 |\n__ ___\nla la la la la",
		"1 2 |\n# @",
	}
	for _, input := range inputs {
		s := assigned(t, input)
		for _, line := range s.Annotations() {
			for _, tok := range line.Tokens {
				assert.True(t, tok.Source.Consumed(), "%q: token at %s", input, tok.Source.Position)
			}
		}
	}
}

func TestValidateReportsUnconsumed(t *testing.T) {
	stave := &score.Stave{
		Content: &score.ContentLine{},
		Above: []*score.AnnotationLine{{
			Line: 1,
			Tokens: []*score.AnnotationToken{{
				Kind:   score.TokenOctave,
				Source: score.NewSource(".", score.Position{Line: 1, Column: 4}),
				Width:  1,
			}},
		}},
	}

	err := Validate(stave)
	var ie *errors.AssignmentInternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 4, ie.Column)
	assert.Equal(t, ".", ie.Value)
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestOctaveValue(t *testing.T) {
	for glyph, want := range map[string]int{".": 1, "•": 1, ":": 2, "*": 3} {
		got, ok := OctaveValue(glyph)
		assert.True(t, ok)
		assert.Equal(t, want, got, glyph)
	}
	_, ok := OctaveValue("~")
	assert.False(t, ok)
}
