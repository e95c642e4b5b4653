package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/musictext/core/classify"
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/parser"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/core/spatial"
)

func analyzed(t *testing.T, input string) (*score.Stave, []*errors.RhythmError) {
	t.Helper()
	doc, err := parser.Parse(input, "")
	require.NoError(t, err)
	require.Len(t, doc.Staves, 1)

	stave := doc.Staves[0]
	classify.Stave(stave)
	require.NoError(t, spatial.Assign(stave))
	return stave, Analyze(stave)
}

func frac(num, den int64) *score.Fraction {
	f := score.NewFraction(num, den)
	return &f
}

func TestRatio(t *testing.T) {
	tests := []struct {
		n      int
		want   score.TupletRatio
		tuplet bool
	}{
		{1, score.TupletRatio{}, false},
		{2, score.TupletRatio{}, false},
		{3, score.TupletRatio{Actual: 3, Normal: 2}, true},
		{4, score.TupletRatio{}, false},
		{5, score.TupletRatio{Actual: 5, Normal: 4}, true},
		{6, score.TupletRatio{Actual: 6, Normal: 4}, true},
		{7, score.TupletRatio{Actual: 7, Normal: 4}, true},
		{9, score.TupletRatio{Actual: 9, Normal: 8}, true},
		{12, score.TupletRatio{Actual: 12, Normal: 8}, true},
		{13, score.TupletRatio{Actual: 13, Normal: 8}, true},
		{16, score.TupletRatio{}, false},
		{17, score.TupletRatio{Actual: 17, Normal: 16}, true},
		{24, score.TupletRatio{Actual: 24, Normal: 16}, true},
	}

	for _, tt := range tests {
		got, ok := Ratio(tt.n)
		assert.Equal(t, tt.tuplet, ok, "n=%d", tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
	}
}

func TestEvenBeat(t *testing.T) {
	stave, errs := analyzed(t, "1234 |")
	assert.Empty(t, errs)

	beat := stave.Content.Beats[0]
	assert.Equal(t, 4, beat.Divisions)
	assert.False(t, beat.Tuplet)
	assert.Nil(t, beat.Ratio)
	assert.Equal(t, frac(1, 4), beat.Duration)
	for _, n := range stave.Content.Notes() {
		assert.Equal(t, frac(1, 16), n.Note.Duration)
	}
}

func TestTupletBeats(t *testing.T) {
	t.Run("triplet", func(t *testing.T) {
		stave, _ := analyzed(t, "123 |")
		beat := stave.Content.Beats[0]
		assert.True(t, beat.Tuplet)
		assert.Equal(t, &score.TupletRatio{Actual: 3, Normal: 2}, beat.Ratio)
		for _, n := range stave.Content.Notes() {
			assert.Equal(t, frac(1, 12), n.Note.Duration)
		}
	})

	t.Run("quintuplet", func(t *testing.T) {
		stave, _ := analyzed(t, "12345 |")
		beat := stave.Content.Beats[0]
		assert.Equal(t, &score.TupletRatio{Actual: 5, Normal: 4}, beat.Ratio)
		assert.Equal(t, frac(1, 20), stave.Content.Notes()[0].Note.Duration)
	})
}

func TestDashExtendsNote(t *testing.T) {
	stave, errs := analyzed(t, "1--2 |")
	assert.Empty(t, errs)

	els := stave.Content.Elements
	assert.Equal(t, frac(3, 16), els[0].Note.Duration)
	assert.Equal(t, score.DashExtension, els[1].Dash)
	assert.Nil(t, els[1].Duration)
	assert.Equal(t, score.DashExtension, els[2].Dash)
	assert.Equal(t, frac(1, 16), els[3].Note.Duration)
}

func TestLeadingDashes(t *testing.T) {
	t.Run("rest", func(t *testing.T) {
		stave, errs := analyzed(t, "--1 |")
		assert.Empty(t, errs)
		els := stave.Content.Elements
		assert.Equal(t, score.DashRest, els[0].Dash)
		assert.Equal(t, frac(1, 6), els[0].Duration)
		assert.Equal(t, score.DashRest, els[1].Dash)
		assert.Nil(t, els[1].Duration)
		assert.Nil(t, els[0].TiedTo)
		assert.Equal(t, frac(1, 12), els[2].Note.Duration)
	})

	t.Run("tie", func(t *testing.T) {
		stave, errs := analyzed(t, "1 -2 |")
		assert.Empty(t, errs)
		els := stave.Content.Elements
		assert.Equal(t, frac(1, 4), els[0].Note.Duration)
		assert.Equal(t, score.DashTie, els[1].Dash)
		assert.Equal(t, frac(1, 8), els[1].Duration)
		require.NotNil(t, els[1].TiedTo)
		assert.Equal(t, 0, *els[1].TiedTo)
		assert.Equal(t, frac(1, 8), els[2].Note.Duration)
	})

	t.Run("rest after breath at line start", func(t *testing.T) {
		stave, errs := analyzed(t, "'- 1 |")
		assert.Empty(t, errs)
		els := stave.Content.Elements
		assert.Nil(t, els[0].Duration)
		assert.Equal(t, score.DashRest, els[1].Dash)
		assert.Equal(t, frac(1, 8), els[1].Duration)
	})
}

func TestBreathMarkKeepsNoteContext(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		stave, errs := analyzed(t, "1'- |")
		assert.Empty(t, errs)
		els := stave.Content.Elements
		assert.Equal(t, 3, stave.Content.Beats[0].Divisions)
		assert.Equal(t, frac(2, 12), els[0].Note.Duration)
		assert.Nil(t, els[1].Duration)
		assert.Equal(t, score.DashExtension, els[2].Dash)
		assert.Nil(t, els[2].Duration)
	})

	t.Run("tie", func(t *testing.T) {
		stave, errs := analyzed(t, "1 '- 2 |")
		assert.Empty(t, errs)
		assert.Empty(t, stave.BeatErrors)
		els := stave.Content.Elements
		assert.Equal(t, score.DashTie, els[2].Dash)
		assert.Equal(t, frac(1, 8), els[2].Duration)
		require.NotNil(t, els[2].TiedTo)
		assert.Equal(t, 0, *els[2].TiedTo)
		assert.Equal(t, frac(1, 4), els[3].Note.Duration)
	})

	t.Run("dashes on both sides", func(t *testing.T) {
		stave, errs := analyzed(t, "1-'- |")
		assert.Empty(t, errs)
		els := stave.Content.Elements
		assert.Equal(t, frac(3, 16), els[0].Note.Duration)
		assert.Equal(t, score.DashExtension, els[1].Dash)
		assert.Equal(t, score.DashExtension, els[3].Dash)
	})
}

func TestBadBeatFailsOnlyItself(t *testing.T) {
	doc, err := parser.Parse("1 2 3 |", "")
	require.NoError(t, err)
	stave := doc.Staves[0]
	classify.Stave(stave)
	require.NoError(t, spatial.Assign(stave))
	stave.Content.Elements[1].Note = nil

	errs := Analyze(stave)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Beat)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 3, errs[0].Column)
	assert.ErrorIs(t, errs[0], errors.ErrRhythm)

	beats := stave.Content.Beats
	assert.NotEmpty(t, beats[1].Error)
	assert.Len(t, stave.BeatErrors, 1)
	assert.Empty(t, beats[0].Error)
	assert.Empty(t, beats[2].Error)
	assert.Equal(t, frac(1, 4), stave.Content.Elements[0].Note.Duration)
	assert.Equal(t, frac(1, 4), stave.Content.Elements[2].Note.Duration)
}

func TestGroupedBeat(t *testing.T) {
	stave, errs := analyzed(t, "1 2 3 |\n_____")
	assert.Empty(t, errs)
	require.Len(t, stave.Content.Beats, 1)

	beat := stave.Content.Beats[0]
	assert.True(t, beat.Grouped)
	assert.Equal(t, 3, beat.Divisions)
	assert.True(t, beat.Tuplet)
	for _, n := range stave.Content.Notes() {
		assert.Equal(t, frac(1, 12), n.Note.Duration)
	}
}

func TestEmptyContent(t *testing.T) {
	assert.Nil(t, Analyze(&score.Stave{}))
	stave := &score.Stave{Content: &score.ContentLine{Beats: []*score.Beat{{}}}}
	assert.Empty(t, Analyze(stave))
	assert.Nil(t, stave.Content.Beats[0].Duration)
}
