package spatial

import (
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/musictext/core/score"
)

// syllable is one sung unit split from a lyric word.
type syllable struct {
	Text string
	Pos  score.Position
}

// SplitSyllables splits a lyric word at hyphens, keeping each hyphen on the
// syllable before it: "ge-na" becomes "ge-" and "na".
func SplitSyllables(word string) []string {
	var out []string
	for _, part := range strings.SplitAfter(word, "-") {
		switch {
		case part == "":
		case part == "-" && len(out) > 0:
			out[len(out)-1] += part
		default:
			out = append(out, part)
		}
	}
	return out
}

// syllables distributes lyric syllables over the notes in order. A slurred
// note after the first of its slur carries the previous syllable instead of
// taking a new one.
func (a *assigner) syllables() {
	var queue []syllable
	for _, it := range consume(a.lines(score.LyricsLine), score.TokenWord) {
		col := it.Pos.Column
		for _, s := range SplitSyllables(it.Value) {
			queue = append(queue, syllable{Text: s, Pos: score.Position{Line: it.Pos.Line, Column: col}})
			col += utf8.RuneCountInString(s)
		}
	}
	if len(queue) == 0 {
		return
	}

	carrying := false
	for _, n := range a.notes {
		note := n.Note
		if note.Slur == score.RoleMiddle || note.Slur == score.RoleEnd {
			note.Continuation = carrying
			continue
		}
		if len(queue) == 0 {
			carrying = false
			continue
		}
		note.Syllable = queue[0].Text
		queue = queue[1:]
		carrying = true
	}

	for _, s := range queue {
		a.warn(score.WarnSurplusSyllable, s.Pos, "syllable %q has no note to carry it", s.Text)
	}
}
