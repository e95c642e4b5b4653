package spatial

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// regroup merges the whitespace beats spanned by each beat group into a
// single beat. A group that crosses a barline keeps its note roles but does
// not merge beats.
func (a *assigner) regroup(groups []span) {
	content := a.stave.Content
	n := len(content.Beats)
	if n == 0 || len(groups) == 0 {
		return
	}

	target := make([]int, n)
	for i := range target {
		target[i] = i
	}
	merged := false

	for _, g := range groups {
		first := a.elementIndex[g.Notes[0]]
		last := a.elementIndex[g.Notes[len(g.Notes)-1]]
		if bar := barlineBetween(content, first, last); bar != nil {
			a.warn(score.WarnBeatGroupBarline, g.Pos,
				"beat group crosses the barline at %s; beats are not merged", bar.Source.Position)
			continue
		}
		from, to := content.Elements[first].Beat, content.Elements[last].Beat
		if from == to {
			content.Beats[from].Grouped = true
			continue
		}
		root := target[from]
		for b := from; b <= to; b++ {
			old := target[b]
			for k := range target {
				if target[k] == old {
					target[k] = root
				}
			}
		}
		merged = true
	}

	if !merged {
		return
	}

	remap := make([]int, n)
	var beats []*score.Beat
	for b := 0; b < n; b++ {
		if target[b] != b {
			nb := beats[remap[target[b]]]
			nb.Elements = append(nb.Elements, content.Beats[b].Elements...)
			nb.Grouped = true
			remap[b] = remap[target[b]]
			continue
		}
		remap[b] = len(beats)
		beats = append(beats, content.Beats[b])
	}

	for _, e := range content.Elements {
		if e.Beat >= 0 {
			e.Beat = remap[e.Beat]
		}
	}
	content.Beats = beats
}

// barlineBetween returns the first barline strictly between two elements.
func barlineBetween(c *score.ContentLine, from, to int) *score.Element {
	for i := from + 1; i < to; i++ {
		if c.Elements[i].Kind == score.ElementBarline {
			return c.Elements[i]
		}
	}
	return nil
}
