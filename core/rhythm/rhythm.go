// Package rhythm derives note durations and tuplet ratios from the beats of
// a content line.
//
// A beat always lasts a quarter note. Its notes, dashes and breath marks
// divide it evenly; a note is lengthened by the dashes that follow it within
// the same beat, with breath marks passed over. Dashes at the start of a beat
// continue the last note of an earlier beat as a tie, or form a rest when the
// line has no earlier note.
package rhythm

import (
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/score"
)

// Analyze sets durations on every note and dash of the stave's content line
// and division metadata on every beat. A beat that cannot be analyzed keeps
// no durations, records its error and is reported in the returned slice;
// sibling beats are unaffected.
func Analyze(stave *score.Stave) []*errors.RhythmError {
	content := stave.Content
	if content == nil {
		return nil
	}

	var errs []*errors.RhythmError
	lastNote := -1
	for b, beat := range content.Beats {
		next, err := analyzeBeat(content, b, beat, lastNote)
		if err != nil {
			beat.Error = err.Message
			stave.BeatErrors = append(stave.BeatErrors, err.Error())
			errs = append(errs, err)
		}
		lastNote = next
	}
	return errs
}

// analyzeBeat fills one beat. lastNote is the element index of the last note
// seen on the line so far, or -1; the updated value is returned.
func analyzeBeat(c *score.ContentLine, b int, beat *score.Beat, lastNote int) (int, *errors.RhythmError) {
	n := len(beat.Elements)
	beat.Divisions = n
	if n == 0 {
		return lastNote, nil
	}

	unit := Unit(n)
	beatDur := BeatDuration
	beat.Duration = &beatDur
	if ratio, ok := Ratio(n); ok {
		beat.Tuplet = true
		beat.Ratio = &ratio
	}

	elems := c.BeatElements(b)
	for i := 0; i < len(elems); {
		e := elems[i]
		switch e.Kind {
		case score.ElementNote:
			if e.Note == nil {
				clearBeat(elems)
				return lastNote, errors.NewRhythm(b, c.Line, e.Column(), "note element has no pitch")
			}
			run, next := dashRun(elems, i+1)
			d := unit.Mul(int64(1 + run))
			e.Note.Duration = &d
			markDashes(elems[i+1:next], score.DashExtension, nil, nil)
			lastNote = beat.Elements[i]
			i = next

		case score.ElementDash:
			run, next := dashRun(elems, i)
			d := unit.Mul(int64(run))
			if lastNote >= 0 {
				tied := lastNote
				markDashes(elems[i:next], score.DashTie, &d, &tied)
			} else {
				markDashes(elems[i:next], score.DashRest, &d, nil)
			}
			i = next

		default:
			i++
		}
	}
	return lastNote, nil
}

// dashRun counts the dashes from elems[from] up to the next note. Breath marks
// inside the run take no time and do not end it. The returned index is the
// first element after the run.
func dashRun(elems []*score.Element, from int) (int, int) {
	n, i := 0, from
	for ; i < len(elems); i++ {
		switch elems[i].Kind {
		case score.ElementDash:
			n++
		case score.ElementBreath:
		default:
			return n, i
		}
	}
	return n, i
}

// markDashes sets role on every dash of a run. The first dash carries dur
// and tiedTo.
func markDashes(run []*score.Element, role score.DashRole, dur *score.Fraction, tiedTo *int) {
	first := true
	for _, e := range run {
		if e.Kind != score.ElementDash {
			continue
		}
		e.Dash = role
		if first {
			e.Duration = dur
			e.TiedTo = tiedTo
			first = false
		}
	}
}

// clearBeat drops any duration set on a beat that failed analysis.
func clearBeat(elems []*score.Element) {
	for _, e := range elems {
		e.Dash = ""
		e.Duration = nil
		e.TiedTo = nil
		if e.Note != nil {
			e.Note.Duration = nil
		}
	}
}
