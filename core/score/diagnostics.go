package score

import (
	"fmt"
	"sort"
)

// WarningKind classifies a non-fatal diagnostic.
type WarningKind string

// Warning kinds.
const (
	// WarnClassification marks an annotation line with mixed token shapes.
	WarnClassification WarningKind = "classification_ambiguity"

	// WarnConflict marks a span deferred because a note was already claimed.
	WarnConflict WarningKind = "assignment_conflict"

	// WarnOutOfRange marks a marker with no note close enough to bind to.
	WarnOutOfRange WarningKind = "assignment_out_of_range"

	// WarnDeferredSpan marks a span covering fewer than two notes.
	WarnDeferredSpan WarningKind = "deferred_span"

	// WarnSurplusSyllable marks a syllable with no note left to carry it.
	WarnSurplusSyllable WarningKind = "surplus_syllable"

	// WarnIgnoredToken marks a token that has no meaning on its line.
	WarnIgnoredToken WarningKind = "ignored_token"

	// WarnBeatGroupBarline marks a beat group that crosses a barline.
	WarnBeatGroupBarline WarningKind = "beat_group_barline"

	// WarnPlainText marks a paragraph kept as text because it has no content line.
	WarnPlainText WarningKind = "plain_text"
)

var validWarningKinds = map[WarningKind]bool{
	WarnClassification:   true,
	WarnConflict:         true,
	WarnOutOfRange:       true,
	WarnDeferredSpan:     true,
	WarnSurplusSyllable:  true,
	WarnIgnoredToken:     true,
	WarnBeatGroupBarline: true,
	WarnPlainText:        true,
}

// IsValid returns true if the warning kind is known.
func (k WarningKind) IsValid() bool {
	return validWarningKinds[k]
}

// Warning is a positioned, non-fatal diagnostic.
type Warning struct {
	Position Position    `json:"position"`
	Kind     WarningKind `json:"kind"`
	Message  string      `json:"message"`
}

// NewWarning builds a warning with a formatted message.
func NewWarning(kind WarningKind, pos Position, format string, args ...any) Warning {
	return Warning{Position: pos, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s %s", w.Position, w.Kind, w.Message)
}

// SortWarnings orders warnings by position, keeping insertion order for ties.
func SortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].Position.Before(ws[j].Position)
	})
}

// CountByKind tallies warnings per kind.
func CountByKind(ws []Warning) map[WarningKind]int {
	counts := make(map[WarningKind]int)
	for _, w := range ws {
		counts[w.Kind]++
	}
	return counts
}
