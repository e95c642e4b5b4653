package score

import (
	"strings"

	"github.com/FocuswithJustin/musictext/core/notation"
)

// Role is a note's place within a slur or beat-group span.
type Role string

// Span roles.
const (
	RoleNone   Role = ""
	RoleStart  Role = "start"
	RoleMiddle Role = "middle"
	RoleEnd    Role = "end"
)

// RoleAt returns the role of the i-th of n notes covered by a span.
func RoleAt(i, n int) Role {
	switch {
	case n < 2:
		return RoleNone
	case i == 0:
		return RoleStart
	case i == n-1:
		return RoleEnd
	default:
		return RoleMiddle
	}
}

// ElementKind identifies a content element.
type ElementKind string

// Content element kinds.
const (
	ElementNote    ElementKind = "note"
	ElementDash    ElementKind = "dash"
	ElementBarline ElementKind = "barline"
	ElementBreath  ElementKind = "breath"
)

// BarlineKind distinguishes barline glyphs.
type BarlineKind string

// Barline kinds.
const (
	BarSingle      BarlineKind = "single"
	BarDouble      BarlineKind = "double"
	BarFinal       BarlineKind = "final"
	BarRepeatStart BarlineKind = "repeat_start"
	BarRepeatEnd   BarlineKind = "repeat_end"
	BarRepeatBoth  BarlineKind = "repeat_both"
)

var barlineKinds = map[string]BarlineKind{
	"|":   BarSingle,
	"||":  BarDouble,
	"|]":  BarFinal,
	"|:":  BarRepeatStart,
	":|":  BarRepeatEnd,
	":|:": BarRepeatBoth,
}

// BarlineKindOf maps a barline glyph to its kind.
func BarlineKindOf(glyph string) BarlineKind {
	if k, ok := barlineKinds[glyph]; ok {
		return k
	}
	return BarSingle
}

// DashRole is the rhythmic meaning of a dash, set by rhythm analysis.
type DashRole string

// Dash roles.
const (
	// DashExtension lengthens the preceding note in the same beat.
	DashExtension DashRole = "extension"

	// DashRest heads a run of leading dashes with no earlier note on the line.
	DashRest DashRole = "rest"

	// DashTie heads a run of leading dashes continuing an earlier note.
	DashTie DashRole = "tie"
)

// Note holds the musical attributes of a pitch element.
type Note struct {
	// Pitch is the system-independent pitch code (e.g. "N4s").
	Pitch notation.PitchCode `json:"pitch"`

	// Octave is the signed octave offset; 0 is the middle octave.
	Octave int `json:"octave"`

	// OctaveFrom is the marker position that set Octave, if any.
	OctaveFrom *Position `json:"octave_from,omitempty"`

	// Duration is set by rhythm analysis.
	Duration *Fraction `json:"duration,omitempty"`

	// Slur is the note's role in a slur span.
	Slur Role `json:"slur,omitempty"`

	// BeatGroup is the note's role in an explicit beat group.
	BeatGroup Role `json:"beat_group,omitempty"`

	// Syllable is the lyric syllable sung on this note.
	Syllable string `json:"syllable,omitempty"`

	// Continuation marks a slurred note that carries the previous syllable.
	Continuation bool `json:"continuation,omitempty"`

	// Ornament names an ornament bound from the upper line (e.g. "mordent").
	Ornament string `json:"ornament,omitempty"`
}

// HasOctave reports whether an octave marker was bound to the note.
func (n *Note) HasOctave() bool {
	return n.OctaveFrom != nil
}

// Element is one content-line element.
type Element struct {
	Kind   ElementKind `json:"kind"`
	Source Source      `json:"source"`

	// Beat is the index into ContentLine.Beats, or -1 for barlines.
	Beat int `json:"beat"`

	// Note is set for note elements.
	Note *Note `json:"note,omitempty"`

	// Barline is set for barline elements.
	Barline BarlineKind `json:"barline,omitempty"`

	// Dash and Duration are set for dashes by rhythm analysis. Only the
	// first dash of a rest or tie run carries a duration.
	Dash     DashRole  `json:"dash,omitempty"`
	Duration *Fraction `json:"duration,omitempty"`

	// TiedTo is the element index of the note a tie continues.
	TiedTo *int `json:"tied_to,omitempty"`
}

// Column returns the element's start column.
func (e *Element) Column() int {
	return e.Source.Position.Column
}

// TupletRatio expresses Actual notes in the time of Normal.
type TupletRatio struct {
	Actual int `json:"actual"`
	Normal int `json:"normal"`
}

// Beat is one rhythmic unit of a content line.
type Beat struct {
	// Elements are indices into ContentLine.Elements, in order.
	Elements []int `json:"elements"`

	// Grouped is true when the beat was formed by an explicit beat group.
	Grouped bool `json:"grouped,omitempty"`

	// Divisions is the number of notes, dashes and breath marks in the beat.
	Divisions int `json:"divisions"`

	// Duration is the total duration of the beat.
	Duration *Fraction `json:"duration,omitempty"`

	// Tuplet is true when Divisions is not a power of two.
	Tuplet bool `json:"tuplet"`

	// Ratio is set for tuplets.
	Ratio *TupletRatio `json:"ratio,omitempty"`

	// Error is set when the beat could not be analyzed.
	Error string `json:"error,omitempty"`
}

// ContentLine is the single musical line of a stave.
type ContentLine struct {
	Line     int             `json:"line"`
	Text     string          `json:"text"`
	System   notation.System `json:"system"`
	Implicit bool            `json:"implicit,omitempty"`
	Elements []*Element      `json:"elements"`
	Beats    []*Beat         `json:"beats"`
}

// Notes returns the note elements in order.
func (c *ContentLine) Notes() []*Element {
	var out []*Element
	for _, e := range c.Elements {
		if e.Kind == ElementNote {
			out = append(out, e)
		}
	}
	return out
}

// BeatElements returns the elements of beat i.
func (c *ContentLine) BeatElements(i int) []*Element {
	if i < 0 || i >= len(c.Beats) {
		return nil
	}
	out := make([]*Element, len(c.Beats[i].Elements))
	for j, idx := range c.Beats[i].Elements {
		out[j] = c.Elements[idx]
	}
	return out
}

// Placement is an annotation line's side of the content line.
type Placement string

// Placements.
const (
	Above Placement = "above"
	Below Placement = "below"
)

// LineRole is the semantic role assigned by the line classifier.
type LineRole string

// Line roles.
const (
	RoleUnclassified LineRole = ""
	UpperLine        LineRole = "upper"
	LowerLine        LineRole = "lower"
	LyricsLine       LineRole = "lyrics"
	TextLine         LineRole = "text"
)

// TokenKind classifies an annotation token by shape.
type TokenKind string

// Annotation token kinds.
const (
	TokenOctave     TokenKind = "octave"
	TokenSpan       TokenKind = "span"
	TokenUnderscore TokenKind = "underscore"
	TokenWord       TokenKind = "word"
	TokenMordent    TokenKind = "mordent"
	TokenOther      TokenKind = "other"
)

// IsMarker reports whether the token is an octave marker or a span.
func (k TokenKind) IsMarker() bool {
	return k == TokenOctave || k == TokenSpan
}

// AnnotationToken is one positioned token of an annotation line.
type AnnotationToken struct {
	Kind   TokenKind `json:"kind"`
	Source Source    `json:"source"`

	// Width is the token length in columns, kept so spans stay measurable
	// after their value is consumed.
	Width int `json:"width"`
}

// End returns the last column covered by the token.
func (t *AnnotationToken) End() int {
	return t.Source.Position.Column + t.Width - 1
}

// AnnotationLine is a non-content line of a stave.
type AnnotationLine struct {
	Line      int                `json:"line"`
	Text      string             `json:"text"`
	Placement Placement          `json:"placement"`
	Role      LineRole           `json:"role"`
	Tokens    []*AnnotationToken `json:"tokens"`
}

// Stave is one musical paragraph.
type Stave struct {
	Index     int               `json:"index"`
	StartLine int               `json:"start_line"`
	Above     []*AnnotationLine `json:"above,omitempty"`
	Content   *ContentLine      `json:"content"`
	Below     []*AnnotationLine `json:"below,omitempty"`
	Warnings  []Warning         `json:"warnings,omitempty"`

	// BeatErrors lists beats that failed rhythm analysis.
	BeatErrors []string `json:"beat_errors,omitempty"`
}

// Annotations returns every annotation line in source order.
func (s *Stave) Annotations() []*AnnotationLine {
	out := make([]*AnnotationLine, 0, len(s.Above)+len(s.Below))
	out = append(out, s.Above...)
	return append(out, s.Below...)
}

// Warn records a warning on the stave.
func (s *Stave) Warn(kind WarningKind, pos Position, format string, args ...any) {
	s.Warnings = append(s.Warnings, NewWarning(kind, pos, format, args...))
}

// Directive is a "key: value" header line.
type Directive struct {
	Key      string   `json:"key"`
	Value    string   `json:"value"`
	Position Position `json:"position"`
}

// TextBlock is a paragraph with no content line.
type TextBlock struct {
	StartLine int      `json:"start_line"`
	Lines     []string `json:"lines"`
}

// StaveFailure records a stave dropped by a fatal error.
type StaveFailure struct {
	Index    int      `json:"index"`
	Position Position `json:"position"`
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
}

// Document is the fully analyzed result of one input text.
type Document struct {
	ID         string          `json:"id,omitempty"`
	Hash       string          `json:"hash"`
	Title      string          `json:"title,omitempty"`
	Author     string          `json:"author,omitempty"`
	Directives []Directive     `json:"directives,omitempty"`
	System     notation.System `json:"system"`
	Staves     []*Stave        `json:"staves"`
	Text       []TextBlock     `json:"text,omitempty"`
	Failures   []StaveFailure  `json:"failures,omitempty"`
	Warnings   []Warning       `json:"warnings,omitempty"`
}

// Directive returns the value of the first directive with key, matched
// case-insensitively.
func (d *Document) Directive(key string) (string, bool) {
	for _, dir := range d.Directives {
		if strings.EqualFold(dir.Key, key) {
			return dir.Value, true
		}
	}
	return "", false
}

// AllWarnings returns document and stave warnings in source order.
func (d *Document) AllWarnings() []Warning {
	out := append([]Warning(nil), d.Warnings...)
	for _, s := range d.Staves {
		out = append(out, s.Warnings...)
	}
	SortWarnings(out)
	return out
}

// NoteCount returns the number of notes across all staves.
func (d *Document) NoteCount() int {
	n := 0
	for _, s := range d.Staves {
		if s.Content != nil {
			n += len(s.Content.Notes())
		}
	}
	return n
}
