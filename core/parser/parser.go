// Package parser implements the structural stage of musictext: it splits a
// document into paragraphs, reads the header, chooses the notation system,
// and recognizes the content line of every stave.
//
// Staves are independent once a Plan is prepared, so callers may run
// ParseStave for each paragraph concurrently and feed the results back to
// Plan.Add in paragraph order.
package parser

import (
	stderrors "errors"
	"strings"

	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/score"
)

// Failure kinds recorded in score.StaveFailure.
const (
	FailureStructural = "structural"
	FailureInternal   = "internal"
)

// Plan is a document whose global decisions have been made but whose staves
// have not been parsed yet.
type Plan struct {
	// Document holds the header, system and hash. Staves, text blocks and
	// failures are appended by Add.
	Document *score.Document

	// Paragraphs are the paragraphs left after the header, in order.
	Paragraphs []Paragraph

	// Shorthand is true when no line of the input contains a barline.
	Shorthand bool

	// Detected is false when the system was neither given nor recognized.
	Detected bool
}

// Prepare normalizes text and makes the document-wide decisions: the header
// paragraph, shorthand mode and the notation system. hint overrides
// detection when it is not empty.
func Prepare(text string, hint notation.System) (*Plan, error) {
	if hint != "" && !hint.IsValid() {
		return nil, errors.NewUnsupported("notation system", string(hint))
	}

	text = Normalize(text)
	paras := SplitParagraphs(text)
	plan := &Plan{
		Document:  &score.Document{Hash: score.HashString(text), Staves: []*score.Stave{}},
		Shorthand: !strings.Contains(text, "|"),
	}

	var header *Header
	if len(paras) > 0 {
		if _, err := findContentLine(paras[0], plan.Shorthand); stderrors.Is(err, ErrNoContent) {
			if h, ok := ParseHeader(paras[0]); ok && (len(h.Directives) > 0 || len(paras) > 1) {
				header = h
				paras = paras[1:]
			}
		}
	}
	plan.Paragraphs = paras

	doc := plan.Document
	if header != nil {
		doc.Title = header.Title
		doc.Author = header.Author
		doc.Directives = header.Directives
	}

	switch {
	case hint != "":
		doc.System, plan.Detected = hint, true
	case header != nil:
		if s, ok := header.System(); ok {
			doc.System, plan.Detected = s, true
			break
		}
		fallthrough
	default:
		doc.System, plan.Detected = notation.Detect(contentCandidates(paras, plan.Shorthand))
	}
	return plan, nil
}

// contentCandidates collects every line that would be read as a content line.
func contentCandidates(paras []Paragraph, shorthand bool) []string {
	var out []string
	for _, p := range paras {
		for _, line := range p.Lines {
			if isCandidate(line, shorthand) {
				out = append(out, line)
			}
		}
	}
	return out
}

// ParseStave parses the i-th paragraph of the plan.
func (p *Plan) ParseStave(i int) (*score.Stave, error) {
	return ParseStave(p.Paragraphs[i], p.Document.System, p.Shorthand)
}

// Add records the outcome of parsing a paragraph. It must be called in
// paragraph order. A nil stave with ErrNoContent becomes a text block; any
// other error drops the stave and is recorded as a failure.
func (p *Plan) Add(para Paragraph, stave *score.Stave, err error) {
	doc := p.Document
	switch {
	case err == nil:
		doc.Staves = append(doc.Staves, stave)
	case stderrors.Is(err, ErrNoContent):
		doc.Text = append(doc.Text, score.TextBlock{StartLine: para.StartLine, Lines: para.Lines})
		doc.Warnings = append(doc.Warnings, score.NewWarning(score.WarnPlainText,
			score.Position{Line: para.StartLine, Column: 1},
			"paragraph has no content line and is kept as text"))
	default:
		doc.Failures = append(doc.Failures, Failure(para, err))
	}
}

// Failure describes err as a stave failure for paragraph para.
func Failure(para Paragraph, err error) score.StaveFailure {
	f := score.StaveFailure{
		Index:    para.Index,
		Position: score.Position{Line: para.StartLine, Column: 1},
		Kind:     FailureStructural,
		Message:  err.Error(),
	}
	var se *errors.StructuralParseError
	var ie *errors.AssignmentInternalError
	switch {
	case errors.As(err, &se):
		f.Position = score.Position{Line: se.Line, Column: se.Column}
		f.Message = se.Message
	case errors.As(err, &ie):
		f.Kind = FailureInternal
		f.Position = score.Position{Line: ie.Line, Column: ie.Column}
	case errors.Is(err, errors.ErrInternal):
		f.Kind = FailureInternal
	}
	return f
}

// Parse runs the structural stage over text sequentially. The returned
// staves have unclassified annotation lines.
func Parse(text string, hint notation.System) (*score.Document, error) {
	plan, err := Prepare(text, hint)
	if err != nil {
		return nil, err
	}
	for i, para := range plan.Paragraphs {
		stave, err := plan.ParseStave(i)
		plan.Add(para, stave, err)
	}
	return plan.Document, nil
}
