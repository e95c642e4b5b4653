package parser

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/score"
)

// Header is the metadata paragraph at the top of a document.
type Header struct {
	Title      string
	Author     string
	Directives []score.Directive
	Extra      []string
}

// System returns the notation system named by a "system:" directive, if any.
func (h *Header) System() (notation.System, bool) {
	for _, d := range h.Directives {
		if !strings.EqualFold(d.Key, "system") {
			continue
		}
		s, err := notation.ParseSystem(d.Value)
		if err == nil && s != "" {
			return s, true
		}
	}
	return "", false
}

// headerGrammar is the participle grammar for a header paragraph.
//
//nolint:govet // participle grammar tags are not standard struct tags
type headerGrammar struct {
	Lines []*headerLine `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type headerLine struct {
	Pos       lexer.Position
	Directive string `  @Directive`
	Text      string `| @Text`
}

// headerLexer defines line-level tokens for header paragraphs.
var headerLexer = lexer.MustSimple([]lexer.SimpleRule{
	// key: value (the key holds no colon or barline)
	{Name: "Directive", Pattern: `[^\s:|][^:|\n]*:[^\n]*`},
	{Name: "Text", Pattern: `[^\s][^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Newline", Pattern: `\n`},
})

var headerParser = participle.MustBuild[headerGrammar](
	participle.Lexer(headerLexer),
	participle.Elide("Whitespace", "Newline"),
)

// titleSeparator splits "Title    Author".
var titleSeparator = regexp.MustCompile(`\s{4,}`)

// ParseHeader reads directives and the title line from a paragraph. The
// boolean is false when the paragraph cannot be read as a header.
func ParseHeader(p Paragraph) (*Header, bool) {
	g, err := headerParser.ParseString("", strings.Join(p.Lines, "\n"))
	if err != nil {
		return nil, false
	}

	h := &Header{}
	titleSeen := false
	for _, line := range g.Lines {
		pos := score.Position{Line: p.StartLine + line.Pos.Line - 1, Column: line.Pos.Column}
		if line.Directive != "" {
			if d, ok := directive(line.Directive, pos); ok {
				h.Directives = append(h.Directives, d)
				continue
			}
			line.Text = line.Directive
		}
		if !titleSeen {
			h.Title, h.Author = splitTitle(line.Text)
			titleSeen = true
			continue
		}
		h.Extra = append(h.Extra, line.Text)
	}

	if v, ok := h.lookup("title"); ok && h.Title == "" {
		h.Title = v
	}
	if v, ok := h.lookup("author"); ok && h.Author == "" {
		h.Author = v
	}
	return h, true
}

func (h *Header) lookup(key string) (string, bool) {
	for _, d := range h.Directives {
		if strings.EqualFold(d.Key, key) {
			return d.Value, true
		}
	}
	return "", false
}

func directive(text string, pos score.Position) (score.Directive, bool) {
	idx := strings.Index(text, ":")
	if idx < 0 {
		return score.Directive{}, false
	}
	key := strings.TrimSpace(text[:idx])
	if key == "" || looksMusical(key) {
		return score.Directive{}, false
	}
	return score.Directive{
		Key:      key,
		Value:    strings.TrimSpace(text[idx+1:]),
		Position: pos,
	}, true
}

// looksMusical reports whether s reads as notation rather than a key: some
// system tokenizes it completely into two or more pitches.
func looksMusical(s string) bool {
	for _, sys := range notation.Candidates(s) {
		if line, err := notation.Tokenize(sys, s); err == nil && line.PitchCount() >= 2 {
			return true
		}
	}
	return false
}

func splitTitle(text string) (title, author string) {
	text = strings.TrimSpace(text)
	loc := titleSeparator.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[1]:])
}
