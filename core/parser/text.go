package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Paragraph is a run of non-blank lines.
type Paragraph struct {
	Index     int
	StartLine int
	Lines     []string
}

// LineNumber returns the 1-based source line of the i-th paragraph line.
func (p Paragraph) LineNumber(i int) int {
	return p.StartLine + i
}

// Normalize converts text to NFC and unifies line endings, so columns are
// counted the same way for every token.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}

// SplitParagraphs splits text on one or more blank lines. Lines holding only
// whitespace count as blank. Trailing whitespace is trimmed from each line.
func SplitParagraphs(text string) []Paragraph {
	var (
		out     []Paragraph
		current *Paragraph
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			if current != nil {
				out = append(out, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &Paragraph{Index: len(out), StartLine: i + 1}
		}
		current.Lines = append(current.Lines, line)
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}
