package parser

import (
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/musictext/core/score"
)

// annotationLexer splits annotation lines into shapes. Order matters: spans
// before single underscores, words before octave dots so a full stop after a
// lyric stays part of the word, and Other last so every line tokenizes.
var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Span", Pattern: `_{2,}`},
	{Name: "Underscore", Pattern: `_`},
	{Name: "Word", Pattern: `[\p{L}\p{M}][\p{L}\p{M}'’\-]*[,;.!?]*`},
	{Name: "Octave", Pattern: `[.:*•]`},
	{Name: "Mordent", Pattern: `~`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Other", Pattern: `.`},
})

var annotationKinds = func() map[lexer.TokenType]score.TokenKind {
	sym := annotationLexer.Symbols()
	return map[lexer.TokenType]score.TokenKind{
		sym["Span"]:       score.TokenSpan,
		sym["Underscore"]: score.TokenUnderscore,
		sym["Word"]:       score.TokenWord,
		sym["Octave"]:     score.TokenOctave,
		sym["Mordent"]:    score.TokenMordent,
		sym["Other"]:      score.TokenOther,
	}
}()

// TokenizeAnnotation splits one annotation line into positioned tokens. The
// returned line is unclassified.
func TokenizeAnnotation(text string, line int, placement score.Placement) *score.AnnotationLine {
	al := &score.AnnotationLine{
		Line:      line,
		Text:      text,
		Placement: placement,
	}

	lex, err := annotationLexer.LexString("", text)
	if err != nil {
		return al
	}
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			// Other matches any rune, so an error here means invalid UTF-8;
			// whatever was read so far is kept.
			return al
		}
		kind, ok := annotationKinds[tok.Type]
		if !ok {
			continue
		}
		al.Tokens = append(al.Tokens, &score.AnnotationToken{
			Kind:   kind,
			Source: score.NewSource(tok.Value, score.Position{Line: line, Column: tok.Pos.Column}),
			Width:  utf8.RuneCountInString(tok.Value),
		})
	}
}
