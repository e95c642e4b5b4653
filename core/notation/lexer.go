package notation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind classifies a content-line token.
type TokenKind int

// Content token kinds.
const (
	TokenPitch TokenKind = iota
	TokenDash
	TokenBreath
	TokenBarline
)

func (k TokenKind) String() string {
	switch k {
	case TokenPitch:
		return "pitch"
	case TokenDash:
		return "dash"
	case TokenBreath:
		return "breath"
	case TokenBarline:
		return "barline"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is one positioned content-line token. Beat is the 0-based index of
// the whitespace-delimited beat the token belongs to, or -1 for barlines.
type Token struct {
	Kind   TokenKind
	Value  string
	Pitch  PitchCode
	Column int
	Beat   int
}

// Line is a content line split into tokens.
type Line struct {
	System System
	Tokens []Token
	Beats  int
}

// HasBarline reports whether the line contains a barline token.
func (l *Line) HasBarline() bool {
	for _, t := range l.Tokens {
		if t.Kind == TokenBarline {
			return true
		}
	}
	return false
}

// PitchCount returns the number of pitch tokens on the line.
func (l *Line) PitchCount() int {
	n := 0
	for _, t := range l.Tokens {
		if t.Kind == TokenPitch {
			n++
		}
	}
	return n
}

// LongestPitchRun returns the longest run of pitch tokens separated only by
// whitespace.
func (l *Line) LongestPitchRun() int {
	best, run := 0, 0
	for _, t := range l.Tokens {
		if t.Kind != TokenPitch {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

// LexError is returned when a line contains text the system cannot tokenize.
type LexError struct {
	System System
	Column int
	Err    error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("column %d: not valid %s notation: %v", e.Column, e.System, e.Err)
}

func (e *LexError) Unwrap() error { return e.Err }

// lineGrammar is the participle grammar for a content line. Whitespace is a
// real token here because it delimits beats.
//
//nolint:govet // participle grammar tags are not standard struct tags
type lineGrammar struct {
	Items []*lineItem `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type lineItem struct {
	Pos     lexer.Position
	Barline *string    `  @Barline`
	Space   *string    `| @Whitespace`
	Beat    *beatGroup `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type beatGroup struct {
	Elements []*beatElement `@@+`
}

//nolint:govet // participle grammar tags are not standard struct tags
type beatElement struct {
	Pos    lexer.Position
	Pitch  *string `  @Pitch`
	Dash   *string `| @Dash`
	Breath *string `| @Breath`
}

// barlinePattern lists barlines longest first: repeat both, final, double,
// repeat start, repeat end, single.
const barlinePattern = `:\|:|\|\]|\|\||\|:|:\||\|`

// contentLexer builds the participle lexer for one notation system.
func contentLexer(s System) *lexer.StatefulDefinition {
	syms := Symbols(s)
	quoted := make([]string, len(syms))
	for i, sym := range syms {
		quoted[i] = regexp.QuoteMeta(sym)
	}
	return lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Barline", Pattern: barlinePattern},
		{Name: "Pitch", Pattern: strings.Join(quoted, "|")},
		{Name: "Dash", Pattern: `-`},
		{Name: "Breath", Pattern: `'`},
		{Name: "Whitespace", Pattern: `[ \t]+`},
	})
}

// lineParsers holds one grammar per system, built once.
var lineParsers = func() map[System]*participle.Parser[lineGrammar] {
	parsers := make(map[System]*participle.Parser[lineGrammar], len(systems))
	for _, s := range systems {
		parsers[s] = participle.MustBuild[lineGrammar](participle.Lexer(contentLexer(s)))
	}
	return parsers
}()

// Tokenize splits a single content line into positioned tokens under the
// given system. Columns are 1-based code point offsets within text.
func Tokenize(s System, text string) (*Line, error) {
	p, ok := lineParsers[s]
	if !ok {
		return nil, fmt.Errorf("unknown notation system %q", s)
	}
	line := &Line{System: s}
	if strings.TrimSpace(text) == "" {
		return line, nil
	}

	g, err := p.ParseString("", text)
	if err != nil {
		col := 1
		var perr participle.Error
		if errors.As(err, &perr) {
			col = perr.Position().Column
		}
		return nil, &LexError{System: s, Column: col, Err: err}
	}

	beat := 0
	for _, item := range g.Items {
		switch {
		case item.Barline != nil:
			line.Tokens = append(line.Tokens, Token{
				Kind:   TokenBarline,
				Value:  *item.Barline,
				Column: item.Pos.Column,
				Beat:   -1,
			})
		case item.Beat != nil:
			for _, el := range item.Beat.Elements {
				tok := Token{Column: el.Pos.Column, Beat: beat}
				switch {
				case el.Pitch != nil:
					tok.Kind = TokenPitch
					tok.Value = *el.Pitch
					tok.Pitch, _ = Lookup(s, *el.Pitch)
				case el.Dash != nil:
					tok.Kind = TokenDash
					tok.Value = *el.Dash
				case el.Breath != nil:
					tok.Kind = TokenBreath
					tok.Value = *el.Breath
				}
				line.Tokens = append(line.Tokens, tok)
			}
			beat++
		}
	}
	line.Beats = beat
	return line, nil
}

// Accepts reports whether text tokenizes completely under the system.
func Accepts(s System, text string) bool {
	_, err := Tokenize(s, text)
	return err == nil
}
