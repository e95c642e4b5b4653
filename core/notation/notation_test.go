package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSystem(t *testing.T) {
	tests := []struct {
		in      string
		want    System
		wantErr bool
	}{
		{"", "", false},
		{"auto", "", false},
		{"Number", Number, false},
		{"numeric", Number, false},
		{"sargam", Sargam, false},
		{"WESTERN", Western, false},
		{"devanagari", Bhatkhande, false},
		{"tabla", Tabla, false},
		{"solfege", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSystem(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		system System
		symbol string
		want   PitchCode
	}{
		{Number, "1", "N1"},
		{Number, "4#", "N4s"},
		{Number, "7bb", "N7bb"},
		{Western, "C", "N1"},
		{Western, "Bb", "N7b"},
		{Western, "F##", "N4ss"},
		{Sargam, "S", "N1"},
		{Sargam, "s", "N1"},
		{Sargam, "r", "N2b"},
		{Sargam, "M", "N4s"},
		{Sargam, "M#", "N4ss"},
		{Sargam, "n", "N7b"},
		{Bhatkhande, "रे", "N2"},
		{Bhatkhande, "नि", "N7"},
		{Tabla, "terekita", "N1"},
		{Tabla, "dhin", "N1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.system)+"/"+tt.symbol, func(t *testing.T) {
			got, ok := Lookup(tt.system, tt.symbol)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Lookup(Western, "H")
	assert.False(t, ok)
}

func TestPitchCodeParts(t *testing.T) {
	assert.Equal(t, 4, PitchCode("N4s").Degree())
	assert.Equal(t, Sharp, PitchCode("N4s").Accidental())
	assert.Equal(t, DoubleFlat, PitchCode("N7bb").Accidental())
	assert.Equal(t, Natural, PitchCode("N1").Accidental())
	assert.Equal(t, 0, PitchCode("X9").Degree())
	assert.Equal(t, PitchCode("N2b"), Code(2, Flat))
}

func TestSymbolsLongestFirst(t *testing.T) {
	syms := Symbols(Tabla)
	require.NotEmpty(t, syms)
	assert.Equal(t, "terekita", syms[0])
	for i := 1; i < len(syms); i++ {
		assert.GreaterOrEqual(t, len([]rune(syms[i-1])), len([]rune(syms[i])))
	}
}

func TestTokenize(t *testing.T) {
	line, err := Tokenize(Number, "|1-2 3'|")
	require.NoError(t, err)

	kinds := make([]TokenKind, len(line.Tokens))
	for i, tok := range line.Tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{
		TokenBarline, TokenPitch, TokenDash, TokenPitch, TokenPitch, TokenBreath, TokenBarline,
	}, kinds)

	assert.Equal(t, 2, line.Beats)
	assert.Equal(t, 1, line.Tokens[0].Column)
	assert.Equal(t, 2, line.Tokens[1].Column)
	assert.Equal(t, 0, line.Tokens[1].Beat)
	assert.Equal(t, 0, line.Tokens[3].Beat)
	assert.Equal(t, 1, line.Tokens[4].Beat)
	assert.Equal(t, 6, line.Tokens[4].Column)
	assert.Equal(t, -1, line.Tokens[6].Beat)
	assert.True(t, line.HasBarline())
}

func TestTokenizeBarlines(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"|: 1 :|", []string{"|:", ":|"}},
		{"1 || 2 |]", []string{"||", "|]"}},
		{"1 :|: 2", []string{":|:"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			line, err := Tokenize(Number, tt.text)
			require.NoError(t, err)
			var got []string
			for _, tok := range line.Tokens {
				if tok.Kind == TokenBarline {
					got = append(got, tok.Value)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeAccidentalsAndBols(t *testing.T) {
	line, err := Tokenize(Western, "| C# Bb |")
	require.NoError(t, err)
	assert.Equal(t, PitchCode("N1s"), line.Tokens[1].Pitch)
	assert.Equal(t, PitchCode("N7b"), line.Tokens[2].Pitch)

	line, err = Tokenize(Tabla, "| terekita dha |")
	require.NoError(t, err)
	assert.Equal(t, "terekita", line.Tokens[1].Value)
	assert.Equal(t, 12, line.Tokens[2].Column)
}

func TestTokenizeDevanagariColumns(t *testing.T) {
	line, err := Tokenize(Bhatkhande, "| स रे |")
	require.NoError(t, err)
	require.Len(t, line.Tokens, 4)
	assert.Equal(t, 3, line.Tokens[1].Column)
	assert.Equal(t, 5, line.Tokens[2].Column)
	assert.Equal(t, PitchCode("N2"), line.Tokens[2].Pitch)
}

func TestTokenizeError(t *testing.T) {
	_, err := Tokenize(Number, "| 1 x 2 |")
	require.Error(t, err)

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 5, lexErr.Column)
	assert.Equal(t, Number, lexErr.System)
}

func TestLongestPitchRun(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"1 2 3", 3},
		{"1  2", 2},
		{"1", 1},
		{"1-2 3", 2},
		{"123", 3},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			line, err := Tokenize(Number, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, line.LongestPitchRun())
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		want   System
		wantOK bool
	}{
		{"number", []string{"| 1 2 3 |"}, Number, true},
		{"sargam", []string{"| S R G m |"}, Sargam, true},
		{"western", []string{"| C D E F |"}, Western, true},
		{"tabla", []string{"| dha ge na ka |"}, Tabla, true},
		{"bhatkhande", []string{"| स रे ग |"}, Bhatkhande, true},
		{"shared glyphs prefer sargam", []string{"| G D |"}, Sargam, true},
		{"majority across lines", []string{"| C D E |", "| C |", "| 1 |"}, Western, true},
		{"nothing recognized", []string{"| x y |"}, Number, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.lines)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []System{Sargam, Western}, Candidates("G D"))
	assert.Equal(t, []System{Number}, Candidates("1 2"))
	assert.Empty(t, Candidates("1 C"))
}
