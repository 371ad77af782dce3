package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeStatement(t *testing.T) {
	tokens := New("result = src + 1.5;").Tokenize()
	assert.Equal(t, []TokenKind{
		TokIdent, TokEq, TokIdent, TokPlus, TokNumber, TokSemi, TokEOF,
	}, kinds(tokens))
	assert.Equal(t, "result", tokens[0].Text)
	assert.Equal(t, "src", tokens[2].Text)
	assert.Equal(t, "1.5", tokens[4].Text)
}

func TestTokenizeOperators(t *testing.T) {
	testData := []struct {
		source string
		kind   TokenKind
	}{
		{"+", TokPlus},
		{"-", TokMinus},
		{"*", TokStar},
		{"/", TokSlash},
		{"%", TokPercent},
		{"^", TokCaret},
		{"!", TokBang},
		{"?", TokQuestion},
		{":", TokColon},
		{"=", TokEq},
		{"<", TokLt},
		{">", TokGt},
		{"&&", TokAmpAmp},
		{"||", TokPipePipe},
		{"<=", TokLtEq},
		{">=", TokGtEq},
		{"==", TokEqEq},
		{"!=", TokBangEq},
		{"(", TokLParen},
		{")", TokRParen},
		{"[", TokLBracket},
		{"]", TokRBracket},
		{",", TokComma},
		{";", TokSemi},
	}
	for _, testD := range testData {
		tokens := New(testD.source).Tokenize()
		require.Len(t, tokens, 2, "source %q", testD.source)
		assert.Equal(t, testD.kind, tokens[0].Kind, "source %q", testD.source)
		assert.Equal(t, testD.source, tokens[0].Text, "source %q", testD.source)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	testData := []struct {
		source string
		text   string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.25", "3.25"},
		{"1e10", "1e10"},
		{"2.5e-3", "2.5e-3"},
		{"7E+2", "7E+2"},
	}
	for _, testD := range testData {
		tokens := New(testD.source).Tokenize()
		require.Len(t, tokens, 2, "source %q", testD.source)
		assert.Equal(t, TokNumber, tokens[0].Kind, "source %q", testD.source)
		assert.Equal(t, testD.text, tokens[0].Text, "source %q", testD.source)
	}
}

func TestTokenizeComments(t *testing.T) {
	source := `a = 1; // line comment
/* block
   comment */ b = 2;
c = /* nested /* block */ comment */ 3;`
	tokens := New(source).Tokenize()
	assert.Equal(t, []TokenKind{
		TokIdent, TokEq, TokNumber, TokSemi,
		TokIdent, TokEq, TokNumber, TokSemi,
		TokIdent, TokEq, TokNumber, TokSemi,
		TokEOF,
	}, kinds(tokens))
}

func TestLineAndColumnTracking(t *testing.T) {
	source := "a = 1;\n  b = 2;"
	tokens := New(source).Tokenize()

	require.GreaterOrEqual(t, len(tokens), 8)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Col)
	// b on line 2, after two spaces
	assert.Equal(t, "b", tokens[4].Text)
	assert.Equal(t, 2, tokens[4].Line)
	assert.Equal(t, 3, tokens[4].Col)
}

func TestInvalidCharacter(t *testing.T) {
	tokens := New("a = @;").Tokenize()
	require.True(t, len(tokens) >= 3)
	assert.Equal(t, TokError, tokens[2].Kind)
	assert.Equal(t, "@", tokens[2].Text)
}

func TestNextMatchesTokenize(t *testing.T) {
	source := "v = max(a, b) ^ 2;"
	all := New(source).Tokenize()

	lex := New(source)
	for _, want := range all {
		got := lex.Next()
		assert.Equal(t, want, got)
	}
}
