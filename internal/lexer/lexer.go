// Package lexer provides tokenization for map-algebra scripts.
//
// The lexer converts a script source string into a sequence of tokens,
// handling:
// - Identifiers and built-in constant names
// - Numeric literals (int and float forms, both lexed as float64)
// - Operators and punctuation
// - Comments (line and block, with nesting)
// - Line/column tracking for diagnostics
package lexer

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokNumber

	// Identifiers (variables, function names, named constants)
	TokIdent

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokPercent  // %
	TokCaret    // ^
	TokBang     // !
	TokQuestion // ?
	TokColon    // :
	TokEq       // =
	TokLt       // <
	TokGt       // >

	// Multi-char operators
	TokAmpAmp   // &&
	TokPipePipe // ||
	TokLtEq     // <=
	TokGtEq     // >=
	TokEqEq     // ==
	TokBangEq   // !=

	// Delimiters
	TokLParen   // (
	TokRParen   // )
	TokLBracket // [
	TokRBracket // ]
	TokComma    // ,
	TokSemi     // ;
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:    "error",
	TokEOF:      "EOF",
	TokNumber:   "number",
	TokIdent:    "identifier",
	TokPlus:     "+",
	TokMinus:    "-",
	TokStar:     "*",
	TokSlash:    "/",
	TokPercent:  "%",
	TokCaret:    "^",
	TokBang:     "!",
	TokQuestion: "?",
	TokColon:    ":",
	TokEq:       "=",
	TokLt:       "<",
	TokGt:       ">",
	TokAmpAmp:   "&&",
	TokPipePipe: "||",
	TokLtEq:     "<=",
	TokGtEq:     ">=",
	TokEqEq:     "==",
	TokBangEq:   "!=",
	TokLParen:   "(",
	TokRParen:   ")",
	TokLBracket: "[",
	TokRBracket: "]",
	TokComma:    ",",
	TokSemi:     ";",
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind TokenKind
	Text string // Lexeme as written in source
	Pos  int    // Byte offset of start
	Line int    // 1-based line number
	Col  int    // 1-based column number
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes map-algebra source code.
type Lexer struct {
	source    string
	pos       int
	line      int
	lineStart int // Byte offset of the current line start
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{source: source, line: 1}
}

// Tokenize returns all tokens in the source. The returned slice always
// ends with a TokEOF or TokError token.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.source)/4) // Estimate
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.source) {
		return l.make(TokEOF, l.pos, "")
	}

	start := l.pos
	ch := l.source[l.pos]

	if isIdentStart(ch) {
		return l.scanIdent()
	}

	if isDigit(ch) || (ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])) {
		return l.scanNumber()
	}

	return l.scanOperator(start)
}

// make builds a token starting at the given byte offset.
func (l *Lexer) make(kind TokenKind, start int, text string) Token {
	return Token{
		Kind: kind,
		Text: text,
		Pos:  start,
		Line: l.line,
		Col:  start - l.lineStart + 1,
	}
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if ch == '\n' {
			l.pos++
			l.line++
			l.lineStart = l.pos
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.pos++
			continue
		}

		// Line comment
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.pos += 2
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
			continue
		}

		// Block comment (with nesting)
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			l.pos += 2
			depth := 1
			for l.pos < len(l.source) && depth > 0 {
				c := l.source[l.pos]
				if c == '\n' {
					l.pos++
					l.line++
					l.lineStart = l.pos
				} else if c == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
					depth++
					l.pos += 2
				} else if c == '*' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
					depth--
					l.pos += 2
				} else {
					l.pos++
				}
			}
			continue
		}

		break
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
		l.pos++
	}
	return l.make(TokIdent, start, l.source[start:l.pos])
}

func (l *Lexer) scanNumber() Token {
	start := l.pos

	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}

	// Fractional part
	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
	}

	// Exponent part
	if l.pos < len(l.source) && (l.source[l.pos] == 'e' || l.source[l.pos] == 'E') {
		next := l.pos + 1
		if next < len(l.source) && (l.source[next] == '+' || l.source[next] == '-') {
			next++
		}
		if next < len(l.source) && isDigit(l.source[next]) {
			l.pos = next
			for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
				l.pos++
			}
		}
	}

	return l.make(TokNumber, start, l.source[start:l.pos])
}

func (l *Lexer) scanOperator(start int) Token {
	ch := l.source[l.pos]
	next := byte(0)
	if l.pos+1 < len(l.source) {
		next = l.source[l.pos+1]
	}

	two := func(kind TokenKind) Token {
		l.pos += 2
		return l.make(kind, start, l.source[start:l.pos])
	}
	one := func(kind TokenKind) Token {
		l.pos++
		return l.make(kind, start, l.source[start:l.pos])
	}

	switch ch {
	case '+':
		return one(TokPlus)
	case '-':
		return one(TokMinus)
	case '*':
		return one(TokStar)
	case '/':
		return one(TokSlash)
	case '%':
		return one(TokPercent)
	case '^':
		return one(TokCaret)
	case '?':
		return one(TokQuestion)
	case ':':
		return one(TokColon)
	case '(':
		return one(TokLParen)
	case ')':
		return one(TokRParen)
	case '[':
		return one(TokLBracket)
	case ']':
		return one(TokRBracket)
	case ',':
		return one(TokComma)
	case ';':
		return one(TokSemi)
	case '=':
		if next == '=' {
			return two(TokEqEq)
		}
		return one(TokEq)
	case '!':
		if next == '=' {
			return two(TokBangEq)
		}
		return one(TokBang)
	case '<':
		if next == '=' {
			return two(TokLtEq)
		}
		return one(TokLt)
	case '>':
		if next == '=' {
			return two(TokGtEq)
		}
		return one(TokGt)
	case '&':
		if next == '&' {
			return two(TokAmpAmp)
		}
	case '|':
		if next == '|' {
			return two(TokPipePipe)
		}
	}

	tok := l.make(TokError, start, l.source[start:start+1])
	l.pos++
	return tok
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
