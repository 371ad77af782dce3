// Package parser builds a syntax tree from map-algebra source.
//
// The parser is a recursive descent over the token stream produced by the
// lexer. It implements the front-end boundary consumed by the compiler:
//
//	parse(source) -> (tree, tokens) | SyntaxError{line, column, message}
//
// The first malformed construct stops the parse; no recovery is attempted.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/diag"
	"github.com/rasterkit/mapalg/internal/lexer"
)

// Parser parses a script into a syntax tree.
type Parser struct {
	source string
	tokens []lexer.Token
	pos    int
}

// New creates a new parser for the given source.
func New(source string) *Parser {
	lex := lexer.New(source)
	return &Parser{
		source: source,
		tokens: lex.Tokenize(),
	}
}

// Parse parses the source and returns the syntax tree together with the
// token stream it was built from.
func (p *Parser) Parse() (*ast.Program, []lexer.Token, *diag.SyntaxError) {
	prog := &ast.Program{}
	for p.current().Kind != lexer.TokEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, p.tokens, nil
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, *diag.SyntaxError) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", kind, describe(tok))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...any) *diag.SyntaxError {
	line, col := tok.Line, tok.Col
	// Anchor end-of-script errors at the last real token, not at the EOF
	// position on the line below.
	if tok.Kind == lexer.TokEOF && p.pos > 0 {
		prev := p.tokens[p.pos-1]
		line, col = prev.Line, prev.Col+len(prev.Text)
	}
	return &diag.SyntaxError{
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokEOF:
		return "end of script"
	case lexer.TokError:
		return fmt.Sprintf("invalid character %q", tok.Text)
	case lexer.TokIdent, lexer.TokNumber:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	default:
		return fmt.Sprintf("%q", tok.Text)
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// parseStatement parses: name = expr ;
func (p *Parser) parseStatement() (ast.Stmt, *diag.SyntaxError) {
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokEq); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSemi); err != nil {
		return nil, err
	}
	return &ast.AssignStmt{Pos: name.Pos, Name: name.Text, Value: value}, nil
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Precedence, loosest first:
//
//	?:  ||  &&  (== !=)  (< <= > >=)  (+ -)  (* / %)  ^  (unary - !)

func (p *Parser) parseExpr() (ast.Expr, *diag.SyntaxError) {
	return p.parseConditional()
}

func (p *Parser) parseConditional() (ast.Expr, *diag.SyntaxError) {
	guard, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().Kind != lexer.TokQuestion {
		return guard, nil
	}
	q := p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokColon); err != nil {
		return nil, err
	}
	// Right-associative: a ? b : c ? d : e
	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &ast.CondExpr{Pos: q.Pos, Guard: guard, Then: then, Else: els}, nil
}

// parseBinaryChain parses a left-associative run of binary operators. The
// next function parses operands one precedence level tighter; ops maps the
// operator tokens handled at this level.
func (p *Parser) parseBinaryChain(next func() (ast.Expr, *diag.SyntaxError), ops map[lexer.TokenKind]ast.BinaryOp) (ast.Expr, *diag.SyntaxError) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.current().Kind]
		if !ok {
			return left, nil
		}
		tok := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: tok.Pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseOr() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parseAnd, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokPipePipe: ast.BinOpOr,
	})
}

func (p *Parser) parseAnd() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parseEquality, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokAmpAmp: ast.BinOpAnd,
	})
}

func (p *Parser) parseEquality() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parseComparison, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokEqEq:   ast.BinOpEq,
		lexer.TokBangEq: ast.BinOpNe,
	})
}

func (p *Parser) parseComparison() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parseAdditive, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokLt:   ast.BinOpLt,
		lexer.TokLtEq: ast.BinOpLe,
		lexer.TokGt:   ast.BinOpGt,
		lexer.TokGtEq: ast.BinOpGe,
	})
}

func (p *Parser) parseAdditive() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parseMultiplicative, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokPlus:  ast.BinOpAdd,
		lexer.TokMinus: ast.BinOpSub,
	})
}

func (p *Parser) parseMultiplicative() (ast.Expr, *diag.SyntaxError) {
	return p.parseBinaryChain(p.parsePower, map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokStar:    ast.BinOpMul,
		lexer.TokSlash:   ast.BinOpDiv,
		lexer.TokPercent: ast.BinOpMod,
	})
}

// parsePower parses the right-associative power operator: a ^ b ^ c.
func (p *Parser) parsePower() (ast.Expr, *diag.SyntaxError) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().Kind != lexer.TokCaret {
		return base, nil
	}
	op := p.advance()
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Pos: op.Pos, Op: ast.BinOpPow, Left: base, Right: exp}, nil
}

func (p *Parser) parseUnary() (ast.Expr, *diag.SyntaxError) {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: tok.Pos, Op: ast.UnaryOpNeg, Operand: operand}, nil
	case lexer.TokBang:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: tok.Pos, Op: ast.UnaryOpNot, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, *diag.SyntaxError) {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokNumber:
		p.advance()
		value, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q", tok.Text)
		}
		return &ast.NumberLit{Pos: tok.Pos, Value: value}, nil

	case lexer.TokIdent:
		p.advance()
		switch p.current().Kind {
		case lexer.TokLParen:
			return p.parseCallArgs(tok)
		case lexer.TokLBracket:
			return p.parseNeighbor(tok)
		}
		return &ast.IdentExpr{Pos: tok.Pos, Name: tok.Text}, nil

	case lexer.TokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.TokEOF:
		return nil, p.errorf(tok, "unexpected end of script in expression")

	default:
		return nil, p.errorf(tok, "unexpected %s in expression", describe(tok))
	}
}

// parseCallArgs parses the argument list of a call: name(a, b, ...).
func (p *Parser) parseCallArgs(name lexer.Token) (ast.Expr, *diag.SyntaxError) {
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	call := &ast.CallExpr{Pos: name.Pos, Name: name.Text}
	if p.current().Kind != lexer.TokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.current().Kind != lexer.TokComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	return call, nil
}

// parseNeighbor parses a relative pixel read: name[dx, dy].
func (p *Parser) parseNeighbor(name lexer.Token) (ast.Expr, *diag.SyntaxError) {
	if _, err := p.expect(lexer.TokLBracket); err != nil {
		return nil, err
	}
	dx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokComma); err != nil {
		return nil, err
	}
	dy, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRBracket); err != nil {
		return nil, err
	}
	return &ast.NeighborExpr{Pos: name.Pos, Name: name.Text, DX: dx, DY: dy}, nil
}
