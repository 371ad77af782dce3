package optimizer

import (
	"github.com/rasterkit/mapalg/internal/ast"
)

// Simplify performs algebraic and structural normalization independent of
// variable roles:
//
//   - nested chains of the same associative operator are flattened and
//     rebuilt with literal operands grouped last, exposing matches for the
//     constant-fold pass
//   - identity operations with a literal operand are removed (add zero,
//     multiply by one, divide by one, power of one)
//   - negation of a literal becomes a negative literal
//
// Single pass, bottom-up.
func Simplify(prog *ast.Program) *ast.Program {
	out := &ast.Program{Stmts: make([]ast.Stmt, 0, len(prog.Stmts))}
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			out.Stmts = append(out.Stmts, &ast.AssignStmt{Pos: s.Pos, Name: s.Name, Value: simplifyExpr(s.Value)})
		case *ast.ImageWriteStmt:
			out.Stmts = append(out.Stmts, &ast.ImageWriteStmt{Pos: s.Pos, Name: s.Name, Value: simplifyExpr(s.Value)})
		default:
			out.Stmts = append(out.Stmts, stmt)
		}
	}
	return out
}

func simplifyExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		left := simplifyExpr(e.Left)
		right := simplifyExpr(e.Right)
		b := &ast.BinaryExpr{Pos: e.Pos, Op: e.Op, Left: left, Right: right}
		if reduced, ok := removeIdentity(b); ok {
			return reduced
		}
		if b.Op.Commutative() && b.Op.Associative() {
			return regroup(b)
		}
		return b

	case *ast.UnaryExpr:
		operand := simplifyExpr(e.Operand)
		if e.Op == ast.UnaryOpNeg {
			if lit, ok := operand.(*ast.NumberLit); ok {
				return &ast.NumberLit{Pos: e.Pos, Value: -lit.Value}
			}
			if inner, ok := operand.(*ast.UnaryExpr); ok && inner.Op == ast.UnaryOpNeg {
				return inner.Operand
			}
		}
		return &ast.UnaryExpr{Pos: e.Pos, Op: e.Op, Operand: operand}

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, arg := range e.Args {
			args[i] = simplifyExpr(arg)
		}
		return &ast.CallExpr{Pos: e.Pos, Name: e.Name, Args: args}

	case *ast.CondExpr:
		return &ast.CondExpr{
			Pos:   e.Pos,
			Guard: simplifyExpr(e.Guard),
			Then:  simplifyExpr(e.Then),
			Else:  simplifyExpr(e.Else),
		}

	case *ast.ImageReadExpr:
		return &ast.ImageReadExpr{
			Pos:        e.Pos,
			Name:       e.Name,
			DX:         simplifyExpr(e.DX),
			DY:         simplifyExpr(e.DY),
			Positional: e.Positional,
		}

	case *ast.NeighborExpr:
		return &ast.NeighborExpr{
			Pos:  e.Pos,
			Name: e.Name,
			DX:   simplifyExpr(e.DX),
			DY:   simplifyExpr(e.DY),
		}

	default:
		return expr
	}
}

// removeIdentity strips no-op operations with a provably constant operand.
func removeIdentity(b *ast.BinaryExpr) (ast.Expr, bool) {
	leftLit, leftIsLit := b.Left.(*ast.NumberLit)
	rightLit, rightIsLit := b.Right.(*ast.NumberLit)

	switch b.Op {
	case ast.BinOpAdd:
		if leftIsLit && leftLit.Value == 0 {
			return b.Right, true
		}
		if rightIsLit && rightLit.Value == 0 {
			return b.Left, true
		}
	case ast.BinOpSub:
		if rightIsLit && rightLit.Value == 0 {
			return b.Left, true
		}
	case ast.BinOpMul:
		if leftIsLit && leftLit.Value == 1 {
			return b.Right, true
		}
		if rightIsLit && rightLit.Value == 1 {
			return b.Left, true
		}
	case ast.BinOpDiv, ast.BinOpPow:
		if rightIsLit && rightLit.Value == 1 {
			return b.Left, true
		}
	}
	return nil, false
}

// regroup flattens a chain of the same commutative associative operator
// and rebuilds it with all literal operands grouped into a single
// right-hand subchain. (x + 2) + (y + 3) becomes (x + y) + (2 + 3), which
// the fold pass then collapses to (x + y) + 5.
func regroup(b *ast.BinaryExpr) ast.Expr {
	operands := flatten(b.Op, b)

	var rest, lits []ast.Expr
	for _, operand := range operands {
		if _, ok := operand.(*ast.NumberLit); ok {
			lits = append(lits, operand)
		} else {
			rest = append(rest, operand)
		}
	}
	if len(lits) < 2 || len(rest) == 0 {
		return b
	}

	return &ast.BinaryExpr{
		Pos:   b.Pos,
		Op:    b.Op,
		Left:  chain(b.Op, rest, b.Pos),
		Right: chain(b.Op, lits, b.Pos),
	}
}

// flatten collects the operands of a nested chain of op, left to right.
func flatten(op ast.BinaryOp, expr ast.Expr) []ast.Expr {
	if b, ok := expr.(*ast.BinaryExpr); ok && b.Op == op {
		return append(flatten(op, b.Left), flatten(op, b.Right)...)
	}
	return []ast.Expr{expr}
}

// chain rebuilds operands into a left-associated tree of op.
func chain(op ast.BinaryOp, operands []ast.Expr, pos int) ast.Expr {
	result := operands[0]
	for _, operand := range operands[1:] {
		result = &ast.BinaryExpr{Pos: pos, Op: op, Left: result, Right: operand}
	}
	return result
}
