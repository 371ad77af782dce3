// Package printer renders a syntax tree back to canonical script text.
//
// The output uses minimal parentheses and one statement per line. It is
// used by tests to assert on the shape of pass output, and by the CLI to
// dump intermediate trees.
package printer

import (
	"math"
	"strconv"
	"strings"

	"github.com/rasterkit/mapalg/internal/ast"
)

// Print renders the program as canonical script text.
func Print(prog *ast.Program) string {
	var sb strings.Builder
	for _, stmt := range prog.Stmts {
		printStmt(&sb, stmt)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrintExpr renders a single expression.
func PrintExpr(expr ast.Expr) string {
	var sb strings.Builder
	printExpr(&sb, expr, 0)
	return sb.String()
}

func printStmt(sb *strings.Builder, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		sb.WriteString(s.Name)
		sb.WriteString(" = ")
		printExpr(sb, s.Value, 0)
		sb.WriteByte(';')
	case *ast.ImageWriteStmt:
		sb.WriteString(s.Name)
		sb.WriteString(" = ")
		printExpr(sb, s.Value, 0)
		sb.WriteByte(';')
	default:
		sb.WriteString("<?stmt>;")
	}
}

// Precedence levels, loosest first. Used to decide parenthesization.
const (
	precCond = iota + 1
	precOr
	precAnd
	precEq
	precCmp
	precAdd
	precMul
	precPow
	precUnary
	precPrimary
)

func binPrec(op ast.BinaryOp) int {
	switch op {
	case ast.BinOpOr:
		return precOr
	case ast.BinOpAnd:
		return precAnd
	case ast.BinOpEq, ast.BinOpNe:
		return precEq
	case ast.BinOpLt, ast.BinOpLe, ast.BinOpGt, ast.BinOpGe:
		return precCmp
	case ast.BinOpAdd, ast.BinOpSub:
		return precAdd
	case ast.BinOpMul, ast.BinOpDiv, ast.BinOpMod:
		return precMul
	case ast.BinOpPow:
		return precPow
	}
	return precPrimary
}

func exprPrec(expr ast.Expr) int {
	switch e := expr.(type) {
	case *ast.CondExpr:
		return precCond
	case *ast.BinaryExpr:
		return binPrec(e.Op)
	case *ast.UnaryExpr:
		return precUnary
	default:
		return precPrimary
	}
}

// printExpr renders expr, parenthesizing when its precedence is below the
// surrounding context.
func printExpr(sb *strings.Builder, expr ast.Expr, ctx int) {
	prec := exprPrec(expr)
	if prec < ctx {
		sb.WriteByte('(')
		defer sb.WriteByte(')')
	}

	switch e := expr.(type) {
	case *ast.NumberLit:
		sb.WriteString(formatNumber(e.Value))

	case *ast.IdentExpr:
		sb.WriteString(e.Name)

	case *ast.BinaryExpr:
		p := binPrec(e.Op)
		if e.Op == ast.BinOpPow {
			// Right-associative
			printExpr(sb, e.Left, p+1)
			sb.WriteString(" ^ ")
			printExpr(sb, e.Right, p)
		} else {
			printExpr(sb, e.Left, p)
			sb.WriteByte(' ')
			sb.WriteString(e.Op.String())
			sb.WriteByte(' ')
			printExpr(sb, e.Right, p+1)
		}

	case *ast.UnaryExpr:
		sb.WriteString(e.Op.String())
		printExpr(sb, e.Operand, precUnary)

	case *ast.CallExpr:
		sb.WriteString(e.Name)
		sb.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			printExpr(sb, arg, 0)
		}
		sb.WriteByte(')')

	case *ast.CondExpr:
		printExpr(sb, e.Guard, precCond+1)
		sb.WriteString(" ? ")
		printExpr(sb, e.Then, 0)
		sb.WriteString(" : ")
		printExpr(sb, e.Else, precCond)

	case *ast.NeighborExpr:
		sb.WriteString(e.Name)
		sb.WriteByte('[')
		printExpr(sb, e.DX, 0)
		sb.WriteString(", ")
		printExpr(sb, e.DY, 0)
		sb.WriteByte(']')

	case *ast.ImageReadExpr:
		sb.WriteString(e.Name)
		sb.WriteByte('[')
		printExpr(sb, e.DX, 0)
		sb.WriteString(", ")
		printExpr(sb, e.DY, 0)
		sb.WriteByte(']')

	default:
		sb.WriteString("<?expr>")
	}
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "INF"
	}
	if math.IsInf(v, -1) {
		return "-INF"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
