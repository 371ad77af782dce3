package optimizer

import (
	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/diag"
)

// Finalize consumes the now-stable VarTable: any remaining reference to a
// bound name is inlined as a literal, and conditional branches made
// unreachable by a compile-time-known guard are pruned. Single pass.
func Finalize(prog *ast.Program, vt *VarTable) (*ast.Program, error) {
	out := &ast.Program{Stmts: make([]ast.Stmt, 0, len(prog.Stmts))}
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			value, err := finalizeExpr(s.Value, vt)
			if err != nil {
				return nil, err
			}
			out.Stmts = append(out.Stmts, &ast.AssignStmt{Pos: s.Pos, Name: s.Name, Value: value})
		case *ast.ImageWriteStmt:
			value, err := finalizeExpr(s.Value, vt)
			if err != nil {
				return nil, err
			}
			out.Stmts = append(out.Stmts, &ast.ImageWriteStmt{Pos: s.Pos, Name: s.Name, Value: value})
		default:
			return nil, diag.Internalf("unknown statement %T in finalize", stmt)
		}
	}
	return out, nil
}

func finalizeExpr(expr ast.Expr, vt *VarTable) (ast.Expr, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return e, nil

	case *ast.IdentExpr:
		if v, ok := vt.Get(e.Name); ok {
			return &ast.NumberLit{Pos: e.Pos, Value: v}, nil
		}
		return e, nil

	case *ast.BinaryExpr:
		left, err := finalizeExpr(e.Left, vt)
		if err != nil {
			return nil, err
		}
		right, err := finalizeExpr(e.Right, vt)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Pos: e.Pos, Op: e.Op, Left: left, Right: right}, nil

	case *ast.UnaryExpr:
		operand, err := finalizeExpr(e.Operand, vt)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: e.Pos, Op: e.Op, Operand: operand}, nil

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, arg := range e.Args {
			a, err := finalizeExpr(arg, vt)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return &ast.CallExpr{Pos: e.Pos, Name: e.Name, Args: args}, nil

	case *ast.CondExpr:
		guard, err := finalizeExpr(e.Guard, vt)
		if err != nil {
			return nil, err
		}
		if lit, ok := guard.(*ast.NumberLit); ok {
			if truthy(lit.Value) {
				return finalizeExpr(e.Then, vt)
			}
			return finalizeExpr(e.Else, vt)
		}
		then, err := finalizeExpr(e.Then, vt)
		if err != nil {
			return nil, err
		}
		els, err := finalizeExpr(e.Else, vt)
		if err != nil {
			return nil, err
		}
		return &ast.CondExpr{Pos: e.Pos, Guard: guard, Then: then, Else: els}, nil

	case *ast.ImageReadExpr:
		dx, err := finalizeExpr(e.DX, vt)
		if err != nil {
			return nil, err
		}
		dy, err := finalizeExpr(e.DY, vt)
		if err != nil {
			return nil, err
		}
		return &ast.ImageReadExpr{Pos: e.Pos, Name: e.Name, DX: dx, DY: dy, Positional: e.Positional}, nil

	case *ast.NeighborExpr:
		return nil, diag.Internalf("neighbor node survived desugaring")

	default:
		return nil, diag.Internalf("unknown expression %T in finalize", expr)
	}
}
