package optimizer

import (
	"math"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/classifier"
	"github.com/rasterkit/mapalg/internal/diag"
)

// Desugar rewrites implicit constructs into canonical explicit forms:
//
//   - a bare reference to an image variable becomes an explicit
//     image-read node with zero offsets and the variable's positional
//     flag; output-image variables read back after a write qualify too
//   - a neighbor reference becomes an image-read node carrying its offsets
//     and the positional flag
//   - an assignment to an image variable becomes an image-write node,
//     including a write back to a variable first read as an input image
//   - the con(guard, then[, else]) shorthand becomes a conditional node
//
// Deterministic, single pass, no fixpoint needed.
func Desugar(prog *ast.Program, meta *classifier.Metadata) (*ast.Program, error) {
	out := &ast.Program{Stmts: make([]ast.Stmt, 0, len(prog.Stmts))}
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			value, err := desugarExpr(s.Value, meta)
			if err != nil {
				return nil, err
			}
			d := meta.Var(s.Name)
			if d != nil && d.IsImage() {
				out.Stmts = append(out.Stmts, &ast.ImageWriteStmt{Pos: s.Pos, Name: s.Name, Value: value})
			} else {
				out.Stmts = append(out.Stmts, &ast.AssignStmt{Pos: s.Pos, Name: s.Name, Value: value})
			}
		case *ast.ImageWriteStmt:
			return nil, diag.Internalf("image-write node before desugaring")
		default:
			return nil, diag.Internalf("unknown statement %T in desugar", stmt)
		}
	}
	return out, nil
}

func desugarExpr(expr ast.Expr, meta *classifier.Metadata) (ast.Expr, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return e, nil

	case *ast.IdentExpr:
		d := meta.Var(e.Name)
		if d == nil {
			return nil, diag.Internalf("unclassified variable %q in desugar", e.Name)
		}
		if d.IsImage() {
			return &ast.ImageReadExpr{
				Pos:        e.Pos,
				Name:       e.Name,
				DX:         &ast.NumberLit{Pos: e.Pos},
				DY:         &ast.NumberLit{Pos: e.Pos},
				Positional: d.Positional,
			}, nil
		}
		return e, nil

	case *ast.BinaryExpr:
		left, err := desugarExpr(e.Left, meta)
		if err != nil {
			return nil, err
		}
		right, err := desugarExpr(e.Right, meta)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Pos: e.Pos, Op: e.Op, Left: left, Right: right}, nil

	case *ast.UnaryExpr:
		operand, err := desugarExpr(e.Operand, meta)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: e.Pos, Op: e.Op, Operand: operand}, nil

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, arg := range e.Args {
			a, err := desugarExpr(arg, meta)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		if e.Name == "con" {
			return desugarCon(e.Pos, args)
		}
		return &ast.CallExpr{Pos: e.Pos, Name: e.Name, Args: args}, nil

	case *ast.CondExpr:
		guard, err := desugarExpr(e.Guard, meta)
		if err != nil {
			return nil, err
		}
		then, err := desugarExpr(e.Then, meta)
		if err != nil {
			return nil, err
		}
		els, err := desugarExpr(e.Else, meta)
		if err != nil {
			return nil, err
		}
		return &ast.CondExpr{Pos: e.Pos, Guard: guard, Then: then, Else: els}, nil

	case *ast.NeighborExpr:
		dx, err := desugarExpr(e.DX, meta)
		if err != nil {
			return nil, err
		}
		dy, err := desugarExpr(e.DY, meta)
		if err != nil {
			return nil, err
		}
		d := meta.Var(e.Name)
		if d == nil || d.Role != classifier.RoleInputImage {
			return nil, diag.Internalf("neighbor reference to non-image %q in desugar", e.Name)
		}
		return &ast.ImageReadExpr{Pos: e.Pos, Name: e.Name, DX: dx, DY: dy, Positional: true}, nil

	case *ast.ImageReadExpr:
		return nil, diag.Internalf("image-read node before desugaring")

	default:
		return nil, diag.Internalf("unknown expression %T in desugar", expr)
	}
}

// desugarCon expands con(guard, then[, else]) into a conditional node.
// The two-argument form yields NaN when the guard is false.
func desugarCon(pos int, args []ast.Expr) (ast.Expr, error) {
	switch len(args) {
	case 2:
		return &ast.CondExpr{
			Pos:   pos,
			Guard: args[0],
			Then:  args[1],
			Else:  &ast.NumberLit{Pos: pos, Value: math.NaN()},
		}, nil
	case 3:
		return &ast.CondExpr{Pos: pos, Guard: args[0], Then: args[1], Else: args[2]}, nil
	default:
		return nil, diag.Internalf("con call with %d args survived validation", len(args))
	}
}
