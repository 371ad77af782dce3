package optimizer

import (
	"math"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/builtins"
	"github.com/rasterkit/mapalg/internal/classifier"
)

// Fold performs one constant-folding scan over the tree and reports the
// number of rewrites made. The controller re-runs the pass while the count
// is positive; VarTable monotonicity bounds the number of iterations.
//
// A scan replaces with a literal:
//
//   - references to built-in named constants and to names already bound
//     in the VarTable
//   - operator expressions whose operands are all literals, evaluated with
//     IEEE double-precision semantics (division by a folded zero constant
//     is left unfolded; its runtime meaning belongs to the execution engine)
//   - calls to non-volatile builtins with all-literal arguments
//
// An assignment of a now-literal value to a single-assignment local binds
// that name in the VarTable. Multi-assignment locals are never bound, which
// is what keeps the table monotonic.
func Fold(prog *ast.Program, meta *classifier.Metadata, vt *VarTable) (*ast.Program, int, error) {
	f := &fold{meta: meta, vt: vt, assignCounts: countAssignments(prog)}

	out := &ast.Program{Stmts: make([]ast.Stmt, 0, len(prog.Stmts))}
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			value := f.foldExpr(s.Value)
			if err := f.maybeBind(s.Name, value); err != nil {
				return nil, 0, err
			}
			out.Stmts = append(out.Stmts, &ast.AssignStmt{Pos: s.Pos, Name: s.Name, Value: value})
		case *ast.ImageWriteStmt:
			out.Stmts = append(out.Stmts, &ast.ImageWriteStmt{Pos: s.Pos, Name: s.Name, Value: f.foldExpr(s.Value)})
		default:
			out.Stmts = append(out.Stmts, stmt)
		}
	}
	return out, f.count, nil
}

type fold struct {
	meta         *classifier.Metadata
	vt           *VarTable
	assignCounts map[string]int
	count        int
}

func countAssignments(prog *ast.Program) map[string]int {
	counts := make(map[string]int)
	for _, stmt := range prog.Stmts {
		if s, ok := stmt.(*ast.AssignStmt); ok {
			counts[s.Name]++
		}
	}
	return counts
}

// maybeBind binds name in the VarTable when its folded value is a literal
// and the name is a single-assignment local scalar.
func (f *fold) maybeBind(name string, value ast.Expr) error {
	lit, ok := value.(*ast.NumberLit)
	if !ok {
		return nil
	}
	d := f.meta.Var(name)
	if d == nil || d.Role != classifier.RoleLocal || f.assignCounts[name] != 1 {
		return nil
	}
	bound, err := f.vt.Bind(name, lit.Value)
	if err != nil {
		return err
	}
	if bound {
		f.count++
	}
	return nil
}

func (f *fold) foldExpr(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return e

	case *ast.IdentExpr:
		if v, ok := builtins.Constants[e.Name]; ok {
			f.count++
			return &ast.NumberLit{Pos: e.Pos, Value: v}
		}
		if v, ok := f.vt.Get(e.Name); ok {
			f.count++
			return &ast.NumberLit{Pos: e.Pos, Value: v}
		}
		return e

	case *ast.BinaryExpr:
		left := f.foldExpr(e.Left)
		right := f.foldExpr(e.Right)
		if l, ok := left.(*ast.NumberLit); ok {
			if r, ok := right.(*ast.NumberLit); ok {
				if v, ok := evalBinary(e.Op, l.Value, r.Value); ok {
					f.count++
					return &ast.NumberLit{Pos: e.Pos, Value: v}
				}
			}
		}
		return &ast.BinaryExpr{Pos: e.Pos, Op: e.Op, Left: left, Right: right}

	case *ast.UnaryExpr:
		operand := f.foldExpr(e.Operand)
		if lit, ok := operand.(*ast.NumberLit); ok {
			f.count++
			if e.Op == ast.UnaryOpNot {
				return &ast.NumberLit{Pos: e.Pos, Value: boolValue(!truthy(lit.Value))}
			}
			return &ast.NumberLit{Pos: e.Pos, Value: -lit.Value}
		}
		return &ast.UnaryExpr{Pos: e.Pos, Op: e.Op, Operand: operand}

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		values := make([]float64, len(e.Args))
		allLiteral := true
		for i, arg := range e.Args {
			args[i] = f.foldExpr(arg)
			if lit, ok := args[i].(*ast.NumberLit); ok {
				values[i] = lit.Value
			} else {
				allLiteral = false
			}
		}
		if allLiteral {
			if b, o, ok := builtins.Lookup(e.Name, len(args)); ok && !b.Volatile && o.Eval != nil {
				f.count++
				return &ast.NumberLit{Pos: e.Pos, Value: o.Eval(values)}
			}
		}
		return &ast.CallExpr{Pos: e.Pos, Name: e.Name, Args: args}

	case *ast.CondExpr:
		// Guard folding happens here; branch pruning is finalize's job.
		return &ast.CondExpr{
			Pos:   e.Pos,
			Guard: f.foldExpr(e.Guard),
			Then:  f.foldExpr(e.Then),
			Else:  f.foldExpr(e.Else),
		}

	case *ast.ImageReadExpr:
		return &ast.ImageReadExpr{
			Pos:        e.Pos,
			Name:       e.Name,
			DX:         f.foldExpr(e.DX),
			DY:         f.foldExpr(e.DY),
			Positional: e.Positional,
		}

	default:
		return expr
	}
}

// evalBinary evaluates a binary operator over literal operands with IEEE
// float64 semantics. Division by a folded zero is deferred to runtime.
func evalBinary(op ast.BinaryOp, l, r float64) (float64, bool) {
	switch op {
	case ast.BinOpAdd:
		return l + r, true
	case ast.BinOpSub:
		return l - r, true
	case ast.BinOpMul:
		return l * r, true
	case ast.BinOpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ast.BinOpMod:
		return math.Mod(l, r), true
	case ast.BinOpPow:
		return math.Pow(l, r), true
	case ast.BinOpAnd:
		return boolValue(truthy(l) && truthy(r)), true
	case ast.BinOpOr:
		return boolValue(truthy(l) || truthy(r)), true
	case ast.BinOpEq:
		return boolValue(l == r), true
	case ast.BinOpNe:
		return boolValue(l != r), true
	case ast.BinOpLt:
		return boolValue(l < r), true
	case ast.BinOpLe:
		return boolValue(l <= r), true
	case ast.BinOpGt:
		return boolValue(l > r), true
	case ast.BinOpGe:
		return boolValue(l >= r), true
	}
	return 0, false
}

// truthy implements the language's boolean view of numbers: zero is
// false, everything else (including NaN) is true.
func truthy(v float64) bool {
	return v != 0
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
