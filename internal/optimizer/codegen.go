package optimizer

import (
	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/builtins"
	"github.com/rasterkit/mapalg/internal/classifier"
	"github.com/rasterkit/mapalg/internal/diag"
	"github.com/rasterkit/mapalg/internal/runtime"
)

// Codegen converts the pruned, optimized tree into the runtime-ready
// representation: every remaining variable reference resolves to a stable
// slot index, every image reference to an image table index, coordinate
// builtins become dedicated opcodes, and every node carries the dispatch
// tag the execution engine needs. Must run last and exactly once.
func Codegen(prog *ast.Program, meta *classifier.Metadata) (*runtime.Program, error) {
	g := &codegen{
		slots:   make(map[string]int),
		inputs:  make(map[string]int),
		outputs: make(map[string]int),
	}

	out := &runtime.Program{}
	for _, name := range meta.Locals() {
		g.slots[name] = len(out.Slots)
		out.Slots = append(out.Slots, name)
	}
	for _, name := range meta.InputImages() {
		g.inputs[name] = len(out.Inputs)
		out.Inputs = append(out.Inputs, name)
	}
	for _, name := range meta.OutputImages() {
		g.outputs[name] = len(out.Outputs)
		out.Outputs = append(out.Outputs, name)
	}

	for _, stmt := range prog.Stmts {
		step, err := g.genStmt(stmt)
		if err != nil {
			return nil, err
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}

type codegen struct {
	slots   map[string]int
	inputs  map[string]int
	outputs map[string]int
}

func (g *codegen) genStmt(stmt ast.Stmt) (*runtime.Node, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		slot, ok := g.slots[s.Name]
		if !ok {
			return nil, diag.Internalf("assignment to unslotted variable %q", s.Name)
		}
		value, err := g.genExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpStore, Slot: slot, Name: s.Name, Kids: []*runtime.Node{value}}, nil

	case *ast.ImageWriteStmt:
		idx, ok := g.outputs[s.Name]
		if !ok {
			return nil, diag.Internalf("write to unbound output image %q", s.Name)
		}
		value, err := g.genExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpImageWrite, Image: idx, Name: s.Name, Kids: []*runtime.Node{value}}, nil

	default:
		return nil, diag.Internalf("unknown statement %T in codegen", stmt)
	}
}

func (g *codegen) genExpr(expr ast.Expr) (*runtime.Node, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return &runtime.Node{Op: runtime.OpConst, Value: e.Value}, nil

	case *ast.IdentExpr:
		// Image references were desugared and constants folded; only
		// local scalars can remain.
		slot, ok := g.slots[e.Name]
		if !ok {
			return nil, diag.Internalf("unresolved variable %q in codegen", e.Name)
		}
		return &runtime.Node{Op: runtime.OpLoad, Slot: slot, Name: e.Name}, nil

	case *ast.BinaryExpr:
		left, err := g.genExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.genExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpBinary, BinOp: e.Op, Kids: []*runtime.Node{left, right}}, nil

	case *ast.UnaryExpr:
		operand, err := g.genExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpUnary, UnOp: e.Op, Kids: []*runtime.Node{operand}}, nil

	case *ast.CallExpr:
		return g.genCall(e)

	case *ast.CondExpr:
		guard, err := g.genExpr(e.Guard)
		if err != nil {
			return nil, err
		}
		then, err := g.genExpr(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := g.genExpr(e.Else)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpBranch, Kids: []*runtime.Node{guard, then, els}}, nil

	case *ast.ImageReadExpr:
		idx, ok := g.inputs[e.Name]
		if !ok {
			return nil, diag.Internalf("read of unbound input image %q", e.Name)
		}
		dx, err := g.genExpr(e.DX)
		if err != nil {
			return nil, err
		}
		dy, err := g.genExpr(e.DY)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Op: runtime.OpImageRead, Image: idx, Name: e.Name, Kids: []*runtime.Node{dx, dy}}, nil

	case *ast.NeighborExpr:
		return nil, diag.Internalf("neighbor node survived desugaring")

	default:
		return nil, diag.Internalf("unknown expression %T in codegen", expr)
	}
}

// genCall lowers coordinate builtins to dedicated opcodes and everything
// else to an OpCall carrying the catalog's eval func.
func (g *codegen) genCall(e *ast.CallExpr) (*runtime.Node, error) {
	switch e.Name {
	case "x":
		return &runtime.Node{Op: runtime.OpCoordX}, nil
	case "y":
		return &runtime.Node{Op: runtime.OpCoordY}, nil
	case "width":
		return &runtime.Node{Op: runtime.OpWidth}, nil
	case "height":
		return &runtime.Node{Op: runtime.OpHeight}, nil
	}

	_, overload, ok := builtins.Lookup(e.Name, len(e.Args))
	if !ok || overload.Eval == nil {
		return nil, diag.Internalf("call to %q/%d survived validation", e.Name, len(e.Args))
	}
	kids := make([]*runtime.Node, len(e.Args))
	for i, arg := range e.Args {
		kid, err := g.genExpr(arg)
		if err != nil {
			return nil, err
		}
		kids[i] = kid
	}
	return &runtime.Node{Op: runtime.OpCall, Eval: overload.Eval, Name: e.Name, Kids: kids}, nil
}
