package runtime

import (
	"context"
	"fmt"
	"math"

	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/raster"
)

// Env is the per-evaluation state: the current output coordinate, the
// local slot values, and the bound images. One Env must not be shared
// between concurrent evaluations.
type Env struct {
	X, Y          int
	Width, Height int

	Slots   []float64
	Inputs  []*raster.Image
	Outputs []*raster.Image
}

// NewEnv binds the given images to the program's input and output tables.
func NewEnv(p *Program, images map[string]*raster.Image) (*Env, error) {
	env := &Env{
		Slots:   make([]float64, len(p.Slots)),
		Inputs:  make([]*raster.Image, len(p.Inputs)),
		Outputs: make([]*raster.Image, len(p.Outputs)),
	}
	for i, name := range p.Inputs {
		img, ok := images[name]
		if !ok {
			return nil, fmt.Errorf("no image bound for input variable %q", name)
		}
		env.Inputs[i] = img
	}
	for i, name := range p.Outputs {
		img, ok := images[name]
		if !ok {
			return nil, fmt.Errorf("no image bound for output variable %q", name)
		}
		env.Outputs[i] = img
	}
	return env, nil
}

// Run executes the program once per output pixel. The processing bounds
// come from the first output image.
func (p *Program) Run(images map[string]*raster.Image) error {
	return p.RunContext(context.Background(), images)
}

// RunContext is Run with cancellation. The context is checked once per
// output row; a canceled run leaves the outputs partially written.
func (p *Program) RunContext(ctx context.Context, images map[string]*raster.Image) error {
	if len(p.Outputs) == 0 {
		return fmt.Errorf("program has no output image")
	}
	env, err := NewEnv(p, images)
	if err != nil {
		return err
	}

	bounds := env.Outputs[0]
	env.Width = bounds.Width()
	env.Height = bounds.Height()

	for y := 0; y < env.Height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < env.Width; x++ {
			env.X, env.Y = x, y
			p.EvalPixel(env)
		}
	}
	return nil
}

// EvalPixel runs every statement for the coordinate currently set on env.
func (p *Program) EvalPixel(env *Env) {
	for _, step := range p.Steps {
		switch step.Op {
		case OpStore:
			env.Slots[step.Slot] = eval(step.Kids[0], env)
		case OpImageWrite:
			env.Outputs[step.Image].Set(env.X, env.Y, eval(step.Kids[0], env))
		}
	}
}

func eval(n *Node, env *Env) float64 {
	switch n.Op {
	case OpConst:
		return n.Value

	case OpLoad:
		return env.Slots[n.Slot]

	case OpBinary:
		return evalBinary(n.BinOp, eval(n.Kids[0], env), eval(n.Kids[1], env))

	case OpUnary:
		v := eval(n.Kids[0], env)
		if n.UnOp == ast.UnaryOpNot {
			return boolValue(v == 0)
		}
		return -v

	case OpCall:
		args := make([]float64, len(n.Kids))
		for i, kid := range n.Kids {
			args[i] = eval(kid, env)
		}
		return n.Eval(args)

	case OpBranch:
		if eval(n.Kids[0], env) != 0 {
			return eval(n.Kids[1], env)
		}
		return eval(n.Kids[2], env)

	case OpImageRead:
		dx := int(math.Round(eval(n.Kids[0], env)))
		dy := int(math.Round(eval(n.Kids[1], env)))
		return env.Inputs[n.Image].Get(env.X+dx, env.Y+dy)

	case OpCoordX:
		return float64(env.X)
	case OpCoordY:
		return float64(env.Y)
	case OpWidth:
		return float64(env.Width)
	case OpHeight:
		return float64(env.Height)

	default:
		return math.NaN()
	}
}

// evalBinary applies IEEE float64 semantics throughout; division by zero
// yields the usual infinities and NaNs at runtime.
func evalBinary(op ast.BinaryOp, l, r float64) float64 {
	switch op {
	case ast.BinOpAdd:
		return l + r
	case ast.BinOpSub:
		return l - r
	case ast.BinOpMul:
		return l * r
	case ast.BinOpDiv:
		return l / r
	case ast.BinOpMod:
		return math.Mod(l, r)
	case ast.BinOpPow:
		return math.Pow(l, r)
	case ast.BinOpAnd:
		return boolValue(l != 0 && r != 0)
	case ast.BinOpOr:
		return boolValue(l != 0 || r != 0)
	case ast.BinOpEq:
		return boolValue(l == r)
	case ast.BinOpNe:
		return boolValue(l != r)
	case ast.BinOpLt:
		return boolValue(l < r)
	case ast.BinOpLe:
		return boolValue(l <= r)
	case ast.BinOpGt:
		return boolValue(l > r)
	case ast.BinOpGe:
		return boolValue(l >= r)
	}
	return math.NaN()
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
