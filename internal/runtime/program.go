// Package runtime defines the runtime-ready program representation and
// the per-pixel evaluator that executes it.
//
// Every node carries an opcode so the evaluator dispatches without
// re-inspecting tree shape, and every variable reference has been
// resolved to a stable slot or image index by the codegen pass. A Program
// is immutable once built and safe for any number of concurrent
// evaluations, each with its own Env.
package runtime

import "github.com/rasterkit/mapalg/internal/ast"

// OpCode tags a runtime node with its dispatch kind.
type OpCode uint8

const (
	// Expressions
	OpConst     OpCode = iota // Literal value
	OpLoad                    // Read a local slot
	OpBinary                  // Binary operator over Kids[0], Kids[1]
	OpUnary                   // Unary operator over Kids[0]
	OpCall                    // Builtin call over Kids
	OpBranch                  // Kids[0] ? Kids[1] : Kids[2]
	OpImageRead               // Input image at (x+Kids[0], y+Kids[1])
	OpCoordX                  // Current output x coordinate
	OpCoordY                  // Current output y coordinate
	OpWidth                   // Output image width
	OpHeight                  // Output image height

	// Statements
	OpStore      // Slot = Kids[0]
	OpImageWrite // Output image pixel = Kids[0]
)

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "invalid"
}

var opNames = [...]string{
	OpConst:      "const",
	OpLoad:       "load",
	OpBinary:     "binary",
	OpUnary:      "unary",
	OpCall:       "call",
	OpBranch:     "branch",
	OpImageRead:  "image-read",
	OpCoordX:     "coord-x",
	OpCoordY:     "coord-y",
	OpWidth:      "width",
	OpHeight:     "height",
	OpStore:      "store",
	OpImageWrite: "image-write",
}

// Node is one runtime tree node.
type Node struct {
	Op OpCode

	Value float64                 // OpConst
	Slot  int                     // OpLoad, OpStore
	Image int                     // OpImageRead (input index), OpImageWrite (output index)
	BinOp ast.BinaryOp            // OpBinary
	UnOp  ast.UnaryOp             // OpUnary
	Eval  func([]float64) float64 // OpCall
	Name  string                  // Original variable/function name, kept for diagnostics

	Kids []*Node
}

// Program is the final compiled artifact's executable part: the statement
// list plus the slot and image tables the codegen pass resolved.
type Program struct {
	// Steps are executed in order, once per output pixel.
	Steps []*Node

	// Slots maps slot index to local variable name.
	Slots []string

	// Inputs maps input image index to variable name.
	Inputs []string

	// Outputs maps output image index to variable name.
	Outputs []string
}

// SlotOf returns the slot index for a local variable name, or -1.
func (p *Program) SlotOf(name string) int {
	for i, n := range p.Slots {
		if n == name {
			return i
		}
	}
	return -1
}
