// Package ast defines the syntax tree types for map-algebra scripts.
//
// The tree is designed to be:
// - Closed: every node kind is a known variant, so passes can switch
//   exhaustively and treat an unknown node as an internal error
// - Transformable: each compiler pass consumes one tree and builds a new
//   one rather than mutating shared nodes
package ast

// ----------------------------------------------------------------------------
// Program (Top Level)
// ----------------------------------------------------------------------------

// Program is a complete script: an ordered list of statements.
type Program struct {
	Stmts []Stmt
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt represents a statement.
type Stmt interface {
	isStmt()
}

// AssignStmt represents: name = expr;
type AssignStmt struct {
	Pos   int // Byte offset of the assigned name
	Name  string
	Value Expr
}

func (*AssignStmt) isStmt() {}

// ImageWriteStmt writes the statement value to an output image at the
// current output coordinate. Produced by the desugar pass from assignments
// to output-image variables; never produced by the parser.
type ImageWriteStmt struct {
	Pos   int
	Name  string
	Value Expr
}

func (*ImageWriteStmt) isStmt() {}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr represents an expression.
type Expr interface {
	isExpr()
}

// NumberLit represents a numeric literal. All script values are float64.
type NumberLit struct {
	Pos   int
	Value float64
}

func (*NumberLit) isExpr() {}

// IdentExpr represents a bare variable reference.
type IdentExpr struct {
	Pos  int
	Name string
}

func (*IdentExpr) isExpr() {}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Pos   int
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) isExpr() {}

// BinaryOp represents binary operators.
type BinaryOp uint8

const (
	BinOpAdd BinaryOp = iota // +
	BinOpSub                 // -
	BinOpMul                 // *
	BinOpDiv                 // /
	BinOpMod                 // %
	BinOpPow                 // ^
	BinOpAnd                 // &&
	BinOpOr                  // ||
	BinOpEq                  // ==
	BinOpNe                  // !=
	BinOpLt                  // <
	BinOpLe                  // <=
	BinOpGt                  // >
	BinOpGe                  // >=
)

// String returns the operator as written in source.
func (op BinaryOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

var binOpNames = [...]string{
	BinOpAdd: "+",
	BinOpSub: "-",
	BinOpMul: "*",
	BinOpDiv: "/",
	BinOpMod: "%",
	BinOpPow: "^",
	BinOpAnd: "&&",
	BinOpOr:  "||",
	BinOpEq:  "==",
	BinOpNe:  "!=",
	BinOpLt:  "<",
	BinOpLe:  "<=",
	BinOpGt:  ">",
	BinOpGe:  ">=",
}

// Commutative reports whether operand order does not affect the result.
func (op BinaryOp) Commutative() bool {
	switch op {
	case BinOpAdd, BinOpMul, BinOpEq, BinOpNe, BinOpAnd, BinOpOr:
		return true
	}
	return false
}

// Associative reports whether nested chains of this operator may be
// reordered freely. Floating point addition is treated as associative
// here; the language makes no stronger guarantee.
func (op BinaryOp) Associative() bool {
	switch op {
	case BinOpAdd, BinOpMul, BinOpAnd, BinOpOr:
		return true
	}
	return false
}

// UnaryExpr represents a unary operation.
type UnaryExpr struct {
	Pos     int
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) isExpr() {}

// UnaryOp represents unary operators.
type UnaryOp uint8

const (
	UnaryOpNeg UnaryOp = iota // -
	UnaryOpNot                // !
)

// String returns the operator as written in source.
func (op UnaryOp) String() string {
	if op == UnaryOpNot {
		return "!"
	}
	return "-"
}

// CallExpr represents a built-in function call.
type CallExpr struct {
	Pos  int
	Name string
	Args []Expr
}

func (*CallExpr) isExpr() {}

// CondExpr represents: guard ? then : else
// Also produced by desugaring the con(guard, then, else) shorthand.
type CondExpr struct {
	Pos   int
	Guard Expr
	Then  Expr
	Else  Expr
}

func (*CondExpr) isExpr() {}

// NeighborExpr represents a relative pixel read: img[dx, dy].
// Offsets are expressions, evaluated per output pixel when they do not
// fold to constants.
type NeighborExpr struct {
	Pos  int
	Name string
	DX   Expr
	DY   Expr
}

func (*NeighborExpr) isExpr() {}

// ImageReadExpr reads an input image at the current output coordinate plus
// an offset. Produced by the desugar pass from IdentExpr (zero
// offset) and NeighborExpr nodes naming input-image variables; never
// produced by the parser.
type ImageReadExpr struct {
	Pos        int
	Name       string
	DX         Expr
	DY         Expr
	Positional bool // The positional flag of the variable being read
}

func (*ImageReadExpr) isExpr() {}
