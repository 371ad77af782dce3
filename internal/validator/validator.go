// Package validator checks every function call site in a syntax tree
// against the built-in catalog.
package validator

import (
	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/builtins"
	"github.com/rasterkit/mapalg/internal/diag"
)

// CheckCalls walks the tree and records an UnknownFunction error for every
// call site whose name is absent from the catalog or whose argument count
// is unsupported. The walk always visits the whole tree so one compile
// attempt reports all offending call sites.
func CheckCalls(prog *ast.Program) *diag.ErrorLog {
	log := diag.NewErrorLog()
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			checkExpr(s.Value, log)
		case *ast.ImageWriteStmt:
			checkExpr(s.Value, log)
		}
	}
	return log
}

func checkExpr(expr ast.Expr, log *diag.ErrorLog) {
	switch e := expr.(type) {
	case *ast.NumberLit, *ast.IdentExpr:
		// Leaves

	case *ast.BinaryExpr:
		checkExpr(e.Left, log)
		checkExpr(e.Right, log)

	case *ast.UnaryExpr:
		checkExpr(e.Operand, log)

	case *ast.CallExpr:
		if _, _, ok := builtins.Lookup(e.Name, len(e.Args)); !ok {
			log.Add(e.Name, diag.UnknownFunction)
		}
		for _, arg := range e.Args {
			checkExpr(arg, log)
		}

	case *ast.CondExpr:
		checkExpr(e.Guard, log)
		checkExpr(e.Then, log)
		checkExpr(e.Else, log)

	case *ast.NeighborExpr:
		checkExpr(e.DX, log)
		checkExpr(e.DY, log)

	case *ast.ImageReadExpr:
		checkExpr(e.DX, log)
		checkExpr(e.DY, log)
	}
}
