// Package optimizer implements the ordered tree-rewrite passes that turn
// a classified syntax tree into the runtime-ready program representation:
//
//	desugar -> simplify -> constant fold (iterated) -> finalize -> codegen
//
// Each pass consumes one tree and builds a new one. Script-level errors
// are impossible here: by the time the optimizer runs, validation and
// classification have succeeded, so any unexpected tree shape is an
// internal compiler error.
package optimizer

import (
	"math"

	"github.com/rasterkit/mapalg/internal/diag"
)

// VarTable is the symbol table for constant propagation. Bindings are
// monotonic: once a name is bound to a constant it is never unbound or
// rebound to a different value within one optimization run. The fold pass
// only binds names with a single assignment in the script, which is what
// keeps the invariant unconditional.
type VarTable struct {
	values map[string]float64
}

// NewVarTable creates an empty table.
func NewVarTable() *VarTable {
	return &VarTable{values: make(map[string]float64)}
}

// Get returns the constant bound to name, if any.
func (t *VarTable) Get(name string) (float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Bind binds name to a constant. It reports whether a new binding was
// made, and fails with an internal error on an attempt to rebind a name
// to a different value.
func (t *VarTable) Bind(name string, value float64) (bool, error) {
	if old, ok := t.values[name]; ok {
		same := old == value || (math.IsNaN(old) && math.IsNaN(value))
		if !same {
			return false, diag.Internalf("vartable rebind of %q: %v -> %v", name, old, value)
		}
		return false, nil
	}
	t.values[name] = value
	return true, nil
}

// Len returns the number of bound names.
func (t *VarTable) Len() int {
	return len(t.values)
}
