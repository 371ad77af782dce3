package classifier

import (
	"github.com/rasterkit/mapalg/internal/ast"
	"github.com/rasterkit/mapalg/internal/builtins"
	"github.com/rasterkit/mapalg/internal/diag"
)

// Classify walks the tree in script order, tracking first assignment
// versus first read per variable name:
//
//   - a name assigned before any read is a local scalar, or an output
//     image if the caller's image map binds it
//   - a name read before any assignment must be bound in the image map
//     and becomes an input image; otherwise UndefinedVariable is recorded
//   - built-in named constants never require a binding
//
// The first use fixes the role. An image-bound name may still be used in
// the other direction afterwards; the descriptor's Read and Written flags
// record that, and both directions go through the bound image.
//
// Positional status is derived during the same walk: neighbor reads,
// image reads and positional builtins make an expression positional, and
// a variable assigned from a positional expression is itself positional.
// The walk always completes so one compile attempt reports every unbound
// name.
func Classify(prog *ast.Program, imageNames map[string]bool) (*Metadata, *diag.ErrorLog) {
	c := &classify{
		meta:       newMetadata(),
		imageNames: imageNames,
		log:        diag.NewErrorLog(),
	}

	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			positional := c.visitExpr(s.Value)
			c.assign(s.Name, positional)
		case *ast.ImageWriteStmt:
			positional := c.visitExpr(s.Value)
			c.assign(s.Name, positional)
		}
	}

	return c.meta, c.log
}

type classify struct {
	meta       *Metadata
	imageNames map[string]bool
	log        *diag.ErrorLog
}

// assign records an assignment to name. The first assignment fixes the
// role: output image when the caller binds the name, local scalar
// otherwise. Positional status is sticky across reassignments.
func (c *classify) assign(name string, positional bool) {
	d := c.meta.describe(name)
	d.Written = true
	if positional {
		d.Positional = true
	}
	if d.Assigned {
		return
	}
	switch d.Role {
	case RoleInputImage:
		// Read first, then assigned: the read fixed the role. The write
		// still targets the bound image, so leave the role alone.
		return
	case RoleConstant:
		// Assignments never target constants; the role was pre-seeded by
		// a read and a same-named assignment shadows nothing.
		return
	}
	d.Assigned = true
	if c.imageNames[name] {
		d.Role = RoleOutputImage
		d.Positional = true
	} else {
		d.Role = RoleLocal
	}
}

// read records a read of name and returns whether the resulting value is
// positional.
func (c *classify) read(name string) bool {
	if builtins.IsConstant(name) {
		d := c.meta.describe(name)
		d.Role = RoleConstant
		return false
	}

	d := c.meta.describe(name)
	d.Read = true
	if d.Assigned || d.Role == RoleInputImage {
		return d.Positional
	}

	// Read before any assignment: must be a caller-bound image.
	if c.imageNames[name] {
		d.Role = RoleInputImage
		d.Positional = true
		return true
	}

	c.log.Add(name, diag.UndefinedVariable)
	return false
}

// neighborRead records a read of name through a relative pixel offset.
// Neighbor syntax is only meaningful on image variables.
func (c *classify) neighborRead(name string) bool {
	d := c.meta.describe(name)
	d.Read = true
	if c.imageNames[name] && d.Role != RoleOutputImage {
		d.Role = RoleInputImage
		d.Positional = true
		return true
	}
	if d.Role == RoleInputImage {
		return true
	}
	c.log.Add(name, diag.UndefinedVariable)
	return false
}

// visitExpr classifies every read inside expr and reports whether the
// expression is positional.
func (c *classify) visitExpr(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return false

	case *ast.IdentExpr:
		return c.read(e.Name)

	case *ast.BinaryExpr:
		l := c.visitExpr(e.Left)
		r := c.visitExpr(e.Right)
		return l || r

	case *ast.UnaryExpr:
		return c.visitExpr(e.Operand)

	case *ast.CallExpr:
		positional := false
		if b, ok := builtins.Table[e.Name]; ok && b.Positional {
			positional = true
		}
		for _, arg := range e.Args {
			if c.visitExpr(arg) {
				positional = true
			}
		}
		return positional

	case *ast.CondExpr:
		g := c.visitExpr(e.Guard)
		t := c.visitExpr(e.Then)
		f := c.visitExpr(e.Else)
		return g || t || f

	case *ast.NeighborExpr:
		c.visitExpr(e.DX)
		c.visitExpr(e.DY)
		return c.neighborRead(e.Name)

	case *ast.ImageReadExpr:
		// Desugar output; classification runs before desugaring, but an
		// image read is positional wherever it appears.
		c.visitExpr(e.DX)
		c.visitExpr(e.DY)
		return true

	default:
		return false
	}
}
