// Package classifier assigns every variable in a syntax tree a role and a
// positional tag, and builds the Metadata table consumed read-only by all
// later compiler stages.
package classifier

// Role describes how a variable is bound at execution time.
type Role uint8

const (
	// RoleLocal is a script-scoped scalar assigned before use.
	RoleLocal Role = iota

	// RoleInputImage is a variable read from a caller-supplied image,
	// one value per output coordinate.
	RoleInputImage

	// RoleOutputImage is a variable written to a caller-supplied image,
	// one value per output coordinate.
	RoleOutputImage

	// RoleConstant is a built-in named constant.
	RoleConstant
)

func (r Role) String() string {
	switch r {
	case RoleLocal:
		return "local"
	case RoleInputImage:
		return "input-image"
	case RoleOutputImage:
		return "output-image"
	case RoleConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// VarDesc is the per-distinct-name record built during classification.
type VarDesc struct {
	Name string
	Role Role

	// Positional marks variables whose evaluation depends on the output
	// pixel coordinate. Once set it is never cleared, even if the only
	// positional use later folds to dead code.
	Positional bool

	// Assigned reports whether the script assigns the name before any read.
	Assigned bool

	// Read and Written record every use, not just the role-fixing first
	// one. An input-image variable that is later assigned gets written
	// through its bound image, and an output-image variable that is read
	// back gets read through its bound image.
	Read    bool
	Written bool
}

// IsImage reports whether the variable is backed by a caller-supplied
// image in either direction.
func (d *VarDesc) IsImage() bool {
	return d.Role == RoleInputImage || d.Role == RoleOutputImage
}

// Metadata is the classifier's complete picture of variable roles. It is
// created once per compilation and never mutated afterwards.
type Metadata struct {
	vars  map[string]*VarDesc
	order []string // First-appearance order, for deterministic iteration
}

func newMetadata() *Metadata {
	return &Metadata{vars: make(map[string]*VarDesc)}
}

func (m *Metadata) describe(name string) *VarDesc {
	if d, ok := m.vars[name]; ok {
		return d
	}
	d := &VarDesc{Name: name}
	m.vars[name] = d
	m.order = append(m.order, name)
	return d
}

// Var returns the descriptor for a name, or nil when the script never
// mentions it.
func (m *Metadata) Var(name string) *VarDesc {
	return m.vars[name]
}

// Names returns all classified names in first-appearance order.
func (m *Metadata) Names() []string {
	return m.order
}

// InputImages returns the names read through a caller-supplied image, in
// first-appearance order: every input-image variable, plus any
// output-image variable the script reads back after writing.
func (m *Metadata) InputImages() []string {
	var names []string
	for _, name := range m.order {
		d := m.vars[name]
		if d.Role == RoleInputImage || (d.Role == RoleOutputImage && d.Read) {
			names = append(names, name)
		}
	}
	return names
}

// OutputImages returns the names written through a caller-supplied image,
// in first-appearance order: every output-image variable, plus any
// input-image variable the script assigns.
func (m *Metadata) OutputImages() []string {
	var names []string
	for _, name := range m.order {
		d := m.vars[name]
		if d.Role == RoleOutputImage || (d.Role == RoleInputImage && d.Written) {
			names = append(names, name)
		}
	}
	return names
}

// Locals returns the local-scalar variable names in first-appearance order.
func (m *Metadata) Locals() []string {
	return m.withRole(RoleLocal)
}

func (m *Metadata) withRole(role Role) []string {
	var names []string
	for _, name := range m.order {
		if m.vars[name].Role == role {
			names = append(names, name)
		}
	}
	return names
}
