package schema

import (
	"fmt"
	"math/big"
)

// TaggingMode is the tag default declared in a module header.
type TaggingMode int

const (
	TagsExplicit TaggingMode = iota
	TagsImplicit
	TagsAutomatic
)

func (m TaggingMode) String() string {
	switch m {
	case TagsImplicit:
		return "IMPLICIT"
	case TagsAutomatic:
		return "AUTOMATIC"
	default:
		return "EXPLICIT"
	}
}

// Module is a named set of type and value assignments.
type Module struct {
	Name    string
	Tagging TaggingMode

	types   map[string]*Type
	order   []string
	imports map[string]string
	values  map[string]*big.Int
}

// NewModule creates an empty module.
func NewModule(name string, mode TaggingMode) *Module {
	return &Module{
		Name:    name,
		Tagging: mode,
		types:   make(map[string]*Type),
		imports: make(map[string]string),
		values:  make(map[string]*big.Int),
	}
}

// Define adds a type assignment.
func (m *Module) Define(name string, t *Type) error {
	if _, exists := m.types[name]; exists {
		return fmt.Errorf("%w: type %s in module %s", ErrDuplicateDefinition, name, m.Name)
	}
	t.name = name
	m.types[name] = t
	m.order = append(m.order, name)
	return nil
}

// DefineValue adds an integer value assignment.
func (m *Module) DefineValue(name string, v *big.Int) error {
	if _, exists := m.values[name]; exists {
		return fmt.Errorf("%w: value %s in module %s", ErrDuplicateDefinition, name, m.Name)
	}
	m.values[name] = v
	return nil
}

// Import records that names are imported from module.
func (m *Module) Import(module string, names ...string) {
	for _, n := range names {
		m.imports[n] = module
	}
}

// Type returns the type assigned to name.
func (m *Module) Type(name string) (*Type, bool) {
	t, ok := m.types[name]
	return t, ok
}

// TypeNames returns the assigned type names in definition order.
func (m *Module) TypeNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Value returns the integer value assigned to name.
func (m *Module) Value(name string) (*big.Int, bool) {
	v, ok := m.values[name]
	return v, ok
}

// ImportedFrom returns the module name is imported from.
func (m *Module) ImportedFrom(name string) (string, bool) {
	mod, ok := m.imports[name]
	return mod, ok
}
