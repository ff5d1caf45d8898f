package schema

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Schema is a linked, immutable set of modules.
type Schema struct {
	primary string
	modules map[string]*Module
	names   []string
}

// Link resolves every type reference across modules, assigns the tag table of
// every constructed type and returns the frozen schema. primary names the
// module searched first for top-level types; empty means the first module.
//
// Link is the only writer of the resolved state of the types it is given;
// the modules must not be modified or linked again afterwards.
func Link(primary string, modules ...*Module) (*Schema, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: no modules", ErrUnknownModule)
	}
	s := &Schema{modules: make(map[string]*Module, len(modules))}
	for _, m := range modules {
		if _, exists := s.modules[m.Name]; exists {
			return nil, fmt.Errorf("%w: module %s", ErrDuplicateDefinition, m.Name)
		}
		s.modules[m.Name] = m
		s.names = append(s.names, m.Name)
	}
	slices.Sort(s.names)

	if primary == "" {
		primary = modules[0].Name
	}
	if _, ok := s.modules[primary]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, primary)
	}
	s.primary = primary

	l := &linker{schema: s}
	for _, m := range modules {
		if err := l.resolveModule(m); err != nil {
			return nil, err
		}
	}
	for _, m := range modules {
		for _, name := range m.order {
			if err := checkCycle(m.Name+"."+name, m.types[name]); err != nil {
				return nil, err
			}
		}
	}
	for _, m := range modules {
		if err := l.tagModule(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type linker struct {
	schema *Schema
}

// walk visits t and every type nested inline in it. References are not
// followed, so every node is visited once per definition.
func walk(t *Type, path string, visit func(t *Type, path string) error) error {
	if t == nil {
		return nil
	}
	if err := visit(t, path); err != nil {
		return err
	}
	for _, c := range t.components {
		if err := walk(c.Type, path+"/"+c.Name, visit); err != nil {
			return err
		}
	}
	if t.element != nil {
		if err := walk(t.element, path+"[]", visit); err != nil {
			return err
		}
	}
	for _, c := range t.constraints {
		if cc, ok := c.(ContainingConstraint); ok {
			if err := walk(cc.Type, path+"(CONTAINING)", visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *linker) resolveModule(m *Module) error {
	for _, name := range m.order {
		err := walk(m.types[name], m.Name+"."+name, func(t *Type, path string) error {
			if t.tag != nil && t.tagMode == TagDefault {
				t.tagMode = typeTagMode(m.Tagging)
			}
			if t.builtin != Reference {
				return nil
			}
			target, err := l.lookup(m, t.ref)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			t.target = target
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// typeTagMode is the mode of a type-level tag written without IMPLICIT or
// EXPLICIT. Only an EXPLICIT TAGS module makes it explicit.
func typeTagMode(mode TaggingMode) TagMode {
	if mode == TagsExplicit {
		return TagExplicit
	}
	return TagImplicit
}

// lookup finds the definition a reference in module m points at: the named
// module, else m itself, else the module m imports the name from, else the
// first module (by name) that defines it.
func (l *linker) lookup(m *Module, ref TypeRef) (*Type, error) {
	if ref.Module != "" {
		target, ok := l.schema.modules[ref.Module]
		if !ok {
			return nil, fmt.Errorf("%w: %s (module %s not loaded)", ErrUnresolvedReference, ref, ref.Module)
		}
		if t, ok := target.types[ref.Name]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, ref)
	}
	if t, ok := m.types[ref.Name]; ok {
		return t, nil
	}
	if from, ok := m.imports[ref.Name]; ok {
		if target, ok := l.schema.modules[from]; ok {
			if t, ok := target.types[ref.Name]; ok {
				return t, nil
			}
		}
	}
	for _, name := range l.schema.names {
		if t, ok := l.schema.modules[name].types[ref.Name]; ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s referenced from module %s", ErrUnresolvedReference, ref, m.Name)
}

// checkCycle rejects alias chains that never reach a concrete type.
func checkCycle(path string, t *Type) error {
	seen := make(map[*Type]bool)
	for t != nil && t.builtin == Reference {
		if seen[t] {
			return fmt.Errorf("%w: %s", ErrReferenceCycle, path)
		}
		seen[t] = true
		t = t.target
	}
	return nil
}

func (l *linker) tagModule(m *Module) error {
	for _, name := range m.order {
		err := walk(m.types[name], m.Name+"."+name, func(t *Type, path string) error {
			if t.Kind() != KindConstructed {
				return nil
			}
			_, err := tableOf(path, t, m.Tagging)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Primary returns the name of the module searched first.
func (s *Schema) Primary() string { return s.primary }

// Module returns a linked module by name.
func (s *Schema) Module(name string) (*Module, bool) {
	m, ok := s.modules[name]
	return m, ok
}

// ModuleNames returns the module names in sorted order.
func (s *Schema) ModuleNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// TopLevel returns the type a PDU is decoded as. The primary module is
// searched first, then every other module in name order. "Module.Type"
// selects a module explicitly.
func (s *Schema) TopLevel(name string) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty top-level type name", ErrUnknownType)
	}
	if m, ok := s.modules[s.primary]; ok {
		if t, ok := m.types[name]; ok {
			return t, nil
		}
	}
	for _, mod := range s.names {
		if t, ok := s.modules[mod].types[name]; ok {
			return t, nil
		}
	}
	for _, mod := range s.names {
		prefix := mod + "."
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			if t, ok := s.modules[mod].types[name[len(prefix):]]; ok {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}
