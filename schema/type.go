package schema

import (
	"math/big"

	"github.com/brightsparklabs/asanti-sub002/tag"
)

// Kind is the variant of a schema type.
type Kind int

const (
	KindPrimitive Kind = iota
	KindConstructed
	KindCollection
	KindWithNamedValues
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindConstructed:
		return "constructed"
	case KindCollection:
		return "collection"
	case KindWithNamedValues:
		return "with-named-values"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// NamedValue is one entry of an INTEGER, ENUMERATED or BIT STRING
// named-number list.
type NamedValue struct {
	Name  string
	Value *big.Int
}

// TypeRef names a type defined elsewhere. An empty Module means the
// referencing module or its imports.
type TypeRef struct {
	Module string
	Name   string
}

func (r TypeRef) String() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// Type is a node of the schema type graph.
//
// Types are assembled with the constructors in this file and are frozen by
// [Link]. Nothing modifies a type once Link has returned, so a linked graph
// may be shared by concurrent decodes.
type Type struct {
	name        string
	builtin     Builtin
	tag         *tag.Tag
	tagMode     TagMode
	constraints []Constraint
	components  []*Component
	element     *Type
	named       []NamedValue
	ref         TypeRef

	// set once by Link
	target  *Type
	table   *TagTable
	matcher matcher
}

// NewPrimitive returns a type for a builtin decoded from content octets.
func NewPrimitive(b Builtin, constraints ...Constraint) *Type {
	return &Type{builtin: b, constraints: constraints}
}

// NewSequence returns a SEQUENCE type.
func NewSequence(components ...*Component) *Type {
	return &Type{builtin: Sequence, components: components}
}

// NewSet returns a SET type.
func NewSet(components ...*Component) *Type {
	return &Type{builtin: Set, components: components}
}

// NewChoice returns a CHOICE type.
func NewChoice(components ...*Component) *Type {
	return &Type{builtin: Choice, components: components}
}

// NewSequenceOf returns a SEQUENCE OF type.
func NewSequenceOf(element *Type, constraints ...Constraint) *Type {
	return &Type{builtin: SequenceOf, element: element, constraints: constraints}
}

// NewSetOf returns a SET OF type.
func NewSetOf(element *Type, constraints ...Constraint) *Type {
	return &Type{builtin: SetOf, element: element, constraints: constraints}
}

// NewNamedValues returns an INTEGER, ENUMERATED or BIT STRING type carrying a
// named-number list.
func NewNamedValues(b Builtin, values ...NamedValue) *Type {
	return &Type{builtin: b, named: values}
}

// Ref returns a placeholder for a type that is resolved by Link.
func Ref(module, name string) *Type {
	return &Type{builtin: Reference, ref: TypeRef{Module: module, Name: name}}
}

// Tagged sets a type-level tag, as in "Foo ::= [APPLICATION 3] SEQUENCE {...}".
// The tag is implicit or explicit as the defining module's tagging default
// says; Link settles which.
func (t *Type) Tagged(tg tag.Tag) *Type {
	return t.TaggedAs(tg, TagDefault)
}

// TaggedAs sets a type-level tag with an IMPLICIT or EXPLICIT keyword.
func (t *Type) TaggedAs(tg tag.Tag, mode TagMode) *Type {
	t.tag = &tg
	t.tagMode = mode
	return t
}

// Constrained appends constraints to t.
func (t *Type) Constrained(constraints ...Constraint) *Type {
	t.constraints = append(t.constraints, constraints...)
	return t
}

// Name returns the name the type was defined under, or "" for inline types.
func (t *Type) Name() string { return t.name }

// Builtin returns the builtin t was declared with.
func (t *Type) Builtin() Builtin { return t.builtin }

// Kind returns the variant of t.
func (t *Type) Kind() Kind {
	switch t.builtin {
	case Sequence, Set, Choice:
		return KindConstructed
	case SequenceOf, SetOf:
		return KindCollection
	case Reference:
		return KindReference
	}
	if len(t.named) > 0 {
		return KindWithNamedValues
	}
	return KindPrimitive
}

// Tag returns the type-level tag, if any.
func (t *Type) Tag() (tag.Tag, bool) {
	if t.tag == nil {
		return tag.Tag{}, false
	}
	return *t.tag, true
}

// TagMode returns whether the type-level tag replaces or wraps the tag of
// the type beneath it. After Link it is TagImplicit or TagExplicit for every
// tagged type.
func (t *Type) TagMode() TagMode { return t.tagMode }

// Constraints returns the constraints declared directly on t.
func (t *Type) Constraints() []Constraint { return t.constraints }

// Components returns the components of a constructed type.
func (t *Type) Components() []*Component { return t.components }

// Element returns the element type of a collection.
func (t *Type) Element() *Type { return t.element }

// NamedValues returns the named-number list.
func (t *Type) NamedValues() []NamedValue { return t.named }

// Reference returns the reference of a placeholder type.
func (t *Type) Reference() TypeRef { return t.ref }

// Underlying follows references to the concrete type. It returns nil when a
// reference in the chain has not been resolved.
func (t *Type) Underlying() *Type {
	for hops := 0; t != nil && t.builtin == Reference; hops++ {
		if hops > maxAliasDepth {
			return nil
		}
		t = t.target
	}
	return t
}

// maxAliasDepth bounds reference chains; Link rejects cycles before this is reached.
const maxAliasDepth = 64

// EffectiveConstraints returns the constraints of t and of every type its
// reference chain passes through.
func (t *Type) EffectiveConstraints() []Constraint {
	var out []Constraint
	for hops := 0; t != nil && hops <= maxAliasDepth; hops++ {
		out = append(out, t.constraints...)
		if t.builtin != Reference {
			break
		}
		t = t.target
	}
	return out
}

// EffectiveNamedValues returns the named-number list of the underlying type.
func (t *Type) EffectiveNamedValues() []NamedValue {
	if u := t.Underlying(); u != nil {
		return u.named
	}
	return nil
}

// NameOf returns the name of the named value equal to v.
func (t *Type) NameOf(v *big.Int) (string, bool) {
	for _, nv := range t.EffectiveNamedValues() {
		if nv.Value.Cmp(v) == 0 {
			return nv.Name, true
		}
	}
	return "", false
}

// IsUntaggedChoice reports whether the underlying type is a CHOICE without a
// type-level tag. Such a value never produces a TLV of its own.
func (t *Type) IsUntaggedChoice() bool {
	u := t.Underlying()
	return u != nil && u.builtin == Choice && firstTypeTag(t) == nil
}

// firstTypeTag returns the first type-level tag on the reference chain from t.
func firstTypeTag(t *Type) *tag.Tag {
	for hops := 0; t != nil && hops <= maxAliasDepth; hops++ {
		if t.tag != nil {
			return t.tag
		}
		if t.builtin != Reference {
			return nil
		}
		t = t.target
	}
	return nil
}

// InnerLevels returns how many TLVs sit between the outermost tag of a value
// of t and the value itself. Each explicit type-level tag on the reference
// chain adds one, except around an untagged CHOICE.
func (t *Type) InnerLevels() int {
	if n := tlvLevels(t); n > 0 {
		return n - 1
	}
	return 0
}

// tlvLevels counts the nested TLVs a value of t is encoded as. An untagged
// CHOICE counts none: its alternative is matched on its own.
func tlvLevels(t *Type) int {
	var chain []*Type
	for hops := 0; t != nil && hops <= maxAliasDepth; hops++ {
		chain = append(chain, t)
		if t.builtin != Reference {
			break
		}
		t = t.target
	}
	if len(chain) == 0 {
		return 0
	}

	levels := 1
	if chain[len(chain)-1].builtin == Choice {
		levels = 0
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].tag == nil {
			continue
		}
		// a CHOICE cannot be tagged implicitly
		if chain[i].tagMode == TagExplicit || levels == 0 {
			levels++
		}
	}
	return levels
}

// TagTable returns the tag table Link assigned to a constructed type.
func (t *Type) TagTable() *TagTable { return t.table }

// TagMode controls whether a component tag replaces or wraps the tag of the
// component type.
type TagMode int

const (
	// TagDefault follows the module tagging default.
	TagDefault TagMode = iota
	TagImplicit
	TagExplicit
)

// Component is a named member of a SEQUENCE, SET or CHOICE.
type Component struct {
	Name     string
	Type     *Type
	Tag      *tag.Tag
	TagMode  TagMode
	Optional bool
	// Default holds the DEFAULT value text; a component with a default is optional.
	Default string
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithTag sets an explicit component tag.
func WithTag(tg tag.Tag) ComponentOption {
	return func(c *Component) {
		c.Tag = &tg
	}
}

// WithTagMode sets IMPLICIT or EXPLICIT for the component tag.
func WithTagMode(mode TagMode) ComponentOption {
	return func(c *Component) {
		c.TagMode = mode
	}
}

// Optional marks the component OPTIONAL.
func Optional() ComponentOption {
	return func(c *Component) {
		c.Optional = true
	}
}

// WithDefault records a DEFAULT value; the component becomes optional.
func WithDefault(value string) ComponentOption {
	return func(c *Component) {
		c.Default = value
		c.Optional = true
	}
}

// NewComponent creates a component.
func NewComponent(name string, t *Type, opts ...ComponentOption) *Component {
	c := &Component{Name: name, Type: t}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
