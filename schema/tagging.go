package schema

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/brightsparklabs/asanti-sub002/tag"
)

// NamedType is the result of matching a raw tag against a tag table: the
// component that was selected and the name it is known by at this level.
type NamedType struct {
	// Name is the component name, or "parent/alternative" for alternatives of
	// an untagged CHOICE.
	Name      string
	Component *Component
	Optional  bool
	// Wraps is the number of TLV levels between the matched tag and the
	// value: one for an explicit component tag, plus one per explicit
	// type-level tag of the component type. CHOICE values add none.
	Wraps int

	// choice is the CHOICE behind an embedded-choice sentinel entry.
	choice *Type
}

// decoratedTag is a tag table key. Ordered tables key on position and tag,
// unordered tables on the tag alone.
type decoratedTag struct {
	index int
	tag   tag.Tag
}

const unorderedIndex = -1

func (d decoratedTag) String() string {
	if d.index == unorderedIndex {
		return d.tag.String()
	}
	return tag.Raw{Index: d.index, Tag: d.tag}.String()
}

// TagTable maps the decorated tags of one constructed type to its components.
type TagTable struct {
	ordered bool
	entries map[decoratedTag]NamedType
}

func newTagTable(ordered bool) *TagTable {
	return &TagTable{ordered: ordered, entries: make(map[decoratedTag]NamedType)}
}

// Ordered reports whether the table is matched by position (SEQUENCE).
func (tt *TagTable) Ordered() bool { return tt.ordered }

// Len returns the number of entries.
func (tt *TagTable) Len() int { return len(tt.entries) }

// Names maps each decorated tag ("0[1]", "UNIVERSAL 4", "1.u.Choice") to the
// component name assigned to it.
func (tt *TagTable) Names() map[string]string {
	out := make(map[string]string, len(tt.entries))
	for k, v := range tt.entries {
		out[k.String()] = v.Name
	}
	return out
}

// Tags returns the decorated tags in table order.
func (tt *TagTable) Tags() []string {
	keys := tt.sortedKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func (tt *TagTable) sortedKeys() []decoratedTag {
	keys := make([]decoratedTag, 0, len(tt.entries))
	for k := range tt.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b decoratedTag) int {
		if a.index != b.index {
			return a.index - b.index
		}
		return a.tag.Compare(b.tag)
	})
	return keys
}

func (tt *TagTable) decorate(index int, t tag.Tag) decoratedTag {
	if !tt.ordered {
		index = unorderedIndex
	}
	return decoratedTag{index: index, tag: t}
}

func (tt *TagTable) lookup(key decoratedTag) (NamedType, bool) {
	nt, ok := tt.entries[key]
	return nt, ok
}

func (tt *TagTable) add(owner string, key decoratedTag, nt NamedType) error {
	if existing, ok := tt.entries[key]; ok {
		return &DuplicateTagError{Type: owner, Tag: key.String(), First: existing.Name, Second: nt.Name}
	}
	tt.entries[key] = nt
	return nil
}

// assignTags builds the tag table of the constructed type t.
//
// Components are visited in declaration order. index counts the positions of
// non-optional components only; autoNumber counts every component and is used
// when automatic tagging applies. An untagged inline CHOICE component is
// flattened: its alternatives are entered at the parent level as
// "component/alternative", because the CHOICE itself never appears on the wire.
// An untagged CHOICE reached through a reference gets a sentinel entry instead
// and is matched lazily.
func assignTags(owner string, t *Type, mode TaggingMode) (*TagTable, error) {
	table := newTagTable(t.builtin == Sequence)
	automatic := mode == TagsAutomatic && !anyTagged(t.components)

	index, autoNumber := 0, 0
	for _, c := range t.components {
		underlying := c.Type.Underlying()
		if underlying == nil {
			return nil, fmt.Errorf("%w: component %s of %s", ErrUnresolvedReference, c.Name, owner)
		}
		nt := NamedType{Name: c.Name, Component: c, Optional: c.Optional}

		var err error
		switch {
		case automatic:
			nt.Wraps = componentWraps(c.Type, false)
			err = table.add(owner, table.decorate(index, tag.Context(autoNumber)), nt)
		case c.Tag != nil:
			nt.Wraps = componentWraps(c.Type, isExplicit(c, mode))
			err = table.add(owner, table.decorate(index, *c.Tag), nt)
		case c.Type.IsUntaggedChoice() && c.Type.builtin == Choice:
			err = flattenChoice(owner, table, index, c, mode)
		case c.Type.IsUntaggedChoice():
			nt.choice = underlying
			err = table.add(owner, table.decorate(index, tag.Choice), nt)
		default:
			var tg tag.Tag
			tg, err = defaultTag(c.Type)
			if err != nil {
				return nil, fmt.Errorf("component %s of %s: %w", c.Name, owner, err)
			}
			nt.Wraps = c.Type.InnerLevels()
			err = table.add(owner, table.decorate(index, tg), nt)
		}
		if err != nil {
			return nil, err
		}

		autoNumber++
		if !c.Optional {
			index++
		}
	}
	return table, nil
}

// flattenChoice enters the alternatives of the inline CHOICE of c into table
// at position index.
func flattenChoice(owner string, table *TagTable, index int, c *Component, mode TaggingMode) error {
	sub, err := tableOf(owner+"/"+c.Name, c.Type, mode)
	if err != nil {
		return err
	}
	for _, key := range sub.sortedKeys() {
		alt := sub.entries[key]
		alt.Name = c.Name + "/" + alt.Name
		alt.Optional = c.Optional
		if err := table.add(owner, table.decorate(index, key.tag), alt); err != nil {
			return err
		}
	}
	return nil
}

// tableOf returns the tag table of t, computing it on first use.
func tableOf(owner string, t *Type, mode TaggingMode) (*TagTable, error) {
	if t.table != nil {
		return t.table, nil
	}
	table, err := assignTags(owner, t, mode)
	if err != nil {
		return nil, err
	}
	t.table = table
	t.matcher = matcherFor(t.builtin)
	return table, nil
}

func anyTagged(components []*Component) bool {
	for _, c := range components {
		if c.Tag != nil {
			return true
		}
	}
	return false
}

// componentWraps returns the TLV levels under a component tag on a value of
// t. An implicit tag replaces the outermost tag of t; an explicit one, or any
// tag on an untagged CHOICE, adds a level of its own.
func componentWraps(t *Type, explicit bool) int {
	levels := tlvLevels(t)
	if explicit || levels == 0 {
		return levels
	}
	return levels - 1
}

func isExplicit(c *Component, mode TaggingMode) bool {
	switch c.TagMode {
	case TagExplicit:
		return true
	case TagImplicit:
		return false
	default:
		return mode == TagsExplicit
	}
}

// defaultTag is the tag a value of t carries on the wire when the component
// declares none: a type-level tag on the reference chain, else the universal
// tag of the underlying builtin.
func defaultTag(t *Type) (tag.Tag, error) {
	if tg := firstTypeTag(t); tg != nil {
		return *tg, nil
	}
	u := t.Underlying()
	if u == nil {
		return tag.Tag{}, ErrUnresolvedReference
	}
	tg, ok := u.builtin.UniversalTag()
	if !ok {
		return tag.Tag{}, fmt.Errorf("%w: %s", ErrNoUniversalTag, u.builtin)
	}
	return tg, nil
}
