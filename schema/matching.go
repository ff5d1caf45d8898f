package schema

import "github.com/brightsparklabs/asanti-sub002/tag"

// matcher resolves one raw tag against the tag table of a constructed type.
type matcher interface {
	match(t *Type, raw tag.Raw, instance string, s *Session) (NamedType, bool)
}

// orderedMatcher matches SEQUENCE components by logical position and tag.
type orderedMatcher struct{}

// unorderedMatcher matches SET and CHOICE components by tag alone.
type unorderedMatcher struct{}

var (
	sequenceMatcher matcher = orderedMatcher{}
	setMatcher      matcher = unorderedMatcher{}
)

func matcherFor(b Builtin) matcher {
	if b == Sequence {
		return sequenceMatcher
	}
	return setMatcher
}

func (orderedMatcher) match(t *Type, raw tag.Raw, instance string, s *Session) (NamedType, bool) {
	expected := s.ExpectedTag(instance, raw)
	nt, ok := t.table.lookup(decoratedTag{index: expected.Index, tag: expected.Tag})
	if !ok {
		nt, ok = matchEmbeddedChoice(t.table, decoratedTag{index: expected.Index, tag: tag.Choice}, raw, instance, s)
	}
	if ok {
		s.Matched(instance, raw, nt.Optional)
	}
	return nt, ok
}

func (unorderedMatcher) match(t *Type, raw tag.Raw, instance string, s *Session) (NamedType, bool) {
	if nt, ok := t.table.lookup(decoratedTag{index: unorderedIndex, tag: raw.Tag}); ok {
		return nt, true
	}
	return matchEmbeddedChoice(t.table, decoratedTag{index: unorderedIndex, tag: tag.Choice}, raw, instance, s)
}

// matchEmbeddedChoice tries the CHOICE behind a sentinel entry. The CHOICE
// adds no level to the data, so the same raw tag selects one of its
// alternatives.
func matchEmbeddedChoice(table *TagTable, sentinel decoratedTag, raw tag.Raw, instance string, s *Session) (NamedType, bool) {
	nt, ok := table.lookup(sentinel)
	if !ok || nt.choice == nil {
		return NamedType{}, false
	}
	alt, ok := nt.choice.Match(raw, instance, s)
	if !ok {
		return NamedType{}, false
	}
	alt.Name = nt.Name + "/" + alt.Name
	alt.Optional = nt.Optional
	return alt, true
}

// Match resolves raw, a child of the constructed value identified by
// instance, to one of the components of t. It reports false when no
// component matches; that is routine and not an error.
func (t *Type) Match(raw tag.Raw, instance string, s *Session) (NamedType, bool) {
	if t.table == nil || t.matcher == nil {
		return NamedType{}, false
	}
	return t.matcher.match(t, raw, instance, s)
}
