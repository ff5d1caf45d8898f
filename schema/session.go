package schema

import "github.com/brightsparklabs/asanti-sub002/tag"

// Session is the mutable matching state of one top-level decode.
//
// SEQUENCE components that are OPTIONAL occupy no position in a tag table,
// because they may be absent. When one is present it shifts the raw index of
// every following sibling by one, so the session counts the optional
// components matched so far in each constructed value and maps raw indexes
// back to logical positions.
//
// Instances are keyed by the raw tag path of the constructed value. A session
// must not be shared between decodes or goroutines.
type Session struct {
	instances map[string]*instanceState
}

type instanceState struct {
	optionalSeen int
	logical      map[int]int
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{instances: make(map[string]*instanceState)}
}

func (s *Session) state(instance string) *instanceState {
	st, ok := s.instances[instance]
	if !ok {
		st = &instanceState{logical: make(map[int]int)}
		s.instances[instance] = st
	}
	return st
}

// ExpectedTag returns the decorated tag to look up for raw within instance.
func (s *Session) ExpectedTag(instance string, raw tag.Raw) tag.Raw {
	st := s.state(instance)
	if logical, ok := st.logical[raw.Index]; ok {
		return tag.Raw{Index: logical, Tag: raw.Tag}
	}
	return tag.Raw{Index: raw.Index - st.optionalSeen, Tag: raw.Tag}
}

// Matched records that raw resolved within instance. Repeated calls for the
// same raw index are ignored.
func (s *Session) Matched(instance string, raw tag.Raw, optional bool) {
	st := s.state(instance)
	if _, ok := st.logical[raw.Index]; ok {
		return
	}
	st.logical[raw.Index] = raw.Index - st.optionalSeen
	if optional {
		st.optionalSeen++
	}
}
