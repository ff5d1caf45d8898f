package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/tag"
)

// DecodedTag is the outcome of resolving one raw tag.
type DecodedTag struct {
	// Tag is the decoded name, "/" followed by Segments joined with "/".
	Tag      string
	Segments []string
	RawTag   string
	// Type is the schema type the raw tag resolved to; nil when unmapped.
	Type     *schema.Type
	Resolved bool
	// Prefix is the longest decoded path reached before resolution stopped.
	// It equals Tag for resolved tags.
	Prefix string
}

// Resolution partitions the raw tags of one PDU.
type Resolution struct {
	Decoded  []DecodedTag
	Unmapped []DecodedTag
}

type parsedTag struct {
	raw  string
	path tag.Path
}

// Resolve aligns the raw tags of one PDU with the schema, starting at the
// named top-level type. Tags that do not fit the schema are returned as
// unmapped; only an unknown top-level type or an unresolved reference is an
// error.
func Resolve(s *schema.Schema, rawTags []string, topLevel string) (Resolution, error) {
	top, err := s.TopLevel(topLevel)
	if err != nil {
		return Resolution{}, err
	}
	rootName := top.Name()
	if rootName == "" {
		rootName = topLevel
	}

	var res Resolution
	parsed := make([]parsedTag, 0, len(rawTags))
	for _, raw := range rawTags {
		p, err := tag.ParsePath(raw)
		if err != nil {
			res.Unmapped = append(res.Unmapped, DecodedTag{Tag: raw, Segments: []string{raw}, RawTag: raw})
			continue
		}
		parsed = append(parsed, parsedTag{raw: raw, path: p})
	}
	// siblings must reach the session in index order
	slices.SortStableFunc(parsed, func(a, b parsedTag) int {
		return a.path.Compare(b.path)
	})

	session := schema.NewSession()
	for _, p := range parsed {
		dt, err := resolveOne(top, rootName, p, session)
		if err != nil {
			return Resolution{}, err
		}
		if dt.Resolved {
			res.Decoded = append(res.Decoded, dt)
		} else {
			res.Unmapped = append(res.Unmapped, dt)
		}
	}
	return res, nil
}

// walker is the state of resolving one raw tag path.
type walker struct {
	path  tag.Path
	pos   int
	names []string
}

func (w *walker) done() bool { return w.pos >= len(w.path) }

// skip steps over n wrapping TLVs. It fails when the path ends inside them.
func (w *walker) skip(n int) bool {
	for ; n > 0; n-- {
		if w.done() {
			return false
		}
		w.pos++
	}
	return true
}

func (w *walker) result(raw string, t *schema.Type) DecodedTag {
	prefix := "/" + strings.Join(w.names, "/")
	return DecodedTag{
		Tag:      prefix,
		Segments: w.names,
		RawTag:   raw,
		Type:     t,
		Resolved: true,
		Prefix:   prefix,
	}
}

// unmapped names the tag by its resolved prefix followed by the raw
// segments that could not be resolved.
func (w *walker) unmapped(raw string) DecodedTag {
	prefix := "/" + strings.Join(w.names, "/")
	segments := slices.Clone(w.names)
	for _, r := range w.path[w.pos:] {
		segments = append(segments, r.String())
	}
	return DecodedTag{
		Tag:      "/" + strings.Join(segments, "/"),
		Segments: segments,
		RawTag:   raw,
		Prefix:   prefix,
	}
}

func resolveOne(top *schema.Type, rootName string, p parsedTag, session *schema.Session) (DecodedTag, error) {
	w := &walker{path: p.path, names: []string{rootName}}
	// An untagged CHOICE has no TLV of its own: the root segment is already
	// the selected alternative.
	if !top.IsUntaggedChoice() {
		w.pos = 1
		if !w.skip(top.InnerLevels()) {
			return w.unmapped(p.raw), nil
		}
	}

	declared, current := top, top
	for {
		switch current.Kind() {
		case schema.KindReference:
			u := current.Underlying()
			if u == nil {
				return DecodedTag{}, fmt.Errorf("%w: %s at %s", schema.ErrUnresolvedReference, current.Reference(), p.raw)
			}
			current = u

		case schema.KindCollection:
			if w.done() || current.Element() == nil {
				return w.unmapped(p.raw), nil
			}
			last := len(w.names) - 1
			w.names[last] += "[" + strconv.Itoa(w.path[w.pos].Index) + "]"
			element := current.Element()
			// the member segment of an untagged CHOICE element is its alternative
			if !element.IsUntaggedChoice() {
				w.pos++
				if !w.skip(element.InnerLevels()) {
					return w.unmapped(p.raw), nil
				}
			}
			declared, current = element, element

		case schema.KindConstructed:
			if w.done() {
				return w.unmapped(p.raw), nil
			}
			instance := w.path[:w.pos].String()
			nt, ok := current.Match(w.path[w.pos], instance, session)
			if !ok {
				return w.unmapped(p.raw), nil
			}
			w.names = append(w.names, strings.Split(nt.Name, "/")...)
			w.pos++
			if !w.skip(nt.Wraps) {
				return w.unmapped(p.raw), nil
			}
			declared, current = nt.Component.Type, nt.Component.Type

		default:
			if !w.done() {
				return w.unmapped(p.raw), nil
			}
			return w.result(p.raw, declared), nil
		}
	}
}
