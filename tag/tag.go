// Package tag models the two tag syntaxes used when aligning BER data with a
// schema.
//
// A schema tag names a component tag as declared in the schema, optionally
// qualified with an occurrence: "3", "3[1]", "UNIVERSAL 4". A raw tag names one
// TLV at one nesting level of decoded data: "2[3]" is the third child at its
// level, encoded with context-specific tag 3, and "0[UNIVERSAL 16]" is the first
// child, encoded as a universal SEQUENCE. A raw tag path joins raw tags with
// slashes: "/0[UNIVERSAL 16]/1[1]/0[UNIVERSAL 4]".
package tag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTag is returned when tag text does not follow either syntax.
var ErrMalformedTag = errors.New("malformed tag")

// Class is the class of a tag.
type Class int

const (
	ContextSpecific Class = iota
	Universal
	Application
	Private
)

func (c Class) String() string {
	switch c {
	case ContextSpecific:
		return "CONTEXT"
	case Universal:
		return "UNIVERSAL"
	case Application:
		return "APPLICATION"
	case Private:
		return "PRIVATE"
	default:
		return "Class(" + strconv.Itoa(int(c)) + ")"
	}
}

// choiceNumber is the tag number reserved for the embedded CHOICE sentinel.
const choiceNumber = -1

// Tag is a class and number pair.
type Tag struct {
	Class  Class
	Number int
}

// Choice marks a component that is an untagged CHOICE which could not be
// flattened into its parent. It never appears in decoded data.
var Choice = Tag{Class: Universal, Number: choiceNumber}

// Context returns a context-specific tag.
func Context(n int) Tag { return Tag{Class: ContextSpecific, Number: n} }

// UniversalTag returns a universal tag.
func UniversalTag(n int) Tag { return Tag{Class: Universal, Number: n} }

// IsChoice reports whether t is the embedded CHOICE sentinel.
func (t Tag) IsChoice() bool { return t == Choice }

// String renders t as "3", "UNIVERSAL 4", "APPLICATION 2" or "UNIVERSAL Choice".
func (t Tag) String() string {
	if t.IsChoice() {
		return "UNIVERSAL Choice"
	}
	if t.Class == ContextSpecific {
		return strconv.Itoa(t.Number)
	}
	return t.Class.String() + " " + strconv.Itoa(t.Number)
}

// Parse parses the text produced by [Tag.String].
func Parse(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "UNIVERSAL Choice" {
		return Choice, nil
	}
	class := ContextSpecific
	num := s
	if prefix, rest, ok := strings.Cut(s, " "); ok {
		switch prefix {
		case "UNIVERSAL":
			class = Universal
		case "APPLICATION":
			class = Application
		case "PRIVATE":
			class = Private
		case "CONTEXT":
			class = ContextSpecific
		default:
			return Tag{}, fmt.Errorf("%w: unknown class in %q", ErrMalformedTag, s)
		}
		num = strings.TrimSpace(rest)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return Tag{}, fmt.Errorf("%w: bad tag number in %q", ErrMalformedTag, s)
	}
	return Tag{Class: class, Number: n}, nil
}

// Compare orders tags by class, then number.
func (t Tag) Compare(o Tag) int {
	if t.Class != o.Class {
		return int(t.Class) - int(o.Class)
	}
	return t.Number - o.Number
}

// Schema is a schema-side tag, optionally qualified with the occurrence of
// that tag among sibling components.
type Schema struct {
	Tag Tag
	// Occurrence is -1 when the tag is unqualified.
	Occurrence int
}

// NewSchema returns an unqualified schema tag.
func NewSchema(t Tag) Schema { return Schema{Tag: t, Occurrence: -1} }

// String renders s as "n" or "n[i]".
func (s Schema) String() string {
	if s.Occurrence < 0 {
		return s.Tag.String()
	}
	return s.Tag.String() + "[" + strconv.Itoa(s.Occurrence) + "]"
}

// ParseSchema parses "n", "n[i]", "UNIVERSAL n" or "UNIVERSAL n[i]".
func ParseSchema(s string) (Schema, error) {
	s = strings.TrimSpace(s)
	occurrence := -1
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open < 0 {
			return Schema{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
		}
		n, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || n < 0 {
			return Schema{}, fmt.Errorf("%w: bad occurrence in %q", ErrMalformedTag, s)
		}
		occurrence = n
		s = s[:open]
	}
	t, err := Parse(s)
	if err != nil {
		return Schema{}, err
	}
	return Schema{Tag: t, Occurrence: occurrence}, nil
}

// Raw is one segment of a raw tag path.
type Raw struct {
	Index int
	Tag   Tag
}

// String renders r as "i[n]", "i[UNIVERSAL n]" or, for the sentinel, "i.u.Choice".
func (r Raw) String() string {
	if r.Tag.IsChoice() {
		return strconv.Itoa(r.Index) + ".u.Choice"
	}
	return strconv.Itoa(r.Index) + "[" + r.Tag.String() + "]"
}

// ParseRaw parses the text produced by [Raw.String].
func ParseRaw(s string) (Raw, error) {
	s = strings.TrimSpace(s)
	if idx, ok := strings.CutSuffix(s, ".u.Choice"); ok {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Raw{}, fmt.Errorf("%w: bad index in %q", ErrMalformedTag, s)
		}
		return Raw{Index: n, Tag: Choice}, nil
	}
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return Raw{}, fmt.Errorf("%w: %q", ErrMalformedTag, s)
	}
	n, err := strconv.Atoi(s[:open])
	if err != nil || n < 0 {
		return Raw{}, fmt.Errorf("%w: bad index in %q", ErrMalformedTag, s)
	}
	t, err := Parse(s[open+1 : len(s)-1])
	if err != nil {
		return Raw{}, err
	}
	return Raw{Index: n, Tag: t}, nil
}

// Compare orders raw tags by index, then tag.
func (r Raw) Compare(o Raw) int {
	if r.Index != o.Index {
		return r.Index - o.Index
	}
	return r.Tag.Compare(o.Tag)
}

// Path is a raw tag path from the PDU root downwards.
type Path []Raw

// ParsePath parses "/0[UNIVERSAL 16]/1[1]". The leading slash is optional.
// Paths come from encoded data, so the CHOICE sentinel is rejected.
func ParsePath(s string) (Path, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedTag)
	}
	parts := strings.Split(s, "/")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		r, err := ParseRaw(part)
		if err != nil {
			return nil, err
		}
		if r.Tag.IsChoice() {
			return nil, fmt.Errorf("%w: choice sentinel %q in data path", ErrMalformedTag, part)
		}
		path = append(path, r)
	}
	return path, nil
}

// String renders p with a leading slash.
func (p Path) String() string {
	var b strings.Builder
	for _, r := range p {
		b.WriteByte('/')
		b.WriteString(r.String())
	}
	return b.String()
}

// Append returns a new path with r added at the end.
func (p Path) Append(r Raw) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, r)
}

// Compare orders paths segment by segment; a path sorts before its extensions.
func (p Path) Compare(o Path) int {
	for i := 0; i < len(p) && i < len(o); i++ {
		if c := p[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return len(p) - len(o)
}
