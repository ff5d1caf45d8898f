package schema

import (
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/brightsparklabs/asanti-sub002/ber"
)

// FailureType classifies a validation failure.
type FailureType int

const (
	// DataMissing means the schema expects a value but no bytes were found.
	DataMissing FailureType = iota
	// DataIncorrectlyFormatted means the bytes cannot be read as the type claims.
	DataIncorrectlyFormatted
	// SchemaConstraint means a SIZE, value or CONTAINING constraint failed.
	SchemaConstraint
	// UnmappedTag means a raw tag had no schema path.
	UnmappedTag
	// CustomRule means a user supplied rule rejected the value.
	CustomRule
)

func (f FailureType) String() string {
	switch f {
	case DataMissing:
		return "DataMissing"
	case DataIncorrectlyFormatted:
		return "DataIncorrectlyFormatted"
	case SchemaConstraint:
		return "SchemaConstraint"
	case UnmappedTag:
		return "UnmappedTag"
	case CustomRule:
		return "CustomRule"
	default:
		return "FailureType(" + strconv.Itoa(int(f)) + ")"
	}
}

// Failure is one reason a value is invalid.
type Failure struct {
	Type   FailureType
	Reason string
}

func (f Failure) String() string {
	return f.Type.String() + ": " + f.Reason
}

// Constraint is a schema-declared restriction on the bytes of a value.
type Constraint interface {
	// Apply checks data, read as b, and returns every failure found.
	Apply(data []byte, b Builtin) []Failure
	String() string
}

func missing() []Failure {
	return []Failure{{Type: DataMissing, Reason: "no data found"}}
}

// ApplyAll applies every constraint to data. Nil data yields a single
// DataMissing failure and no constraint is evaluated.
func ApplyAll(constraints []Constraint, data []byte, b Builtin) []Failure {
	if data == nil {
		return missing()
	}
	var failures []Failure
	for _, c := range constraints {
		failures = append(failures, c.Apply(data, b)...)
	}
	return failures
}

// Unbounded marks an open upper size bound (MAX).
const Unbounded = -1

// SizeConstraint restricts the size of a value: SIZE(n) or SIZE(min..max).
type SizeConstraint struct {
	Min int64
	// Max is Unbounded for SIZE(min..MAX).
	Max int64
}

// ExactSize returns SIZE(n).
func ExactSize(n int64) SizeConstraint { return SizeConstraint{Min: n, Max: n} }

// SizeRange returns SIZE(min..max).
func SizeRange(lower, upper int64) SizeConstraint { return SizeConstraint{Min: lower, Max: upper} }

func (c SizeConstraint) String() string {
	if c.Min == c.Max {
		return "SIZE(" + strconv.FormatInt(c.Min, 10) + ")"
	}
	upper := "MAX"
	if c.Max != Unbounded {
		upper = strconv.FormatInt(c.Max, 10)
	}
	return "SIZE(" + strconv.FormatInt(c.Min, 10) + ".." + upper + ")"
}

func (c SizeConstraint) Apply(data []byte, b Builtin) []Failure {
	if data == nil {
		return missing()
	}
	size, err := SizeOf(data, b)
	if err != nil {
		return []Failure{{Type: DataIncorrectlyFormatted, Reason: fmt.Sprintf("cannot determine size of %s: %v", b, err)}}
	}
	n := int64(size)
	if c.Min == c.Max {
		if n != c.Min {
			return []Failure{{Type: SchemaConstraint, Reason: fmt.Sprintf("expected size %d but got %d", c.Min, n)}}
		}
		return nil
	}
	if n < c.Min || (c.Max != Unbounded && n > c.Max) {
		return []Failure{{Type: SchemaConstraint, Reason: fmt.Sprintf("size %d is outside %s", n, c)}}
	}
	return nil
}

// sizeFuncs measures types whose size is not their byte count.
var sizeFuncs = map[Builtin]func([]byte) (int, error){
	BitString: func(data []byte) (int, error) {
		_, n, err := ber.DecodeBitString(data)
		return n, err
	},
	UTF8String: func(data []byte) (int, error) {
		if !utf8.Valid(data) {
			return 0, fmt.Errorf("invalid UTF-8")
		}
		return utf8.RuneCount(data), nil
	},
	BMPString: func(data []byte) (int, error) {
		if len(data)%2 != 0 {
			return 0, fmt.Errorf("odd BMPString length %d", len(data))
		}
		return len(data) / 2, nil
	},
	UniversalString: func(data []byte) (int, error) {
		if len(data)%4 != 0 {
			return 0, fmt.Errorf("UniversalString length %d is not a multiple of 4", len(data))
		}
		return len(data) / 4, nil
	},
}

// SizeOf returns the size of data in the unit SIZE constraints use for b:
// bits for BIT STRING, characters for multi-byte strings, octets otherwise.
func SizeOf(data []byte, b Builtin) (int, error) {
	if f, ok := sizeFuncs[b]; ok {
		return f(data)
	}
	return len(data), nil
}

// ValueConstraint restricts a numeric value: (n) or (min..max). A nil bound
// is open (MIN or MAX).
type ValueConstraint struct {
	Min *big.Int
	Max *big.Int
}

// ExactValue returns (n).
func ExactValue(n *big.Int) ValueConstraint { return ValueConstraint{Min: n, Max: n} }

// ValueRange returns (min..max).
func ValueRange(lower, upper *big.Int) ValueConstraint {
	return ValueConstraint{Min: lower, Max: upper}
}

func (c ValueConstraint) exact() bool {
	return c.Min != nil && c.Max != nil && c.Min.Cmp(c.Max) == 0
}

func (c ValueConstraint) String() string {
	if c.exact() {
		return "(" + c.Min.String() + ")"
	}
	lower, upper := "MIN", "MAX"
	if c.Min != nil {
		lower = c.Min.String()
	}
	if c.Max != nil {
		upper = c.Max.String()
	}
	return "(" + lower + ".." + upper + ")"
}

func (c ValueConstraint) Apply(data []byte, b Builtin) []Failure {
	if data == nil {
		return missing()
	}
	value, err := ber.DecodeInteger(data)
	if err != nil {
		return []Failure{{Type: DataIncorrectlyFormatted, Reason: fmt.Sprintf("cannot read %s as an integer: %v", b, err)}}
	}
	if c.exact() {
		if value.Cmp(c.Min) != 0 {
			return []Failure{{Type: SchemaConstraint, Reason: fmt.Sprintf("expected value %s but got %s", c.Min, value)}}
		}
		return nil
	}
	if (c.Min != nil && value.Cmp(c.Min) < 0) || (c.Max != nil && value.Cmp(c.Max) > 0) {
		return []Failure{{Type: SchemaConstraint, Reason: fmt.Sprintf("value %s is outside %s", value, c)}}
	}
	return nil
}

// ContainingConstraint requires the bytes to hold a nested BER encoding:
// OCTET STRING (CONTAINING Type).
type ContainingConstraint struct {
	Type *Type
}

func (c ContainingConstraint) String() string {
	if c.Type == nil {
		return "(CONTAINING)"
	}
	name := c.Type.Name()
	if c.Type.Kind() == KindReference {
		name = c.Type.Reference().String()
	}
	return "(CONTAINING " + name + ")"
}

func (c ContainingConstraint) Apply(data []byte, b Builtin) []Failure {
	if data == nil {
		return missing()
	}
	pdus, err := ber.ReadPDUs(data, 0)
	if err != nil {
		return []Failure{{Type: SchemaConstraint, Reason: fmt.Sprintf("contained data is not valid BER: %v", err)}}
	}
	if len(pdus) == 0 {
		return []Failure{{Type: SchemaConstraint, Reason: "contained data holds no PDU"}}
	}
	return nil
}
