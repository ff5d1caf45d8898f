package variant

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/brightsparklabs/asanti-sub002/ber"
)

// Type is the kind of a decoded ASN.1 value.
type Type int

const (
	// Null carries no value
	Null Type = iota
	// Bool - BOOLEAN
	Bool
	// Integer - INTEGER and ENUMERATED, arbitrary precision
	Integer
	// Real - REAL as float64
	Real
	// Bytes - OCTET STRING and other opaque content
	Bytes
	// BitString - BIT STRING with an exact bit length
	BitString
	// OID - OBJECT IDENTIFIER and RELATIVE-OID arcs
	OID
	// Text - every character string type
	Text
	// Time - UTCTime and GeneralizedTime
	Time
)

// String returns the name of t.
func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Bytes:
		return "bytes"
	case BitString:
		return "bit-string"
	case OID:
		return "oid"
	case Text:
		return "text"
	case Time:
		return "time"
	default:
		var b strings.Builder
		b.WriteString("unknown(")
		b.WriteString(strconv.Itoa(int(t)))
		b.WriteByte(')')
		return b.String()
	}
}

// Bits is a decoded BIT STRING.
type Bits struct {
	Bytes  []byte
	Length int
}

// At returns bit i, counting from the most significant bit of the first byte.
func (b Bits) At(i int) bool {
	if i < 0 || i >= b.Length {
		return false
	}
	return b.Bytes[i/8]&(0x80>>(uint(i)%8)) != 0
}

// String renders the bits as '0101'B.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(b.Length + 3)
	sb.WriteByte('\'')
	for i := 0; i < b.Length; i++ {
		if b.At(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteString("'B")
	return sb.String()
}

// Variant is a typed decoded value.
type Variant struct {
	typ   Type
	value interface{}
}

// Type returns the kind of value held.
func (v *Variant) Type() Type {
	return v.typ
}

// Value returns the held value as its native Go type.
func (v *Variant) Value() interface{} {
	if v == nil {
		return nil
	}
	return v.value
}

// NewNull creates a NULL value.
func NewNull() *Variant {
	return &Variant{typ: Null}
}

// NewBool creates a BOOLEAN value.
func NewBool(value bool) *Variant {
	return &Variant{typ: Bool, value: value}
}

// NewInteger creates an INTEGER value.
func NewInteger(value *big.Int) *Variant {
	return &Variant{typ: Integer, value: value}
}

// NewReal creates a REAL value.
func NewReal(value float64) *Variant {
	return &Variant{typ: Real, value: value}
}

// NewBytes creates an opaque byte value.
func NewBytes(value []byte) *Variant {
	return &Variant{typ: Bytes, value: value}
}

// NewBitString creates a BIT STRING value.
func NewBitString(value Bits) *Variant {
	return &Variant{typ: BitString, value: value}
}

// NewOID creates an OBJECT IDENTIFIER value.
func NewOID(arcs []uint64) *Variant {
	return &Variant{typ: OID, value: arcs}
}

// NewText creates a character string value.
func NewText(value string) *Variant {
	return &Variant{typ: Text, value: value}
}

// NewTime creates a time value.
func NewTime(value time.Time) *Variant {
	return &Variant{typ: Time, value: value}
}

// Bool returns the value as bool, false if it is not one.
func (v *Variant) Bool() bool {
	if v == nil {
		return false
	}
	b, _ := v.value.(bool)
	return b
}

// BigInt returns the value as an integer. Reals are truncated; other kinds
// return nil.
func (v *Variant) BigInt() *big.Int {
	if v == nil {
		return nil
	}
	switch val := v.value.(type) {
	case *big.Int:
		return new(big.Int).Set(val)
	case float64:
		i, _ := big.NewFloat(val).Int(nil)
		return i
	default:
		return nil
	}
}

// Int64 returns the value as int64. ok is false if it is not an integer or
// does not fit.
func (v *Variant) Int64() (n int64, ok bool) {
	i := v.BigInt()
	if i == nil || !i.IsInt64() {
		return 0, false
	}
	return i.Int64(), true
}

// Float64 returns the value as float64, converting integers. Other kinds
// return 0.
func (v *Variant) Float64() float64 {
	if v == nil {
		return 0
	}
	switch val := v.value.(type) {
	case float64:
		return val
	case *big.Int:
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	default:
		return 0
	}
}

// Bytes returns opaque bytes or the bytes of a bit string.
func (v *Variant) Bytes() []byte {
	if v == nil {
		return nil
	}
	switch val := v.value.(type) {
	case []byte:
		return val
	case Bits:
		return val.Bytes
	default:
		return nil
	}
}

// BitString returns the value as Bits.
func (v *Variant) BitString() Bits {
	if v == nil {
		return Bits{}
	}
	b, _ := v.value.(Bits)
	return b
}

// OID returns the arcs of an object identifier.
func (v *Variant) OID() []uint64 {
	if v == nil {
		return nil
	}
	arcs, _ := v.value.([]uint64)
	return arcs
}

// Text returns a character string value.
func (v *Variant) Text() string {
	if v == nil {
		return ""
	}
	s, _ := v.value.(string)
	return s
}

// Time returns a time value, the zero time for other kinds.
func (v *Variant) Time() time.Time {
	if v == nil {
		return time.Time{}
	}
	t, _ := v.value.(time.Time)
	return t
}

// Display renders the value without its type, as shown to users.
func (v *Variant) Display() string {
	if v == nil {
		return ""
	}
	switch v.typ {
	case Null:
		return "NULL"
	case Bool:
		return strconv.FormatBool(v.Bool())
	case Integer:
		if i := v.BigInt(); i != nil {
			return i.String()
		}
		return ""
	case Real:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case Bytes:
		return "0x" + strings.ToUpper(hex.EncodeToString(v.Bytes()))
	case BitString:
		return v.BitString().String()
	case OID:
		return ber.FormatOID(v.OID())
	case Text:
		return v.Text()
	case Time:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return "<unknown>"
	}
}

// String returns the value as "type(value)", for example "integer(42)".
func (v *Variant) String() string {
	if v == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(v.typ.String())
	b.WriteByte('(')
	b.WriteString(v.Display())
	b.WriteByte(')')
	return b.String()
}
