package schema

import (
	"strconv"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/tag"
)

// Builtin is the closed set of ASN.1 builtin types a schema type can be
// built from.
type Builtin int

const (
	Invalid Builtin = iota
	Boolean
	Integer
	BitString
	OctetString
	Null
	ObjectIdentifier
	ObjectDescriptor
	Real
	Enumerated
	UTF8String
	RelativeOID
	NumericString
	PrintableString
	TeletexString
	VideotexString
	IA5String
	UTCTime
	GeneralizedTime
	GraphicString
	VisibleString
	GeneralString
	UniversalString
	CharacterString
	BMPString
	Sequence
	Set
	Choice
	SequenceOf
	SetOf
	Reference
)

var builtinNames = map[Builtin]string{
	Invalid:          "INVALID",
	Boolean:          "BOOLEAN",
	Integer:          "INTEGER",
	BitString:        "BIT STRING",
	OctetString:      "OCTET STRING",
	Null:             "NULL",
	ObjectIdentifier: "OBJECT IDENTIFIER",
	ObjectDescriptor: "ObjectDescriptor",
	Real:             "REAL",
	Enumerated:       "ENUMERATED",
	UTF8String:       "UTF8String",
	RelativeOID:      "RELATIVE-OID",
	NumericString:    "NumericString",
	PrintableString:  "PrintableString",
	TeletexString:    "TeletexString",
	VideotexString:   "VideotexString",
	IA5String:        "IA5String",
	UTCTime:          "UTCTime",
	GeneralizedTime:  "GeneralizedTime",
	GraphicString:    "GraphicString",
	VisibleString:    "VisibleString",
	GeneralString:    "GeneralString",
	UniversalString:  "UniversalString",
	CharacterString:  "CHARACTER STRING",
	BMPString:        "BMPString",
	Sequence:         "SEQUENCE",
	Set:              "SET",
	Choice:           "CHOICE",
	SequenceOf:       "SEQUENCE OF",
	SetOf:            "SET OF",
	Reference:        "REFERENCE",
}

func (b Builtin) String() string {
	if name, ok := builtinNames[b]; ok {
		return name
	}
	return "Builtin(" + strconv.Itoa(int(b)) + ")"
}

// universalTags is the X.690 universal tag assignment. CHOICE and references
// have no universal tag of their own.
var universalTags = map[Builtin]ber.Tag{
	Boolean:          ber.Boolean,
	Integer:          ber.Integer,
	BitString:        ber.BitString,
	OctetString:      ber.OctetString,
	Null:             ber.Null,
	ObjectIdentifier: ber.ObjectIdentifier,
	ObjectDescriptor: ber.ObjectDescriptor,
	Real:             ber.Real,
	Enumerated:       ber.Enumerated,
	UTF8String:       ber.UTF8String,
	RelativeOID:      ber.RelativeOID,
	NumericString:    ber.NumericString,
	PrintableString:  ber.PrintableString,
	TeletexString:    ber.T61String,
	VideotexString:   ber.VideotexString,
	IA5String:        ber.IA5String,
	UTCTime:          ber.UTCTime,
	GeneralizedTime:  ber.GeneralizedTime,
	GraphicString:    ber.GraphicString,
	VisibleString:    ber.VisibleString,
	GeneralString:    ber.GeneralString,
	UniversalString:  ber.UniversalString,
	CharacterString:  ber.CharacterString,
	BMPString:        ber.BMPString,
	Sequence:         ber.Sequence,
	Set:              ber.Set,
	SequenceOf:       ber.Sequence,
	SetOf:            ber.Set,
}

// UniversalTag returns the universal tag of b.
func (b Builtin) UniversalTag() (tag.Tag, bool) {
	t, ok := universalTags[b]
	if !ok {
		return tag.Tag{}, false
	}
	return t.Model(), true
}

// Primitives lists every builtin that is decoded from content octets rather
// than from nested TLVs.
func Primitives() []Builtin {
	var out []Builtin
	for b := Boolean; b <= BMPString; b++ {
		out = append(out, b)
	}
	return out
}

// IsPrimitive reports whether b is decoded from content octets.
func (b Builtin) IsPrimitive() bool {
	return b >= Boolean && b <= BMPString
}
