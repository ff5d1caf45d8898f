package ber

import (
	"github.com/brightsparklabs/asanti-sub002/tag"
)

// TagClass represents the class of a BER tag
// The two high-order bits of the identifier octets are used to encode the class.
type TagClass byte

// Tag classes as defined in X.690
const (
	ClassUniversal       TagClass = 0x00 // 0b00000000 - Universal class (ASN.1 built-in types)
	ClassApplication     TagClass = 0x40 // 0b01000000 - Application class (defined by the application)
	ClassContextSpecific TagClass = 0x80 // 0b10000000 - Context-specific class
	ClassPrivate         TagClass = 0xC0 // 0b11000000 - Private class (defined in private specifications)
)

// TagClassOf extracts the class bits from the first identifier octet.
func TagClassOf(identifier byte) TagClass {
	return TagClass(identifier & 0xC0)
}

// Model maps the BER class onto the tag model class.
func (c TagClass) Model() tag.Class {
	switch c {
	case ClassUniversal:
		return tag.Universal
	case ClassApplication:
		return tag.Application
	case ClassPrivate:
		return tag.Private
	default:
		return tag.ContextSpecific
	}
}

// TagForm represents the form of a BER tag
// The next bit (bit 5) indicates if the type is primitive or constructed.
type TagForm byte

// Tag forms as defined in X.690
const (
	FormPrimitive   TagForm = 0x00 // 0b00000000 - Primitive encoding
	FormConstructed TagForm = 0x20 // 0b00100000 - Constructed encoding (contains other types)
)

// Tag represents a universal tag number
type Tag byte

// Universal tags as defined in X.690
const (
	Boolean          Tag = 0x01 // BOOLEAN
	Integer          Tag = 0x02 // INTEGER
	BitString        Tag = 0x03 // BIT STRING
	OctetString      Tag = 0x04 // OCTET STRING
	Null             Tag = 0x05 // NULL
	ObjectIdentifier Tag = 0x06 // OBJECT IDENTIFIER
	ObjectDescriptor Tag = 0x07 // ObjectDescriptor
	External         Tag = 0x08 // EXTERNAL
	Real             Tag = 0x09 // REAL
	Enumerated       Tag = 0x0A // ENUMERATED
	EmbeddedPDV      Tag = 0x0B // EMBEDDED PDV
	UTF8String       Tag = 0x0C // UTF8String
	RelativeOID      Tag = 0x0D // RELATIVE-OID
	// 0x0E-0x0F are reserved for future use
	Sequence        Tag = 0x10 // SEQUENCE, SEQUENCE OF
	Set             Tag = 0x11 // SET, SET OF
	NumericString   Tag = 0x12 // NumericString
	PrintableString Tag = 0x13 // PrintableString
	T61String       Tag = 0x14 // T61String (TeletexString)
	VideotexString  Tag = 0x15 // VideotexString
	IA5String       Tag = 0x16 // IA5String
	UTCTime         Tag = 0x17 // UTCTime
	GeneralizedTime Tag = 0x18 // GeneralizedTime
	GraphicString   Tag = 0x19 // GraphicString
	VisibleString   Tag = 0x1A // VisibleString (ISO646String)
	GeneralString   Tag = 0x1B // GeneralString
	UniversalString Tag = 0x1C // UniversalString
	CharacterString Tag = 0x1D // CHARACTER STRING
	BMPString       Tag = 0x1E // BMPString
	// 0x1F is reserved
)

// Model returns the universal tag in the tag model.
func (t Tag) Model() tag.Tag {
	return tag.UniversalTag(int(t))
}

// highTagNumber marks an identifier whose tag number continues in subsequent octets.
const highTagNumber = 0x1F

// DecodeIdentifier decodes the identifier octets starting at bufPos.
// Tag numbers of 31 and above use the base-128 continuation form.
func DecodeIdentifier(buffer []byte, bufPos, maxBufPos int) (newPos int, t tag.Tag, constructed bool, err error) {
	if bufPos >= maxBufPos {
		return -1, tag.Tag{}, false, ErrBufferOverflow
	}

	first := buffer[bufPos]
	bufPos++
	class := TagClassOf(first).Model()
	constructed = TagForm(first&0x20) == FormConstructed

	number := int(first & highTagNumber)
	if number == highTagNumber {
		number = 0
		for {
			if bufPos >= maxBufPos {
				return -1, tag.Tag{}, false, ErrBufferOverflow
			}
			b := buffer[bufPos]
			bufPos++
			if number > (1<<24)-1 {
				return -1, tag.Tag{}, false, ErrInvalidTag
			}
			number = (number << 7) | int(b&0x7f)
			if b&0x80 == 0 {
				break
			}
		}
	}

	return bufPos, tag.Tag{Class: class, Number: number}, constructed, nil
}
