// Package primitive decodes and checks the content octets of ASN.1 primitive
// values. Codecs are looked up by schema builtin.
package primitive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/variant"
)

var (
	ErrNoCodec          = errors.New("no codec for type")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrInvalidTime      = errors.New("invalid time")
)

// Codec decodes the content octets of one builtin type.
type Codec struct {
	Decode   func(content []byte) (*variant.Variant, error)
	Validate func(content []byte) []schema.Failure
}

var codecs = map[schema.Builtin]Codec{
	schema.Boolean:          newCodec(decodeBoolean),
	schema.Integer:          newCodec(decodeInteger),
	schema.Enumerated:       newCodec(decodeInteger),
	schema.Real:             newCodec(decodeReal),
	schema.BitString:        newCodec(decodeBitString),
	schema.OctetString:      newCodec(decodeBytes),
	schema.Null:             newCodec(decodeNull),
	schema.ObjectIdentifier: newCodec(decodeOID),
	schema.RelativeOID:      newCodec(decodeRelativeOID),
	schema.UTF8String:       newCodec(decodeUTF8),
	schema.NumericString:    newCodec(charsetDecoder("NumericString", isNumeric)),
	schema.PrintableString:  newCodec(charsetDecoder("PrintableString", isPrintable)),
	schema.IA5String:        newCodec(charsetDecoder("IA5String", isIA5)),
	schema.VisibleString:    newCodec(charsetDecoder("VisibleString", isVisible)),
	schema.TeletexString:    newCodec(decodeLatin1),
	schema.VideotexString:   newCodec(decodeLatin1),
	schema.GraphicString:    newCodec(decodeLatin1),
	schema.GeneralString:    newCodec(decodeLatin1),
	schema.ObjectDescriptor: newCodec(decodeLatin1),
	schema.CharacterString:  newCodec(decodeBytes),
	schema.BMPString:        newCodec(decodeBMP),
	schema.UniversalString:  newCodec(decodeUniversal),
	schema.UTCTime:          newCodec(decodeUTCTime),
	schema.GeneralizedTime:  newCodec(decodeGeneralizedTime),
}

// newCodec derives the validator from the decoder: content that does not
// decode is incorrectly formatted.
func newCodec(decode func([]byte) (*variant.Variant, error)) Codec {
	return Codec{
		Decode: decode,
		Validate: func(content []byte) []schema.Failure {
			if content == nil {
				return []schema.Failure{{Type: schema.DataMissing, Reason: "no data found"}}
			}
			if _, err := decode(content); err != nil {
				return []schema.Failure{{Type: schema.DataIncorrectlyFormatted, Reason: err.Error()}}
			}
			return nil
		},
	}
}

// Lookup returns the codec registered for b.
func Lookup(b schema.Builtin) (Codec, bool) {
	c, ok := codecs[b]
	return c, ok
}

// Decode decodes content as b.
func Decode(b schema.Builtin, content []byte) (*variant.Variant, error) {
	c, ok := codecs[b]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, b)
	}
	return c.Decode(content)
}

// Validate checks that content is well formed for b. Builtins without a
// codec are not checked.
func Validate(b schema.Builtin, content []byte) []schema.Failure {
	c, ok := codecs[b]
	if !ok {
		return nil
	}
	return c.Validate(content)
}

// Printable decodes content as the underlying type of t and renders it for
// display. Values with a named-number list show the name: "red (1)".
func Printable(t *schema.Type, content []byte) (string, error) {
	u := t.Underlying()
	if u == nil {
		return "", fmt.Errorf("%w: unresolved type", ErrNoCodec)
	}
	v, err := Decode(u.Builtin(), content)
	if err != nil {
		return "", err
	}
	switch v.Type() {
	case variant.Integer:
		if name, ok := t.NameOf(v.BigInt()); ok {
			return name + " (" + v.Display() + ")", nil
		}
	case variant.BitString:
		if names := setBitNames(t, v.BitString()); len(names) > 0 {
			return v.Display() + " (" + strings.Join(names, ", ") + ")", nil
		}
	}
	return v.Display(), nil
}

func setBitNames(t *schema.Type, bits variant.Bits) []string {
	var names []string
	for _, nv := range t.EffectiveNamedValues() {
		if nv.Value.IsInt64() && bits.At(int(nv.Value.Int64())) {
			names = append(names, nv.Name)
		}
	}
	return names
}

func decodeBoolean(content []byte) (*variant.Variant, error) {
	b, err := ber.DecodeBoolean(content)
	if err != nil {
		return nil, err
	}
	return variant.NewBool(b), nil
}

func decodeInteger(content []byte) (*variant.Variant, error) {
	i, err := ber.DecodeInteger(content)
	if err != nil {
		return nil, err
	}
	return variant.NewInteger(i), nil
}

func decodeReal(content []byte) (*variant.Variant, error) {
	f, err := ber.DecodeReal(content)
	if err != nil {
		return nil, err
	}
	return variant.NewReal(f), nil
}

func decodeBitString(content []byte) (*variant.Variant, error) {
	bits, n, err := ber.DecodeBitString(content)
	if err != nil {
		return nil, err
	}
	return variant.NewBitString(variant.Bits{Bytes: bits, Length: n}), nil
}

func decodeBytes(content []byte) (*variant.Variant, error) {
	return variant.NewBytes(content), nil
}

func decodeNull(content []byte) (*variant.Variant, error) {
	if len(content) != 0 {
		return nil, fmt.Errorf("%w: NULL with %d content octets", ber.ErrInvalidContent, len(content))
	}
	return variant.NewNull(), nil
}

func decodeOID(content []byte) (*variant.Variant, error) {
	arcs, err := ber.DecodeOID(content)
	if err != nil {
		return nil, err
	}
	return variant.NewOID(arcs), nil
}

func decodeRelativeOID(content []byte) (*variant.Variant, error) {
	arcs, err := ber.DecodeRelativeOID(content)
	if err != nil {
		return nil, err
	}
	return variant.NewOID(arcs), nil
}
