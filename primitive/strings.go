package primitive

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/brightsparklabs/asanti-sub002/variant"
)

func isNumeric(b byte) bool {
	return '0' <= b && b <= '9' || b == ' '
}

func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?'
}

func isIA5(b byte) bool {
	return b < utf8.RuneSelf
}

func isVisible(b byte) bool {
	return 0x20 <= b && b <= 0x7e
}

// charsetDecoder accepts single-byte strings whose every octet is allowed.
func charsetDecoder(name string, allowed func(byte) bool) func([]byte) (*variant.Variant, error) {
	return func(content []byte) (*variant.Variant, error) {
		for i, b := range content {
			if !allowed(b) {
				return nil, fmt.Errorf("%w: 0x%02x at offset %d in %s", ErrInvalidCharacter, b, i, name)
			}
		}
		return variant.NewText(string(content)), nil
	}
}

func decodeUTF8(content []byte) (*variant.Variant, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrInvalidCharacter)
	}
	return variant.NewText(string(content)), nil
}

// decodeLatin1 reads the 8-bit string types whose repertoire is negotiated
// out of band; each octet is taken as the code point of the same value.
func decodeLatin1(content []byte) (*variant.Variant, error) {
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return variant.NewText(string(runes)), nil
}

func decodeBMP(content []byte) (*variant.Variant, error) {
	if len(content)%2 != 0 {
		return nil, fmt.Errorf("%w: odd BMPString length %d", ErrInvalidCharacter, len(content))
	}
	units := make([]uint16, len(content)/2)
	for i := range units {
		units[i] = uint16(content[2*i])<<8 | uint16(content[2*i+1])
	}
	return variant.NewText(string(utf16.Decode(units))), nil
}

func decodeUniversal(content []byte) (*variant.Variant, error) {
	if len(content)%4 != 0 {
		return nil, fmt.Errorf("%w: UniversalString length %d is not a multiple of 4", ErrInvalidCharacter, len(content))
	}
	runes := make([]rune, len(content)/4)
	for i := range runes {
		r := rune(content[4*i])<<24 | rune(content[4*i+1])<<16 | rune(content[4*i+2])<<8 | rune(content[4*i+3])
		if !utf8.ValidRune(r) {
			return nil, fmt.Errorf("%w: code point 0x%x", ErrInvalidCharacter, r)
		}
		runes[i] = r
	}
	return variant.NewText(string(runes)), nil
}
