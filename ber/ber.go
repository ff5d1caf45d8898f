package ber

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Errors
var (
	ErrBufferOverflow    = errors.New("buffer overflow")
	ErrInvalidLength     = errors.New("invalid length")
	ErrInvalidIndefinite = errors.New("invalid indefinite length")
	ErrMaxDepthExceeded  = errors.New("maximum depth exceeded")
	ErrInvalidTag        = errors.New("invalid tag")
	ErrEmptyContent      = errors.New("empty content")
	ErrInvalidContent    = errors.New("invalid content")
)

// Decoder functions

const maxDepth = 50

// lengthIndefinite is the single length octet that opens an indefinite-length value.
const lengthIndefinite = 0x80

// DecodeLength decodes a BER length field from the buffer
// Returns the new buffer position and the decoded length, or an error.
// For the indefinite form the returned length covers the contents and the
// terminating end-of-contents octets.
func DecodeLength(buffer []byte, bufPos, maxBufPos int) (newPos int, length int, err error) {
	return decodeLengthRecursive(buffer, bufPos, maxBufPos, 0, maxDepth)
}

func decodeLengthRecursive(buffer []byte, bufPos, maxBufPos, depth, maxDepth int) (newPos int, length int, err error) {
	if bufPos >= maxBufPos {
		return -1, 0, ErrBufferOverflow
	}

	len1 := buffer[bufPos]
	bufPos++

	if len1&0x80 != 0 {
		lenLength := int(len1 & 0x7f)

		if lenLength == 0 {
			// indefinite length form
			indefLength, err := getIndefiniteLength(buffer, bufPos, maxBufPos, depth, maxDepth)
			if err != nil {
				return -1, 0, err
			}
			length = indefLength
		} else {
			if lenLength > 4 {
				return -1, 0, ErrInvalidLength
			}
			length = 0
			for i := 0; i < lenLength; i++ {
				if bufPos >= maxBufPos {
					return -1, 0, ErrBufferOverflow
				}
				length = (length << 8) | int(buffer[bufPos])
				bufPos++
			}
		}
	} else {
		length = int(len1)
	}

	if length < 0 {
		return -1, 0, ErrInvalidLength
	}

	if bufPos+length > maxBufPos {
		return -1, 0, ErrBufferOverflow
	}

	return bufPos, length, nil
}

func getIndefiniteLength(buffer []byte, bufPos, maxBufPos, depth, maxDepth int) (int, error) {
	depth++
	if depth > maxDepth {
		return -1, ErrMaxDepthExceeded
	}

	start := bufPos
	for bufPos < maxBufPos {
		if bufPos+1 < maxBufPos && buffer[bufPos] == 0 && buffer[bufPos+1] == 0 {
			return bufPos - start + 2, nil
		}

		newPos, _, _, err := DecodeIdentifier(buffer, bufPos, maxBufPos)
		if err != nil {
			return -1, err
		}

		newBufPos, subLength, err := decodeLengthRecursive(buffer, newPos, maxBufPos, depth, maxDepth)
		if err != nil {
			return -1, err
		}

		bufPos = newBufPos + subLength
	}

	return -1, ErrInvalidIndefinite
}

// DecodeBoolean decodes a BER boolean. Exactly one content octet is required.
func DecodeBoolean(content []byte) (bool, error) {
	if len(content) != 1 {
		return false, fmt.Errorf("%w: boolean needs 1 octet, got %d", ErrInvalidContent, len(content))
	}
	return content[0] != 0, nil
}

// DecodeInteger decodes minimal big-endian two's complement contents of any length.
func DecodeInteger(content []byte) (*big.Int, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if len(content) > 1 {
		// X.690 8.3.2: the first nine bits must not be all zeros or all ones
		if (content[0] == 0x00 && content[1]&0x80 == 0) || (content[0] == 0xff && content[1]&0x80 != 0) {
			return nil, fmt.Errorf("%w: integer is not minimally encoded", ErrInvalidContent)
		}
	}

	value := new(big.Int).SetBytes(content)
	if content[0]&0x80 == 0x80 {
		// negative: subtract 2^(8*len)
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(8*len(content)))
		value.Sub(value, modulus)
	}
	return value, nil
}

// DecodeInt64 decodes an integer that must fit into 64 bits.
func DecodeInt64(content []byte) (int64, error) {
	value, err := DecodeInteger(content)
	if err != nil {
		return 0, err
	}
	if !value.IsInt64() {
		return 0, fmt.Errorf("%w: integer does not fit in 64 bits", ErrInvalidContent)
	}
	return value.Int64(), nil
}

// DecodeBitString splits BIT STRING contents into the bit bytes and the bit length.
// The first content octet holds the number of unused bits in the last octet.
func DecodeBitString(content []byte) (bits []byte, bitLength int, err error) {
	if len(content) == 0 {
		return nil, 0, ErrEmptyContent
	}
	padding := int(content[0])
	if padding > 7 {
		return nil, 0, fmt.Errorf("%w: %d unused bits", ErrInvalidContent, padding)
	}
	if len(content) == 1 && padding != 0 {
		return nil, 0, fmt.Errorf("%w: unused bits in empty bit string", ErrInvalidContent)
	}
	bits = content[1:]
	return bits, len(bits)*8 - padding, nil
}

// DecodeOID decodes a BER Object Identifier. The first octet group carries
// the first two arcs.
func DecodeOID(content []byte) ([]uint64, error) {
	arcs, err := decodeArcs(content)
	if err != nil {
		return nil, err
	}

	first := arcs[0]
	var oid []uint64
	switch {
	case first < 40:
		oid = []uint64{0, first}
	case first < 80:
		oid = []uint64{1, first - 40}
	default:
		oid = []uint64{2, first - 80}
	}
	return append(oid, arcs[1:]...), nil
}

// DecodeRelativeOID decodes a RELATIVE-OID: every octet group is one arc.
func DecodeRelativeOID(content []byte) ([]uint64, error) {
	return decodeArcs(content)
}

func decodeArcs(content []byte) ([]uint64, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if content[len(content)-1]&0x80 != 0 {
		return nil, fmt.Errorf("%w: truncated arc", ErrInvalidContent)
	}

	var arcs []uint64
	var arc uint64
	start := true
	for _, b := range content {
		if start && b == 0x80 {
			return nil, fmt.Errorf("%w: arc with leading padding", ErrInvalidContent)
		}
		if arc > math.MaxUint64>>7 {
			return nil, fmt.Errorf("%w: arc overflow", ErrInvalidContent)
		}
		arc = arc<<7 | uint64(b&0x7f)
		start = false
		if b&0x80 == 0 {
			arcs = append(arcs, arc)
			arc = 0
			start = true
		}
	}
	return arcs, nil
}

// FormatOID renders arcs in dotted notation.
func FormatOID(arcs []uint64) string {
	parts := make([]string, len(arcs))
	for i, a := range arcs {
		parts[i] = strconv.FormatUint(a, 10)
	}
	return strings.Join(parts, ".")
}

// DecodeReal decodes a REAL value (X.690 8.5): binary, decimal and special forms.
func DecodeReal(content []byte) (float64, error) {
	if len(content) == 0 {
		return 0, nil
	}

	first := content[0]
	switch {
	case first&0x80 != 0:
		return decodeBinaryReal(content)
	case first&0xC0 == 0x40:
		switch first {
		case 0x40:
			return math.Inf(1), nil
		case 0x41:
			return math.Inf(-1), nil
		case 0x42:
			return math.NaN(), nil
		case 0x43:
			return math.Copysign(0, -1), nil
		}
		return 0, fmt.Errorf("%w: unknown special real 0x%02x", ErrInvalidContent, first)
	default:
		// decimal encoding (ISO 6093 NR1/NR2/NR3)
		text := strings.TrimSpace(strings.ReplaceAll(string(content[1:]), ",", "."))
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: decimal real %q", ErrInvalidContent, text)
		}
		return value, nil
	}
}

func decodeBinaryReal(content []byte) (float64, error) {
	first := content[0]
	sign := 1.0
	if first&0x40 != 0 {
		sign = -1
	}

	var base float64
	switch (first >> 4) & 0x03 {
	case 0:
		base = 2
	case 1:
		base = 8
	case 2:
		base = 16
	default:
		return 0, fmt.Errorf("%w: reserved real base", ErrInvalidContent)
	}
	scale := int((first >> 2) & 0x03)

	pos := 1
	var expLen int
	switch first & 0x03 {
	case 0, 1, 2:
		expLen = int(first&0x03) + 1
	default:
		if len(content) < 2 {
			return 0, ErrBufferOverflow
		}
		expLen = int(content[1])
		pos = 2
	}
	if pos+expLen > len(content) {
		return 0, ErrBufferOverflow
	}

	exponent, err := DecodeInteger(content[pos : pos+expLen])
	if err != nil {
		return 0, err
	}
	if !exponent.IsInt64() {
		return 0, fmt.Errorf("%w: real exponent overflow", ErrInvalidContent)
	}
	mantissa := new(big.Float).SetInt(new(big.Int).SetBytes(content[pos+expLen:]))
	m, _ := mantissa.Float64()

	return sign * m * math.Pow(2, float64(scale)) * math.Pow(base, float64(exponent.Int64())), nil
}
