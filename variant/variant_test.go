package variant

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVariantString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    *Variant
		want string
	}{
		{name: "null", v: NewNull(), want: "null(NULL)"},
		{name: "bool", v: NewBool(true), want: "bool(true)"},
		{name: "integer", v: NewInteger(big.NewInt(-42)), want: "integer(-42)"},
		{name: "real", v: NewReal(4.2), want: "real(4.2)"},
		{name: "bytes", v: NewBytes([]byte{0xde, 0xad}), want: "bytes(0xDEAD)"},
		{name: "bits", v: NewBitString(Bits{Bytes: []byte{0xa0}, Length: 3}), want: "bit-string('101'B)"},
		{name: "oid", v: NewOID([]uint64{1, 2, 840, 113549}), want: "oid(1.2.840.113549)"},
		{name: "text", v: NewText("hello"), want: "text(hello)"},
		{name: "time", v: NewTime(ts), want: "time(2024-03-01T12:30:00Z)"},
		{name: "nil", v: nil, want: "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestVariantConversions(t *testing.T) {
	i := NewInteger(big.NewInt(7))
	assert.Equal(t, 7.0, i.Float64())
	n, ok := i.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	_, ok = NewInteger(huge).Int64()
	assert.False(t, ok)

	r := NewReal(3.9)
	assert.Equal(t, int64(3), r.BigInt().Int64())

	text := NewText("x")
	assert.Nil(t, text.BigInt())
	assert.False(t, text.Bool())
	assert.True(t, text.Time().IsZero())
	assert.Equal(t, "x", text.Value())

	bits := NewBitString(Bits{Bytes: []byte{0x80}, Length: 1})
	assert.Equal(t, []byte{0x80}, bits.Bytes())
	assert.True(t, bits.BitString().At(0))
	assert.False(t, bits.BitString().At(1))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "bit-string", BitString.String())
	assert.Equal(t, "unknown(99)", Type(99).String())
}
