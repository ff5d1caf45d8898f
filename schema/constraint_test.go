package schema

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failureTypes(failures []Failure) []FailureType {
	var out []FailureType
	for _, f := range failures {
		out = append(out, f.Type)
	}
	return out
}

func TestSizeOf(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		builtin Builtin
		want    int
		wantErr bool
	}{
		{name: "bit string two bytes", data: []byte{0x00, 0xff, 0x0f}, builtin: BitString, want: 16},
		{name: "bit string unused bits", data: []byte{0x04, 0xff, 0xf0}, builtin: BitString, want: 12},
		{name: "octet string", data: []byte{0x00, 0xff, 0x0f}, builtin: OctetString, want: 3},
		{name: "utf8 runes", data: []byte("héllo"), builtin: UTF8String, want: 5},
		{name: "bmp", data: []byte{0x00, 0x41, 0x00, 0x42}, builtin: BMPString, want: 2},
		{name: "universal", data: []byte{0, 0, 0, 0x41}, builtin: UniversalString, want: 1},
		{name: "odd bmp", data: []byte{0x00}, builtin: BMPString, wantErr: true},
		{name: "empty bit string", data: []byte{}, builtin: BitString, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SizeOf(tt.data, tt.builtin)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSizeConstraint(t *testing.T) {
	tenBytes := append([]byte{0x00}, make([]byte, 10)...)

	tests := []struct {
		name       string
		constraint SizeConstraint
		data       []byte
		builtin    Builtin
		want       []FailureType
	}{
		{name: "exact octets", constraint: ExactSize(3), data: []byte{1, 2, 3}, builtin: OctetString},
		{name: "exact octets too long", constraint: ExactSize(2), data: []byte{1, 2, 3}, builtin: OctetString, want: []FailureType{SchemaConstraint}},
		{name: "bit string measured in bits", constraint: ExactSize(80), data: tenBytes, builtin: BitString},
		{name: "bit string not byte count", constraint: ExactSize(10), data: tenBytes, builtin: BitString, want: []FailureType{SchemaConstraint}},
		{name: "bit string sixteen", constraint: ExactSize(16), data: []byte{0x00, 0xab, 0xcd}, builtin: BitString},
		{name: "range", constraint: SizeRange(1, 4), data: []byte("abcd"), builtin: IA5String},
		{name: "range below", constraint: SizeRange(1, 4), data: []byte{}, builtin: IA5String, want: []FailureType{SchemaConstraint}},
		{name: "unbounded", constraint: SizeRange(2, Unbounded), data: make([]byte, 1000), builtin: OctetString},
		{name: "malformed bit string", constraint: ExactSize(8), data: []byte{0x09, 0xff}, builtin: BitString, want: []FailureType{DataIncorrectlyFormatted}},
		{name: "missing", constraint: ExactSize(1), data: nil, builtin: OctetString, want: []FailureType{DataMissing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureTypes(tt.constraint.Apply(tt.data, tt.builtin)))
		})
	}
}

func TestValueConstraint(t *testing.T) {
	tests := []struct {
		name       string
		constraint ValueConstraint
		data       []byte
		want       []FailureType
	}{
		{name: "exact 42", constraint: ExactValue(big.NewInt(42)), data: []byte{0x2a}},
		{name: "exact -42", constraint: ExactValue(big.NewInt(42)), data: []byte{0xd6}, want: []FailureType{SchemaConstraint}},
		{name: "garbage", constraint: ExactValue(big.NewInt(42)), data: []byte{0x00, 0x2a}, want: []FailureType{DataIncorrectlyFormatted}},
		{name: "empty", constraint: ExactValue(big.NewInt(42)), data: []byte{}, want: []FailureType{DataIncorrectlyFormatted}},
		{name: "missing", constraint: ExactValue(big.NewInt(42)), data: nil, want: []FailureType{DataMissing}},
		{name: "in range", constraint: ValueRange(big.NewInt(-1), big.NewInt(255)), data: []byte{0x00, 0xff}},
		{name: "above range", constraint: ValueRange(big.NewInt(-1), big.NewInt(255)), data: []byte{0x01, 0x00}, want: []FailureType{SchemaConstraint}},
		{name: "open lower bound", constraint: ValueRange(nil, big.NewInt(0)), data: []byte{0x80}},
		{name: "open upper bound", constraint: ValueRange(big.NewInt(0), nil), data: []byte{0x80}, want: []FailureType{SchemaConstraint}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureTypes(tt.constraint.Apply(tt.data, Integer)))
		})
	}
}

func TestContainingConstraint(t *testing.T) {
	c := ContainingConstraint{Type: NewPrimitive(Integer)}

	assert.Empty(t, c.Apply([]byte{0x02, 0x01, 0x2a}, OctetString))
	assert.Equal(t, []FailureType{SchemaConstraint}, failureTypes(c.Apply([]byte{0x02, 0x05, 0x2a}, OctetString)))
	assert.Equal(t, []FailureType{SchemaConstraint}, failureTypes(c.Apply([]byte{}, OctetString)))
	assert.Equal(t, []FailureType{DataMissing}, failureTypes(c.Apply(nil, OctetString)))
}

func TestApplyAll(t *testing.T) {
	constraints := []Constraint{ExactSize(1), ExactValue(big.NewInt(42))}

	assert.Empty(t, ApplyAll(constraints, []byte{0x2a}, Integer))
	assert.Equal(t, []FailureType{SchemaConstraint, SchemaConstraint},
		failureTypes(ApplyAll(constraints, []byte{0x01, 0x00}, Integer)))
	assert.Equal(t, []FailureType{DataMissing}, failureTypes(ApplyAll(constraints, nil, Integer)))
}

func TestConstraintString(t *testing.T) {
	assert.Equal(t, "SIZE(4)", ExactSize(4).String())
	assert.Equal(t, "SIZE(1..MAX)", SizeRange(1, Unbounded).String())
	assert.Equal(t, "(42)", ExactValue(big.NewInt(42)).String())
	assert.Equal(t, "(MIN..7)", ValueRange(nil, big.NewInt(7)).String())
}
