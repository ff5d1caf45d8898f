package export

import (
	"bytes"
	"testing"

	_cbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/schema"
)

// Rec ::= SEQUENCE { id INTEGER, name UTF8String, flags BIT STRING }
// with a trailing OCTET STRING the schema does not know about.
var recPDU = []byte{
	0x30, 0x0e,
	0x02, 0x01, 0x07,
	0x0c, 0x02, 0x68, 0x69,
	0x03, 0x02, 0x05, 0xa0,
	0x04, 0x01, 0xff,
}

func decodeRec(t *testing.T, input []byte) []*decoder.Data {
	t.Helper()
	m := schema.NewModule("Ex", schema.TagsImplicit)
	require.NoError(t, m.Define("Rec", schema.NewSequence(
		schema.NewComponent("id", schema.NewPrimitive(schema.Integer)),
		schema.NewComponent("name", schema.NewPrimitive(schema.UTF8String)),
		schema.NewComponent("flags", schema.NewPrimitive(schema.BitString)),
	)))
	s, err := schema.Link("", m)
	require.NoError(t, err)

	data, err := decoder.New(s, decoder.WithLogger(logger.Nop())).DecodeBytes(input, "Rec")
	require.NoError(t, err)
	return data
}

func TestFromData(t *testing.T) {
	data := decodeRec(t, recPDU)
	require.Len(t, data, 1)

	doc := FromData(data[0])
	assert.Equal(t, "Rec", doc.TopLevel)
	require.Len(t, doc.Tags, 3)
	assert.Equal(t, "/Rec/id", doc.Tags[0].Tag)
	assert.Equal(t, "/0[UNIVERSAL 16]/0[UNIVERSAL 2]", doc.Tags[0].RawTag)
	assert.Equal(t, "INTEGER", doc.Tags[0].Type)
	assert.Equal(t, BitString{Bytes: []byte{0xa0}, Length: 3}, doc.Tags[2].Value)

	require.Len(t, doc.Unmapped, 1)
	assert.Equal(t, "/Rec/3[UNIVERSAL 4]", doc.Unmapped[0].Tag)
	assert.Equal(t, "/Rec", doc.Unmapped[0].Prefix)
	assert.Equal(t, []byte{0xff}, doc.Unmapped[0].Bytes)
	assert.Nil(t, doc.Unmapped[0].Value)
}

func TestEncodeIsDeterministic(t *testing.T) {
	data := decodeRec(t, recPDU)
	require.Len(t, data, 1)

	first, err := Encode(data[0])
	require.NoError(t, err)
	second, err := Encode(data[0])
	require.NoError(t, err)
	assert.Equal(t, first, second)

	doc, err := Decode(first)
	require.NoError(t, err)
	assert.Equal(t, "Rec", doc.TopLevel)
	require.Len(t, doc.Tags, 3)
	assert.Equal(t, uint64(7), doc.Tags[0].Value)
	assert.Equal(t, "hi", doc.Tags[1].Value)
	assert.Equal(t, []byte("hi"), doc.Tags[1].Bytes)
	require.Len(t, doc.Unmapped, 1)
	assert.Equal(t, "/0[UNIVERSAL 16]/3[UNIVERSAL 4]", doc.Unmapped[0].RawTag)
}

func TestEncodeAllWritesSequence(t *testing.T) {
	data := decodeRec(t, append(append([]byte{}, recPDU...), recPDU...))
	require.Len(t, data, 2)

	var buf bytes.Buffer
	require.NoError(t, EncodeAll(&buf, data))

	dec := _cbor.NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		var doc Document
		require.NoError(t, dec.Decode(&doc), "item %d", i)
		assert.Equal(t, "Rec", doc.TopLevel)
		assert.Len(t, doc.Tags, 3)
	}
	assert.Equal(t, 0, buf.Len())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00})
	assert.Error(t, err)
}
