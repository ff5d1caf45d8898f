package decoder

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/tag"
)

// parseHexStringForTest parses a hex string into bytes, ignoring whitespace.
func parseHexStringForTest(hexStr string) []byte {
	hexStr = strings.Join(strings.Fields(hexStr), "")
	data := make([]byte, 0, len(hexStr)/2)
	for i := 0; i+1 < len(hexStr); i += 2 {
		var b byte
		if _, err := fmt.Sscanf(hexStr[i:i+2], "%02x", &b); err != nil {
			continue
		}
		data = append(data, b)
	}
	return data
}

// documentSchema builds
//
//	Test DEFINITIONS AUTOMATIC TAGS ::= BEGIN
//	Document ::= SEQUENCE {
//	    id      INTEGER,
//	    title   UTF8String OPTIONAL,
//	    people  SEQUENCE OF Person,
//	    content Content,
//	    flag    Flag }
//	Person  ::= SEQUENCE { name PrintableString, age INTEGER OPTIONAL }
//	Content ::= CHOICE { text UTF8String, number INTEGER }
//	Flag    ::= Truth
//	Truth   ::= BOOLEAN
//	Message ::= CHOICE { doc Document, ping NULL }
//	END
func documentSchema(t *testing.T) *schema.Schema {
	t.Helper()
	m := schema.NewModule("Test", schema.TagsAutomatic)
	define := func(name string, typ *schema.Type) {
		require.NoError(t, m.Define(name, typ))
	}
	define("Document", schema.NewSequence(
		schema.NewComponent("id", schema.NewPrimitive(schema.Integer)),
		schema.NewComponent("title", schema.NewPrimitive(schema.UTF8String), schema.Optional()),
		schema.NewComponent("people", schema.NewSequenceOf(schema.Ref("", "Person"))),
		schema.NewComponent("content", schema.Ref("", "Content")),
		schema.NewComponent("flag", schema.Ref("", "Flag")),
	))
	define("Person", schema.NewSequence(
		schema.NewComponent("name", schema.NewPrimitive(schema.PrintableString)),
		schema.NewComponent("age", schema.NewPrimitive(schema.Integer), schema.Optional()),
	))
	define("Content", schema.NewChoice(
		schema.NewComponent("text", schema.NewPrimitive(schema.UTF8String)),
		schema.NewComponent("number", schema.NewPrimitive(schema.Integer)),
	))
	define("Flag", schema.Ref("", "Truth"))
	define("Truth", schema.NewPrimitive(schema.Boolean))
	define("Message", schema.NewChoice(
		schema.NewComponent("doc", schema.Ref("", "Document")),
		schema.NewComponent("ping", schema.NewPrimitive(schema.Null)),
	))
	s, err := schema.Link("", m)
	require.NoError(t, err)
	return s
}

// recordSchema builds
//
//	Ex DEFINITIONS EXPLICIT TAGS ::= BEGIN
//	Record ::= SEQUENCE {
//	    version [0] INTEGER (1..5),
//	    body    CHOICE { text UTF8String, num INTEGER },
//	    extra   [1] IMPLICIT OCTET STRING OPTIONAL,
//	    colour  ENUMERATED { red(0), green(1) } OPTIONAL }
//	END
func recordSchema(t *testing.T) *schema.Schema {
	t.Helper()
	m := schema.NewModule("Ex", schema.TagsExplicit)
	require.NoError(t, m.Define("Record", schema.NewSequence(
		schema.NewComponent("version",
			schema.NewPrimitive(schema.Integer, schema.ValueRange(big.NewInt(1), big.NewInt(5))),
			schema.WithTag(tag.Context(0))),
		schema.NewComponent("body", schema.NewChoice(
			schema.NewComponent("text", schema.NewPrimitive(schema.UTF8String)),
			schema.NewComponent("num", schema.NewPrimitive(schema.Integer)),
		)),
		schema.NewComponent("extra", schema.NewPrimitive(schema.OctetString),
			schema.WithTag(tag.Context(1)), schema.WithTagMode(schema.TagImplicit), schema.Optional()),
		schema.NewComponent("colour", schema.NewNamedValues(schema.Enumerated,
			schema.NamedValue{Name: "red", Value: big.NewInt(0)},
			schema.NamedValue{Name: "green", Value: big.NewInt(1)},
		), schema.Optional()),
	)))
	s, err := schema.Link("", m)
	require.NoError(t, err)
	return s
}

func names(tags []DecodedTag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, dt := range tags {
		out[dt.RawTag] = dt.Tag
	}
	return out
}

func TestResolveDocument(t *testing.T) {
	s := documentSchema(t)
	rawTags := []string{
		"/0[UNIVERSAL 16]/3[4]",
		"/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/1[2]/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/1[2]/0[UNIVERSAL 16]/1[1]",
		"/0[UNIVERSAL 16]/1[2]/1[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/2[3]/0[0]",
	}

	res, err := Resolve(s, rawTags, "Document")
	require.NoError(t, err)
	assert.Empty(t, res.Unmapped)
	assert.Equal(t, map[string]string{
		"/0[UNIVERSAL 16]/0[0]":                      "/Document/id",
		"/0[UNIVERSAL 16]/1[2]/0[UNIVERSAL 16]/0[0]": "/Document/people[0]/name",
		"/0[UNIVERSAL 16]/1[2]/0[UNIVERSAL 16]/1[1]": "/Document/people[0]/age",
		"/0[UNIVERSAL 16]/1[2]/1[UNIVERSAL 16]/0[0]": "/Document/people[1]/name",
		"/0[UNIVERSAL 16]/2[3]/0[0]":                 "/Document/content/text",
		"/0[UNIVERSAL 16]/3[4]":                      "/Document/flag",
	}, names(res.Decoded))

	for _, dt := range res.Decoded {
		assert.True(t, dt.Resolved)
		assert.Equal(t, dt.Tag, "/"+strings.Join(dt.Segments, "/"), "round trip of %s", dt.Tag)
		assert.NotNil(t, dt.Type)
	}
	// decoded tags come out in encoding order
	assert.Equal(t, "/Document/id", res.Decoded[0].Tag)
	assert.Equal(t, "/Document/flag", res.Decoded[len(res.Decoded)-1].Tag)
}

func TestResolveOptionalShiftsPositions(t *testing.T) {
	s := documentSchema(t)
	rawTags := []string{
		"/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/1[1]",
		"/0[UNIVERSAL 16]/2[2]/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/3[3]/0[1]",
		"/0[UNIVERSAL 16]/4[4]",
	}

	res, err := Resolve(s, rawTags, "Document")
	require.NoError(t, err)
	assert.Empty(t, res.Unmapped)
	assert.Equal(t, map[string]string{
		"/0[UNIVERSAL 16]/0[0]":                      "/Document/id",
		"/0[UNIVERSAL 16]/1[1]":                      "/Document/title",
		"/0[UNIVERSAL 16]/2[2]/0[UNIVERSAL 16]/0[0]": "/Document/people[0]/name",
		"/0[UNIVERSAL 16]/3[3]/0[1]":                 "/Document/content/number",
		"/0[UNIVERSAL 16]/4[4]":                      "/Document/flag",
	}, names(res.Decoded))
}

func TestResolveUnmapped(t *testing.T) {
	s := documentSchema(t)
	tests := []struct {
		name       string
		raw        string
		wantTag    string
		wantPrefix string
	}{
		{name: "unknown component", raw: "/0[UNIVERSAL 16]/9[9]", wantTag: "/Document/9[9]", wantPrefix: "/Document"},
		{name: "too many segments", raw: "/0[UNIVERSAL 16]/0[0]/0[1]", wantTag: "/Document/id/0[1]", wantPrefix: "/Document/id"},
		{name: "too few segments", raw: "/0[UNIVERSAL 16]/2[3]", wantTag: "/Document/content", wantPrefix: "/Document/content"},
		{name: "deep miss", raw: "/0[UNIVERSAL 16]/1[2]/0[UNIVERSAL 16]/5[5]/0[0]", wantTag: "/Document/people[0]/5[5]/0[0]", wantPrefix: "/Document/people[0]"},
		{name: "malformed raw tag", raw: "not a tag", wantTag: "not a tag", wantPrefix: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(s, []string{tt.raw}, "Document")
			require.NoError(t, err)
			assert.Empty(t, res.Decoded)
			require.Len(t, res.Unmapped, 1)
			got := res.Unmapped[0]
			assert.False(t, got.Resolved)
			assert.Equal(t, tt.wantTag, got.Tag)
			assert.Equal(t, tt.wantPrefix, got.Prefix)
			assert.Equal(t, tt.raw, got.RawTag)
		})
	}
}

func TestResolveTopLevelChoice(t *testing.T) {
	s := documentSchema(t)
	res, err := Resolve(s, []string{"/0[1]", "/0[0]/0[0]", "/0[0]/2[3]/0[0]"}, "Message")
	require.NoError(t, err)
	assert.Empty(t, res.Unmapped)
	assert.Equal(t, map[string]string{
		"/0[1]":           "/Message/ping",
		"/0[0]/0[0]":      "/Message/doc/id",
		"/0[0]/2[3]/0[0]": "/Message/doc/content/text",
	}, names(res.Decoded))
}

func TestResolveExplicitTagsAndFlattenedChoice(t *testing.T) {
	s := recordSchema(t)
	res, err := Resolve(s, []string{
		"/0[UNIVERSAL 16]/0[0]/0[UNIVERSAL 2]",
		"/0[UNIVERSAL 16]/1[UNIVERSAL 12]",
		"/0[UNIVERSAL 16]/2[1]",
	}, "Record")
	require.NoError(t, err)
	assert.Empty(t, res.Unmapped)
	assert.Equal(t, map[string]string{
		"/0[UNIVERSAL 16]/0[0]/0[UNIVERSAL 2]": "/Record/version",
		"/0[UNIVERSAL 16]/1[UNIVERSAL 12]":     "/Record/body/text",
		"/0[UNIVERSAL 16]/2[1]":                "/Record/extra",
	}, names(res.Decoded))
	assert.Equal(t, []string{"Record", "body", "text"}, res.Decoded[1].Segments)
}

// typeTagSchema builds
//
//	Tt DEFINITIONS EXPLICIT TAGS ::= BEGIN
//	Foo ::= [APPLICATION 1] INTEGER
//	Rec ::= SEQUENCE { a Foo, b SEQUENCE OF Foo }
//	Wrapper ::= [APPLICATION 2] SEQUENCE { v INTEGER }
//	Short ::= [APPLICATION 3] IMPLICIT INTEGER
//	END
func typeTagSchema(t *testing.T) *schema.Schema {
	t.Helper()
	m := schema.NewModule("Tt", schema.TagsExplicit)
	require.NoError(t, m.Define("Foo", schema.NewPrimitive(schema.Integer).Tagged(tag.Tag{Class: tag.Application, Number: 1})))
	require.NoError(t, m.Define("Rec", schema.NewSequence(
		schema.NewComponent("a", schema.Ref("", "Foo")),
		schema.NewComponent("b", schema.NewSequenceOf(schema.Ref("", "Foo"))),
	)))
	require.NoError(t, m.Define("Wrapper", schema.NewSequence(
		schema.NewComponent("v", schema.NewPrimitive(schema.Integer)),
	).Tagged(tag.Tag{Class: tag.Application, Number: 2})))
	require.NoError(t, m.Define("Short", schema.NewPrimitive(schema.Integer).
		TaggedAs(tag.Tag{Class: tag.Application, Number: 3}, schema.TagImplicit)))
	s, err := schema.Link("", m)
	require.NoError(t, err)
	return s
}

func TestResolveExplicitTypeLevelTags(t *testing.T) {
	s := typeTagSchema(t)
	tests := []struct {
		name     string
		topLevel string
		raw      string
		want     string
		mapped   bool
	}{
		{name: "component of tagged type", topLevel: "Rec", raw: "/0[UNIVERSAL 16]/0[APPLICATION 1]/0[UNIVERSAL 2]", want: "/Rec/a", mapped: true},
		{name: "collection member", topLevel: "Rec", raw: "/0[UNIVERSAL 16]/1[UNIVERSAL 16]/1[APPLICATION 1]/0[UNIVERSAL 2]", want: "/Rec/b[1]", mapped: true},
		{name: "inner TLV missing", topLevel: "Rec", raw: "/0[UNIVERSAL 16]/0[APPLICATION 1]", want: "/Rec/a"},
		{name: "tagged top level", topLevel: "Wrapper", raw: "/0[APPLICATION 2]/0[UNIVERSAL 16]/0[UNIVERSAL 2]", want: "/Wrapper/v", mapped: true},
		{name: "tagged top level without content", topLevel: "Wrapper", raw: "/0[APPLICATION 2]", want: "/Wrapper"},
		{name: "implicit top level", topLevel: "Short", raw: "/0[APPLICATION 3]", want: "/Short", mapped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(s, []string{tt.raw}, tt.topLevel)
			require.NoError(t, err)
			if tt.mapped {
				require.Len(t, res.Decoded, 1)
				assert.Empty(t, res.Unmapped)
				assert.Equal(t, tt.want, res.Decoded[0].Tag)
				return
			}
			require.Len(t, res.Unmapped, 1)
			assert.Empty(t, res.Decoded)
			assert.Equal(t, tt.want, res.Unmapped[0].Tag)
		})
	}
}

func TestResolveRejectsChoiceSentinel(t *testing.T) {
	m := schema.NewModule("Ch", schema.TagsExplicit)
	require.NoError(t, m.Define("Content", schema.NewChoice(
		schema.NewComponent("text", schema.NewPrimitive(schema.UTF8String)),
		schema.NewComponent("number", schema.NewPrimitive(schema.Integer)),
	)))
	rec := schema.NewSequence(
		schema.NewComponent("id", schema.NewPrimitive(schema.Integer)),
		schema.NewComponent("content", schema.Ref("", "Content")),
	)
	require.NoError(t, m.Define("Rec", rec))
	s, err := schema.Link("", m)
	require.NoError(t, err)
	require.Contains(t, rec.TagTable().Tags(), "1.u.Choice")

	for _, raw := range []string{"/0[UNIVERSAL 16]/1.u.Choice", "/0[UNIVERSAL 16]/1[UNIVERSAL Choice]"} {
		res, err := Resolve(s, []string{raw, "/0[UNIVERSAL 16]/1[UNIVERSAL 12]"}, "Rec")
		require.NoError(t, err)
		require.Len(t, res.Unmapped, 1, raw)
		assert.Equal(t, raw, res.Unmapped[0].Tag)
		assert.Empty(t, res.Unmapped[0].Prefix)
		require.Len(t, res.Decoded, 1)
		assert.Equal(t, "/Rec/content/text", res.Decoded[0].Tag)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	s := documentSchema(t)
	rawTags := []string{
		"/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/1[1]",
		"/0[UNIVERSAL 16]/2[2]/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/7[7]",
	}
	first, err := Resolve(s, rawTags, "Document")
	require.NoError(t, err)
	second, err := Resolve(s, rawTags, "Document")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveUnknownTopLevel(t *testing.T) {
	s := documentSchema(t)
	_, err := Resolve(s, []string{"/0[0]"}, "Nope")
	assert.ErrorIs(t, err, schema.ErrUnknownType)
	_, err = Resolve(s, []string{"/0[0]"}, "")
	assert.ErrorIs(t, err, schema.ErrSchemaDefinition)
}

const recordHex = "30 0f a0 03 02 01 05 0c 02 68 69 81 01 ff 0a 01 01"

func decodeRecord(t *testing.T) *Data {
	t.Helper()
	d := New(recordSchema(t), WithLogger(logger.Nop()))
	out, err := d.DecodeBytes(parseHexStringForTest(recordHex), "Record")
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestDataQueries(t *testing.T) {
	data := decodeRecord(t)

	assert.Equal(t, "Record", data.TopLevel())
	assert.Equal(t, []string{"/Record/version", "/Record/body/text", "/Record/extra", "/Record/colour"}, data.Tags())
	assert.Empty(t, data.UnmappedTags())
	assert.True(t, data.Contains("/Record/extra"))
	assert.False(t, data.Contains("/Record/missing"))
	assert.True(t, data.ContainsMatching(regexp.MustCompile(`/body/`)))

	b, ok := data.Bytes("/Record/extra")
	require.True(t, ok)
	assert.Equal(t, []byte{0xff}, b)

	b, ok = data.Bytes("/0[UNIVERSAL 16]/1[UNIVERSAL 12]")
	require.True(t, ok, "raw tags are accepted")
	assert.Equal(t, []byte("hi"), b)

	h, ok := data.HexString("/Record/version")
	require.True(t, ok)
	assert.Equal(t, "0x05", h)

	s, err := data.PrintableString("/Record/body/text")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	s, err = data.PrintableString("/Record/colour")
	require.NoError(t, err)
	assert.Equal(t, "green (1)", s)

	v, err := data.Decoded("/Record/version")
	require.NoError(t, err)
	assert.Equal(t, "integer(5)", v.String())

	n, err := DecodeAs[*big.Int](data, "/Record/version")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.Int64())

	text, err := DecodeAs[string](data, "/Record/body/text")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	_, err = DecodeAs[string](data, "/Record/version")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)

	_, err = data.Decoded("/Record/nothing")
	assert.ErrorIs(t, err, ErrUnknownTag)

	typ, ok := data.Type("/Record/version")
	require.True(t, ok)
	assert.Equal(t, schema.Integer, typ.Builtin())

	raw, ok := data.RawTag("/Record/version")
	require.True(t, ok)
	assert.Equal(t, "/0[UNIVERSAL 16]/0[0]/0[UNIVERSAL 2]", raw)
}

func TestDataBulkQueries(t *testing.T) {
	data := decodeRecord(t)
	re := regexp.MustCompile(`^/Record/(version|extra)$`)

	assert.Equal(t, map[string][]byte{
		"/Record/version": {0x05},
		"/Record/extra":   {0xff},
	}, data.BytesMatching(re))
	assert.Equal(t, map[string]string{
		"/Record/version": "0x05",
		"/Record/extra":   "0xFF",
	}, data.HexStringsMatching(re))
	assert.Equal(t, map[string]string{
		"/Record/version": "5",
		"/Record/extra":   "0xFF",
	}, data.PrintableStringsMatching(re))

	values, err := data.DecodedMatching(re)
	require.NoError(t, err)
	assert.Len(t, values, 2)
	assert.Equal(t, []byte{0xff}, values["/Record/extra"].Bytes())
}

func TestUnmappedQueries(t *testing.T) {
	s := documentSchema(t)
	pdu := ber.NewPDU([]string{"/0[UNIVERSAL 16]/0[0]", "/0[UNIVERSAL 16]/9[9]"}, map[string][]byte{
		"/0[UNIVERSAL 16]/0[0]": {0x01},
		"/0[UNIVERSAL 16]/9[9]": {0xab, 0xcd},
	})
	data, err := New(s, WithLogger(logger.Nop())).Decode(pdu, "Document")
	require.NoError(t, err)

	assert.Equal(t, []string{"/Document/id"}, data.Tags())
	assert.Equal(t, []string{"/Document/9[9]"}, data.UnmappedTags())
	assert.NotContains(t, data.Tags(), "/Document/9[9]")

	prefix, ok := data.Prefix("/Document/9[9]")
	require.True(t, ok)
	assert.Equal(t, "/Document", prefix)

	h, ok := data.HexString("/Document/9[9]")
	require.True(t, ok)
	assert.Equal(t, "0xABCD", h)

	_, err = data.PrintableString("/Document/9[9]")
	assert.ErrorIs(t, err, ErrNoDecoder)
	_, ok = data.Type("/Document/9[9]")
	assert.False(t, ok)
	assert.Equal(t, []string{"/Document/id", "/Document/9[9]"}, data.AllTags())
}

func TestDataTagsFollowPathOrder(t *testing.T) {
	s := recordSchema(t)
	pdu := ber.NewPDU([]string{
		"/0[UNIVERSAL 16]/2[1]",
		"/0[UNIVERSAL 16]/1[UNIVERSAL 12]",
		"/0[UNIVERSAL 16]/0[0]/0[UNIVERSAL 2]",
	}, map[string][]byte{
		"/0[UNIVERSAL 16]/2[1]":                {0xff},
		"/0[UNIVERSAL 16]/1[UNIVERSAL 12]":     []byte("hi"),
		"/0[UNIVERSAL 16]/0[0]/0[UNIVERSAL 2]": {0x05},
	})
	data, err := New(s, WithLogger(logger.Nop())).Decode(pdu, "Record")
	require.NoError(t, err)
	assert.Equal(t, []string{"/Record/version", "/Record/body/text", "/Record/extra"}, data.Tags())
}

func TestDecodeBytesSkipsMalformed(t *testing.T) {
	m := metrics.New()
	d := New(recordSchema(t), WithLogger(logger.Nop()), WithMetrics(m))

	data := append(parseHexStringForTest(recordHex), parseHexStringForTest("30 05 02")...)
	out, err := d.DecodeBytes(data, "Record")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	expected := `
# HELP asanti_pdus_total PDUs handed to the decoder, by result.
# TYPE asanti_pdus_total counter
asanti_pdus_total{result="decoded"} 1
asanti_pdus_total{result="malformed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "asanti_pdus_total"))
}

func TestDecodeMaxPDUs(t *testing.T) {
	d := New(recordSchema(t), WithLogger(logger.Nop()), WithMaxPDUs(1))
	data := parseHexStringForTest(recordHex + recordHex)
	out, err := d.DecodeReader(strings.NewReader(string(data)), "Record")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestDecodeUnknownTopLevel(t *testing.T) {
	d := New(recordSchema(t), WithLogger(logger.Nop()))
	_, err := d.DecodeBytes(parseHexStringForTest(recordHex), "Missing")
	assert.ErrorIs(t, err, schema.ErrUnknownType)
}
