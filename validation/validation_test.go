package validation

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/tag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

//	Readings ::= SEQUENCE {
//	    id      [0] IMPLICIT INTEGER (1..100),
//	    label   [1] IMPLICIT PrintableString (SIZE(1..8)),
//	    mask    [2] IMPLICIT BIT STRING (SIZE(16)),
//	    payload [3] IMPLICIT OCTET STRING (CONTAINING INTEGER) OPTIONAL }
func readingsSchema(t *testing.T) *schema.Schema {
	t.Helper()
	m := schema.NewModule("Sensors", schema.TagsImplicit)
	require.NoError(t, m.Define("Readings", schema.NewSequence(
		schema.NewComponent("id", schema.NewPrimitive(schema.Integer, schema.ValueRange(big.NewInt(1), big.NewInt(100))),
			schema.WithTag(tag.Context(0))),
		schema.NewComponent("label", schema.NewPrimitive(schema.PrintableString, schema.SizeRange(1, 8)),
			schema.WithTag(tag.Context(1))),
		schema.NewComponent("mask", schema.NewPrimitive(schema.BitString, schema.ExactSize(16)),
			schema.WithTag(tag.Context(2))),
		schema.NewComponent("payload", schema.NewPrimitive(schema.OctetString,
			schema.ContainingConstraint{Type: schema.NewPrimitive(schema.Integer)}),
			schema.WithTag(tag.Context(3)), schema.Optional()),
	)))
	s, err := schema.Link("", m)
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, values map[string][]byte) *decoder.Data {
	t.Helper()
	order := []string{
		"/0[UNIVERSAL 16]/0[0]",
		"/0[UNIVERSAL 16]/1[1]",
		"/0[UNIVERSAL 16]/2[2]",
		"/0[UNIVERSAL 16]/3[3]",
		"/0[UNIVERSAL 16]/7[7]",
	}
	d := decoder.New(readingsSchema(t), decoder.WithLogger(logger.Nop()))
	data, err := d.Decode(ber.NewPDU(order, values), "Readings")
	require.NoError(t, err)
	return data
}

func validValues() map[string][]byte {
	return map[string][]byte{
		"/0[UNIVERSAL 16]/0[0]": {0x2a},
		"/0[UNIVERSAL 16]/1[1]": []byte("probe"),
		"/0[UNIVERSAL 16]/2[2]": {0x00, 0xff, 0x00},
		"/0[UNIVERSAL 16]/3[3]": {0x02, 0x01, 0x07},
	}
}

func TestValidateClean(t *testing.T) {
	res, err := New(WithLogger(logger.Nop())).Validate(context.Background(), decode(t, validValues()))
	require.NoError(t, err)
	assert.True(t, res.Valid(), "%v", res.Failures)
}

func TestValidateCollectsEveryFailure(t *testing.T) {
	values := map[string][]byte{
		"/0[UNIVERSAL 16]/0[0]": {0x00, 0x2a},
		"/0[UNIVERSAL 16]/1[1]": []byte("far too long@"),
		"/0[UNIVERSAL 16]/2[2]": {0x00, 0xff},
		"/0[UNIVERSAL 16]/3[3]": {0x02, 0x05},
		"/0[UNIVERSAL 16]/7[7]": {0x01},
	}
	m := metrics.New()
	res, err := New(WithLogger(logger.Nop()), WithMetrics(m)).Validate(context.Background(), decode(t, values))
	require.NoError(t, err)

	type key struct {
		tag string
		typ schema.FailureType
	}
	var got []key
	for _, f := range res.Failures {
		got = append(got, key{f.Tag, f.Type})
	}
	assert.Equal(t, []key{
		{"/Readings/7[7]", schema.UnmappedTag},
		{"/Readings/id", schema.DataIncorrectlyFormatted},
		{"/Readings/id", schema.DataIncorrectlyFormatted},
		{"/Readings/label", schema.DataIncorrectlyFormatted},
		{"/Readings/label", schema.SchemaConstraint},
		{"/Readings/mask", schema.SchemaConstraint},
		{"/Readings/payload", schema.SchemaConstraint},
	}, got)
	assert.Len(t, res.FailuresFor("/Readings/label"), 2)
	assert.Contains(t, res.FailuresFor("/Readings/7[7]")[0].Reason, "/Readings")

	expected := `
# HELP asanti_validation_failures_total Validation failures, by failure type.
# TYPE asanti_validation_failures_total counter
asanti_validation_failures_total{type="DataIncorrectlyFormatted"} 3
asanti_validation_failures_total{type="SchemaConstraint"} 3
asanti_validation_failures_total{type="UnmappedTag"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "asanti_validation_failures_total"))
}

func TestValidateMissingData(t *testing.T) {
	values := validValues()
	values["/0[UNIVERSAL 16]/0[0]"] = nil
	res, err := New(WithLogger(logger.Nop())).Validate(context.Background(), decode(t, values))
	require.NoError(t, err)

	failures := res.FailuresFor("/Readings/id")
	require.Len(t, failures, 1)
	assert.Equal(t, schema.DataMissing, failures[0].Type)
}

func TestCustomRules(t *testing.T) {
	even := Rule{
		Name:    "even-id",
		Pattern: regexp.MustCompile(`/id$`),
		Check: func(_ context.Context, tag string, data *decoder.Data) error {
			n, err := decoder.DecodeAs[*big.Int](data, tag)
			if err != nil {
				return err
			}
			if n.Bit(0) != 0 {
				return errors.New("id must be even")
			}
			return nil
		},
	}
	lower := Rule{
		Name:    "lower-case",
		Pattern: regexp.MustCompile(`/label$`),
		Check: func(_ context.Context, tag string, data *decoder.Data) error {
			s, err := data.PrintableString(tag)
			if err != nil {
				return nil
			}
			if strings.ToLower(s) != s {
				return errors.New("not lower case")
			}
			return nil
		},
	}

	values := validValues()
	values["/0[UNIVERSAL 16]/0[0]"] = []byte{0x2b}
	values["/0[UNIVERSAL 16]/1[1]"] = []byte("Probe")

	v := New(WithLogger(logger.Nop()), WithRule(even), WithRule(lower), WithConcurrency(2))
	res, err := v.Validate(context.Background(), decode(t, values))
	require.NoError(t, err)

	var custom []Failure
	for _, f := range res.Failures {
		if f.Type == schema.CustomRule {
			custom = append(custom, f)
		}
	}
	assert.Equal(t, []Failure{
		{Tag: "/Readings/id", Type: schema.CustomRule, Reason: "id must be even", Rule: "even-id"},
		{Tag: "/Readings/label", Type: schema.CustomRule, Reason: "not lower case", Rule: "lower-case"},
	}, custom)
}

func TestValidateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rule := Rule{Name: "never", Check: func(context.Context, string, *decoder.Data) error { return nil }}
	_, err := New(WithLogger(logger.Nop()), WithRule(rule)).Validate(ctx, decode(t, validValues()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailureString(t *testing.T) {
	f := Failure{Tag: "/A/b", Type: schema.CustomRule, Reason: "bad", Rule: "r"}
	assert.Equal(t, "/A/b: CustomRule [r]: bad", f.String())
	f = Failure{Tag: "/A/b", Type: schema.DataMissing, Reason: "no data found"}
	assert.Equal(t, "/A/b: DataMissing: no data found", f.String())
}
