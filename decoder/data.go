package decoder

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/primitive"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/variant"
)

// Data is the decoded form of one PDU. It is built once and never modified,
// so it may be queried from several goroutines.
type Data struct {
	topLevel string
	pdu      *ber.PDU

	records  map[string]DecodedTag
	decoded  []string
	unmapped []string
	// all maps every decoded and unmapped tag to its raw tag
	all map[string]string
}

func newData(topLevel string, pdu *ber.PDU, res Resolution) *Data {
	d := &Data{
		topLevel: topLevel,
		pdu:      pdu,
		records:  make(map[string]DecodedTag, len(res.Decoded)+len(res.Unmapped)),
		all:      make(map[string]string, len(res.Decoded)+len(res.Unmapped)),
	}
	for _, dt := range res.Decoded {
		if _, dup := d.records[dt.Tag]; dup {
			// the same path twice, e.g. a repeated SET member: keep the data
			// reachable under its raw tag
			dt = DecodedTag{Tag: dt.RawTag, Segments: []string{dt.RawTag}, RawTag: dt.RawTag, Prefix: dt.Prefix}
			d.addUnmapped(dt)
			continue
		}
		d.records[dt.Tag] = dt
		d.all[dt.Tag] = dt.RawTag
		d.decoded = append(d.decoded, dt.Tag)
	}
	for _, dt := range res.Unmapped {
		if _, dup := d.records[dt.Tag]; dup {
			dt.Tag = dt.RawTag
		}
		d.addUnmapped(dt)
	}
	return d
}

func (d *Data) addUnmapped(dt DecodedTag) {
	if _, dup := d.records[dt.Tag]; dup {
		return
	}
	d.records[dt.Tag] = dt
	d.all[dt.Tag] = dt.RawTag
	d.unmapped = append(d.unmapped, dt.Tag)
}

// TopLevel returns the name of the type the PDU was decoded as.
func (d *Data) TopLevel() string { return d.topLevel }

// Tags returns the decoded tags ordered by raw tag path (see tag.Path.Compare),
// whatever order the PDU listed them in. For well-formed BER that is the
// encoding order.
func (d *Data) Tags() []string {
	out := make([]string, len(d.decoded))
	copy(out, d.decoded)
	return out
}

// UnmappedTags returns the tags that did not fit the schema.
func (d *Data) UnmappedTags() []string {
	out := make([]string, len(d.unmapped))
	copy(out, d.unmapped)
	return out
}

// AllTags returns decoded tags followed by unmapped tags.
func (d *Data) AllTags() []string {
	return append(d.Tags(), d.unmapped...)
}

// Record returns the resolution record of a decoded or unmapped tag.
func (d *Data) Record(tag string) (DecodedTag, bool) {
	dt, ok := d.records[tag]
	return dt, ok
}

// Contains reports whether tag is a decoded or unmapped tag.
func (d *Data) Contains(tag string) bool {
	_, ok := d.all[tag]
	return ok
}

// ContainsMatching reports whether any decoded or unmapped tag matches re.
func (d *Data) ContainsMatching(re *regexp.Regexp) bool {
	for tag := range d.all {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

// RawTag returns the raw tag a decoded or unmapped tag came from.
func (d *Data) RawTag(tag string) (string, bool) {
	raw, ok := d.all[tag]
	return raw, ok
}

// Type returns the schema type a decoded tag resolved to.
func (d *Data) Type(tag string) (*schema.Type, bool) {
	dt, ok := d.records[tag]
	if !ok || !dt.Resolved {
		return nil, false
	}
	return dt.Type, true
}

// Prefix returns the longest decoded path reached for tag. For decoded tags
// this is the tag itself.
func (d *Data) Prefix(tag string) (string, bool) {
	dt, ok := d.records[tag]
	if !ok {
		return "", false
	}
	return dt.Prefix, true
}

// Bytes returns the content octets of tag. A tag that is not decoded or
// unmapped is looked up as a raw tag.
func (d *Data) Bytes(tag string) ([]byte, bool) {
	if raw, ok := d.all[tag]; ok {
		tag = raw
	}
	return d.pdu.Bytes(tag)
}

// HexString returns the content octets of tag as "0x" and upper case hex.
func (d *Data) HexString(tag string) (string, bool) {
	b, ok := d.Bytes(tag)
	if !ok {
		return "", false
	}
	return hexString(b), true
}

func hexString(b []byte) string {
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}

// PrintableString decodes tag for display. It fails with a *DecodeError when
// the type has no decoder or the bytes do not decode as the type.
func (d *Data) PrintableString(tag string) (string, error) {
	t, content, err := d.typed(tag)
	if err != nil {
		return "", err
	}
	s, err := primitive.Printable(t, content)
	if err != nil {
		return "", &DecodeError{Tag: tag, Err: err}
	}
	return s, nil
}

// Decoded returns the typed value of tag.
func (d *Data) Decoded(tag string) (*variant.Variant, error) {
	t, content, err := d.typed(tag)
	if err != nil {
		return nil, err
	}
	u := t.Underlying()
	if u == nil {
		return nil, &DecodeError{Tag: tag, Err: schema.ErrUnresolvedReference}
	}
	v, err := primitive.Decode(u.Builtin(), content)
	if err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return v, nil
}

func (d *Data) typed(tag string) (*schema.Type, []byte, error) {
	dt, ok := d.records[tag]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	if !dt.Resolved {
		return nil, nil, &DecodeError{Tag: tag, Err: ErrNoDecoder}
	}
	content, ok := d.pdu.Bytes(dt.RawTag)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no bytes for %s", ErrUnknownTag, tag)
	}
	return dt.Type, content, nil
}

// DecodeAs returns the value of tag as T, the Go type the decoder produces
// for it: bool, *big.Int, float64, []byte, variant.Bits, []uint64, string or
// time.Time.
func DecodeAs[T any](d *Data, tag string) (T, error) {
	var zero T
	v, err := d.Decoded(tag)
	if err != nil {
		return zero, err
	}
	out, ok := v.Value().(T)
	if !ok {
		return zero, &DecodeError{Tag: tag, Err: fmt.Errorf("%w: %s holds %s, want %T", ErrTypeMismatch, tag, v.Type(), zero)}
	}
	return out, nil
}

func (d *Data) matching(re *regexp.Regexp) []string {
	var out []string
	for _, tag := range d.AllTags() {
		if re.MatchString(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// BytesMatching returns the content octets of every tag matching re.
func (d *Data) BytesMatching(re *regexp.Regexp) map[string][]byte {
	out := make(map[string][]byte)
	for _, tag := range d.matching(re) {
		if b, ok := d.Bytes(tag); ok {
			out[tag] = b
		}
	}
	return out
}

// HexStringsMatching returns the hex string of every tag matching re.
func (d *Data) HexStringsMatching(re *regexp.Regexp) map[string]string {
	out := make(map[string]string)
	for tag, b := range d.BytesMatching(re) {
		out[tag] = hexString(b)
	}
	return out
}

// PrintableStringsMatching returns the printable string of every tag
// matching re. Tags that cannot be decoded are shown as hex.
func (d *Data) PrintableStringsMatching(re *regexp.Regexp) map[string]string {
	out := make(map[string]string)
	for _, tag := range d.matching(re) {
		s, err := d.PrintableString(tag)
		if err != nil {
			h, ok := d.HexString(tag)
			if !ok {
				continue
			}
			s = h
		}
		out[tag] = s
	}
	return out
}

// DecodedMatching returns the typed value of every decoded tag matching re.
// Values that fail to decode are left out and their errors joined.
func (d *Data) DecodedMatching(re *regexp.Regexp) (map[string]*variant.Variant, error) {
	out := make(map[string]*variant.Variant)
	var errs []error
	for _, tag := range d.matching(re) {
		if !d.records[tag].Resolved {
			continue
		}
		v, err := d.Decoded(tag)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[tag] = v
	}
	return out, errors.Join(errs...)
}
