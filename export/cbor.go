// Package export renders decoded PDUs as CBOR.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"

	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/variant"
)

// Document is the exported form of one PDU.
type Document struct {
	TopLevel string  `cbor:"topLevel"`
	Tags     []Entry `cbor:"tags"`
	Unmapped []Entry `cbor:"unmapped,omitempty"`
}

// Entry is one tag of a Document.
type Entry struct {
	Tag    string `cbor:"tag"`
	RawTag string `cbor:"raw"`
	Bytes  []byte `cbor:"bytes"`
	// Type is the builtin name of decoded tags.
	Type string `cbor:"type,omitempty"`
	// Value is the decoded value; absent when the bytes do not decode.
	Value  interface{} `cbor:"value,omitempty"`
	Prefix string      `cbor:"prefix,omitempty"`
}

// BitString is how BIT STRING values are exported.
type BitString struct {
	Bytes  []byte `cbor:"bytes"`
	Length int    `cbor:"length"`
}

var (
	encModeOnce sync.Once
	encMode     _cbor.EncMode
	encModeErr  error
)

func getEncMode() (_cbor.EncMode, error) {
	encModeOnce.Do(func() {
		opts := _cbor.EncOptions{
			// Make sure that maps have ordered keys
			Sort:          _cbor.SortCoreDeterministic,
			Time:          _cbor.TimeRFC3339Nano,
			TimeTag:       _cbor.EncTagRequired,
			BigIntConvert: _cbor.BigIntConvertShortest,
		}
		encMode, encModeErr = opts.EncMode()
	})
	return encMode, encModeErr
}

// FromData builds the exported form of d. Decode failures are not errors:
// the entry keeps its bytes and has no value.
func FromData(d *decoder.Data) Document {
	doc := Document{TopLevel: d.TopLevel()}
	for _, tag := range d.Tags() {
		e := entry(d, tag)
		if typ, ok := d.Type(tag); ok {
			if u := typ.Underlying(); u != nil {
				e.Type = u.Builtin().String()
			}
		}
		if v, err := d.Decoded(tag); err == nil {
			e.Value = exportValue(v)
		}
		doc.Tags = append(doc.Tags, e)
	}
	for _, tag := range d.UnmappedTags() {
		e := entry(d, tag)
		e.Prefix, _ = d.Prefix(tag)
		doc.Unmapped = append(doc.Unmapped, e)
	}
	return doc
}

func entry(d *decoder.Data, tag string) Entry {
	raw, _ := d.RawTag(tag)
	b, _ := d.Bytes(tag)
	return Entry{Tag: tag, RawTag: raw, Bytes: b}
}

func exportValue(v *variant.Variant) interface{} {
	switch v.Type() {
	case variant.Null:
		return nil
	case variant.BitString:
		bits := v.BitString()
		return BitString{Bytes: bits.Bytes, Length: bits.Length}
	default:
		return v.Value()
	}
}

// Encode renders one decoded PDU.
func Encode(d *decoder.Data) ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	if err := em.NewEncoder(buf).Encode(FromData(d)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", d.TopLevel(), err)
	}
	return buf.Bytes(), nil
}

// EncodeAll writes the PDUs to w as a CBOR sequence, one item per PDU.
func EncodeAll(w io.Writer, data []*decoder.Data) error {
	em, err := getEncMode()
	if err != nil {
		return err
	}
	enc := em.NewEncoder(w)
	for i, d := range data {
		if err := enc.Encode(FromData(d)); err != nil {
			return fmt.Errorf("failed to encode pdu %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads one exported document. Values come back as generic CBOR
// values.
func Decode(b []byte) (Document, error) {
	var doc Document
	if err := _cbor.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}
