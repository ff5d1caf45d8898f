package ber

import (
	"fmt"
	"io"

	"github.com/brightsparklabs/asanti-sub002/tag"
)

// PDU is one top-level data item flattened into raw tag paths. Only primitive
// values appear as entries; a constructed value with no contents is recorded
// with empty bytes so that its presence is still visible.
type PDU struct {
	order []string
	data  map[string][]byte
}

// NewPDU builds a PDU from an explicit mapping. Entries keep the order of
// rawTags.
func NewPDU(rawTags []string, data map[string][]byte) *PDU {
	p := &PDU{data: make(map[string][]byte, len(data))}
	for _, t := range rawTags {
		if b, ok := data[t]; ok {
			p.add(t, b)
		}
	}
	return p
}

func (p *PDU) add(rawTag string, content []byte) {
	if _, exists := p.data[rawTag]; !exists {
		p.order = append(p.order, rawTag)
	}
	p.data[rawTag] = content
}

// RawTags returns the raw tag paths in encoding order.
func (p *PDU) RawTags() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Bytes returns the contents recorded for rawTag.
func (p *PDU) Bytes(rawTag string) ([]byte, bool) {
	b, ok := p.data[rawTag]
	return b, ok
}

// Len returns the number of recorded entries.
func (p *PDU) Len() int {
	return len(p.order)
}

// ReadPDUs decodes consecutive top-level TLVs from data. A maxPDUs of zero or
// less reads everything. PDUs read before an error are returned with it.
func ReadPDUs(data []byte, maxPDUs int) ([]*PDU, error) {
	var pdus []*PDU
	pos := 0
	for pos < len(data) {
		if maxPDUs > 0 && len(pdus) >= maxPDUs {
			break
		}
		pdu := &PDU{data: make(map[string][]byte)}
		next, err := readTLV(data, pos, len(data), 0, nil, pdu, 0)
		if err != nil {
			return pdus, fmt.Errorf("pdu %d at offset %d: %w", len(pdus), pos, err)
		}
		pdus = append(pdus, pdu)
		pos = next
	}
	return pdus, nil
}

// ReadPDUsFrom reads r to the end and decodes it with [ReadPDUs].
func ReadPDUsFrom(r io.Reader, maxPDUs int) ([]*PDU, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read BER data: %w", err)
	}
	return ReadPDUs(data, maxPDUs)
}

// readTLV decodes the TLV at bufPos as child index of prefix and returns the
// position after it.
func readTLV(buffer []byte, bufPos, maxBufPos, index int, prefix tag.Path, pdu *PDU, depth int) (int, error) {
	if depth > maxDepth {
		return -1, ErrMaxDepthExceeded
	}

	newPos, t, constructed, err := DecodeIdentifier(buffer, bufPos, maxBufPos)
	if err != nil {
		return -1, err
	}
	indefinite := newPos < maxBufPos && buffer[newPos] == lengthIndefinite
	newPos, length, err := DecodeLength(buffer, newPos, maxBufPos)
	if err != nil {
		return -1, err
	}
	end := newPos + length

	contentEnd := end
	if indefinite {
		if !constructed {
			return -1, ErrInvalidIndefinite
		}
		contentEnd -= 2
	}

	path := prefix.Append(tag.Raw{Index: index, Tag: t})
	if !constructed {
		pdu.add(path.String(), buffer[newPos:contentEnd])
		return end, nil
	}

	if newPos == contentEnd {
		pdu.add(path.String(), []byte{})
		return end, nil
	}

	child := 0
	for pos := newPos; pos < contentEnd; child++ {
		pos, err = readTLV(buffer, pos, contentEnd, child, path, pdu, depth+1)
		if err != nil {
			return -1, err
		}
	}
	return end, nil
}
