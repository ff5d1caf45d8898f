// Package decoder aligns BER data with a linked schema and answers queries
// on the result.
package decoder

import (
	"fmt"
	"io"
	"time"

	"github.com/brightsparklabs/asanti-sub002/ber"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
	"github.com/brightsparklabs/asanti-sub002/schema"
)

// Decoder decodes PDUs against one linked schema. It holds no per-PDU state
// and may be used from several goroutines.
type Decoder struct {
	schema  *schema.Schema
	logger  logger.Logger
	metrics *metrics.Metrics
	maxPDUs int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Decoder) {
		d.logger = l
	}
}

// WithMetrics records decode counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) {
		d.metrics = m
	}
}

// WithMaxPDUs bounds the number of PDUs read from one input; zero reads all.
func WithMaxPDUs(n int) Option {
	return func(d *Decoder) {
		d.maxPDUs = n
	}
}

// New creates a decoder for s.
func New(s *schema.Schema, opts ...Option) *Decoder {
	d := &Decoder{
		schema: s,
		logger: logger.NewLogger("decoder"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schema returns the schema the decoder resolves against.
func (d *Decoder) Schema() *schema.Schema { return d.schema }

// Decode resolves one PDU as topLevel.
func (d *Decoder) Decode(pdu *ber.PDU, topLevel string) (*Data, error) {
	start := time.Now()
	res, err := Resolve(d.schema, pdu.RawTags(), topLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to decode as %s: %w", topLevel, err)
	}
	d.metrics.PDUDecoded(len(res.Decoded), len(res.Unmapped), time.Since(start))
	if len(res.Unmapped) > 0 {
		d.logger.Debug("pdu has unmapped tags", "type", topLevel, "unmapped", len(res.Unmapped))
	}
	return newData(topLevel, pdu, res), nil
}

// DecodeBytes reads every PDU in data and decodes each as topLevel. Reading
// stops at the first malformed PDU; it is logged and the PDUs before it are
// still returned. Only schema errors are returned as errors.
func (d *Decoder) DecodeBytes(data []byte, topLevel string) ([]*Data, error) {
	pdus, err := ber.ReadPDUs(data, d.maxPDUs)
	if err != nil {
		d.metrics.PDUMalformed()
		d.logger.Warn("skipping malformed BER data", "error", err, "decoded", len(pdus))
	}
	out := make([]*Data, 0, len(pdus))
	for _, pdu := range pdus {
		decoded, err := d.Decode(pdu, topLevel)
		if err != nil {
			return out, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// DecodeReader reads r to the end and decodes it with DecodeBytes.
func (d *Decoder) DecodeReader(r io.Reader, topLevel string) ([]*Data, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read BER data: %w", err)
	}
	return d.DecodeBytes(data, topLevel)
}
