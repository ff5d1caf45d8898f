// Package asanti decodes BER encoded data against ASN.1 schemas.
//
// An Asanti wraps a linked schema with a decoder and a validator:
//
//	a, err := asanti.LoadSchema([]string{"module.asn"})
//	pdus, err := a.DecodeFile("data.ber", "Document")
//	name, err := pdus[0].PrintableString("/Document/title")
package asanti

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
	"github.com/brightsparklabs/asanti-sub002/parser"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/validation"
)

// Asanti decodes and validates data against one schema. It is safe for
// concurrent use.
type Asanti struct {
	schema    *schema.Schema
	decoder   *decoder.Decoder
	validator *validation.Validator
	logger    logger.Logger
}

type options struct {
	logger  logger.Logger
	metrics *metrics.Metrics
	maxPDUs int
	primary string
	rules   []validation.Rule
}

// Option configures an Asanti.
type Option func(*options)

// WithLogger sets the logger shared by parsing, decoding and validation.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records decode and validation counters in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithMaxPDUs stops reading after n PDUs; zero means no limit.
func WithMaxPDUs(n int) Option {
	return func(o *options) {
		o.maxPDUs = n
	}
}

// WithPrimaryModule names the module searched first for top-level types.
// The default is the first module loaded.
func WithPrimaryModule(name string) Option {
	return func(o *options) {
		o.primary = name
	}
}

// WithRule adds a custom validation rule.
func WithRule(r validation.Rule) Option {
	return func(o *options) {
		o.rules = append(o.rules, r)
	}
}

func newOptions(opts []Option) options {
	o := options{logger: logger.NewLogger("asanti")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New wraps an already linked schema.
func New(s *schema.Schema, opts ...Option) *Asanti {
	return newAsanti(s, newOptions(opts))
}

func newAsanti(s *schema.Schema, o options) *Asanti {
	vopts := []validation.Option{
		validation.WithLogger(o.logger),
		validation.WithMetrics(o.metrics),
	}
	for _, r := range o.rules {
		vopts = append(vopts, validation.WithRule(r))
	}
	return &Asanti{
		schema: s,
		decoder: decoder.New(s,
			decoder.WithLogger(o.logger),
			decoder.WithMetrics(o.metrics),
			decoder.WithMaxPDUs(o.maxPDUs),
		),
		validator: validation.New(vopts...),
		logger:    o.logger,
	}
}

// LoadSchema parses and links the modules in the given files.
func LoadSchema(paths []string, opts ...Option) (*Asanti, error) {
	o := newOptions(opts)
	modules, err := parser.ParseFiles(paths, parser.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return link(modules, o)
}

// LoadSchemaFrom parses and links the modules read from r.
func LoadSchemaFrom(name string, r io.Reader, opts ...Option) (*Asanti, error) {
	o := newOptions(opts)
	modules, err := parser.ParseReader(name, r, parser.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return link(modules, o)
}

func link(modules []*schema.Module, o options) (*Asanti, error) {
	s, err := schema.Link(o.primary, modules...)
	if err != nil {
		return nil, fmt.Errorf("failed to link schema: %w", err)
	}
	o.logger.Info("schema loaded", "primary", s.Primary(), "modules", len(s.ModuleNames()))
	return newAsanti(s, o), nil
}

// Schema returns the linked schema.
func (a *Asanti) Schema() *schema.Schema { return a.schema }

// Decode decodes every PDU in data as topLevel. A malformed PDU ends
// reading; the PDUs before it are returned.
func (a *Asanti) Decode(data []byte, topLevel string) ([]*decoder.Data, error) {
	return a.decoder.DecodeBytes(data, topLevel)
}

// DecodeReader decodes every PDU read from r as topLevel.
func (a *Asanti) DecodeReader(r io.Reader, topLevel string) ([]*decoder.Data, error) {
	return a.decoder.DecodeReader(r, topLevel)
}

// DecodeFile decodes every PDU in the file at path as topLevel.
func (a *Asanti) DecodeFile(path, topLevel string) ([]*decoder.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	pdus, err := a.decoder.DecodeReader(f, topLevel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("decoded file", "path", path, "pdus", len(pdus))
	return pdus, nil
}

// Validate checks one decoded PDU against the schema constraints and the
// custom rules.
func (a *Asanti) Validate(ctx context.Context, data *decoder.Data) (validation.Result, error) {
	return a.validator.Validate(ctx, data)
}
