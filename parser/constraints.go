package parser

import (
	"errors"
	"math/big"

	"github.com/brightsparklabs/asanti-sub002/schema"
)

// errUnsupported marks constraint text outside the supported subset. Such
// constraints are skipped, not rejected.
var errUnsupported = errors.New("unsupported constraint")

// fatalError is an error inside a constraint that must not be skipped, such
// as a malformed CONTAINING type.
type fatalError struct{ error }

func (e fatalError) Unwrap() error { return e.error }

// bounds is the hull of a union of ranges. A nil end is MIN or MAX.
type bounds struct {
	lo, hi *big.Int
	set    bool
}

func (b *bounds) union(lo, hi *big.Int) {
	if !b.set {
		b.lo, b.hi, b.set = lo, hi, true
		return
	}
	if b.lo != nil && (lo == nil || lo.Cmp(b.lo) < 0) {
		b.lo = lo
	}
	if b.hi != nil && (hi == nil || hi.Cmp(b.hi) > 0) {
		b.hi = hi
	}
}

type elementSet struct {
	values     bounds
	sizes      bounds
	containing *schema.Type
}

func (s elementSet) constraints() ([]schema.Constraint, error) {
	var out []schema.Constraint
	if s.sizes.set {
		lo, hi := int64(0), int64(schema.Unbounded)
		if s.sizes.lo != nil {
			if !s.sizes.lo.IsInt64() || s.sizes.lo.Sign() < 0 {
				return nil, errUnsupported
			}
			lo = s.sizes.lo.Int64()
		}
		if s.sizes.hi != nil {
			if !s.sizes.hi.IsInt64() || s.sizes.hi.Sign() < 0 {
				return nil, errUnsupported
			}
			hi = s.sizes.hi.Int64()
		}
		out = append(out, schema.SizeRange(lo, hi))
	}
	if s.values.set && (s.values.lo != nil || s.values.hi != nil) {
		out = append(out, schema.ValueRange(s.values.lo, s.values.hi))
	}
	if s.containing != nil {
		out = append(out, schema.ContainingConstraint{Type: s.containing})
	}
	return out, nil
}

// parseConstraint parses one parenthesised constraint. Constraints outside
// the supported subset (PATTERN, FROM, WITH COMPONENTS, table constraints,
// string values) are skipped and yield nothing.
func (p *Parser) parseConstraint() ([]schema.Constraint, error) {
	open, err := p.expect(TokenLParen)
	if err != nil {
		return nil, err
	}
	start := p.pos

	var set elementSet
	err = p.parseElementSet(&set)
	if err == nil {
		_, err = p.expect(TokenRParen)
	}
	var constraints []schema.Constraint
	if err == nil {
		constraints, err = set.constraints()
	}
	if err == nil {
		return constraints, nil
	}
	var fatal fatalError
	if errors.As(err, &fatal) {
		return nil, fatal.error
	}

	p.pos = start - 1
	if err := p.skipBalanced(TokenLParen, TokenRParen); err != nil {
		return nil, err
	}
	p.logger.Debug("skipped constraint", "file", p.file, "line", open.Line, "reason", err)
	return nil, nil
}

// parseSize parses "SIZE (...)" written between SEQUENCE or SET and OF.
func (p *Parser) parseSize() ([]schema.Constraint, error) {
	start := p.pos
	var set elementSet
	err := p.parseElement(&set)
	var constraints []schema.Constraint
	if err == nil {
		constraints, err = set.constraints()
	}
	if err == nil {
		return constraints, nil
	}
	var fatal fatalError
	if errors.As(err, &fatal) {
		return nil, fatal.error
	}

	p.pos = start + 1
	if err := p.skipBalanced(TokenLParen, TokenRParen); err != nil {
		return nil, err
	}
	return nil, nil
}

// parseElementSet parses: element { | element } [, ... [, element { | element }]]
// Extension additions are parsed and ignored.
func (p *Parser) parseElementSet(into *elementSet) error {
	for {
		if err := p.parseElement(into); err != nil {
			return err
		}
		switch {
		case p.check(TokenPipe) || p.checkWord("UNION"):
			p.advance()
			continue
		case p.check(TokenComma) && p.peekNth(1).Type == TokenEllipsis:
			p.advance()
			p.advance()
			if p.check(TokenComma) {
				p.advance()
				var additions elementSet
				return p.parseElementSet(&additions)
			}
		}
		return nil
	}
}

func (p *Parser) parseElement(into *elementSet) error {
	switch {
	case p.checkWord("SIZE"):
		p.advance()
		if _, err := p.expect(TokenLParen); err != nil {
			return err
		}
		var inner elementSet
		if err := p.parseElementSet(&inner); err != nil {
			return err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return err
		}
		if !inner.values.set || inner.sizes.set || inner.containing != nil {
			return errUnsupported
		}
		into.sizes.union(inner.values.lo, inner.values.hi)
		return nil

	case p.checkWord("CONTAINING"):
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return fatalError{err}
		}
		if typ.tag != nil {
			typ.typ.Tagged(*typ.tag)
		}
		into.containing = typ.typ
		if p.checkWord("ENCODED") {
			p.advance()
			if err := p.expectWord("BY"); err != nil {
				return err
			}
			if _, err := p.parseValueText(); err != nil {
				return err
			}
		}
		return nil

	case p.check(TokenLParen):
		p.advance()
		if err := p.parseElementSet(into); err != nil {
			return err
		}
		_, err := p.expect(TokenRParen)
		return err
	}

	lo, hi, err := p.parseRange()
	if err != nil {
		return err
	}
	into.values.union(lo, hi)
	return nil
}

// parseRange parses: value, lo..hi, lo<..hi or lo..<hi.
func (p *Parser) parseRange() (lo, hi *big.Int, err error) {
	if lo, err = p.parseBound("MIN"); err != nil {
		return nil, nil, err
	}
	if p.check(TokenLess) {
		p.advance()
		if lo != nil {
			lo = new(big.Int).Add(lo, big.NewInt(1))
		}
	}
	if !p.check(TokenRange) {
		if lo == nil {
			return nil, nil, errUnsupported
		}
		return lo, lo, nil
	}
	p.advance()
	exclusive := false
	if p.check(TokenLess) {
		p.advance()
		exclusive = true
	}
	if hi, err = p.parseBound("MAX"); err != nil {
		return nil, nil, err
	}
	if exclusive && hi != nil {
		hi = new(big.Int).Sub(hi, big.NewInt(1))
	}
	return lo, hi, nil
}

// parseBound parses a number, a known integer value reference, or the open
// end keyword; the open end yields nil.
func (p *Parser) parseBound(open string) (*big.Int, error) {
	tok := p.peek()
	switch {
	case tok.Is(open):
		p.advance()
		return nil, nil
	case tok.Type == TokenNumber:
		return p.parseIntegerValue()
	case tok.Type == TokenIdentifier && isValueName(tok.Value):
		if _, ok := p.values[tok.Value]; ok {
			return p.parseIntegerValue()
		}
	}
	return nil, errUnsupported
}
