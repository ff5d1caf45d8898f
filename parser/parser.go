// Package parser reads ASN.1 module definitions into schema modules.
//
// The supported grammar is the subset of X.680 needed to describe data for
// decoding: module headers with a tagging default, IMPORTS and EXPORTS, type
// assignments and integer value assignments, the builtin types, SEQUENCE,
// SET and CHOICE with OPTIONAL and DEFAULT components and extension markers,
// SEQUENCE OF and SET OF, tags, and SIZE, value range and CONTAINING
// constraints. Information object classes and parameterized types are
// rejected with a SyntaxError.
package parser

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/schema"
	"github.com/brightsparklabs/asanti-sub002/tag"
)

// ErrSyntax is the root of every SyntaxError.
var ErrSyntax = errors.New("asn.1 syntax error")

// SyntaxError reports text that does not follow the supported grammar.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Source is one named module text.
type Source struct {
	Name string
	Data []byte
}

// Option configures parsing.
type Option func(*config)

type config struct {
	logger logger.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Parse parses every module in one source.
func Parse(name string, data []byte, opts ...Option) ([]*schema.Module, error) {
	return ParseSources([]Source{{Name: name, Data: data}}, opts...)
}

// ParseReader parses every module read from r.
func ParseReader(name string, r io.Reader, opts ...Option) ([]*schema.Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Parse(name, data, opts...)
}

// ParseFiles parses every module in the named files.
func ParseFiles(paths []string, opts ...Option) ([]*schema.Module, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		sources = append(sources, Source{Name: path, Data: data})
	}
	return ParseSources(sources, opts...)
}

// ParseSources parses every module in every source. Integer value
// assignments of all sources are collected before any type is parsed, so a
// constraint may name a value defined later or in another source.
func ParseSources(sources []Source, opts ...Option) ([]*schema.Module, error) {
	cfg := config{logger: logger.NewLogger("parser")}
	for _, opt := range opts {
		opt(&cfg)
	}

	values := make(map[string]*big.Int)
	tokens := make([][]Token, len(sources))
	for i, src := range sources {
		toks := NewLexer(string(src.Data)).Tokens()
		if last := toks[len(toks)-1]; last.Type == TokenError {
			return nil, &SyntaxError{File: src.Name, Line: last.Line, Column: last.Column, Msg: last.Value}
		}
		prescanValues(toks, values)
		tokens[i] = toks
	}

	var modules []*schema.Module
	for i, src := range sources {
		p := &Parser{file: src.Name, toks: tokens[i], values: values, logger: cfg.logger}
		ms, err := p.parseModules()
		if err != nil {
			return nil, err
		}
		modules = append(modules, ms...)
	}
	return modules, nil
}

// prescanValues records every "name INTEGER ::= number" assignment.
func prescanValues(toks []Token, into map[string]*big.Int) {
	for i := 0; i+3 < len(toks); i++ {
		if toks[i].Type != TokenIdentifier || !isValueName(toks[i].Value) {
			continue
		}
		if !toks[i+1].Is("INTEGER") || toks[i+2].Type != TokenAssign || toks[i+3].Type != TokenNumber {
			continue
		}
		if _, exists := into[toks[i].Value]; exists {
			continue
		}
		if v, ok := new(big.Int).SetString(toks[i+3].Value, 10); ok {
			into[toks[i].Value] = v
		}
	}
}

// Parser converts the tokens of one source into modules.
type Parser struct {
	file   string
	toks   []Token
	pos    int
	values map[string]*big.Int
	logger logger.Logger
}

func (p *Parser) peek() Token {
	return p.peekNth(0)
}

func (p *Parser) peekNth(n int) Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) checkWord(word string) bool {
	return p.peek().Is(word)
}

func (p *Parser) isEOF() bool {
	return p.check(TokenEOF)
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{File: p.file, Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return Token{}, p.errorf(p.peek(), "expected %s, found %s", typ, p.peek())
}

func (p *Parser) expectWord(word string) error {
	if p.checkWord(word) {
		p.advance()
		return nil
	}
	return p.errorf(p.peek(), "expected %s, found %s", word, p.peek())
}

func (p *Parser) expectTypeName() (Token, error) {
	tok := p.peek()
	if tok.Type != TokenIdentifier || !isTypeName(tok.Value) {
		return Token{}, p.errorf(tok, "expected type reference, found %s", tok)
	}
	return p.advance(), nil
}

func (p *Parser) expectValueName() (Token, error) {
	tok := p.peek()
	if tok.Type != TokenIdentifier || !isValueName(tok.Value) {
		return Token{}, p.errorf(tok, "expected identifier, found %s", tok)
	}
	return p.advance(), nil
}

// skipBalanced consumes an opening token and everything up to its matching
// closing token.
func (p *Parser) skipBalanced(open, closing TokenType) error {
	start, err := p.expect(open)
	if err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		tok := p.advance()
		switch tok.Type {
		case open:
			depth++
		case closing:
			depth--
		case TokenEOF:
			return p.errorf(start, "unterminated %s", open)
		}
	}
	return nil
}

func (p *Parser) parseModules() ([]*schema.Module, error) {
	var modules []*schema.Module
	for !p.isEOF() {
		m, err := p.parseModule()
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return nil, p.errorf(p.peek(), "no module definition")
	}
	return modules, nil
}

// parseModule parses: Name [{oid}] DEFINITIONS [mode TAGS] [EXTENSIBILITY
// IMPLIED] ::= BEGIN [EXPORTS ...;] [IMPORTS ...;] assignments END
func (p *Parser) parseModule() (*schema.Module, error) {
	nameTok, err := p.expectTypeName()
	if err != nil {
		return nil, err
	}
	if p.check(TokenLBrace) {
		if err := p.skipBalanced(TokenLBrace, TokenRBrace); err != nil {
			return nil, err
		}
	}
	if err := p.expectWord("DEFINITIONS"); err != nil {
		return nil, err
	}

	mode, tagDefault := schema.TagsExplicit, true
	switch {
	case p.checkWord("EXPLICIT"):
	case p.checkWord("IMPLICIT"):
		mode = schema.TagsImplicit
	case p.checkWord("AUTOMATIC"):
		mode = schema.TagsAutomatic
	default:
		tagDefault = false
	}
	if tagDefault {
		p.advance()
		if err := p.expectWord("TAGS"); err != nil {
			return nil, err
		}
	}
	if p.checkWord("EXTENSIBILITY") {
		p.advance()
		if err := p.expectWord("IMPLIED"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}
	if err := p.expectWord("BEGIN"); err != nil {
		return nil, err
	}

	m := schema.NewModule(nameTok.Value, mode)

	if p.checkWord("EXPORTS") {
		for !p.check(TokenSemicolon) {
			if p.isEOF() {
				return nil, p.errorf(p.peek(), "unexpected end of exports")
			}
			p.advance()
		}
		p.advance()
	}
	if p.checkWord("IMPORTS") {
		if err := p.parseImports(m); err != nil {
			return nil, err
		}
	}

	for !p.checkWord("END") {
		if p.isEOF() {
			return nil, p.errorf(p.peek(), "module %s: missing END", m.Name)
		}
		if err := p.parseAssignment(m); err != nil {
			return nil, err
		}
	}
	p.advance()

	p.logger.Debug("parsed module", "module", m.Name, "tagging", m.Tagging.String(), "types", len(m.TypeNames()))
	return m, nil
}

// parseImports parses: IMPORTS symbols FROM Module [{oid}] ... ;
func (p *Parser) parseImports(m *schema.Module) error {
	p.advance()
	var symbols []string
	for !p.check(TokenSemicolon) {
		tok := p.peek()
		switch {
		case p.isEOF() || tok.Is("END"):
			return p.errorf(tok, "unexpected end of imports")
		case tok.Is("FROM"):
			p.advance()
			from, err := p.expectTypeName()
			if err != nil {
				return err
			}
			if len(symbols) == 0 {
				return p.errorf(from, "no symbols imported from %s", from.Value)
			}
			m.Import(from.Value, symbols...)
			symbols = nil
			if p.check(TokenLBrace) {
				if err := p.skipBalanced(TokenLBrace, TokenRBrace); err != nil {
					return err
				}
			}
		case tok.Type == TokenIdentifier:
			p.advance()
			symbols = append(symbols, tok.Value)
			// parameterized symbol, e.g. Foo{}
			if p.check(TokenLBrace) {
				if err := p.skipBalanced(TokenLBrace, TokenRBrace); err != nil {
					return err
				}
			}
			if p.check(TokenComma) {
				p.advance()
			}
		default:
			return p.errorf(tok, "expected symbol or FROM, found %s", tok)
		}
	}
	if len(symbols) > 0 {
		return p.errorf(p.peek(), "imported symbols without FROM: %s", strings.Join(symbols, ", "))
	}
	p.advance()
	return nil
}

func (p *Parser) parseAssignment(m *schema.Module) error {
	tok := p.peek()
	if tok.Type != TokenIdentifier {
		return p.errorf(tok, "expected assignment, found %s", tok)
	}
	if isValueName(tok.Value) {
		return p.parseValueAssignment(m)
	}

	p.advance()
	switch next := p.peek(); {
	case next.Type == TokenLBrace:
		return p.errorf(tok, "parameterized type %s is not supported", tok.Value)
	case next.Type != TokenAssign:
		return p.errorf(next, "unsupported assignment %s: expected '::=', found %s", tok.Value, next)
	}
	p.advance()
	if p.checkWord("CLASS") {
		return p.errorf(p.peek(), "information object class %s is not supported", tok.Value)
	}

	typ, err := p.parseType()
	if err != nil {
		return err
	}
	if typ.tag != nil {
		typ.typ.TaggedAs(*typ.tag, typ.mode)
	}
	if err := m.Define(tok.Value, typ.typ); err != nil {
		return p.errorf(tok, "%v", err)
	}
	return nil
}

// parseValueAssignment parses: name Type ::= Value. Integer values are
// recorded on the module; other values are skipped.
func (p *Parser) parseValueAssignment(m *schema.Module) error {
	nameTok := p.advance()
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return err
	}

	integer := typ.typ.Builtin() == schema.Integer
	switch tok := p.peek(); {
	case p.check(TokenLBrace):
		return p.skipBalanced(TokenLBrace, TokenRBrace)
	case integer && (tok.Type == TokenNumber || tok.Type == TokenIdentifier):
		v, err := p.parseIntegerValue()
		if err != nil {
			return err
		}
		if err := m.DefineValue(nameTok.Value, v); err != nil {
			return p.errorf(nameTok, "%v", err)
		}
		if _, exists := p.values[nameTok.Value]; !exists {
			p.values[nameTok.Value] = v
		}
		return nil
	default:
		_, err := p.parseValueText()
		return err
	}
}

// parseIntegerValue parses a number or a reference to an integer value.
func (p *Parser) parseIntegerValue() (*big.Int, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenNumber:
		v, ok := new(big.Int).SetString(tok.Value, 10)
		if !ok {
			return nil, p.errorf(tok, "invalid number %s", tok.Value)
		}
		return v, nil
	case TokenIdentifier:
		if v, ok := p.values[tok.Value]; ok {
			return new(big.Int).Set(v), nil
		}
		return nil, p.errorf(tok, "unknown integer value %s", tok.Value)
	}
	return nil, p.errorf(tok, "expected integer value, found %s", tok)
}

// parseValueText consumes one value and returns its text, as kept for
// DEFAULT components.
func (p *Parser) parseValueText() (string, error) {
	if p.check(TokenLBrace) {
		start := p.pos
		if err := p.skipBalanced(TokenLBrace, TokenRBrace); err != nil {
			return "", err
		}
		parts := make([]string, 0, p.pos-start)
		for _, tok := range p.toks[start:p.pos] {
			parts = append(parts, tok.Value)
		}
		return strings.Join(parts, " "), nil
	}
	tok := p.advance()
	switch tok.Type {
	case TokenNumber, TokenIdentifier, TokenString, TokenBitString:
		return tok.Value, nil
	}
	return "", p.errorf(tok, "expected value, found %s", tok)
}

// taggedType is a parsed type with the tag written in front of it. Where the
// tag belongs depends on the context: components carry it, type
// assignments and collection elements put it on the type.
type taggedType struct {
	typ  *schema.Type
	tag  *tag.Tag
	mode schema.TagMode
}

func (p *Parser) parseType() (taggedType, error) {
	var out taggedType
	if p.check(TokenLBracket) {
		tg, err := p.parseTag()
		if err != nil {
			return out, err
		}
		out.tag = &tg
		switch {
		case p.checkWord("IMPLICIT"):
			p.advance()
			out.mode = schema.TagImplicit
		case p.checkWord("EXPLICIT"):
			p.advance()
			out.mode = schema.TagExplicit
		}
	}

	typ, err := p.parseBareType()
	if err != nil {
		return out, err
	}
	for p.check(TokenLParen) {
		constraints, err := p.parseConstraint()
		if err != nil {
			return out, err
		}
		typ.Constrained(constraints...)
	}
	out.typ = typ
	return out, nil
}

// parseTag parses: [ [UNIVERSAL|APPLICATION|PRIVATE] number ]
func (p *Parser) parseTag() (tag.Tag, error) {
	open := p.advance()
	tg := tag.Tag{Class: tag.ContextSpecific}
	switch {
	case p.checkWord("UNIVERSAL"):
		tg.Class = tag.Universal
	case p.checkWord("APPLICATION"):
		tg.Class = tag.Application
	case p.checkWord("PRIVATE"):
		tg.Class = tag.Private
	}
	if tg.Class != tag.ContextSpecific {
		p.advance()
	}
	v, err := p.parseIntegerValue()
	if err != nil {
		return tg, err
	}
	if v.Sign() < 0 || !v.IsInt64() || v.Int64() > 1<<31-1 {
		return tg, p.errorf(open, "invalid tag number %s", v)
	}
	tg.Number = int(v.Int64())
	if _, err := p.expect(TokenRBracket); err != nil {
		return tg, err
	}
	return tg, nil
}

// simpleTypes are the builtins written as a single word.
var simpleTypes = map[string]schema.Builtin{
	"BOOLEAN":          schema.Boolean,
	"NULL":             schema.Null,
	"REAL":             schema.Real,
	"RELATIVE-OID":     schema.RelativeOID,
	"ObjectDescriptor": schema.ObjectDescriptor,
	"UTF8String":       schema.UTF8String,
	"NumericString":    schema.NumericString,
	"PrintableString":  schema.PrintableString,
	"TeletexString":    schema.TeletexString,
	"T61String":        schema.TeletexString,
	"VideotexString":   schema.VideotexString,
	"IA5String":        schema.IA5String,
	"UTCTime":          schema.UTCTime,
	"GeneralizedTime":  schema.GeneralizedTime,
	"GraphicString":    schema.GraphicString,
	"VisibleString":    schema.VisibleString,
	"ISO646String":     schema.VisibleString,
	"GeneralString":    schema.GeneralString,
	"UniversalString":  schema.UniversalString,
	"BMPString":        schema.BMPString,
}

// twoWordTypes are the builtins written as two words.
var twoWordTypes = map[string]struct {
	second  string
	builtin schema.Builtin
}{
	"OCTET":     {"STRING", schema.OctetString},
	"OBJECT":    {"IDENTIFIER", schema.ObjectIdentifier},
	"CHARACTER": {"STRING", schema.CharacterString},
}

func (p *Parser) parseBareType() (*schema.Type, error) {
	tok := p.peek()
	if tok.Type != TokenIdentifier {
		return nil, p.errorf(tok, "expected type, found %s", tok)
	}
	if b, ok := simpleTypes[tok.Value]; ok {
		p.advance()
		return schema.NewPrimitive(b), nil
	}
	if two, ok := twoWordTypes[tok.Value]; ok {
		p.advance()
		if err := p.expectWord(two.second); err != nil {
			return nil, err
		}
		return schema.NewPrimitive(two.builtin), nil
	}

	switch tok.Value {
	case "INTEGER":
		p.advance()
		return p.parseNamedNumbers(schema.Integer)
	case "ENUMERATED":
		p.advance()
		return p.parseEnumeration()
	case "BIT":
		p.advance()
		if err := p.expectWord("STRING"); err != nil {
			return nil, err
		}
		return p.parseNamedNumbers(schema.BitString)
	case "SEQUENCE", "SET":
		p.advance()
		return p.parseStructured(tok.Value == "SEQUENCE")
	case "CHOICE":
		p.advance()
		components, err := p.parseComponents()
		if err != nil {
			return nil, err
		}
		return schema.NewChoice(components...), nil
	case "ANY", "EXTERNAL", "EMBEDDED", "INSTANCE", "TYPE-IDENTIFIER", "ABSTRACT-SYNTAX":
		return nil, p.errorf(tok, "type %s is not supported", tok.Value)
	}

	if !isTypeName(tok.Value) {
		return nil, p.errorf(tok, "expected type, found %s", tok)
	}
	p.advance()
	module, name := "", tok.Value
	if p.check(TokenDot) && p.peekNth(1).Type == TokenIdentifier && isTypeName(p.peekNth(1).Value) {
		p.advance()
		module, name = name, p.advance().Value
	}
	if p.check(TokenLBrace) {
		return nil, p.errorf(tok, "parameterized type %s is not supported", name)
	}
	return schema.Ref(module, name), nil
}

// parseStructured parses what follows SEQUENCE or SET: a component list, or
// an optional size constraint and OF.
func (p *Parser) parseStructured(sequence bool) (*schema.Type, error) {
	if p.check(TokenLBrace) {
		components, err := p.parseComponents()
		if err != nil {
			return nil, err
		}
		if sequence {
			return schema.NewSequence(components...), nil
		}
		return schema.NewSet(components...), nil
	}

	var constraints []schema.Constraint
	switch {
	case p.checkWord("SIZE"):
		c, err := p.parseSize()
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c...)
	case p.check(TokenLParen):
		c, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c...)
	}
	if err := p.expectWord("OF"); err != nil {
		return nil, err
	}
	// SEQUENCE OF name Type
	if tok := p.peek(); tok.Type == TokenIdentifier && isValueName(tok.Value) {
		p.advance()
	}
	element, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if element.tag != nil {
		element.typ.TaggedAs(*element.tag, element.mode)
	}
	if sequence {
		return schema.NewSequenceOf(element.typ, constraints...), nil
	}
	return schema.NewSetOf(element.typ, constraints...), nil
}

// parseComponents parses a braced SEQUENCE, SET or CHOICE component list.
func (p *Parser) parseComponents() ([]*schema.Component, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var components []*schema.Component
	for !p.check(TokenRBrace) {
		tok := p.peek()
		switch {
		case p.isEOF():
			return nil, p.errorf(tok, "unterminated component list")
		case tok.Type == TokenComma:
			p.advance()
		case tok.Type == TokenEllipsis:
			p.advance()
			// exception specification
			if p.peek().Type == TokenOther && p.peek().Value == "!" {
				p.advance()
				if _, err := p.parseValueText(); err != nil {
					return nil, err
				}
			}
		case tok.Type == TokenLBracket && p.peekNth(1).Type == TokenLBracket:
			p.advance()
			p.advance()
			// version number, e.g. [[2:
			if p.check(TokenNumber) && p.peekNth(1).Value == ":" {
				p.advance()
				p.advance()
			}
		case tok.Type == TokenRBracket && p.peekNth(1).Type == TokenRBracket:
			p.advance()
			p.advance()
		case tok.Is("COMPONENTS"):
			return nil, p.errorf(tok, "COMPONENTS OF is not supported")
		default:
			c, err := p.parseComponent()
			if err != nil {
				return nil, err
			}
			components = append(components, c)
		}
	}
	p.advance()
	return components, nil
}

func (p *Parser) parseComponent() (*schema.Component, error) {
	nameTok, err := p.expectValueName()
	if err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var opts []schema.ComponentOption
	if typ.tag != nil {
		opts = append(opts, schema.WithTag(*typ.tag), schema.WithTagMode(typ.mode))
	}
	switch {
	case p.checkWord("OPTIONAL"):
		p.advance()
		opts = append(opts, schema.Optional())
	case p.checkWord("DEFAULT"):
		p.advance()
		value, err := p.parseValueText()
		if err != nil {
			return nil, err
		}
		opts = append(opts, schema.WithDefault(value))
	}
	return schema.NewComponent(nameTok.Value, typ.typ, opts...), nil
}

// parseNamedNumbers parses an optional { name(n), ... } list after INTEGER
// or BIT STRING.
func (p *Parser) parseNamedNumbers(b schema.Builtin) (*schema.Type, error) {
	if !p.check(TokenLBrace) {
		return schema.NewPrimitive(b), nil
	}
	p.advance()
	var values []schema.NamedValue
	for !p.check(TokenRBrace) {
		if p.check(TokenComma) {
			p.advance()
			continue
		}
		nameTok, err := p.expectValueName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenLParen); err != nil {
			return nil, err
		}
		v, err := p.parseIntegerValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		values = append(values, schema.NamedValue{Name: nameTok.Value, Value: v})
	}
	p.advance()
	return schema.NewNamedValues(b, values...), nil
}

// parseEnumeration parses { a, b(5), ..., c }. Items without a number take
// the lowest unused non-negative number; items after the extension marker
// take the next number above every value so far.
func (p *Parser) parseEnumeration() (*schema.Type, error) {
	open, err := p.expect(TokenLBrace)
	if err != nil {
		return nil, err
	}

	type item struct {
		name      string
		value     *big.Int
		extension bool
	}
	var items []item
	used := make(map[string]bool)
	extension := false
	for !p.check(TokenRBrace) {
		switch {
		case p.isEOF():
			return nil, p.errorf(open, "unterminated enumeration")
		case p.check(TokenComma):
			p.advance()
			continue
		case p.check(TokenEllipsis):
			p.advance()
			extension = true
			continue
		}
		nameTok, err := p.expectValueName()
		if err != nil {
			return nil, err
		}
		it := item{name: nameTok.Value, extension: extension}
		if p.check(TokenLParen) {
			p.advance()
			if it.value, err = p.parseIntegerValue(); err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
			used[it.value.String()] = true
		}
		items = append(items, it)
	}
	p.advance()

	values := make([]schema.NamedValue, 0, len(items))
	next := big.NewInt(0)
	highest := big.NewInt(-1)
	for _, it := range items {
		if it.value == nil {
			if it.extension {
				it.value = new(big.Int).Add(highest, big.NewInt(1))
			} else {
				for used[next.String()] {
					next.Add(next, big.NewInt(1))
				}
				it.value = new(big.Int).Set(next)
			}
			used[it.value.String()] = true
		}
		if it.value.Cmp(highest) > 0 {
			highest.Set(it.value)
		}
		values = append(values, schema.NamedValue{Name: it.name, Value: it.value})
	}
	return schema.NewNamedValues(schema.Enumerated, values...), nil
}

func isTypeName(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func isValueName(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}
