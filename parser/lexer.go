package parser

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenIdentifier TokenType = iota // word, keyword or reference
	TokenNumber                      // 42, -7
	TokenString                      // "quoted string"
	TokenBitString                   // '0101'B or 'CAFE'H
	TokenAssign                      // ::=
	TokenLBrace                      // {
	TokenRBrace                      // }
	TokenLBracket                    // [
	TokenRBracket                    // ]
	TokenLParen                      // (
	TokenRParen                      // )
	TokenComma                       // ,
	TokenSemicolon                   // ;
	TokenDot                         // .
	TokenRange                       // ..
	TokenEllipsis                    // ...
	TokenPipe                        // |
	TokenLess                        // <
	TokenOther                       // any other single character
	TokenEOF
	TokenError
)

func (t TokenType) String() string {
	switch t {
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenBitString:
		return "bit string"
	case TokenAssign:
		return "'::='"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenSemicolon:
		return "';'"
	case TokenDot:
		return "'.'"
	case TokenRange:
		return "'..'"
	case TokenEllipsis:
		return "'...'"
	case TokenPipe:
		return "'|'"
	case TokenLess:
		return "'<'"
	case TokenOther:
		return "symbol"
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// Token is a single lexer token.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Type {
	case TokenIdentifier, TokenNumber, TokenString, TokenBitString, TokenOther:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// Is reports whether t is the identifier or keyword word.
func (t Token) Is(word string) bool {
	return t.Type == TokenIdentifier && t.Value == word
}

// Lexer tokenizes ASN.1 module text.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
}

// NewLexer creates a new Lexer for the given input string.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
}

// Tokens lexes the whole input. The last token is TokenEOF, or TokenError
// when the input cannot be tokenized.
func (l *Lexer) Tokens() []Token {
	var out []Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return out
		}
	}
}

// Next returns the next token, advancing the position.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}

	ch := l.input[l.pos]
	line, col := l.line, l.column
	single := func(typ TokenType) Token {
		l.advance()
		return Token{Type: typ, Value: string(ch), Line: line, Column: col}
	}

	switch {
	case strings.HasPrefix(l.input[l.pos:], "::="):
		l.advanceN(3)
		return Token{Type: TokenAssign, Value: "::=", Line: line, Column: col}
	case strings.HasPrefix(l.input[l.pos:], "..."):
		l.advanceN(3)
		return Token{Type: TokenEllipsis, Value: "...", Line: line, Column: col}
	case strings.HasPrefix(l.input[l.pos:], ".."):
		l.advanceN(2)
		return Token{Type: TokenRange, Value: "..", Line: line, Column: col}
	}

	switch ch {
	case '{':
		return single(TokenLBrace)
	case '}':
		return single(TokenRBrace)
	case '[':
		return single(TokenLBracket)
	case ']':
		return single(TokenRBracket)
	case '(':
		return single(TokenLParen)
	case ')':
		return single(TokenRParen)
	case ',':
		return single(TokenComma)
	case ';':
		return single(TokenSemicolon)
	case '.':
		return single(TokenDot)
	case '|':
		return single(TokenPipe)
	case '<':
		return single(TokenLess)
	case '"':
		return l.readString(line, col)
	case '\'':
		return l.readBitString(line, col)
	case '-':
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			l.advance()
			tok := l.readNumber(line, col)
			tok.Value = "-" + tok.Value
			return tok
		}
		return single(TokenOther)
	}

	switch {
	case isDigit(ch):
		return l.readNumber(line, col)
	case isLetter(ch):
		return l.readIdentifier(line, col)
	case ch == '@' || ch == '!' || ch == ':' || ch == '&' || ch == '^':
		return single(TokenOther)
	}
	l.advance()
	return Token{
		Type:   TokenError,
		Value:  fmt.Sprintf("unexpected character: %c", ch),
		Line:   line,
		Column: col,
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' {
			l.advance()
			continue
		}

		// Line comment: -- ... (-- | \n)
		if strings.HasPrefix(l.input[l.pos:], "--") {
			l.advanceN(2)
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				if strings.HasPrefix(l.input[l.pos:], "--") {
					l.advanceN(2)
					break
				}
				l.advance()
			}
			continue
		}

		// Block comment: /* ... */, nested
		if strings.HasPrefix(l.input[l.pos:], "/*") {
			l.advanceN(2)
			depth := 1
			for l.pos < len(l.input) && depth > 0 {
				switch {
				case strings.HasPrefix(l.input[l.pos:], "/*"):
					depth++
					l.advanceN(2)
				case strings.HasPrefix(l.input[l.pos:], "*/"):
					depth--
					l.advanceN(2)
				default:
					l.advance()
				}
			}
			continue
		}

		break
	}
}

func (l *Lexer) readString(line, col int) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			// "" is an escaped quote
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '"' {
				b.WriteByte('"')
				l.advanceN(2)
				continue
			}
			l.advance()
			return Token{Type: TokenString, Value: b.String(), Line: line, Column: col}
		}
		b.WriteByte(ch)
		l.advance()
	}
	return Token{Type: TokenError, Value: "unterminated string", Line: line, Column: col}
}

func (l *Lexer) readBitString(line, col int) Token {
	start := l.pos
	l.advance() // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != '\'' {
		l.advance()
	}
	if l.pos+1 >= len(l.input) {
		return Token{Type: TokenError, Value: "unterminated bit string", Line: line, Column: col}
	}
	l.advance() // closing quote
	switch l.input[l.pos] {
	case 'B', 'H':
		l.advance()
		return Token{Type: TokenBitString, Value: l.input[start:l.pos], Line: line, Column: col}
	}
	return Token{Type: TokenError, Value: "bit string without B or H suffix", Line: line, Column: col}
}

func (l *Lexer) readNumber(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Line: line, Column: col}
}

// readIdentifier reads letters, digits and single hyphens. A double hyphen
// starts a comment and ends the identifier.
func (l *Lexer) readIdentifier(line, col int) Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '-' {
			if l.pos+1 >= len(l.input) || !isIdentChar(l.input[l.pos+1]) || l.input[l.pos+1] == '-' {
				break
			}
		} else if !isIdentChar(ch) {
			break
		}
		l.advance()
	}
	return Token{Type: TokenIdentifier, Value: l.input[start:l.pos], Line: line, Column: col}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isLetter(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '-' || ch == '_'
}
