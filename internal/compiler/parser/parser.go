// Package parser implements the recursive-descent parser of the constraint
// expression language. A parse either yields a complete, immutable tree or a
// *SyntaxError carrying the position of the offending text; partial trees
// are never returned.
package parser

import (
	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/compiler/lexer"
)

// Parser transforms a stream of tokens into an expression tree
type Parser struct {
	tokens  []lexer.Token
	current int
	err     *SyntaxError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
	}
}

// ParseExpression lexes and parses a complete expression
func ParseExpression(source string) (ast.Expr, error) {
	tokens, lexErrors := lexer.New(source).ScanTokens()
	if len(lexErrors) > 0 {
		return nil, fromLexError(lexErrors[0])
	}
	return New(tokens).Parse()
}

// MustParse parses source and panics on a syntax error. Intended for
// expressions fixed at compile time.
func MustParse(source string) ast.Expr {
	expr, err := ParseExpression(source)
	if err != nil {
		panic(err)
	}
	return expr
}

// Parse parses the token stream as a single expression that must consume
// every token
func (p *Parser) Parse() (ast.Expr, error) {
	expr := p.parseExpression()
	if p.err == nil && !p.isAtEnd() {
		p.error(p.peek(), "Unexpected token after end of expression")
	}
	if p.err != nil {
		return nil, p.err
	}
	return expr, nil
}

// Helper methods

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1]
		}
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.current + offset
	if i >= len(p.tokens) {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[i]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.peek()
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.peek().Type == tokenType
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past a token of the expected type or records an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) (lexer.Token, bool) {
	if p.check(tokenType) {
		return p.advance(), true
	}
	p.error(p.peek(), message)
	return lexer.Token{Type: lexer.TOKEN_ERROR}, false
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TOKEN_EOF
}

// error records the first syntax error; later ones are consequences of it
func (p *Parser) error(token lexer.Token, message string) {
	if p.err == nil {
		p.err = newSyntaxError(message, token)
	}
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func loc(tok lexer.Token) ast.SourceLocation {
	return ast.TokenLocation(tok)
}
