// Package lexer provides lexical analysis for the constraint expression
// language. It turns expression source text into a stream of tokens for the
// parser.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer tokenizes expression source code.
//
// Lexer instances are not safe for concurrent use; create one per source
// string via New().
type Lexer struct {
	source  string     // Source code to tokenize
	start   int        // Start position of current token
	current int        // Current position in source
	line    int        // Current line number (1-indexed)
	column  int        // Current column number (1-indexed)
	tokens  []Token    // Collected tokens
	errors  []LexError // Collected errors

	startLine   int
	startColumn int
}

// New creates a new Lexer for the given source code
func New(source string) *Lexer {
	return &Lexer{
		source:  source,
		line:    1,
		column:  1,
		tokens:  make([]Token, 0),
		errors:  make([]LexError, 0),
		start:   0,
		current: 0,
	}
}

// ScanTokens tokenizes the entire source and returns tokens and errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Lexeme: "",
		Line:   l.line,
		Column: l.column,
		Offset: l.current,
	})

	return l.tokens, l.errors
}

// scanToken processes the next token.
//
//nolint:gocyclo,cyclop // Lexer dispatch function - complexity is inherent to the pattern
func (l *Lexer) scanToken() {
	c := l.advance()

	switch {
	case c == '(' || c == ')' || c == '{' || c == '}':
		l.scanDelimiter(c)
	case c == ',' || c == '+' || c == '*' || c == '|' || c == '=':
		l.scanSimpleOperator(c)
	case c == '<' || c == '>' || c == '-' || c == '.' || c == ':' || c == '/':
		l.scanCompoundOperator(c)
	case c == '\'':
		l.string()
	case c == ' ' || c == '\r' || c == '\t':
		// Ignore whitespace
	case c == '\n':
		l.line++
		l.column = 1
	default:
		l.scanDefault(c)
	}
}

// scanDelimiter handles delimiter tokens: ( ) { }
func (l *Lexer) scanDelimiter(c byte) {
	switch c {
	case '(':
		l.addToken(TOKEN_LPAREN)
	case ')':
		l.addToken(TOKEN_RPAREN)
	case '{':
		l.addToken(TOKEN_LBRACE)
	case '}':
		l.addToken(TOKEN_RBRACE)
	}
}

// scanSimpleOperator handles single-character operators: , + * | =
func (l *Lexer) scanSimpleOperator(c byte) {
	switch c {
	case ',':
		l.addToken(TOKEN_COMMA)
	case '+':
		l.addToken(TOKEN_PLUS)
	case '*':
		l.addToken(TOKEN_STAR)
	case '|':
		l.addToken(TOKEN_PIPE)
	case '=':
		l.addToken(TOKEN_EQ)
	}
}

// scanCompoundOperator dispatches to specific multi-character operator handlers
func (l *Lexer) scanCompoundOperator(c byte) {
	switch c {
	case '<':
		l.scanLessThanToken()
	case '>':
		l.scanGreaterThanToken()
	case '-':
		l.scanMinusToken()
	case '.':
		l.scanDotToken()
	case ':':
		l.scanColonToken()
	case '/':
		l.scanSlashToken()
	}
}

// scanLessThanToken handles <, <= and <>
func (l *Lexer) scanLessThanToken() {
	if l.match('=') {
		l.addToken(TOKEN_LTE)
	} else if l.match('>') {
		l.addToken(TOKEN_NEQ)
	} else {
		l.addToken(TOKEN_LT)
	}
}

// scanGreaterThanToken handles > and >=
func (l *Lexer) scanGreaterThanToken() {
	if l.match('=') {
		l.addToken(TOKEN_GTE)
	} else {
		l.addToken(TOKEN_GT)
	}
}

// scanMinusToken handles -, -> and -- comments
func (l *Lexer) scanMinusToken() {
	if l.match('>') {
		l.addToken(TOKEN_ARROW)
	} else if l.match('-') {
		l.comment()
	} else {
		l.addToken(TOKEN_MINUS)
	}
}

// scanDotToken handles . and ..
func (l *Lexer) scanDotToken() {
	if l.match('.') {
		l.addToken(TOKEN_DOUBLE_DOT)
	} else {
		l.addToken(TOKEN_DOT)
	}
}

// scanColonToken handles : and ::
func (l *Lexer) scanColonToken() {
	if l.match(':') {
		l.addToken(TOKEN_DOUBLE_COLON)
	} else {
		l.addToken(TOKEN_COLON)
	}
}

// scanSlashToken handles / and /* */ comments
func (l *Lexer) scanSlashToken() {
	if l.match('*') {
		l.blockComment()
	} else {
		l.addToken(TOKEN_SLASH)
	}
}

// scanDefault handles the default case: numbers, identifiers, or errors
func (l *Lexer) scanDefault(c byte) {
	if l.isDigit(c) {
		l.number()
	} else if l.isAlpha(c) {
		l.identifier()
	} else {
		l.addError(fmt.Sprintf("Unexpected character: '%c'", c))
	}
}

// comment handles single-line comments starting with --
func (l *Lexer) comment() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
}

// blockComment handles /* ... */ comments
func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.line++
			l.column = 0
		}
		l.advance()
	}

	l.addError("Unterminated block comment")
}

// string handles single-quoted string literals with escapes
func (l *Lexer) string() {
	value := strings.Builder{}

	for !l.isAtEnd() && l.peek() != '\'' {
		if l.peek() == '\\' {
			l.advance() // consume backslash
			if l.isAtEnd() {
				break
			}

			escaped := l.advance()
			switch escaped {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '\\':
				value.WriteByte('\\')
			case '\'':
				value.WriteByte('\'')
			case '"':
				value.WriteByte('"')
			default:
				value.WriteByte('\\')
				value.WriteByte(escaped)
			}
		} else if l.peek() == '\n' {
			value.WriteByte('\n')
			l.line++
			l.column = 0
			l.advance()
		} else {
			value.WriteByte(l.advance())
		}
	}

	if l.isAtEnd() {
		l.addError(fmt.Sprintf("Unterminated string starting at %d:%d", l.startLine, l.startColumn))
		return
	}

	// Consume closing '
	l.advance()
	l.addTokenWithLiteral(TOKEN_STRING_LITERAL, value.String())
}

// number handles integer and real literals. A '.' followed by another '.'
// ends the number so that ranges like 1..5 scan as three tokens.
func (l *Lexer) number() {
	for l.isDigit(l.peek()) {
		l.advance()
	}

	isReal := false
	if l.peek() == '.' && l.isDigit(l.peekNext()) {
		isReal = true
		l.advance() // consume .

		for l.isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isReal = true
		l.advance() // consume e/E

		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}

		if !l.isDigit(l.peek()) {
			l.addError("Invalid number: expected digits after exponent")
			return
		}

		for l.isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[l.start:l.current]

	if isReal {
		value, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.addError(fmt.Sprintf("Invalid real literal: %s", lexeme))
			return
		}
		l.addTokenWithLiteral(TOKEN_REAL_LITERAL, value)
	} else {
		value, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			l.addError(fmt.Sprintf("Invalid integer literal: %s", lexeme))
			return
		}
		l.addTokenWithLiteral(TOKEN_INT_LITERAL, value)
	}
}

// identifier handles identifiers and keywords
func (l *Lexer) identifier() {
	for l.isAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]

	tokenType, isKeyword := Keywords[text]
	if !isKeyword {
		tokenType = TOKEN_IDENTIFIER
	}
	l.addToken(tokenType)
}

// Helper methods

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() {
		return false
	}
	if l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *Lexer) isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c == '_'
}

func (l *Lexer) isAlphaNumeric(c byte) bool {
	return l.isAlpha(c) || l.isDigit(c)
}

func (l *Lexer) addToken(tokenType TokenType) {
	l.addTokenWithLiteral(tokenType, nil)
}

func (l *Lexer) addTokenWithLiteral(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  l.source[l.start:l.current],
		Literal: literal,
		Line:    l.startLine,
		Column:  l.startColumn,
		Offset:  l.start,
	})
}

// addError records a lexical error
func (l *Lexer) addError(message string) {
	lexeme := ""
	if l.start < len(l.source) {
		end := l.current
		if end > l.start+20 {
			end = l.start + 20
		}
		lexeme = l.source[l.start:end]
	}

	l.errors = append(l.errors, LexError{
		Message: message,
		Line:    l.startLine,
		Column:  l.startColumn,
		Offset:  l.start,
		Lexeme:  lexeme,
	})
}

// IsKeyword checks if a string is a reserved word
func IsKeyword(s string) bool {
	_, ok := Keywords[s]
	return ok
}

// IsValidIdentifier reports whether s lexes as a single identifier token:
// an ASCII letter or underscore followed by letters, digits or underscores,
// and not a reserved word.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	l := &Lexer{}
	if !l.isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !l.isAlphaNumeric(s[i]) {
			return false
		}
	}

	return !IsKeyword(s)
}
