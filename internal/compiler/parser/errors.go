package parser

import (
	"fmt"

	"github.com/conduit-lang/modelcore/internal/compiler/lexer"
)

// SyntaxError reports malformed expression source
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Offset  int    // byte offset of the offending text
	Near    string // the offending text
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at %d:%d: %s (at end of input)", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("syntax error at %d:%d: %s (near '%s')", e.Line, e.Column, e.Message, e.Near)
}

func newSyntaxError(message string, token lexer.Token) *SyntaxError {
	return &SyntaxError{
		Message: message,
		Line:    token.Line,
		Column:  token.Column,
		Offset:  token.Offset,
		Near:    token.Lexeme,
	}
}

func fromLexError(err lexer.LexError) *SyntaxError {
	return &SyntaxError{
		Message: err.Message,
		Line:    err.Line,
		Column:  err.Column,
		Offset:  err.Offset,
		Near:    err.Lexeme,
	}
}
