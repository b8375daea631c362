package lexer

import "fmt"

// TokenType represents the type of a token in the expression language
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR

	// Literals
	TOKEN_IDENTIFIER
	TOKEN_INT_LITERAL
	TOKEN_REAL_LITERAL
	TOKEN_STRING_LITERAL

	// Keywords - Literals
	TOKEN_TRUE    // true
	TOKEN_FALSE   // false
	TOKEN_NULL    // null
	TOKEN_INVALID // invalid
	TOKEN_SELF    // self

	// Keywords - Control
	TOKEN_LET   // let
	TOKEN_IN    // in
	TOKEN_IF    // if
	TOKEN_THEN  // then
	TOKEN_ELSE  // else
	TOKEN_ENDIF // endif

	// Keywords - Operators
	TOKEN_AND     // and
	TOKEN_OR      // or
	TOKEN_XOR     // xor
	TOKEN_IMPLIES // implies
	TOKEN_NOT     // not
	TOKEN_DIV     // div
	TOKEN_MOD     // mod

	// Delimiters
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
	TOKEN_LBRACE // {
	TOKEN_RBRACE // }
	TOKEN_COMMA  // ,

	// Operators
	TOKEN_DOT          // .
	TOKEN_DOUBLE_DOT   // ..
	TOKEN_ARROW        // ->
	TOKEN_COLON        // :
	TOKEN_DOUBLE_COLON // ::
	TOKEN_PIPE         // |
	TOKEN_PLUS         // +
	TOKEN_MINUS        // -
	TOKEN_STAR         // *
	TOKEN_SLASH        // /
	TOKEN_EQ           // =
	TOKEN_NEQ          // <>
	TOKEN_LT           // <
	TOKEN_GT           // >
	TOKEN_LTE          // <=
	TOKEN_GTE          // >=
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_ERROR:          "ERROR",
	TOKEN_IDENTIFIER:     "IDENTIFIER",
	TOKEN_INT_LITERAL:    "INT_LITERAL",
	TOKEN_REAL_LITERAL:   "REAL_LITERAL",
	TOKEN_STRING_LITERAL: "STRING_LITERAL",
	TOKEN_TRUE:           "TRUE",
	TOKEN_FALSE:          "FALSE",
	TOKEN_NULL:           "NULL",
	TOKEN_INVALID:        "INVALID",
	TOKEN_SELF:           "SELF",
	TOKEN_LET:            "LET",
	TOKEN_IN:             "IN",
	TOKEN_IF:             "IF",
	TOKEN_THEN:           "THEN",
	TOKEN_ELSE:           "ELSE",
	TOKEN_ENDIF:          "ENDIF",
	TOKEN_AND:            "AND",
	TOKEN_OR:             "OR",
	TOKEN_XOR:            "XOR",
	TOKEN_IMPLIES:        "IMPLIES",
	TOKEN_NOT:            "NOT",
	TOKEN_DIV:            "DIV",
	TOKEN_MOD:            "MOD",
	TOKEN_LPAREN:         "LPAREN",
	TOKEN_RPAREN:         "RPAREN",
	TOKEN_LBRACE:         "LBRACE",
	TOKEN_RBRACE:         "RBRACE",
	TOKEN_COMMA:          "COMMA",
	TOKEN_DOT:            "DOT",
	TOKEN_DOUBLE_DOT:     "DOUBLE_DOT",
	TOKEN_ARROW:          "ARROW",
	TOKEN_COLON:          "COLON",
	TOKEN_DOUBLE_COLON:   "DOUBLE_COLON",
	TOKEN_PIPE:           "PIPE",
	TOKEN_PLUS:           "PLUS",
	TOKEN_MINUS:          "MINUS",
	TOKEN_STAR:           "STAR",
	TOKEN_SLASH:          "SLASH",
	TOKEN_EQ:             "EQ",
	TOKEN_NEQ:            "NEQ",
	TOKEN_LT:             "LT",
	TOKEN_GT:             "GT",
	TOKEN_LTE:            "LTE",
	TOKEN_GTE:            "GTE",
}

// String returns the name of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// Token is a lexical token with its position in the source
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // int64, float64 or string for literal tokens
	Line    int         // 1-indexed
	Column  int         // 1-indexed
	Offset  int         // byte offset of the first character
}

// String returns a debug representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"true":    TOKEN_TRUE,
	"false":   TOKEN_FALSE,
	"null":    TOKEN_NULL,
	"invalid": TOKEN_INVALID,
	"self":    TOKEN_SELF,

	"let":   TOKEN_LET,
	"in":    TOKEN_IN,
	"if":    TOKEN_IF,
	"then":  TOKEN_THEN,
	"else":  TOKEN_ELSE,
	"endif": TOKEN_ENDIF,

	"and":     TOKEN_AND,
	"or":      TOKEN_OR,
	"xor":     TOKEN_XOR,
	"implies": TOKEN_IMPLIES,
	"not":     TOKEN_NOT,
	"div":     TOKEN_DIV,
	"mod":     TOKEN_MOD,
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Offset  int    // Byte offset where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("Lexical error at %d:%d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Lexeme)
}
