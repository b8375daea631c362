// Package ast defines the syntax tree of the constraint expression language.
//
// The node set is closed: every node implements Expr through an unexported
// method, so no package outside ast can add a variant, and Kind identifies the
// variant for exhaustive switches. Trees are immutable once the parser
// returns them.
package ast

import "github.com/conduit-lang/modelcore/internal/compiler/lexer"

// SourceLocation tracks the position of an AST node in source code
type SourceLocation struct {
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
	Offset int // Byte offset (0-indexed)
}

// TokenLocation returns the location of a token
func TokenLocation(tok lexer.Token) SourceLocation {
	return SourceLocation{Line: tok.Line, Column: tok.Column, Offset: tok.Offset}
}

// NodeKind identifies an expression variant
type NodeKind int

const (
	KindLiteral NodeKind = iota
	KindEnumLiteral
	KindIdentifier
	KindSelf
	KindParen
	KindUnary
	KindBinary
	KindLogical
	KindLet
	KindIf
	KindCollectionLiteral
	KindRange
	KindPropertyCall
	KindOperationCall
	KindArrowCall
	KindIterator
)

var kindNames = [...]string{
	KindLiteral:           "Literal",
	KindEnumLiteral:       "EnumLiteral",
	KindIdentifier:        "Identifier",
	KindSelf:              "Self",
	KindParen:             "Paren",
	KindUnary:             "Unary",
	KindBinary:            "Binary",
	KindLogical:           "Logical",
	KindLet:               "Let",
	KindIf:                "If",
	KindCollectionLiteral: "CollectionLiteral",
	KindRange:             "Range",
	KindPropertyCall:      "PropertyCall",
	KindOperationCall:     "OperationCall",
	KindArrowCall:         "ArrowCall",
	KindIterator:          "Iterator",
}

// String returns the name of the node kind
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Expr is implemented by every expression node
type Expr interface {
	Location() SourceLocation
	Kind() NodeKind
	exprNode()
}

// Children returns the direct subexpressions of n in source order
func Children(n Expr) []Expr {
	switch e := n.(type) {
	case *LiteralExpr, *EnumLiteralExpr, *IdentifierExpr, *SelfExpr:
		return nil
	case *ParenExpr:
		return []Expr{e.Expr}
	case *UnaryExpr:
		return []Expr{e.Operand}
	case *BinaryExpr:
		return []Expr{e.Left, e.Right}
	case *LogicalExpr:
		return []Expr{e.Left, e.Right}
	case *LetExpr:
		out := make([]Expr, 0, len(e.Bindings)+1)
		for _, b := range e.Bindings {
			out = append(out, b.Value)
		}
		return append(out, e.Body)
	case *IfExpr:
		return []Expr{e.Condition, e.Then, e.Else}
	case *CollectionLiteralExpr:
		return append([]Expr(nil), e.Items...)
	case *RangeExpr:
		return []Expr{e.Start, e.End}
	case *PropertyCallExpr:
		return []Expr{e.Source}
	case *OperationCallExpr:
		out := make([]Expr, 0, len(e.Arguments)+1)
		if e.Source != nil {
			out = append(out, e.Source)
		}
		return append(out, e.Arguments...)
	case *ArrowCallExpr:
		return append([]Expr{e.Source}, e.Arguments...)
	case *IteratorExpr:
		return []Expr{e.Source, e.Body}
	default:
		panic("ast: unhandled node " + n.Kind().String())
	}
}
