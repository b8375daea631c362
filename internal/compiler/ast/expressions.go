package ast

// LiteralKind identifies the type of a literal
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitInvalid
	LitBool
	LitInt
	LitReal
	LitString
	LitUnlimited
)

// LiteralExpr represents a literal value (boolean, integer, real, string,
// null, invalid or the unlimited '*')
type LiteralExpr struct {
	LitKind LiteralKind
	Value   interface{} // bool, int64, float64, string or nil
	Loc     SourceLocation
}

func (l *LiteralExpr) exprNode()                {}
func (l *LiteralExpr) Kind() NodeKind           { return KindLiteral }
func (l *LiteralExpr) Location() SourceLocation { return l.Loc }

// EnumLiteralExpr represents a qualified reference such as Kind::in
type EnumLiteralExpr struct {
	Path []string // every segment; the last one is the literal
	Loc  SourceLocation
}

func (e *EnumLiteralExpr) exprNode()                {}
func (e *EnumLiteralExpr) Kind() NodeKind           { return KindEnumLiteral }
func (e *EnumLiteralExpr) Location() SourceLocation { return e.Loc }

// TypeName returns the qualified name of the enumeration type
func (e *EnumLiteralExpr) TypeName() string {
	name := ""
	for i, seg := range e.Path[:len(e.Path)-1] {
		if i > 0 {
			name += "::"
		}
		name += seg
	}
	return name
}

// Literal returns the enumeration literal name
func (e *EnumLiteralExpr) Literal() string {
	return e.Path[len(e.Path)-1]
}

// IdentifierExpr represents a variable, an implicit feature of self, or a
// type name
type IdentifierExpr struct {
	Name string
	Loc  SourceLocation
}

func (i *IdentifierExpr) exprNode()                {}
func (i *IdentifierExpr) Kind() NodeKind           { return KindIdentifier }
func (i *IdentifierExpr) Location() SourceLocation { return i.Loc }

// SelfExpr represents the 'self' keyword
type SelfExpr struct {
	Loc SourceLocation
}

func (s *SelfExpr) exprNode()                {}
func (s *SelfExpr) Kind() NodeKind           { return KindSelf }
func (s *SelfExpr) Location() SourceLocation { return s.Loc }

// ParenExpr represents a parenthesized expression
type ParenExpr struct {
	Expr Expr
	Loc  SourceLocation
}

func (p *ParenExpr) exprNode()                {}
func (p *ParenExpr) Kind() NodeKind           { return KindParen }
func (p *ParenExpr) Location() SourceLocation { return p.Loc }

// UnaryExpr represents a unary operation (not x, -x)
type UnaryExpr struct {
	Operator string // "not", "-"
	Operand  Expr
	Loc      SourceLocation
}

func (u *UnaryExpr) exprNode()                {}
func (u *UnaryExpr) Kind() NodeKind           { return KindUnary }
func (u *UnaryExpr) Location() SourceLocation { return u.Loc }

// BinaryExpr represents arithmetic and comparison operations
type BinaryExpr struct {
	Left     Expr
	Operator string // "+", "-", "*", "/", "div", "mod", "=", "<>", "<", ">", "<=", ">="
	Right    Expr
	Loc      SourceLocation
}

func (b *BinaryExpr) exprNode()                {}
func (b *BinaryExpr) Kind() NodeKind           { return KindBinary }
func (b *BinaryExpr) Location() SourceLocation { return b.Loc }

// LogicalExpr represents the boolean connectives. Both operands are always
// evaluated.
type LogicalExpr struct {
	Left     Expr
	Operator string // "and", "or", "xor", "implies"
	Right    Expr
	Loc      SourceLocation
}

func (l *LogicalExpr) exprNode()                {}
func (l *LogicalExpr) Kind() NodeKind           { return KindLogical }
func (l *LogicalExpr) Location() SourceLocation { return l.Loc }

// LetBinding is one 'name [: Type] = value' clause of a let expression
type LetBinding struct {
	Name  string
	Type  string // optional declared type
	Value Expr
	Loc   SourceLocation
}

// LetExpr represents let bindings scoped to a body expression
type LetExpr struct {
	Bindings []LetBinding
	Body     Expr
	Loc      SourceLocation
}

func (l *LetExpr) exprNode()                {}
func (l *LetExpr) Kind() NodeKind           { return KindLet }
func (l *LetExpr) Location() SourceLocation { return l.Loc }

// IfExpr represents if-then-else-endif
type IfExpr struct {
	Condition Expr
	Then      Expr
	Else      Expr
	Loc       SourceLocation
}

func (i *IfExpr) exprNode()                {}
func (i *IfExpr) Kind() NodeKind           { return KindIf }
func (i *IfExpr) Location() SourceLocation { return i.Loc }

// CollectionLiteralExpr represents Set{...}, OrderedSet{...}, Bag{...} and
// Sequence{...}. Items may be RangeExpr.
type CollectionLiteralExpr struct {
	CollectionKind string
	Items          []Expr
	Loc            SourceLocation
}

func (c *CollectionLiteralExpr) exprNode()                {}
func (c *CollectionLiteralExpr) Kind() NodeKind           { return KindCollectionLiteral }
func (c *CollectionLiteralExpr) Location() SourceLocation { return c.Loc }

// RangeExpr represents an integer range item (1..10) inside a collection literal
type RangeExpr struct {
	Start Expr
	End   Expr
	Loc   SourceLocation
}

func (r *RangeExpr) exprNode()                {}
func (r *RangeExpr) Kind() NodeKind           { return KindRange }
func (r *RangeExpr) Location() SourceLocation { return r.Loc }

// PropertyCallExpr represents feature navigation (self.name, part.owner)
type PropertyCallExpr struct {
	Source Expr
	Name   string
	Loc    SourceLocation
}

func (p *PropertyCallExpr) exprNode()                {}
func (p *PropertyCallExpr) Kind() NodeKind           { return KindPropertyCall }
func (p *PropertyCallExpr) Location() SourceLocation { return p.Loc }

// OperationCallExpr represents a dot-call (x.oclIsKindOf(T), name.size()).
// A nil Source is an implicit call on self.
type OperationCallExpr struct {
	Source    Expr
	Name      string
	Arguments []Expr
	Loc       SourceLocation
}

func (o *OperationCallExpr) exprNode()                {}
func (o *OperationCallExpr) Kind() NodeKind           { return KindOperationCall }
func (o *OperationCallExpr) Location() SourceLocation { return o.Loc }

// ArrowCallExpr represents a collection operation (coll->size(),
// coll->union(other))
type ArrowCallExpr struct {
	Source    Expr
	Name      string
	Arguments []Expr
	Loc       SourceLocation
}

func (a *ArrowCallExpr) exprNode()                {}
func (a *ArrowCallExpr) Kind() NodeKind           { return KindArrowCall }
func (a *ArrowCallExpr) Location() SourceLocation { return a.Loc }

// IteratorVariable is the variable bound by an iterator expression
type IteratorVariable struct {
	Name string
	Type string // optional declared type
}

// IteratorExpr represents an iterator (coll->select(x | body)). With no
// variables the body is evaluated with each element as implicit receiver.
type IteratorExpr struct {
	Source    Expr
	Name      string // select, reject, collect, forAll, exists, closure, ...
	Variables []IteratorVariable
	Body      Expr
	Loc       SourceLocation
}

func (i *IteratorExpr) exprNode()                {}
func (i *IteratorExpr) Kind() NodeKind           { return KindIterator }
func (i *IteratorExpr) Location() SourceLocation { return i.Loc }
