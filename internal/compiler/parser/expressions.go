package parser

import (
	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/compiler/lexer"
)

// Expression parsing with precedence climbing. From lowest to highest:
//  1. implies
//  2. xor
//  3. or
//  4. and
//  5. =, <>
//  6. <, >, <=, >=
//  7. +, -
//  8. *, /, div, mod
//  9. unary not, -
// 10. postfix . and ->
// 11. primary

// collectionKinds names the collection literal constructors
var collectionKinds = map[string]bool{
	"Set":        true,
	"OrderedSet": true,
	"Bag":        true,
	"Sequence":   true,
}

// iteratorNames are the arrow operations whose argument is a body
// evaluated per element
var iteratorNames = map[string]bool{
	"select":        true,
	"reject":        true,
	"collect":       true,
	"collectNested": true,
	"forAll":        true,
	"exists":        true,
	"any":           true,
	"one":           true,
	"isUnique":      true,
	"sortedBy":      true,
	"closure":       true,
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseImplies()
}

// parseImplies handles 'implies', left-associative
func (p *Parser) parseImplies() ast.Expr {
	expr := p.parseXor()
	for expr != nil && p.match(lexer.TOKEN_IMPLIES) {
		op := p.previous()
		right := p.parseXor()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: "implies", Right: right, Loc: loc(op)}
	}
	return expr
}

// parseXor handles 'xor', which binds looser than 'or'
func (p *Parser) parseXor() ast.Expr {
	expr := p.parseOr()
	for expr != nil && p.match(lexer.TOKEN_XOR) {
		op := p.previous()
		right := p.parseOr()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: "xor", Right: right, Loc: loc(op)}
	}
	return expr
}

// parseOr handles 'or'
func (p *Parser) parseOr() ast.Expr {
	expr := p.parseAnd()
	for expr != nil && p.match(lexer.TOKEN_OR) {
		op := p.previous()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: "or", Right: right, Loc: loc(op)}
	}
	return expr
}

// parseAnd handles 'and'
func (p *Parser) parseAnd() ast.Expr {
	expr := p.parseEquality()
	for expr != nil && p.match(lexer.TOKEN_AND) {
		op := p.previous()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{Left: expr, Operator: "and", Right: right, Loc: loc(op)}
	}
	return expr
}

// parseEquality handles = and <>
func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinaryLevel(p.parseRelational, lexer.TOKEN_EQ, lexer.TOKEN_NEQ)
}

// parseRelational handles <, >, <=, >=
func (p *Parser) parseRelational() ast.Expr {
	return p.parseBinaryLevel(p.parseAdditive, lexer.TOKEN_LT, lexer.TOKEN_GT, lexer.TOKEN_LTE, lexer.TOKEN_GTE)
}

// parseAdditive handles + and -
func (p *Parser) parseAdditive() ast.Expr {
	return p.parseBinaryLevel(p.parseMultiplicative, lexer.TOKEN_PLUS, lexer.TOKEN_MINUS)
}

// parseMultiplicative handles *, /, div and mod
func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseBinaryLevel(p.parseUnary, lexer.TOKEN_STAR, lexer.TOKEN_SLASH, lexer.TOKEN_DIV, lexer.TOKEN_MOD)
}

func (p *Parser) parseBinaryLevel(next func() ast.Expr, ops ...lexer.TokenType) ast.Expr {
	expr := next()
	for expr != nil && p.match(ops...) {
		op := p.previous()
		right := next()
		if right == nil {
			return nil
		}
		expr = &ast.BinaryExpr{Left: expr, Operator: op.Lexeme, Right: right, Loc: loc(op)}
	}
	return expr
}

// parseUnary handles 'not' and unary minus
func (p *Parser) parseUnary() ast.Expr {
	if p.match(lexer.TOKEN_NOT, lexer.TOKEN_MINUS) {
		op := p.previous()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Operator: op.Lexeme, Operand: operand, Loc: loc(op)}
	}
	return p.parsePostfix()
}

// parsePostfix handles property navigation, dot calls and arrow calls
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()

	for expr != nil {
		switch {
		case p.match(lexer.TOKEN_DOT):
			dot := p.previous()
			name, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected property or operation name after '.'")
			if !ok {
				return nil
			}
			if p.match(lexer.TOKEN_LPAREN) {
				args, ok := p.parseArguments()
				if !ok {
					return nil
				}
				expr = &ast.OperationCallExpr{Source: expr, Name: name.Lexeme, Arguments: args, Loc: loc(dot)}
			} else {
				expr = &ast.PropertyCallExpr{Source: expr, Name: name.Lexeme, Loc: loc(dot)}
			}

		case p.match(lexer.TOKEN_ARROW):
			arrow := p.previous()
			name, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected operation name after '->'")
			if !ok {
				return nil
			}
			if _, ok := p.consume(lexer.TOKEN_LPAREN, "Expected '(' after collection operation name"); !ok {
				return nil
			}
			if iteratorNames[name.Lexeme] {
				expr = p.parseIterator(expr, name.Lexeme, arrow)
			} else {
				args, ok := p.parseArguments()
				if !ok {
					return nil
				}
				expr = &ast.ArrowCallExpr{Source: expr, Name: name.Lexeme, Arguments: args, Loc: loc(arrow)}
			}

		default:
			return expr
		}
	}
	return nil
}

// parseIterator parses '[var [: T] {, var [: T]} |] body )' after the
// opening parenthesis
func (p *Parser) parseIterator(source ast.Expr, name string, arrow lexer.Token) ast.Expr {
	var vars []ast.IteratorVariable
	if p.isIteratorHeader() {
		for {
			tok := p.advance()
			v := ast.IteratorVariable{Name: tok.Lexeme}
			if p.match(lexer.TOKEN_COLON) {
				typeName, ok := p.parseTypeName()
				if !ok {
					return nil
				}
				v.Type = typeName
			}
			vars = append(vars, v)
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
		if _, ok := p.consume(lexer.TOKEN_PIPE, "Expected '|' after iterator variables"); !ok {
			return nil
		}
	}

	if p.check(lexer.TOKEN_RPAREN) {
		p.error(p.peek(), "Expected iterator body")
		return nil
	}
	body := p.parseExpression()
	if body == nil {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after iterator body"); !ok {
		return nil
	}
	return &ast.IteratorExpr{Source: source, Name: name, Variables: vars, Body: body, Loc: loc(arrow)}
}

// isIteratorHeader looks ahead for 'x |', 'x : T |' or 'x, y |' without
// consuming anything
func (p *Parser) isIteratorHeader() bool {
	i := 0
	for {
		if p.peekAt(i).Type != lexer.TOKEN_IDENTIFIER {
			return false
		}
		i++
		if p.peekAt(i).Type == lexer.TOKEN_COLON {
			i++
			depth := 0
			for {
				t := p.peekAt(i).Type
				if t == lexer.TOKEN_EOF {
					return false
				}
				if depth == 0 && (t == lexer.TOKEN_PIPE || t == lexer.TOKEN_COMMA) {
					break
				}
				if t == lexer.TOKEN_LPAREN {
					depth++
				} else if t == lexer.TOKEN_RPAREN {
					if depth == 0 {
						return false
					}
					depth--
				} else if t != lexer.TOKEN_IDENTIFIER && t != lexer.TOKEN_DOUBLE_COLON {
					return false
				}
				i++
			}
		}
		switch p.peekAt(i).Type {
		case lexer.TOKEN_PIPE:
			return true
		case lexer.TOKEN_COMMA:
			i++
		default:
			return false
		}
	}
}

// parseTypeName parses 'Name', 'A::B' or 'Set(Name)'
func (p *Parser) parseTypeName() (string, bool) {
	tok, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected type name")
	if !ok {
		return "", false
	}
	name := tok.Lexeme
	for p.match(lexer.TOKEN_DOUBLE_COLON) {
		seg, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected name after '::'")
		if !ok {
			return "", false
		}
		name += "::" + seg.Lexeme
	}
	if p.match(lexer.TOKEN_LPAREN) {
		inner, ok := p.parseTypeName()
		if !ok {
			return "", false
		}
		if _, ok := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after element type"); !ok {
			return "", false
		}
		name += "(" + inner + ")"
	}
	return name, true
}

// parseArguments parses a comma-separated argument list after '('
func (p *Parser) parseArguments() ([]ast.Expr, bool) {
	args := []ast.Expr{}
	if p.match(lexer.TOKEN_RPAREN) {
		return args, true
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after arguments"); !ok {
		return nil, false
	}
	return args, true
}

// parsePrimary parses literals, identifiers, self, parenthesized
// expressions, collection literals, let and if
//
//nolint:gocyclo // one case per primary form
func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_TRUE, lexer.TOKEN_FALSE:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitBool, Value: tok.Type == lexer.TOKEN_TRUE, Loc: loc(tok)}

	case lexer.TOKEN_NULL:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitNull, Loc: loc(tok)}

	case lexer.TOKEN_INVALID:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitInvalid, Loc: loc(tok)}

	case lexer.TOKEN_INT_LITERAL:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitInt, Value: tok.Literal, Loc: loc(tok)}

	case lexer.TOKEN_REAL_LITERAL:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitReal, Value: tok.Literal, Loc: loc(tok)}

	case lexer.TOKEN_STRING_LITERAL:
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitString, Value: tok.Literal, Loc: loc(tok)}

	case lexer.TOKEN_STAR:
		// '*' in operand position is the unlimited natural
		p.advance()
		return &ast.LiteralExpr{LitKind: ast.LitUnlimited, Loc: loc(tok)}

	case lexer.TOKEN_SELF:
		p.advance()
		return &ast.SelfExpr{Loc: loc(tok)}

	case lexer.TOKEN_LPAREN:
		p.advance()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if _, ok := p.consume(lexer.TOKEN_RPAREN, "Expected ')' after expression"); !ok {
			return nil
		}
		return &ast.ParenExpr{Expr: inner, Loc: loc(tok)}

	case lexer.TOKEN_LET:
		return p.parseLet()

	case lexer.TOKEN_IF:
		return p.parseIf()

	case lexer.TOKEN_IDENTIFIER:
		return p.parseIdentifier()

	case lexer.TOKEN_EOF:
		p.error(tok, "Unexpected end of expression")
		return nil

	default:
		p.error(tok, "Expected expression")
		return nil
	}
}

// parseIdentifier handles plain names, qualified enumeration literals,
// collection literals and implicit operation calls on self
func (p *Parser) parseIdentifier() ast.Expr {
	tok := p.advance()

	if collectionKinds[tok.Lexeme] && p.check(lexer.TOKEN_LBRACE) {
		return p.parseCollectionLiteral(tok)
	}

	if p.check(lexer.TOKEN_DOUBLE_COLON) {
		path := []string{tok.Lexeme}
		for p.match(lexer.TOKEN_DOUBLE_COLON) {
			seg, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected name after '::'")
			if !ok {
				return nil
			}
			path = append(path, seg.Lexeme)
		}
		return &ast.EnumLiteralExpr{Path: path, Loc: loc(tok)}
	}

	if p.match(lexer.TOKEN_LPAREN) {
		args, ok := p.parseArguments()
		if !ok {
			return nil
		}
		return &ast.OperationCallExpr{Name: tok.Lexeme, Arguments: args, Loc: loc(tok)}
	}

	return &ast.IdentifierExpr{Name: tok.Lexeme, Loc: loc(tok)}
}

// parseCollectionLiteral parses 'Kind{item, lo..hi, ...}'
func (p *Parser) parseCollectionLiteral(kind lexer.Token) ast.Expr {
	p.advance() // {
	items := []ast.Expr{}
	if !p.check(lexer.TOKEN_RBRACE) {
		for {
			item := p.parseExpression()
			if item == nil {
				return nil
			}
			if p.match(lexer.TOKEN_DOUBLE_DOT) {
				dots := p.previous()
				end := p.parseExpression()
				if end == nil {
					return nil
				}
				item = &ast.RangeExpr{Start: item, End: end, Loc: loc(dots)}
			}
			items = append(items, item)
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
	}
	if _, ok := p.consume(lexer.TOKEN_RBRACE, "Expected '}' after collection items"); !ok {
		return nil
	}
	return &ast.CollectionLiteralExpr{CollectionKind: kind.Lexeme, Items: items, Loc: loc(kind)}
}

// parseLet parses 'let x [: T] = v {, y = w} in body'. The body extends as
// far to the right as possible.
func (p *Parser) parseLet() ast.Expr {
	letTok := p.advance()
	var bindings []ast.LetBinding

	for {
		name, ok := p.consume(lexer.TOKEN_IDENTIFIER, "Expected variable name in let")
		if !ok {
			return nil
		}
		binding := ast.LetBinding{Name: name.Lexeme, Loc: loc(name)}
		if p.match(lexer.TOKEN_COLON) {
			typeName, ok := p.parseTypeName()
			if !ok {
				return nil
			}
			binding.Type = typeName
		}
		if _, ok := p.consume(lexer.TOKEN_EQ, "Expected '=' after let variable"); !ok {
			return nil
		}
		binding.Value = p.parseExpression()
		if binding.Value == nil {
			return nil
		}
		bindings = append(bindings, binding)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.consume(lexer.TOKEN_IN, "Expected 'in' after let bindings"); !ok {
		return nil
	}
	body := p.parseExpression()
	if body == nil {
		return nil
	}
	return &ast.LetExpr{Bindings: bindings, Body: body, Loc: loc(letTok)}
}

// parseIf parses 'if c then a else b endif'
func (p *Parser) parseIf() ast.Expr {
	ifTok := p.advance()

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_THEN, "Expected 'then' after condition"); !ok {
		return nil
	}
	thenExpr := p.parseExpression()
	if thenExpr == nil {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_ELSE, "Expected 'else' branch"); !ok {
		return nil
	}
	elseExpr := p.parseExpression()
	if elseExpr == nil {
		return nil
	}
	if _, ok := p.consume(lexer.TOKEN_ENDIF, "Expected 'endif'"); !ok {
		return nil
	}
	return &ast.IfExpr{Condition: cond, Then: thenExpr, Else: elseExpr, Loc: loc(ifTok)}
}
