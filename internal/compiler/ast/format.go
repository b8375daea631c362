package ast

import (
	"strconv"
	"strings"
)

// Format renders an expression back to source text. Binary and logical
// operations are fully parenthesized so the grouping chosen by the parser is
// visible.
func Format(n Expr) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

//nolint:gocyclo // one case per node kind
func format(b *strings.Builder, n Expr) {
	switch e := n.(type) {
	case *LiteralExpr:
		b.WriteString(formatLiteral(e))
	case *EnumLiteralExpr:
		b.WriteString(strings.Join(e.Path, "::"))
	case *IdentifierExpr:
		b.WriteString(e.Name)
	case *SelfExpr:
		b.WriteString("self")
	case *ParenExpr:
		b.WriteString("(")
		format(b, e.Expr)
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString(e.Operator)
		if e.Operator == "not" {
			b.WriteString(" ")
		}
		format(b, e.Operand)
	case *BinaryExpr:
		b.WriteString("(")
		format(b, e.Left)
		b.WriteString(" " + e.Operator + " ")
		format(b, e.Right)
		b.WriteString(")")
	case *LogicalExpr:
		b.WriteString("(")
		format(b, e.Left)
		b.WriteString(" " + e.Operator + " ")
		format(b, e.Right)
		b.WriteString(")")
	case *LetExpr:
		b.WriteString("let ")
		for i, bind := range e.Bindings {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(bind.Name)
			if bind.Type != "" {
				b.WriteString(" : " + bind.Type)
			}
			b.WriteString(" = ")
			format(b, bind.Value)
		}
		b.WriteString(" in ")
		format(b, e.Body)
	case *IfExpr:
		b.WriteString("if ")
		format(b, e.Condition)
		b.WriteString(" then ")
		format(b, e.Then)
		b.WriteString(" else ")
		format(b, e.Else)
		b.WriteString(" endif")
	case *CollectionLiteralExpr:
		b.WriteString(e.CollectionKind + "{")
		formatList(b, e.Items)
		b.WriteString("}")
	case *RangeExpr:
		format(b, e.Start)
		b.WriteString("..")
		format(b, e.End)
	case *PropertyCallExpr:
		format(b, e.Source)
		b.WriteString("." + e.Name)
	case *OperationCallExpr:
		if e.Source != nil {
			format(b, e.Source)
			b.WriteString(".")
		}
		b.WriteString(e.Name + "(")
		formatList(b, e.Arguments)
		b.WriteString(")")
	case *ArrowCallExpr:
		format(b, e.Source)
		b.WriteString("->" + e.Name + "(")
		formatList(b, e.Arguments)
		b.WriteString(")")
	case *IteratorExpr:
		format(b, e.Source)
		b.WriteString("->" + e.Name + "(")
		for i, v := range e.Variables {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Name)
			if v.Type != "" {
				b.WriteString(" : " + v.Type)
			}
		}
		if len(e.Variables) > 0 {
			b.WriteString(" | ")
		}
		format(b, e.Body)
		b.WriteString(")")
	default:
		panic("ast: unhandled node " + n.Kind().String())
	}
}

func formatList(b *strings.Builder, items []Expr) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, item)
	}
}

func formatLiteral(e *LiteralExpr) string {
	switch e.LitKind {
	case LitNull:
		return "null"
	case LitInvalid:
		return "invalid"
	case LitBool:
		return strconv.FormatBool(e.Value.(bool))
	case LitInt:
		return strconv.FormatInt(e.Value.(int64), 10)
	case LitReal:
		s := strconv.FormatFloat(e.Value.(float64), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case LitString:
		return "'" + strings.ReplaceAll(e.Value.(string), "'", "\\'") + "'"
	case LitUnlimited:
		return "*"
	default:
		return "?"
	}
}

// Dump converts an expression to nested maps and slices suitable for YAML or
// JSON encoding.
func Dump(n Expr) map[string]interface{} {
	m := map[string]interface{}{
		"kind": n.Kind().String(),
		"at":   strconv.Itoa(n.Location().Line) + ":" + strconv.Itoa(n.Location().Column),
	}

	switch e := n.(type) {
	case *LiteralExpr:
		m["value"] = formatLiteral(e)
	case *EnumLiteralExpr:
		m["type"] = e.TypeName()
		m["literal"] = e.Literal()
	case *IdentifierExpr:
		m["name"] = e.Name
	case *SelfExpr:
	case *ParenExpr:
		m["expr"] = Dump(e.Expr)
	case *UnaryExpr:
		m["operator"] = e.Operator
		m["operand"] = Dump(e.Operand)
	case *BinaryExpr:
		m["operator"] = e.Operator
		m["left"] = Dump(e.Left)
		m["right"] = Dump(e.Right)
	case *LogicalExpr:
		m["operator"] = e.Operator
		m["left"] = Dump(e.Left)
		m["right"] = Dump(e.Right)
	case *LetExpr:
		bindings := make([]interface{}, len(e.Bindings))
		for i, bind := range e.Bindings {
			bm := map[string]interface{}{"name": bind.Name, "value": Dump(bind.Value)}
			if bind.Type != "" {
				bm["type"] = bind.Type
			}
			bindings[i] = bm
		}
		m["bindings"] = bindings
		m["body"] = Dump(e.Body)
	case *IfExpr:
		m["condition"] = Dump(e.Condition)
		m["then"] = Dump(e.Then)
		m["else"] = Dump(e.Else)
	case *CollectionLiteralExpr:
		m["collection"] = e.CollectionKind
		m["items"] = dumpList(e.Items)
	case *RangeExpr:
		m["start"] = Dump(e.Start)
		m["end"] = Dump(e.End)
	case *PropertyCallExpr:
		m["name"] = e.Name
		m["source"] = Dump(e.Source)
	case *OperationCallExpr:
		m["name"] = e.Name
		if e.Source != nil {
			m["source"] = Dump(e.Source)
		}
		m["arguments"] = dumpList(e.Arguments)
	case *ArrowCallExpr:
		m["name"] = e.Name
		m["source"] = Dump(e.Source)
		m["arguments"] = dumpList(e.Arguments)
	case *IteratorExpr:
		m["name"] = e.Name
		m["source"] = Dump(e.Source)
		vars := make([]interface{}, len(e.Variables))
		for i, v := range e.Variables {
			vars[i] = v.Name
		}
		m["variables"] = vars
		m["body"] = Dump(e.Body)
	default:
		panic("ast: unhandled node " + n.Kind().String())
	}
	return m
}

func dumpList(items []Expr) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = Dump(item)
	}
	return out
}
