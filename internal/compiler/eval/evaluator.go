// Package eval implements the tree-walking interpreter of the constraint
// expression language.
//
// Evaluation is read-only with respect to the object graph. Undefined values
// (null and invalid) propagate through every operator except = and <>, and
// the boolean connectives always evaluate both operands.
package eval

import (
	"math"
	"strings"

	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/pkg/runtime"
)

// Evaluator evaluates expression trees against a Model
type Evaluator struct {
	model Model
}

// New creates an evaluator bound to model
func New(model Model) *Evaluator {
	return &Evaluator{model: model}
}

// env is the evaluation context of a single node: the receiver bound to
// 'self', the lexical scope, and the implicit receivers introduced by
// iterators written without a variable (innermost last).
type env struct {
	self      value.Value
	scope     *Scope
	receivers []value.Value
}

func (e env) withScope(s *Scope) env {
	e.scope = s
	return e
}

func (e env) withReceiver(v value.Value) env {
	n := len(e.receivers)
	e.receivers = append(e.receivers[:n:n], v)
	return e
}

// Evaluate evaluates expr with self as receiver. scope may be nil.
func (ev *Evaluator) Evaluate(expr ast.Expr, self value.Value, scope *Scope) (value.Value, error) {
	if scope == nil {
		scope = NewScope(nil)
	}
	return ev.eval(expr, env{self: self, scope: scope})
}

//nolint:gocyclo // one case per node kind
func (ev *Evaluator) eval(n ast.Expr, e env) (value.Value, error) {
	switch node := n.(type) {
	case *ast.LiteralExpr:
		return literalValue(node), nil

	case *ast.EnumLiteralExpr:
		return ev.evalEnumLiteral(node)

	case *ast.IdentifierExpr:
		return ev.evalIdentifier(node, e)

	case *ast.SelfExpr:
		return e.self, nil

	case *ast.ParenExpr:
		return ev.eval(node.Expr, e)

	case *ast.UnaryExpr:
		operand, err := ev.eval(node.Operand, e)
		if err != nil {
			return value.Invalid, err
		}
		return unary(node.Operator, operand), nil

	case *ast.BinaryExpr:
		left, err := ev.eval(node.Left, e)
		if err != nil {
			return value.Invalid, err
		}
		right, err := ev.eval(node.Right, e)
		if err != nil {
			return value.Invalid, err
		}
		return binary(node.Operator, left, right), nil

	case *ast.LogicalExpr:
		left, err := ev.eval(node.Left, e)
		if err != nil {
			return value.Invalid, err
		}
		right, err := ev.eval(node.Right, e)
		if err != nil {
			return value.Invalid, err
		}
		return logical(node.Operator, left, right), nil

	case *ast.LetExpr:
		scope := e.scope.Child()
		inner := e.withScope(scope)
		for _, b := range node.Bindings {
			v, err := ev.eval(b.Value, inner)
			if err != nil {
				return value.Invalid, err
			}
			scope.Bind(b.Name, v)
		}
		return ev.eval(node.Body, inner)

	case *ast.IfExpr:
		cond, err := ev.eval(node.Condition, e)
		if err != nil {
			return value.Invalid, err
		}
		b, ok := cond.AsBool()
		if !ok {
			return value.Invalid, nil
		}
		if b {
			return ev.eval(node.Then, e)
		}
		return ev.eval(node.Else, e)

	case *ast.CollectionLiteralExpr:
		return ev.evalCollectionLiteral(node, e)

	case *ast.RangeExpr:
		return value.Invalid, newError(node, "range outside of a collection literal")

	case *ast.PropertyCallExpr:
		source, err := ev.eval(node.Source, e)
		if err != nil {
			return value.Invalid, err
		}
		return ev.navigate(node, source, node.Name)

	case *ast.OperationCallExpr:
		return ev.evalOperationCall(node, e)

	case *ast.ArrowCallExpr:
		return ev.evalArrowCall(node, e)

	case *ast.IteratorExpr:
		return ev.evalIterator(node, e)

	default:
		return value.Invalid, newError(n, "unsupported expression %s", n.Kind())
	}
}

func literalValue(node *ast.LiteralExpr) value.Value {
	switch node.LitKind {
	case ast.LitBool:
		return value.Bool(node.Value.(bool))
	case ast.LitInt:
		return value.Int(node.Value.(int64))
	case ast.LitReal:
		return value.Real(node.Value.(float64))
	case ast.LitString:
		return value.String(node.Value.(string))
	case ast.LitUnlimited:
		return value.Unlimited
	case ast.LitInvalid:
		return value.Invalid
	default:
		return value.Null
	}
}

func (ev *Evaluator) evalEnumLiteral(node *ast.EnumLiteralExpr) (value.Value, error) {
	typ := node.TypeName()
	literals, ok := ev.model.Enumeration(typ)
	if !ok {
		return value.Invalid, newError(node, "unknown enumeration %s", typ)
	}
	for _, lit := range literals {
		if lit == node.Literal() {
			return value.Enum(typ, lit), nil
		}
	}
	return value.Invalid, newError(node, "enumeration %s has no literal %s", typ, node.Literal())
}

// evalIdentifier resolves a name as a variable, then as a feature of the
// innermost implicit receiver having it, then as a feature of self, then as
// a type name.
func (ev *Evaluator) evalIdentifier(node *ast.IdentifierExpr, e env) (value.Value, error) {
	if v, ok := e.scope.Lookup(node.Name); ok {
		return v, nil
	}

	for i := len(e.receivers) - 1; i >= 0; i-- {
		if ev.hasFeature(e.receivers[i], node.Name) {
			return ev.navigate(node, e.receivers[i], node.Name)
		}
	}

	if ev.hasFeature(e.self, node.Name) {
		return ev.navigate(node, e.self, node.Name)
	}

	if ev.isTypeName(node.Name) {
		return value.Type(node.Name), nil
	}

	// Let the model report the unknown feature when there is a receiver
	if _, ok := e.self.AsRef(); ok {
		return ev.navigate(node, e.self, node.Name)
	}
	return value.Invalid, newError(node, "unknown identifier '%s'", node.Name)
}

func (ev *Evaluator) hasFeature(v value.Value, name string) bool {
	id, ok := v.AsRef()
	if !ok {
		return false
	}
	class, err := ev.model.ClassOf(id)
	if err != nil {
		return false
	}
	return ev.model.HasFeature(class, name)
}

// navigate reads a feature of source. Navigating a collection collects the
// feature over every non-null element, flattening one level.
func (ev *Evaluator) navigate(n ast.Expr, source value.Value, name string) (value.Value, error) {
	switch {
	case source.IsUndefined():
		return value.Invalid, nil

	case source.IsCollection():
		out := make([]value.Value, 0, len(source.Items()))
		for _, item := range source.Items() {
			if item.IsNull() {
				continue
			}
			v, err := ev.navigate(n, item, name)
			if err != nil {
				return value.Invalid, err
			}
			out = appendFlat(out, v)
		}
		return value.Collection(collectKind(source), out), nil
	}

	id, ok := source.AsRef()
	if !ok {
		return value.Invalid, newError(n, "cannot navigate '%s' of %s value %s", name, source.Kind(), source)
	}
	v, err := ev.model.Navigate(id, name)
	if err != nil {
		return value.Invalid, wrapError(n, "navigating '"+name+"'", err)
	}
	return v, nil
}

// maxRangeSize bounds the number of elements a single lo..hi range may
// produce; a larger range evaluates to invalid.
const maxRangeSize = 1 << 20

func (ev *Evaluator) evalCollectionLiteral(node *ast.CollectionLiteralExpr, e env) (value.Value, error) {
	kind, ok := value.ParseCollectionKind(node.CollectionKind)
	if !ok {
		return value.Invalid, newError(node, "unknown collection kind %s", node.CollectionKind)
	}

	items := make([]value.Value, 0, len(node.Items))
	for _, item := range node.Items {
		if r, isRange := item.(*ast.RangeExpr); isRange {
			lo, err := ev.eval(r.Start, e)
			if err != nil {
				return value.Invalid, err
			}
			hi, err := ev.eval(r.End, e)
			if err != nil {
				return value.Invalid, err
			}
			from, ok1 := lo.AsInt()
			to, ok2 := hi.AsInt()
			if !ok1 || !ok2 {
				return value.Invalid, nil
			}
			if from > to {
				continue
			}
			if uint64(to)-uint64(from) >= maxRangeSize {
				return value.Invalid, nil
			}
			for i := from; ; i++ {
				items = append(items, value.Int(i))
				if i == to {
					break
				}
			}
			continue
		}

		v, err := ev.eval(item, e)
		if err != nil {
			return value.Invalid, err
		}
		items = append(items, v)
	}
	return value.Collection(kind, items), nil
}

func (ev *Evaluator) evalArgs(args []ast.Expr, e env) ([]value.Value, error) {
	out := make([]value.Value, len(args))
	for i, arg := range args {
		v, err := ev.eval(arg, e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Operators

func unary(op string, v value.Value) value.Value {
	switch op {
	case "not":
		if b, ok := v.AsBool(); ok {
			return value.Bool(!b)
		}
	case "-":
		if i, ok := v.AsInt(); ok {
			if n, ok := runtime.IntNeg(i); ok {
				return value.Int(n)
			}
			return value.Invalid
		}
		if v.Kind() == value.KindReal {
			r, _ := v.AsReal()
			return value.Real(-r)
		}
	}
	return value.Invalid
}

func binary(op string, left, right value.Value) value.Value {
	switch op {
	case "=":
		return value.Bool(value.Equal(left, right))
	case "<>":
		return value.Bool(!value.Equal(left, right))
	}

	if left.IsUndefined() || right.IsUndefined() {
		return value.Invalid
	}

	switch op {
	case "<", ">", "<=", ">=":
		c, ok := compare(left, right)
		if !ok {
			return value.Invalid
		}
		switch op {
		case "<":
			return value.Bool(c < 0)
		case ">":
			return value.Bool(c > 0)
		case "<=":
			return value.Bool(c <= 0)
		default:
			return value.Bool(c >= 0)
		}
	default:
		return arithmetic(op, left, right)
	}
}

// arithmetic applies +, -, *, /, div and mod. Integer operands stay integers
// except under '/', mixed operands promote to real. A zero divisor or an
// integer result outside int64 yields invalid.
func arithmetic(op string, left, right value.Value) value.Value {
	if op == "+" {
		if ls, ok := left.AsString(); ok {
			if rs, ok := right.AsString(); ok {
				return value.String(runtime.StringConcat(ls, rs))
			}
			return value.Invalid
		}
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Invalid
	}

	li, lInt := left.AsInt()
	ri, rInt := right.AsInt()
	if lInt && rInt {
		var checked func(a, b int64) (int64, bool)
		switch op {
		case "+":
			checked = runtime.IntAdd
		case "-":
			checked = runtime.IntSub
		case "*":
			checked = runtime.IntMul
		case "div":
			checked = runtime.IntDiv
		case "mod":
			checked = runtime.IntMod
		}
		if checked != nil {
			if n, ok := checked(li, ri); ok {
				return value.Int(n)
			}
			return value.Invalid
		}
	}

	lf, _ := left.AsReal()
	rf, _ := right.AsReal()
	switch op {
	case "+":
		return value.Real(lf + rf)
	case "-":
		return value.Real(lf - rf)
	case "*":
		return value.Real(lf * rf)
	case "/":
		if rf == 0 {
			return value.Invalid
		}
		return value.Real(lf / rf)
	default:
		// div and mod on reals
		return value.Invalid
	}
}

// compare orders two numbers or two strings
func compare(left, right value.Value) (int, bool) {
	if left.IsNumeric() && right.IsNumeric() {
		lf, _ := left.AsReal()
		rf, _ := right.AsReal()
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		case lf == rf:
			return 0, true
		default:
			return 0, !math.IsNaN(lf) && !math.IsNaN(rf)
		}
	}
	ls, lok := left.AsString()
	rs, rok := right.AsString()
	if lok && rok {
		return strings.Compare(ls, rs), true
	}
	return 0, false
}

func logical(op string, left, right value.Value) value.Value {
	l, lok := left.AsBool()
	r, rok := right.AsBool()
	if !lok || !rok {
		return value.Invalid
	}
	switch op {
	case "and":
		return value.Bool(l && r)
	case "or":
		return value.Bool(l || r)
	case "xor":
		return value.Bool(l != r)
	case "implies":
		return value.Bool(!l || r)
	default:
		return value.Invalid
	}
}
