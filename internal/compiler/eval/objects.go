package eval

import (
	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/pkg/runtime"
)

// Type names that are not classes
const (
	typeAny     = "OclAny"
	typeVoid    = "OclVoid"
	typeInvalid = "OclInvalid"
	typeType    = "OclType"
)

var builtinTypes = map[string]bool{
	value.TypeBoolean: true,
	value.TypeInteger: true,
	value.TypeReal:    true,
	value.TypeString:  true,
	typeAny:           true,
	typeVoid:          true,
	typeInvalid:       true,
	typeType:          true,
	"Set":             true,
	"OrderedSet":      true,
	"Bag":             true,
	"Sequence":        true,
	"Collection":      true,
}

func (ev *Evaluator) isTypeName(name string) bool {
	if builtinTypes[name] || ev.model.HasClass(name) {
		return true
	}
	_, ok := ev.model.Enumeration(name)
	return ok
}

// typeOf returns the name of the most specific type of v
func (ev *Evaluator) typeOf(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return typeVoid, nil
	case value.KindInvalid:
		return typeInvalid, nil
	case value.KindBool:
		return value.TypeBoolean, nil
	case value.KindInt:
		return value.TypeInteger, nil
	case value.KindReal:
		return value.TypeReal, nil
	case value.KindString:
		return value.TypeString, nil
	case value.KindEnum:
		typ, _, _ := v.EnumLiteral()
		return typ, nil
	case value.KindType:
		return typeType, nil
	case value.KindCollection:
		return v.CollectionKind().String(), nil
	case value.KindRef:
		id, _ := v.AsRef()
		return ev.model.ClassOf(id)
	default:
		return typeAny, nil
	}
}

// isTypeOf reports whether typ is exactly the type of v
func (ev *Evaluator) isTypeOf(v value.Value, typ string) (bool, error) {
	actual, err := ev.typeOf(v)
	if err != nil {
		return false, err
	}
	return actual == typ, nil
}

// isKindOf reports whether v conforms to typ: its own type or any
// supertype. Integers conform to Real and every defined value to OclAny.
func (ev *Evaluator) isKindOf(v value.Value, typ string) (bool, error) {
	if typ == typeAny {
		return !v.IsUndefined(), nil
	}
	switch v.Kind() {
	case value.KindInt:
		return typ == value.TypeInteger || typ == value.TypeReal, nil
	case value.KindCollection:
		return typ == "Collection" || typ == v.CollectionKind().String(), nil
	case value.KindRef:
		id, _ := v.AsRef()
		class, err := ev.model.ClassOf(id)
		if err != nil {
			return false, err
		}
		return ev.model.Conforms(class, typ), nil
	default:
		return ev.isTypeOf(v, typ)
	}
}

func (ev *Evaluator) evalOperationCall(node *ast.OperationCallExpr, e env) (value.Value, error) {
	args, err := ev.evalArgs(node.Arguments, e)
	if err != nil {
		return value.Invalid, err
	}

	var receiver value.Value
	if node.Source != nil {
		receiver, err = ev.eval(node.Source, e)
		if err != nil {
			return value.Invalid, err
		}
	} else {
		receiver = ev.implicitReceiver(node.Name, e)
	}
	return ev.callOperation(node, receiver, args)
}

// implicitReceiver picks the innermost implicit receiver declaring the
// operation, then self if it declares it. Builtin operations apply to the
// innermost implicit receiver, or to self outside iterators.
func (ev *Evaluator) implicitReceiver(name string, e env) value.Value {
	for i := len(e.receivers) - 1; i >= 0; i-- {
		if ev.hasOperation(e.receivers[i], name) {
			return e.receivers[i]
		}
	}
	if ev.hasOperation(e.self, name) || len(e.receivers) == 0 {
		return e.self
	}
	return e.receivers[len(e.receivers)-1]
}

func (ev *Evaluator) hasOperation(v value.Value, name string) bool {
	id, ok := v.AsRef()
	if !ok {
		return false
	}
	class, err := ev.model.ClassOf(id)
	return err == nil && ev.model.HasOperation(class, name)
}

//nolint:gocyclo // dispatch on operation name and receiver kind
func (ev *Evaluator) callOperation(node *ast.OperationCallExpr, receiver value.Value, args []value.Value) (value.Value, error) {
	// These observe undefined receivers instead of propagating them
	switch node.Name {
	case "oclIsUndefined":
		return value.Bool(receiver.IsUndefined()), nil
	case "oclIsInvalid":
		return value.Bool(receiver.IsInvalid()), nil
	}

	if receiver.IsInvalid() {
		return value.Invalid, nil
	}

	switch node.Name {
	case "oclIsKindOf", "oclIsTypeOf", "oclAsType":
		if len(args) != 1 {
			return value.Invalid, newError(node, "%s expects 1 argument, got %d", node.Name, len(args))
		}
		typ, ok := args[0].TypeName()
		if !ok {
			return value.Invalid, nil
		}
		var match bool
		var err error
		if node.Name == "oclIsTypeOf" {
			match, err = ev.isTypeOf(receiver, typ)
		} else {
			match, err = ev.isKindOf(receiver, typ)
		}
		if err != nil {
			return value.Invalid, wrapError(node, node.Name, err)
		}
		if node.Name != "oclAsType" {
			return value.Bool(match), nil
		}
		if match {
			return receiver, nil
		}
		return value.Invalid, nil

	case "oclType":
		typ, err := ev.typeOf(receiver)
		if err != nil {
			return value.Invalid, wrapError(node, "oclType", err)
		}
		return value.Type(typ), nil

	case "allInstances":
		class, ok := receiver.TypeName()
		if !ok {
			return value.Invalid, newError(node, "allInstances requires a class, got %s", receiver)
		}
		ids, err := ev.model.AllInstances(class)
		if err != nil {
			return value.Invalid, wrapError(node, "allInstances", err)
		}
		refs := make([]value.Value, len(ids))
		for i, id := range ids {
			refs[i] = value.Ref(id)
		}
		return value.Collection(value.Set, refs), nil
	}

	switch receiver.Kind() {
	case value.KindNull:
		return value.Invalid, nil

	case value.KindCollection:
		out := make([]value.Value, 0, len(receiver.Items()))
		for _, item := range receiver.Items() {
			if item.IsNull() {
				continue
			}
			v, err := ev.callOperation(node, item, args)
			if err != nil {
				return value.Invalid, err
			}
			out = appendFlat(out, v)
		}
		return value.Collection(collectKind(receiver), out), nil

	case value.KindRef:
		id, _ := receiver.AsRef()
		v, err := ev.model.Invoke(id, node.Name, args)
		if err != nil {
			return value.Invalid, wrapError(node, "calling '"+node.Name+"'", err)
		}
		return v, nil

	case value.KindString:
		s, _ := receiver.AsString()
		return stringOp(node, s, args)

	case value.KindInt, value.KindReal:
		return numericOp(node, receiver, args)

	default:
		return value.Invalid, newError(node, "unknown operation '%s' on %s", node.Name, receiver.Kind())
	}
}

var stringArity = map[string]int{
	"size":        0,
	"concat":      1,
	"substring":   2,
	"toUpper":     0,
	"toLower":     0,
	"toUpperCase": 0,
	"toLowerCase": 0,
	"indexOf":     1,
	"startsWith":  1,
	"endsWith":    1,
	"matches":     1,
	"isValidName": 0,
	"quoted":      0,
	"unquoted":    0,
	"toInteger":   0,
	"toReal":      0,
}

//nolint:gocyclo // one case per operation
func stringOp(node *ast.OperationCallExpr, s string, args []value.Value) (value.Value, error) {
	want, known := stringArity[node.Name]
	if !known {
		return value.Invalid, newError(node, "unknown operation '%s' on String", node.Name)
	}
	if len(args) != want {
		return value.Invalid, newError(node, "%s expects %d argument(s), got %d", node.Name, want, len(args))
	}

	switch node.Name {
	case "size":
		return value.Int(int64(runtime.StringSize(s))), nil
	case "toUpper", "toUpperCase":
		return value.String(runtime.StringToUpper(s)), nil
	case "toLower", "toLowerCase":
		return value.String(runtime.StringToLower(s)), nil
	case "isValidName":
		return value.Bool(runtime.IsValidName(s)), nil
	case "quoted":
		return value.String(runtime.Quoted(s)), nil
	case "unquoted":
		return value.String(runtime.Unquoted(s)), nil
	case "toInteger":
		if n, ok := runtime.StringToInteger(s); ok {
			return value.Int(n), nil
		}
		return value.Invalid, nil
	case "toReal":
		if f, ok := runtime.StringToReal(s); ok {
			return value.Real(f), nil
		}
		return value.Invalid, nil
	case "substring":
		lower, ok1 := args[0].AsInt()
		upper, ok2 := args[1].AsInt()
		if !ok1 || !ok2 {
			return value.Invalid, nil
		}
		if sub, ok := runtime.StringSubstring(s, int(lower), int(upper)); ok {
			return value.String(sub), nil
		}
		return value.Invalid, nil
	}

	// The remaining operations take one string argument
	other, ok := args[0].AsString()
	if !ok {
		return value.Invalid, nil
	}
	switch node.Name {
	case "concat":
		return value.String(runtime.StringConcat(s, other)), nil
	case "indexOf":
		return value.Int(int64(runtime.StringIndexOf(s, other))), nil
	case "startsWith":
		return value.Bool(runtime.StringStartsWith(s, other)), nil
	case "endsWith":
		return value.Bool(runtime.StringEndsWith(s, other)), nil
	default: // matches
		matched, err := runtime.StringMatches(s, other)
		if err != nil {
			return value.Invalid, wrapError(node, "matches", err)
		}
		return value.Bool(matched), nil
	}
}

func numericOp(node *ast.OperationCallExpr, n value.Value, args []value.Value) (value.Value, error) {
	switch node.Name {
	case "abs", "floor", "round":
		if len(args) != 0 {
			return value.Invalid, newError(node, "%s expects no arguments", node.Name)
		}
		if i, ok := n.AsInt(); ok {
			if node.Name == "abs" {
				if a, ok := runtime.IntAbs(i); ok {
					return value.Int(a), nil
				}
				return value.Invalid, nil
			}
			return n, nil
		}
		f, _ := n.AsReal()
		switch node.Name {
		case "abs":
			if f < 0 {
				f = -f
			}
			return value.Real(f), nil
		case "floor":
			return value.Int(runtime.RealFloor(f)), nil
		default:
			return value.Int(runtime.RealRound(f)), nil
		}

	case "max", "min":
		if len(args) != 1 {
			return value.Invalid, newError(node, "%s expects 1 argument, got %d", node.Name, len(args))
		}
		if args[0].IsUndefined() {
			return value.Invalid, nil
		}
		return extreme([]value.Value{n, args[0]}, node.Name == "max"), nil

	default:
		return value.Invalid, newError(node, "unknown operation '%s' on %s", node.Name, n.Kind())
	}
}
