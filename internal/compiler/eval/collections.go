package eval

import (
	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/pkg/runtime"
)

// asCollection coerces the source of an arrow call: collections pass
// through, null becomes an empty set and any other defined value becomes a
// singleton set. Invalid stays invalid.
func asCollection(v value.Value) (value.Value, bool) {
	switch {
	case v.IsCollection():
		return v, true
	case v.IsInvalid():
		return value.Invalid, false
	case v.IsNull():
		return value.Collection(value.Set, nil), true
	default:
		return value.Collection(value.Set, []value.Value{v}), true
	}
}

// collectKind is the kind produced by collecting over source: ordered
// sources give sequences, unordered ones give bags.
func collectKind(source value.Value) value.CollectionKind {
	if source.CollectionKind().Ordered() {
		return value.Sequence
	}
	return value.Bag
}

// appendFlat appends v, or the items of v when it is a collection, skipping
// nulls
func appendFlat(out []value.Value, v value.Value) []value.Value {
	if v.IsCollection() {
		for _, item := range v.Items() {
			if !item.IsNull() {
				out = append(out, item)
			}
		}
		return out
	}
	if v.IsNull() {
		return out
	}
	return append(out, v)
}

func flatten(out []value.Value, items []value.Value) []value.Value {
	for _, item := range items {
		if item.IsCollection() {
			out = flatten(out, item.Items())
			continue
		}
		out = append(out, item)
	}
	return out
}

func contains(items []value.Value, v value.Value) bool {
	for _, item := range items {
		if value.Equal(item, v) {
			return true
		}
	}
	return false
}

func (ev *Evaluator) evalArrowCall(node *ast.ArrowCallExpr, e env) (value.Value, error) {
	raw, err := ev.eval(node.Source, e)
	if err != nil {
		return value.Invalid, err
	}
	args, err := ev.evalArgs(node.Arguments, e)
	if err != nil {
		return value.Invalid, err
	}
	source, ok := asCollection(raw)
	if !ok {
		return value.Invalid, nil
	}
	return ev.collectionOp(node, source, args)
}

// collectionOp applies a non-iterator collection operation
//
//nolint:gocyclo // one case per operation
func (ev *Evaluator) collectionOp(node *ast.ArrowCallExpr, source value.Value, args []value.Value) (value.Value, error) {
	items := source.Items()
	kind := source.CollectionKind()

	if want, ok := collectionArity[node.Name]; ok && len(args) != want {
		return value.Invalid, newError(node, "%s expects %d argument(s), got %d", node.Name, want, len(args))
	}

	switch node.Name {
	case "size":
		return value.Int(int64(len(items))), nil
	case "isEmpty":
		return value.Bool(len(items) == 0), nil
	case "notEmpty":
		return value.Bool(len(items) > 0), nil
	case "includes":
		return value.Bool(contains(items, args[0])), nil
	case "excludes":
		return value.Bool(!contains(items, args[0])), nil
	case "includesAll", "excludesAll":
		other, ok := asCollection(args[0])
		if !ok {
			return value.Invalid, nil
		}
		want := node.Name == "includesAll"
		for _, item := range other.Items() {
			if contains(items, item) != want {
				return value.False, nil
			}
		}
		return value.True, nil
	case "count":
		n := 0
		for _, item := range items {
			if value.Equal(item, args[0]) {
				n++
			}
		}
		return value.Int(int64(n)), nil
	case "including", "append":
		out := append(append([]value.Value(nil), items...), args[0])
		return value.Collection(kind, out), nil
	case "prepend":
		out := append([]value.Value{args[0]}, items...)
		return value.Collection(kind, out), nil
	case "excluding":
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			if !value.Equal(item, args[0]) {
				out = append(out, item)
			}
		}
		return value.Collection(kind, out), nil
	case "sum":
		return sum(items), nil
	case "min", "max":
		return extreme(items, node.Name == "max"), nil
	case "first":
		if len(items) == 0 {
			return value.Invalid, nil
		}
		return items[0], nil
	case "last":
		if len(items) == 0 {
			return value.Invalid, nil
		}
		return items[len(items)-1], nil
	case "at":
		i, ok := args[0].AsInt()
		if !ok || i < 1 || int(i) > len(items) {
			return value.Invalid, nil
		}
		return items[i-1], nil
	case "indexOf":
		for i, item := range items {
			if value.Equal(item, args[0]) {
				return value.Int(int64(i + 1)), nil
			}
		}
		return value.Invalid, nil
	case "asSet":
		return value.Collection(value.Set, items), nil
	case "asOrderedSet":
		return value.Collection(value.OrderedSet, items), nil
	case "asSequence":
		return value.Collection(value.Sequence, items), nil
	case "asBag":
		return value.Collection(value.Bag, items), nil
	case "flatten":
		return value.Collection(kind, flatten(nil, items)), nil
	case "reverse":
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[len(items)-1-i] = item
		}
		return value.Collection(kind, out), nil
	case "union":
		other, ok := asCollection(args[0])
		if !ok {
			return value.Invalid, nil
		}
		out := append(append([]value.Value(nil), items...), other.Items()...)
		resultKind := kind
		if kind.Unique() != other.CollectionKind().Unique() {
			resultKind = value.Bag
		}
		return value.Collection(resultKind, out), nil
	case "intersection":
		other, ok := asCollection(args[0])
		if !ok {
			return value.Invalid, nil
		}
		out := make([]value.Value, 0)
		for _, item := range items {
			if contains(other.Items(), item) {
				out = append(out, item)
			}
		}
		resultKind := kind
		if other.CollectionKind().Unique() {
			resultKind = value.Set
		}
		return value.Collection(resultKind, out), nil
	case "selectByKind", "selectByType":
		typ, ok := args[0].TypeName()
		if !ok {
			return value.Invalid, newError(node, "%s expects a type argument, got %s", node.Name, args[0])
		}
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			var match bool
			var err error
			if node.Name == "selectByKind" {
				match, err = ev.isKindOf(item, typ)
			} else {
				match, err = ev.isTypeOf(item, typ)
			}
			if err != nil {
				return value.Invalid, wrapError(node, node.Name, err)
			}
			if match {
				out = append(out, item)
			}
		}
		return value.Collection(kind, out), nil
	default:
		return value.Invalid, newError(node, "unknown collection operation '%s'", node.Name)
	}
}

var collectionArity = map[string]int{
	"size":         0,
	"isEmpty":      0,
	"notEmpty":     0,
	"includes":     1,
	"excludes":     1,
	"includesAll":  1,
	"excludesAll":  1,
	"count":        1,
	"including":    1,
	"excluding":    1,
	"append":       1,
	"prepend":      1,
	"sum":          0,
	"min":          0,
	"max":          0,
	"first":        0,
	"last":         0,
	"at":           1,
	"indexOf":      1,
	"asSet":        0,
	"asOrderedSet": 0,
	"asSequence":   0,
	"asBag":        0,
	"flatten":      0,
	"reverse":      0,
	"union":        1,
	"intersection": 1,
	"selectByKind": 1,
	"selectByType": 1,
}

func sum(items []value.Value) value.Value {
	var total int64
	var totalReal float64
	isReal := false
	for _, item := range items {
		switch {
		case item.Kind() == value.KindInt:
			i, _ := item.AsInt()
			var ok bool
			if total, ok = runtime.IntAdd(total, i); !ok {
				return value.Invalid
			}
		case item.Kind() == value.KindReal:
			r, _ := item.AsReal()
			totalReal += r
			isReal = true
		default:
			return value.Invalid
		}
	}
	if isReal {
		return value.Real(totalReal + float64(total))
	}
	return value.Int(total)
}

func extreme(items []value.Value, wantMax bool) value.Value {
	if len(items) == 0 {
		return value.Invalid
	}
	best := items[0]
	for _, item := range items[1:] {
		c, ok := compare(item, best)
		if !ok {
			return value.Invalid
		}
		if (wantMax && c > 0) || (!wantMax && c < 0) {
			best = item
		}
	}
	if _, ok := compare(best, best); !ok {
		return value.Invalid
	}
	return best
}
