package eval

import (
	"sort"

	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// bodyAt evaluates the iterator body for one element. Without a declared
// variable the element becomes the implicit receiver.
func (ev *Evaluator) bodyAt(it *ast.IteratorExpr, e env, elem value.Value) (value.Value, error) {
	if len(it.Variables) == 0 {
		return ev.eval(it.Body, e.withReceiver(elem))
	}
	scope := e.scope.Child()
	scope.Bind(it.Variables[0].Name, elem)
	return ev.eval(it.Body, e.withScope(scope))
}

//nolint:gocyclo // one case per iterator
func (ev *Evaluator) evalIterator(it *ast.IteratorExpr, e env) (value.Value, error) {
	raw, err := ev.eval(it.Source, e)
	if err != nil {
		return value.Invalid, err
	}
	source, ok := asCollection(raw)
	if !ok {
		return value.Invalid, nil
	}
	items := source.Items()

	if len(it.Variables) > 1 && it.Name != "forAll" && it.Name != "exists" {
		return value.Invalid, newError(it, "%s accepts a single iterator variable", it.Name)
	}

	switch it.Name {
	case "select", "reject":
		keep := it.Name == "select"
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			b, ok := v.AsBool()
			if !ok {
				return value.Invalid, nil
			}
			if b == keep {
				out = append(out, item)
			}
		}
		return value.Collection(source.CollectionKind(), out), nil

	case "collect", "collectNested":
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			if it.Name == "collect" {
				out = appendFlat(out, v)
			} else {
				out = append(out, v)
			}
		}
		return value.Collection(collectKind(source), out), nil

	case "forAll", "exists":
		return ev.quantify(it, e, items)

	case "any":
		for _, item := range items {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			if b, ok := v.AsBool(); ok && b {
				return item, nil
			}
		}
		return value.Null, nil

	case "one":
		matches := 0
		for _, item := range items {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			b, ok := v.AsBool()
			if !ok {
				return value.Invalid, nil
			}
			if b {
				matches++
			}
		}
		return value.Bool(matches == 1), nil

	case "isUnique":
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			if seen[v.Key()] {
				return value.False, nil
			}
			seen[v.Key()] = true
		}
		return value.True, nil

	case "sortedBy":
		return ev.sortedBy(it, e, source)

	case "closure":
		return ev.closure(it, e, source)

	default:
		return value.Invalid, newError(it, "unknown iterator '%s'", it.Name)
	}
}

// quantify evaluates forAll and exists over every combination of the
// declared variables. A body that is neither true nor false makes the
// result invalid unless another element already decides it.
func (ev *Evaluator) quantify(it *ast.IteratorExpr, e env, items []value.Value) (value.Value, error) {
	universal := it.Name == "forAll"
	undefined := false
	decided := false

	var visit func(depth int, scope *Scope) error
	visit = func(depth int, scope *Scope) error {
		for _, item := range items {
			if decided {
				return nil
			}
			var v value.Value
			var err error
			switch {
			case len(it.Variables) == 0:
				v, err = ev.eval(it.Body, e.withReceiver(item))
			case depth < len(it.Variables)-1:
				child := scope.Child()
				child.Bind(it.Variables[depth].Name, item)
				if err := visit(depth+1, child); err != nil {
					return err
				}
				continue
			default:
				child := scope.Child()
				child.Bind(it.Variables[depth].Name, item)
				v, err = ev.eval(it.Body, e.withScope(child))
			}
			if err != nil {
				return err
			}
			b, ok := v.AsBool()
			switch {
			case !ok:
				undefined = true
			case universal && !b, !universal && b:
				decided = true
			}
		}
		return nil
	}

	if err := visit(0, e.scope); err != nil {
		return value.Invalid, err
	}
	if decided {
		return value.Bool(!universal), nil
	}
	if undefined {
		return value.Invalid, nil
	}
	return value.Bool(universal), nil
}

func (ev *Evaluator) sortedBy(it *ast.IteratorExpr, e env, source value.Value) (value.Value, error) {
	items := source.Items()
	keys := make([]value.Value, len(items))
	for i, item := range items {
		v, err := ev.bodyAt(it, e, item)
		if err != nil {
			return value.Invalid, err
		}
		keys[i] = v
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sortable := true
	sort.SliceStable(order, func(a, b int) bool {
		c, ok := compare(keys[order[a]], keys[order[b]])
		if !ok {
			sortable = false
			return false
		}
		return c < 0
	})
	if !sortable {
		return value.Invalid, nil
	}

	out := make([]value.Value, len(items))
	for i, idx := range order {
		out[i] = items[idx]
	}
	kind := value.Sequence
	if source.CollectionKind().Unique() {
		kind = value.OrderedSet
	}
	return value.Collection(kind, out), nil
}

// closure expands the source to a fixed point: the body is applied to every
// newly reached element until no new element appears. Elements are
// identified by Key, so cyclic graphs terminate. The source elements are
// part of the result.
func (ev *Evaluator) closure(it *ast.IteratorExpr, e env, source value.Value) (value.Value, error) {
	visited := make(map[string]bool)
	var result, frontier []value.Value
	for _, item := range source.Items() {
		if item.IsUndefined() || visited[item.Key()] {
			continue
		}
		visited[item.Key()] = true
		result = append(result, item)
		frontier = append(frontier, item)
	}

	for len(frontier) > 0 {
		var next []value.Value
		for _, item := range frontier {
			v, err := ev.bodyAt(it, e, item)
			if err != nil {
				return value.Invalid, err
			}
			for _, reached := range appendFlat(nil, v) {
				if reached.IsInvalid() || visited[reached.Key()] {
					continue
				}
				visited[reached.Key()] = true
				result = append(result, reached)
				next = append(next, reached)
			}
		}
		frontier = next
	}

	kind := value.Set
	if source.CollectionKind().Ordered() {
		kind = value.OrderedSet
	}
	return value.Collection(kind, result), nil
}
