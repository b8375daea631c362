package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/compiler/eval"
	"github.com/conduit-lang/modelcore/internal/metrics"
	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// body is a constraint or operation body ready for dispatch
type body struct {
	class  string // concrete class of the receiver
	owner  string // class declaring the member
	member string
	native schema.NativeFunc
	source string
}

func constraintBody(class string, bc schema.BoundConstraint) body {
	return body{class: class, owner: bc.Owner, member: bc.Name, native: bc.Native, source: bc.Expression}
}

// run executes b for self. An override installed in the registry between
// the receiver's class and the declaring class comes first, then the
// descriptor's native body, then its expression. A body with neither yields
// null.
func (r *Runtime) run(b body, self value.Value, args []value.Value, scope *eval.Scope) (value.Value, error) {
	tier := metrics.TierNone
	result := value.Null
	var err error

	if fn, _, ok := r.registry.ResolveNative(b.class, b.owner, b.member); ok {
		tier = metrics.TierNative
		result, err = fn(r, self, args)
	} else if b.native != nil {
		tier = metrics.TierNative
		result, err = b.native(r, self, args)
	} else if b.source != "" {
		tier = metrics.TierExpression
		result, err = r.evaluate(b.source, self, scope)
	}

	r.metrics.Dispatch(tier)
	r.logger.Debug("dispatch",
		zap.String("class", b.class),
		zap.String("owner", b.owner),
		zap.String("member", b.member),
		zap.String("tier", tier))

	if err != nil {
		return value.Invalid, fmt.Errorf("%s.%s: %w", b.owner, b.member, err)
	}
	return result, nil
}

// evaluate parses source through the cache and interprets it
func (r *Runtime) evaluate(source string, self value.Value, scope *eval.Scope) (value.Value, error) {
	expr, err := r.exprs.Parse(source)
	if err != nil {
		return value.Invalid, err
	}
	return r.evaluator.Evaluate(expr, self, scope)
}

// Evaluate interprets an expression with self as receiver and the given
// variables in scope
func (r *Runtime) Evaluate(source string, self value.Value, vars map[string]value.Value) (value.Value, error) {
	scope := eval.NewScope(nil)
	for name, v := range vars {
		scope.Bind(name, v)
	}
	return r.evaluate(source, self, scope)
}

// derive computes a derived property. A derivation that needs its own value
// while being computed fails instead of recursing forever.
func (r *Runtime) derive(inst *instance, p schema.PropertyDescriptor) (value.Value, error) {
	bc, ok := r.registry.Derivation(inst.class, p.Name)
	if !ok {
		r.metrics.Dispatch(metrics.TierNone)
		return value.Null, nil
	}

	key := activation{id: inst.id, property: p.Name}
	if r.deriving[key] {
		return value.Invalid, fmt.Errorf("derivation of %s.%s depends on itself", inst.class, p.Name)
	}
	r.deriving[key] = true
	defer delete(r.deriving, key)

	return r.run(constraintBody(inst.class, bc), inst.self(), nil, nil)
}

// InvokeOperation calls the most specific definition of an operation on the
// instance's class, binding args to its parameters
func (r *Runtime) InvokeOperation(id value.ID, name string, args []value.Value) (value.Value, error) {
	inst, err := r.lookup(id)
	if err != nil {
		return value.Invalid, err
	}

	op, owner, ok := r.registry.ResolveOperation(inst.class, name)
	if !ok {
		return value.Invalid, &UndefinedOperationError{Class: inst.class, Operation: name}
	}
	if len(args) != len(op.Parameters) {
		return value.Invalid, fmt.Errorf("%s.%s expects %d argument(s), got %d",
			owner, name, len(op.Parameters), len(args))
	}

	scope := eval.NewScope(nil)
	for i, param := range op.Parameters {
		scope.Bind(param.Name, args[i])
	}

	b := body{class: inst.class, owner: owner, member: name, native: op.Native, source: op.Body}
	return r.run(b, inst.self(), args, scope)
}

// HasClass reports whether a class is registered
func (r *Runtime) HasClass(name string) bool {
	return r.registry.HasClass(name)
}

// Enumeration returns the literals of an enumeration
func (r *Runtime) Enumeration(name string) ([]string, bool) {
	return r.registry.Enumeration(name)
}

// HasFeature reports whether class has a property or a navigable end named name
func (r *Runtime) HasFeature(class, name string) bool {
	if _, _, ok := r.registry.FindProperty(class, name); ok {
		return true
	}
	_, ok := r.registry.FindEnd(class, name)
	return ok
}

// Navigate reads a feature for the expression evaluator
func (r *Runtime) Navigate(id value.ID, feature string) (value.Value, error) {
	return r.GetProperty(id, feature)
}

// HasOperation reports whether class or an ancestor declares the operation
func (r *Runtime) HasOperation(class, name string) bool {
	_, _, ok := r.registry.ResolveOperation(class, name)
	return ok
}

// Invoke calls an operation for the expression evaluator
func (r *Runtime) Invoke(id value.ID, operation string, args []value.Value) (value.Value, error) {
	return r.InvokeOperation(id, operation, args)
}

// AllInstances lists the instances of class and its subclasses
func (r *Runtime) AllInstances(class string) ([]value.ID, error) {
	if !r.registry.HasClass(class) {
		return nil, &UnknownClassError{Class: class}
	}
	return r.Instances(class), nil
}
