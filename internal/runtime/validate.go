package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// ValidateInstance checks lower bounds of stored properties and association
// ends, then every verification constraint of the instance's class with
// redefinitions resolved. It returns a *ValidationFailure listing every
// failure, or nil when the instance is valid. A constraint that errors or
// evaluates to anything but true counts as failed; it never stops the pass.
func (r *Runtime) ValidateInstance(id value.ID) error {
	inst, err := r.lookup(id)
	if err != nil {
		return err
	}

	failures := &ValidationFailure{ID: id, Class: inst.class}

	for _, p := range r.properties(inst.class) {
		if p.Derived || p.Lower == 0 {
			continue
		}
		if n := count(inst.values[p.Name]); n < p.Lower {
			failures.Add(p.Name, lowerBoundMessage("property", p.Name, p.Lower, n))
		}
	}

	for _, end := range r.registry.EndsFor(inst.class) {
		if end.Far.Lower == 0 {
			continue
		}
		if n := len(inst.links[end.Far.Name]); n < end.Far.Lower {
			failures.Add(end.Far.Name, lowerBoundMessage("association end", end.Far.Name, end.Far.Lower, n))
		}
	}

	for _, bc := range r.registry.ResolvedConstraints(inst.class, schema.Verification) {
		if !bc.HasBody() {
			if _, _, ok := r.registry.ResolveNative(inst.class, bc.Owner, bc.Name); !ok {
				continue
			}
		}
		v, err := r.run(constraintBody(inst.class, bc), inst.self(), nil, nil)
		if err != nil {
			failures.Add(bc.Name, err.Error())
			continue
		}
		if ok, isBool := v.AsBool(); !isBool || !ok {
			failures.Add(bc.Name, failureMessage(bc, v))
		}
	}

	if !failures.HasFailures() {
		return nil
	}

	r.metrics.ValidationFailures(len(failures.Failures))
	r.logger.Debug("validation failed",
		zap.String("class", inst.class),
		zap.String("id", string(id)),
		zap.Strings("constraints", failures.Constraints()))
	return failures
}

func lowerBoundMessage(what, name string, lower, n int) string {
	if lower == 1 && n == 0 {
		return fmt.Sprintf("required %s %s is not set", what, name)
	}
	return fmt.Sprintf("%s %s needs at least %d value(s), has %d", what, name, lower, n)
}

func failureMessage(bc schema.BoundConstraint, v value.Value) string {
	if bc.Message != "" {
		return bc.Message
	}
	if v.IsUndefined() {
		return fmt.Sprintf("constraint %s is undefined", bc.Name)
	}
	return fmt.Sprintf("constraint %s is not satisfied", bc.Name)
}
