package schema

import "sort"

// walkLocked visits the ancestors of class depth-first, in declaration order,
// without removing duplicates: a class reached along two paths is visited
// twice. Unregistered superclasses and inheritance cycles are skipped. The
// walk stops when fn returns false.
func (r *Registry) walkLocked(class string, fn func(name string, desc *ClassDescriptor) bool) {
	onPath := map[string]bool{class: true}
	var visit func(name string) bool
	visit = func(name string) bool {
		desc, ok := r.classes[name]
		if !ok {
			return true
		}
		for _, super := range desc.Superclasses {
			if onPath[super] {
				continue
			}
			superDesc, ok := r.classes[super]
			if !ok {
				continue
			}
			if !fn(super, superDesc) {
				return false
			}
			onPath[super] = true
			cont := visit(super)
			delete(onPath, super)
			if !cont {
				return false
			}
		}
		return true
	}
	visit(class)
}

// linearizeLocked returns class followed by its ancestors ordered by distance
// from class (breadth-first, declaration order within a level), each once.
func (r *Registry) linearizeLocked(class string) []string {
	order := []string{class}
	seen := map[string]bool{class: true}
	for i := 0; i < len(order); i++ {
		desc, ok := r.classes[order[i]]
		if !ok {
			continue
		}
		for _, super := range desc.Superclasses {
			if seen[super] {
				continue
			}
			if _, ok := r.classes[super]; !ok {
				continue
			}
			seen[super] = true
			order = append(order, super)
		}
	}
	return order
}

// Ancestors returns the names of every ancestor of class in depth-first
// inheritance order. Diamond inheritance yields repeated names.
func (r *Registry) Ancestors(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	r.walkLocked(class, func(name string, _ *ClassDescriptor) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Linearize returns class and its distinct ancestors, closest first
func (r *Registry) Linearize(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.linearizeLocked(class)
}

// AllProperties returns the properties declared on class followed by those of
// every ancestor in depth-first order. Members inherited along several paths
// appear once per path; resolving them is left to the caller.
func (r *Registry) AllProperties(class string) []PropertyDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.classes[class]
	if !ok {
		return nil
	}
	props := append([]PropertyDescriptor(nil), desc.Properties...)
	r.walkLocked(class, func(_ string, d *ClassDescriptor) bool {
		props = append(props, d.Properties...)
		return true
	})
	return props
}

// AllOperations returns the operations of class and its ancestors in
// depth-first order, duplicates included.
func (r *Registry) AllOperations(class string) []OperationDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.classes[class]
	if !ok {
		return nil
	}
	ops := append([]OperationDescriptor(nil), desc.Operations...)
	r.walkLocked(class, func(_ string, d *ClassDescriptor) bool {
		ops = append(ops, d.Operations...)
		return true
	})
	return ops
}

// AllConstraints returns the constraints of class and its ancestors in
// depth-first order, duplicates included.
func (r *Registry) AllConstraints(class string) []ConstraintDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.classes[class]
	if !ok {
		return nil
	}
	cons := append([]ConstraintDescriptor(nil), desc.Constraints...)
	r.walkLocked(class, func(_ string, d *ClassDescriptor) bool {
		cons = append(cons, d.Constraints...)
		return true
	})
	return cons
}

// Conforms reports whether sub is super or one of its transitive subclasses
func (r *Registry) Conforms(sub, super string) bool {
	if sub == super {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conformsLocked(sub, super)
}

func (r *Registry) conformsLocked(sub, super string) bool {
	for _, name := range r.linearizeLocked(sub) {
		if name == super {
			return true
		}
	}
	return false
}

// FindProperty resolves a property by name, closest declaration first. It
// also reports the class that declares it.
func (r *Registry) FindProperty(class, name string) (PropertyDescriptor, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.linearizeLocked(class) {
		desc, ok := r.classes[c]
		if !ok {
			continue
		}
		if p, ok := desc.Property(name); ok {
			return p, c, true
		}
	}
	return PropertyDescriptor{}, "", false
}

// ResolveOperation returns the most specific definition of an operation for
// class, walking from class upward.
func (r *Registry) ResolveOperation(class, name string) (OperationDescriptor, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.linearizeLocked(class) {
		desc, ok := r.classes[c]
		if !ok {
			continue
		}
		if op, ok := desc.Operation(name); ok {
			return op, c, true
		}
	}
	return OperationDescriptor{}, "", false
}

// BoundConstraint is a constraint together with the class declaring it
type BoundConstraint struct {
	Owner string
	ConstraintDescriptor
}

// ResolvedConstraints returns the constraints of the given kind that apply to
// class. A constraint reached along several inheritance paths is returned
// once, and a constraint redefined by a more specific one is dropped in
// favour of its redefinition.
func (r *Registry) ResolvedConstraints(class string, kind ConstraintKind) []BoundConstraint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order := r.linearizeLocked(class)
	redefined := make(map[memberKey]bool)
	for _, c := range order {
		desc, ok := r.classes[c]
		if !ok {
			continue
		}
		for _, cons := range desc.Constraints {
			if cons.Redefines != "" {
				redefined[memberKey{cons.Redefines, cons.Name}] = true
			}
		}
	}

	result := make([]BoundConstraint, 0)
	for _, c := range order {
		desc, ok := r.classes[c]
		if !ok {
			continue
		}
		for _, cons := range desc.Constraints {
			if cons.Kind != kind || redefined[memberKey{c, cons.Name}] {
				continue
			}
			result = append(result, BoundConstraint{Owner: c, ConstraintDescriptor: cons})
		}
	}
	return result
}

// Derivation returns the closest derivation constraint computing property
func (r *Registry) Derivation(class, property string) (BoundConstraint, bool) {
	for _, bc := range r.ResolvedConstraints(class, Derivation) {
		if bc.Target() == property {
			return bc, true
		}
	}
	return BoundConstraint{}, false
}

// ResolveNative looks up an override for member along the linearization of
// class, stopping at owner: an override installed above the declaring class
// never shadows a redefinition below it.
func (r *Registry) ResolveNative(class, owner, member string) (NativeFunc, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.linearizeLocked(class) {
		if fn, ok := r.natives[memberKey{c, member}]; ok {
			return fn, c, true
		}
		if c == owner {
			break
		}
	}
	return nil, "", false
}

// NavigableEnd is an association end reachable from some class. Near is the
// end the class plays; Far is the end being navigated to.
type NavigableEnd struct {
	Association string
	Near        AssociationEndDescriptor
	Far         AssociationEndDescriptor
	Forward     bool // navigating from source to target
}

// EndsFor returns every association end navigable from class: the target end
// of associations whose source class it conforms to, and the source end of
// associations whose target it conforms to when that end is navigable.
func (r *Registry) EndsFor(class string) []NavigableEnd {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endsForLocked(class)
}

func (r *Registry) endsForLocked(class string) []NavigableEnd {
	names := make([]string, 0, len(r.associations))
	for name := range r.associations {
		names = append(names, name)
	}
	sort.Strings(names)

	ends := make([]NavigableEnd, 0)
	for _, name := range names {
		a := r.associations[name]
		if r.conformsLocked(class, a.Source.Type) {
			ends = append(ends, NavigableEnd{Association: a.Name, Near: a.Source, Far: a.Target, Forward: true})
		}
		if a.Source.Navigable && r.conformsLocked(class, a.Target.Type) {
			ends = append(ends, NavigableEnd{Association: a.Name, Near: a.Target, Far: a.Source, Forward: false})
		}
	}
	return ends
}

// FindEnd resolves an association end name navigable from class
func (r *Registry) FindEnd(class, name string) (NavigableEnd, bool) {
	for _, end := range r.EndsFor(class) {
		if end.Far.Name == name {
			return end, true
		}
	}
	return NavigableEnd{}, false
}
