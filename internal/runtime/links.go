package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

type endKey struct {
	id  value.ID
	end string
}

type pairKey struct {
	association    string
	source, target value.ID
}

type linkOp struct {
	assoc          *schema.AssociationDescriptor
	source, target *instance
}

// linkBatch checks a group of links against the current store plus the links
// already planned in the same batch, so the group can be applied all at once
// or not at all.
type linkBatch struct {
	r       *Runtime
	ops     []linkOp
	added   map[endKey]int
	planned map[pairKey]bool
}

func (r *Runtime) newBatch() *linkBatch {
	return &linkBatch{
		r:       r,
		added:   make(map[endKey]int),
		planned: make(map[pairKey]bool),
	}
}

// plan validates one link. Linking a pair that is already linked is a no-op.
func (b *linkBatch) plan(association string, source, target value.ID) error {
	r := b.r
	assoc, ok := r.registry.GetAssociation(association)
	if !ok {
		return &UnknownAssociationError{Association: association}
	}
	src, err := r.lookup(source)
	if err != nil {
		return err
	}
	tgt, err := r.lookup(target)
	if err != nil {
		return err
	}

	if !r.registry.Conforms(src.class, assoc.Source.Type) {
		return &TypeMismatchError{Class: assoc.Name, Feature: assoc.Source.Name, Expected: assoc.Source.Type, Actual: src.class}
	}
	if !r.registry.Conforms(tgt.class, assoc.Target.Type) {
		return &TypeMismatchError{Class: assoc.Name, Feature: assoc.Target.Name, Expected: assoc.Target.Type, Actual: tgt.class}
	}

	pair := pairKey{association: assoc.Name, source: source, target: target}
	if b.planned[pair] || src.linked(assoc.Target.Name, target) {
		return nil
	}

	forward := endKey{id: source, end: assoc.Target.Name}
	if err := b.checkUpper(src, assoc.Target, forward); err != nil {
		return err
	}
	if assoc.Source.Navigable {
		inverse := endKey{id: target, end: assoc.Source.Name}
		if err := b.checkUpper(tgt, assoc.Source, inverse); err != nil {
			return err
		}
		b.added[inverse]++
	}
	b.added[forward]++

	b.planned[pair] = true
	b.ops = append(b.ops, linkOp{assoc: assoc, source: src, target: tgt})
	return nil
}

func (b *linkBatch) checkUpper(owner *instance, end schema.AssociationEndDescriptor, key endKey) error {
	if end.Upper == schema.Unbounded {
		return nil
	}
	n := len(owner.links[end.Name]) + b.added[key] + 1
	if n > end.Upper {
		return &MultiplicityViolation{Class: owner.class, Feature: end.Name, Upper: end.Upper, Count: n}
	}
	return nil
}

func (b *linkBatch) apply() {
	for _, op := range b.ops {
		src, tgt := op.source, op.target
		src.links[op.assoc.Target.Name] = append(src.links[op.assoc.Target.Name], tgt.id)
		if op.assoc.Source.Navigable {
			tgt.links[op.assoc.Source.Name] = append(tgt.links[op.assoc.Source.Name], src.id)
		}
		b.r.logger.Debug("linked",
			zap.String("association", op.assoc.Name),
			zap.String("source", string(src.id)),
			zap.String("target", string(tgt.id)))
	}
}

// Link connects source to target through an association. The forward end and,
// when navigable, the inverse end are updated together; if either would
// exceed its upper bound nothing changes.
func (r *Runtime) Link(source, target value.ID, association string) error {
	batch := r.newBatch()
	if err := batch.plan(association, source, target); err != nil {
		return err
	}
	batch.apply()
	return nil
}

// Unlink removes a link created by Link, from both ends
func (r *Runtime) Unlink(source, target value.ID, association string) error {
	assoc, ok := r.registry.GetAssociation(association)
	if !ok {
		return &UnknownAssociationError{Association: association}
	}
	src, err := r.lookup(source)
	if err != nil {
		return err
	}
	tgt, err := r.lookup(target)
	if err != nil {
		return err
	}

	if !src.unlink(assoc.Target.Name, target) {
		return fmt.Errorf("%s is not linked to %s through %s", source, target, association)
	}
	if assoc.Source.Navigable {
		tgt.unlink(assoc.Source.Name, source)
	}
	return nil
}

// ApplyImplicitRelationships runs the implicit-relationship constraints of the
// instance's class. Each yields the instances to link to through the
// constraint's association. All links are checked before any is added.
func (r *Runtime) ApplyImplicitRelationships(id value.ID) error {
	inst, err := r.lookup(id)
	if err != nil {
		return err
	}

	batch := r.newBatch()
	for _, bc := range r.registry.ResolvedConstraints(inst.class, schema.ImplicitRelationship) {
		if bc.Association == "" {
			return fmt.Errorf("%s.%s: implicit relationship names no association", bc.Owner, bc.Name)
		}
		v, err := r.run(constraintBody(inst.class, bc), inst.self(), nil, nil)
		if err != nil {
			return err
		}
		targets, err := targetsOf(v)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", bc.Owner, bc.Name, err)
		}
		for _, target := range targets {
			if err := batch.plan(bc.Association, id, target); err != nil {
				return fmt.Errorf("%s.%s: %w", bc.Owner, bc.Name, err)
			}
		}
	}
	batch.apply()
	return nil
}

// targetsOf extracts the instances a relationship constraint yielded
func targetsOf(v value.Value) ([]value.ID, error) {
	items := []value.Value{v}
	if v.IsCollection() {
		items = v.Items()
	}

	ids := make([]value.ID, 0, len(items))
	for _, item := range items {
		if item.IsNull() {
			continue
		}
		id, ok := item.AsRef()
		if !ok {
			return nil, fmt.Errorf("expected instances, got %s", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
