// Package runtime materializes object graphs against a schema registry.
//
// A Runtime owns its instances. It creates, reads, writes, links and deletes
// them, and it routes derived-property reads, verification constraints and
// operation calls through a two-tier dispatch: a native override installed
// in the registry wins, otherwise the expression body is parsed (once, via
// the expression cache) and interpreted.
//
// A Runtime is not safe for concurrent use. Replacing descriptors of a class
// while its instances are being read must be serialized by the caller.
package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/compiler/cache"
	"github.com/conduit-lang/modelcore/internal/compiler/eval"
	"github.com/conduit-lang/modelcore/internal/logging"
	"github.com/conduit-lang/modelcore/internal/metrics"
	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
	stdlib "github.com/conduit-lang/modelcore/pkg/runtime"
)

// Options configures a Runtime. The zero value is usable.
type Options struct {
	Logger    *zap.Logger
	Metrics   *metrics.Collector
	CacheSize int
	// NewID generates instance identities; defaults to random UUIDs
	NewID func() string
}

// Runtime is the instance store plus constraint dispatch
type Runtime struct {
	registry  *schema.Registry
	instances map[value.ID]*instance
	order     []value.ID
	exprs     *cache.ASTCache
	evaluator *eval.Evaluator
	logger    *zap.Logger
	metrics   *metrics.Collector
	newID     func() string
	deriving  map[activation]bool
}

// activation identifies a derivation in progress
type activation struct {
	id       value.ID
	property string
}

var (
	_ eval.Model    = (*Runtime)(nil)
	_ schema.Reader = (*Runtime)(nil)
)

// New creates an empty runtime over registry
func New(registry *schema.Registry, opts Options) (*Runtime, error) {
	if registry == nil {
		return nil, fmt.Errorf("runtime requires a registry")
	}

	exprs, err := cache.NewASTCache(opts.CacheSize, cache.WithObserver(opts.Metrics.Parse))
	if err != nil {
		return nil, fmt.Errorf("failed to create expression cache: %w", err)
	}

	r := &Runtime{
		registry:  registry,
		instances: make(map[value.ID]*instance),
		exprs:     exprs,
		logger:    logging.OrNop(opts.Logger),
		metrics:   opts.Metrics,
		newID:     opts.NewID,
		deriving:  make(map[activation]bool),
	}
	if r.newID == nil {
		r.newID = stdlib.NewIdentity
	}
	r.evaluator = eval.New(r)
	return r, nil
}

// Registry returns the schema the runtime instantiates
func (r *Runtime) Registry() *schema.Registry {
	return r.registry
}

// Cache returns the parsed-expression cache
func (r *Runtime) Cache() *cache.ASTCache {
	return r.exprs
}

func (r *Runtime) lookup(id value.ID) (*instance, error) {
	inst, ok := r.instances[id]
	if !ok {
		return nil, &UnknownInstanceError{ID: id}
	}
	return inst, nil
}

// properties returns the properties visible on class, closest declaration
// first, one per name
func (r *Runtime) properties(class string) []schema.PropertyDescriptor {
	seen := make(map[string]bool)
	props := make([]schema.PropertyDescriptor, 0)
	for _, c := range r.registry.Linearize(class) {
		desc, ok := r.registry.GetClass(c)
		if !ok {
			continue
		}
		for _, p := range desc.Properties {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			props = append(props, p)
		}
	}
	return props
}

// CreateInstance creates an instance of class with default values for every
// stored property
func (r *Runtime) CreateInstance(class string) (value.ID, error) {
	desc, ok := r.registry.GetClass(class)
	if !ok {
		return "", &UnknownClassError{Class: class}
	}
	if desc.Abstract {
		return "", &AbstractClassError{Class: class}
	}

	id := value.ID(r.newID())
	if _, exists := r.instances[id]; exists {
		return "", fmt.Errorf("identity %s is already in use", id)
	}

	inst := newInstance(id, class)
	for _, p := range r.properties(class) {
		if p.Derived {
			continue
		}
		inst.values[p.Name] = defaultValue(p)
	}

	r.instances[id] = inst
	r.order = append(r.order, id)
	r.logger.Debug("instance created", zap.String("class", class), zap.String("id", string(id)))
	return id, nil
}

func defaultValue(p schema.PropertyDescriptor) value.Value {
	if !p.Default.IsUndefined() {
		return p.Default
	}
	if p.IsMany() {
		return value.Collection(value.Sequence, nil)
	}
	return value.Null
}

// DeleteInstance removes the instance and every link or reference to it
func (r *Runtime) DeleteInstance(id value.ID) error {
	if _, err := r.lookup(id); err != nil {
		return err
	}

	delete(r.instances, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	for _, inst := range r.instances {
		inst.forget(id)
	}

	r.logger.Debug("instance deleted", zap.String("id", string(id)))
	return nil
}

// ClassOf returns the class of an instance
func (r *Runtime) ClassOf(id value.ID) (string, error) {
	inst, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	return inst.class, nil
}

// Conforms reports whether sub is super or one of its subclasses
func (r *Runtime) Conforms(sub, super string) bool {
	return r.registry.Conforms(sub, super)
}

// Instances returns the instances conforming to class in creation order
func (r *Runtime) Instances(class string) []value.ID {
	ids := make([]value.ID, 0)
	for _, id := range r.order {
		if r.registry.Conforms(r.instances[id].class, class) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of live instances
func (r *Runtime) Len() int {
	return len(r.instances)
}

// GetProperty reads a property or association end. Derived properties are
// computed by their derivation constraint and never read from the store.
func (r *Runtime) GetProperty(id value.ID, name string) (value.Value, error) {
	inst, err := r.lookup(id)
	if err != nil {
		return value.Invalid, err
	}

	if p, _, ok := r.registry.FindProperty(inst.class, name); ok {
		if p.Derived {
			return r.derive(inst, p)
		}
		if v, ok := inst.values[p.Name]; ok {
			return v, nil
		}
		return defaultValue(p), nil
	}

	if end, ok := r.registry.FindEnd(inst.class, name); ok {
		targets := inst.links[end.Far.Name]
		if end.Far.IsMany() {
			return value.Collection(value.Sequence, refs(targets)), nil
		}
		if len(targets) == 0 {
			return value.Null, nil
		}
		return value.Ref(targets[0]), nil
	}

	return value.Invalid, &UnknownPropertyError{Class: inst.class, Property: name}
}

// SetProperty writes a stored property after checking its type and upper
// bound
func (r *Runtime) SetProperty(id value.ID, name string, v value.Value) error {
	inst, err := r.lookup(id)
	if err != nil {
		return err
	}

	p, _, ok := r.registry.FindProperty(inst.class, name)
	if !ok {
		if _, isEnd := r.registry.FindEnd(inst.class, name); isEnd {
			return fmt.Errorf("%s.%s is an association end; use Link", inst.class, name)
		}
		return &UnknownPropertyError{Class: inst.class, Property: name}
	}
	if p.Derived {
		return &ReadOnlyPropertyError{Class: inst.class, Property: name, Derived: true}
	}
	if p.ReadOnly && count(inst.values[name]) > 0 {
		return &ReadOnlyPropertyError{Class: inst.class, Property: name}
	}

	stored, err := r.coerce(inst.class, p, v)
	if err != nil {
		return err
	}
	inst.values[name] = stored
	return nil
}

// coerce checks v against the declared type and bounds of p and returns the
// value to store
func (r *Runtime) coerce(class string, p schema.PropertyDescriptor, v value.Value) (value.Value, error) {
	if v.IsInvalid() {
		return value.Invalid, &TypeMismatchError{Class: class, Feature: p.Name, Expected: p.Type, Actual: "invalid"}
	}

	if !p.IsMany() {
		if v.IsCollection() {
			return value.Invalid, &TypeMismatchError{
				Class: class, Feature: p.Name, Expected: p.Type, Actual: v.CollectionKind().String(),
			}
		}
		if !v.IsNull() && !r.conformsTo(v, p.Type) {
			return value.Invalid, &TypeMismatchError{Class: class, Feature: p.Name, Expected: p.Type, Actual: r.describe(v)}
		}
		return v, nil
	}

	if v.IsNull() {
		return value.Collection(value.Sequence, nil), nil
	}
	if !v.IsCollection() {
		v = value.Collection(value.Sequence, []value.Value{v})
	}
	if p.Upper != schema.Unbounded && len(v.Items()) > p.Upper {
		return value.Invalid, &MultiplicityViolation{Class: class, Feature: p.Name, Upper: p.Upper, Count: len(v.Items())}
	}
	for _, item := range v.Items() {
		if !r.conformsTo(item, p.Type) {
			return value.Invalid, &TypeMismatchError{Class: class, Feature: p.Name, Expected: p.Type, Actual: r.describe(item)}
		}
	}
	return v, nil
}

// conformsTo checks a single defined value against a declared type name. An
// empty type or OclAny accepts anything.
func (r *Runtime) conformsTo(v value.Value, typ string) bool {
	switch typ {
	case "", "OclAny":
		return true
	case value.TypeBoolean:
		return v.Kind() == value.KindBool
	case value.TypeInteger:
		return v.Kind() == value.KindInt
	case value.TypeReal:
		return v.IsNumeric()
	case value.TypeString:
		return v.Kind() == value.KindString
	}

	if _, ok := r.registry.Enumeration(typ); ok {
		enumType, _, isEnum := v.EnumLiteral()
		return isEnum && enumType == typ
	}
	id, ok := v.AsRef()
	if !ok {
		return false
	}
	inst, ok := r.instances[id]
	return ok && r.registry.Conforms(inst.class, typ)
}

func (r *Runtime) describe(v value.Value) string {
	if id, ok := v.AsRef(); ok {
		if inst, ok := r.instances[id]; ok {
			return inst.class
		}
	}
	return v.Kind().String()
}
