package eval

import (
	"fmt"
	"sort"

	"github.com/conduit-lang/modelcore/internal/model/value"
)

// unknownFeature is returned by fakeModel for a missing feature
type unknownFeature struct {
	class, name string
}

func (e *unknownFeature) Error() string {
	return fmt.Sprintf("class %s has no feature %s", e.class, e.name)
}

type fakeObject struct {
	class    string
	features map[string]value.Value
}

type fakeOp func(m *fakeModel, self value.ID, args []value.Value) (value.Value, error)

// fakeModel is an in-memory Model for evaluator tests
type fakeModel struct {
	supers  map[string][]string
	objects map[value.ID]*fakeObject
	enums   map[string][]string
	ops     map[string]map[string]fakeOp
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		supers:  make(map[string][]string),
		objects: make(map[value.ID]*fakeObject),
		enums:   make(map[string][]string),
		ops:     make(map[string]map[string]fakeOp),
	}
}

func (m *fakeModel) class(name string, supers ...string) *fakeModel {
	m.supers[name] = supers
	return m
}

func (m *fakeModel) object(id, class string, features map[string]value.Value) value.Value {
	if features == nil {
		features = make(map[string]value.Value)
	}
	m.objects[value.ID(id)] = &fakeObject{class: class, features: features}
	return value.Ref(value.ID(id))
}

func (m *fakeModel) op(class, name string, fn fakeOp) {
	if m.ops[class] == nil {
		m.ops[class] = make(map[string]fakeOp)
	}
	m.ops[class][name] = fn
}

func (m *fakeModel) ClassOf(id value.ID) (string, error) {
	obj, ok := m.objects[id]
	if !ok {
		return "", fmt.Errorf("no instance %s", id)
	}
	return obj.class, nil
}

func (m *fakeModel) Conforms(sub, super string) bool {
	if sub == super {
		return true
	}
	for _, s := range m.supers[sub] {
		if m.Conforms(s, super) {
			return true
		}
	}
	return false
}

func (m *fakeModel) HasClass(name string) bool {
	_, ok := m.supers[name]
	return ok
}

func (m *fakeModel) Enumeration(name string) ([]string, bool) {
	lits, ok := m.enums[name]
	return lits, ok
}

func (m *fakeModel) HasFeature(class, name string) bool {
	for _, obj := range m.objects {
		if obj.class == class {
			if _, ok := obj.features[name]; ok {
				return true
			}
		}
	}
	return false
}

func (m *fakeModel) Navigate(id value.ID, feature string) (value.Value, error) {
	obj, ok := m.objects[id]
	if !ok {
		return value.Invalid, fmt.Errorf("no instance %s", id)
	}
	v, ok := obj.features[feature]
	if !ok {
		return value.Invalid, &unknownFeature{class: obj.class, name: feature}
	}
	return v, nil
}

func (m *fakeModel) findOp(class, name string) (fakeOp, bool) {
	if fn, ok := m.ops[class][name]; ok {
		return fn, true
	}
	for _, s := range m.supers[class] {
		if fn, ok := m.findOp(s, name); ok {
			return fn, true
		}
	}
	return nil, false
}

func (m *fakeModel) HasOperation(class, name string) bool {
	_, ok := m.findOp(class, name)
	return ok
}

func (m *fakeModel) Invoke(id value.ID, operation string, args []value.Value) (value.Value, error) {
	class, err := m.ClassOf(id)
	if err != nil {
		return value.Invalid, err
	}
	fn, ok := m.findOp(class, operation)
	if !ok {
		return value.Invalid, fmt.Errorf("no operation %s on %s", operation, class)
	}
	return fn(m, id, args)
}

func (m *fakeModel) AllInstances(class string) ([]value.ID, error) {
	var ids []value.ID
	for id, obj := range m.objects {
		if m.Conforms(obj.class, class) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// shapesModel builds Shape with subclasses Square and Circle, one instance
// of each, and an area operation on Square
func shapesModel() *fakeModel {
	m := newFakeModel().
		class("Shape").
		class("Square", "Shape").
		class("Circle", "Shape")
	m.enums["Color"] = []string{"red", "green"}

	m.object("sq", "Square", map[string]value.Value{
		"name":   value.String("square"),
		"side":   value.Int(2),
		"parent": value.Null,
	})
	m.object("ci", "Circle", map[string]value.Value{
		"name":   value.String("circle"),
		"radius": value.Real(1.5),
	})
	m.object("sh", "Shape", map[string]value.Value{
		"name": value.String("shape"),
	})

	m.op("Square", "area", func(m *fakeModel, self value.ID, _ []value.Value) (value.Value, error) {
		side, _ := m.objects[self].features["side"].AsInt()
		return value.Int(side * side), nil
	})
	m.op("Shape", "scaled", func(m *fakeModel, self value.ID, args []value.Value) (value.Value, error) {
		f, _ := args[0].AsInt()
		return value.Int(10 * f), nil
	})
	return m
}
