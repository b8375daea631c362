package runtime

import (
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// instance is a live object. Stored property values live in values; the
// contents of association ends live in links, keyed by end name, in link
// order.
type instance struct {
	id     value.ID
	class  string
	values map[string]value.Value
	links  map[string][]value.ID
}

func newInstance(id value.ID, class string) *instance {
	return &instance{
		id:     id,
		class:  class,
		values: make(map[string]value.Value),
		links:  make(map[string][]value.ID),
	}
}

func (inst *instance) self() value.Value {
	return value.Ref(inst.id)
}

func (inst *instance) linked(end string, target value.ID) bool {
	for _, id := range inst.links[end] {
		if id == target {
			return true
		}
	}
	return false
}

func (inst *instance) unlink(end string, target value.ID) bool {
	ids := inst.links[end]
	for i, id := range ids {
		if id == target {
			inst.links[end] = append(ids[:i:i], ids[i+1:]...)
			return true
		}
	}
	return false
}

// forget drops every reference to id held by the instance: links and
// reference-typed property values alike.
func (inst *instance) forget(id value.ID) {
	for end := range inst.links {
		for inst.unlink(end, id) {
		}
	}
	for name, v := range inst.values {
		inst.values[name] = withoutRef(v, id)
	}
}

func withoutRef(v value.Value, id value.ID) value.Value {
	if ref, ok := v.AsRef(); ok {
		if ref == id {
			return value.Null
		}
		return v
	}
	if !v.IsCollection() {
		return v
	}
	kept := make([]value.Value, 0, len(v.Items()))
	for _, item := range v.Items() {
		if ref, ok := item.AsRef(); ok && ref == id {
			continue
		}
		kept = append(kept, item)
	}
	return value.Collection(v.CollectionKind(), kept)
}

func refs(ids []value.ID) []value.Value {
	out := make([]value.Value, len(ids))
	for i, id := range ids {
		out[i] = value.Ref(id)
	}
	return out
}

// count returns how many values v contributes to a multiplicity
func count(v value.Value) int {
	switch {
	case v.IsUndefined():
		return 0
	case v.IsCollection():
		return len(v.Items())
	default:
		return 1
	}
}
