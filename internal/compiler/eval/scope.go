package eval

import (
	"sort"

	"github.com/conduit-lang/modelcore/internal/model/value"
)

// Scope is a lexical variable environment. Bindings in a child shadow
// same-named bindings of its ancestors and are never visible to them.
type Scope struct {
	parent *Scope
	vars   map[string]value.Value
}

// NewScope creates a scope nested in parent, which may be nil
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]value.Value)}
}

// Child creates a nested scope
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// Bind defines name in this scope
func (s *Scope) Bind(name string, v value.Value) {
	s.vars[name] = v
}

// Lookup resolves name in this scope or the nearest ancestor defining it
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return value.Null, false
}

// Names returns every visible variable name, sorted
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
