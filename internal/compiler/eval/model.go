package eval

import "github.com/conduit-lang/modelcore/internal/model/value"

// Model is the object graph an expression is evaluated against. The
// instance runtime implements it; tests use an in-memory fake.
type Model interface {
	// ClassOf returns the concrete class of an instance
	ClassOf(id value.ID) (string, error)
	// Conforms reports whether sub is super or a transitive subclass of it
	Conforms(sub, super string) bool
	// HasClass reports whether name is a registered class
	HasClass(name string) bool
	// Enumeration returns the literals of a registered enumeration
	Enumeration(name string) ([]string, bool)
	// HasFeature reports whether class has a property or navigable
	// association end called name
	HasFeature(class, name string) bool
	// Navigate reads a property or association end of an instance.
	// Multi-valued features yield collections.
	Navigate(id value.ID, feature string) (value.Value, error)
	// HasOperation reports whether class declares or inherits an operation
	HasOperation(class, name string) bool
	// Invoke calls a user-defined operation on an instance
	Invoke(id value.ID, operation string, args []value.Value) (value.Value, error)
	// AllInstances returns every live instance conforming to class
	AllInstances(class string) ([]value.ID, error)
}
