package runtime

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/modelcore/internal/model/value"
)

// UnknownClassError is returned when a class name is not registered
type UnknownClassError struct {
	Class string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown class %s", e.Class)
}

// AbstractClassError is returned when instantiating an abstract class
type AbstractClassError struct {
	Class string
}

func (e *AbstractClassError) Error() string {
	return fmt.Sprintf("class %s is abstract and cannot be instantiated", e.Class)
}

// UnknownInstanceError is returned for an identity the runtime does not hold
type UnknownInstanceError struct {
	ID value.ID
}

func (e *UnknownInstanceError) Error() string {
	return fmt.Sprintf("unknown instance %s", e.ID)
}

// UnknownPropertyError is returned when a class has neither a property nor a
// navigable association end of that name
type UnknownPropertyError struct {
	Class    string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("class %s has no property or association end %s", e.Class, e.Property)
}

// UnknownAssociationError is returned when an association is not registered
type UnknownAssociationError struct {
	Association string
}

func (e *UnknownAssociationError) Error() string {
	return fmt.Sprintf("unknown association %s", e.Association)
}

// ReadOnlyPropertyError is returned when writing a derived property, or a
// read-only property that already holds a value
type ReadOnlyPropertyError struct {
	Class    string
	Property string
	Derived  bool
}

func (e *ReadOnlyPropertyError) Error() string {
	if e.Derived {
		return fmt.Sprintf("property %s.%s is derived and cannot be written", e.Class, e.Property)
	}
	return fmt.Sprintf("property %s.%s is read-only and already set", e.Class, e.Property)
}

// MultiplicityViolation is returned when a write or link would exceed the
// upper bound of a property or association end
type MultiplicityViolation struct {
	Class   string
	Feature string
	Upper   int
	Count   int
}

func (e *MultiplicityViolation) Error() string {
	return fmt.Sprintf("%s.%s allows at most %d value(s), got %d", e.Class, e.Feature, e.Upper, e.Count)
}

// TypeMismatchError is returned when a value does not conform to the declared
// type of the feature receiving it
type TypeMismatchError struct {
	Class    string
	Feature  string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s.%s expects %s, got %s", e.Class, e.Feature, e.Expected, e.Actual)
}

// UndefinedOperationError is returned when no class in the inheritance chain
// declares the operation
type UndefinedOperationError struct {
	Class     string
	Operation string
}

func (e *UndefinedOperationError) Error() string {
	return fmt.Sprintf("class %s has no operation %s", e.Class, e.Operation)
}

// Failure is one verification that did not hold
type Failure struct {
	Constraint string
	Message    string
}

// ValidationFailure collects every failed verification of one instance
type ValidationFailure struct {
	ID       value.ID
	Class    string
	Failures []Failure
}

// Add records a failure
func (vf *ValidationFailure) Add(constraint, message string) {
	vf.Failures = append(vf.Failures, Failure{Constraint: constraint, Message: message})
}

// HasFailures returns true if any verification failed
func (vf *ValidationFailure) HasFailures() bool {
	return len(vf.Failures) > 0
}

// Constraints returns the names of the failed constraints in report order
func (vf *ValidationFailure) Constraints() []string {
	names := make([]string, len(vf.Failures))
	for i, f := range vf.Failures {
		names[i] = f.Constraint
	}
	return names
}

// Error implements the error interface
func (vf *ValidationFailure) Error() string {
	if !vf.HasFailures() {
		return fmt.Sprintf("%s %s: validation failed", vf.Class, vf.ID)
	}
	if len(vf.Failures) == 1 {
		f := vf.Failures[0]
		return fmt.Sprintf("%s %s: validation failed: %s: %s", vf.Class, vf.ID, f.Constraint, f.Message)
	}

	lines := make([]string, len(vf.Failures))
	for i, f := range vf.Failures {
		lines[i] = fmt.Sprintf("  - %s: %s", f.Constraint, f.Message)
	}
	return fmt.Sprintf("%s %s: validation failed:\n%s", vf.Class, vf.ID, strings.Join(lines, "\n"))
}
