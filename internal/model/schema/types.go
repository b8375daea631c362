// Package schema provides the descriptor types of the metamodel and the
// registry that owns them.
//
// Descriptors are plain data. A class names its superclasses by string and
// they are resolved lazily, so classes may be registered in any order;
// Registry.Validate reports the names that never resolved.
package schema

import (
	"fmt"

	"github.com/conduit-lang/modelcore/internal/model/value"
)

// Unbounded is the upper bound of a multiplicity with no maximum
const Unbounded = -1

// ConstraintKind is the role a constraint plays for its class
type ConstraintKind int

const (
	// Derivation computes the value of a derived property on read
	Derivation ConstraintKind = iota
	// Verification must hold for an instance to be valid
	Verification
	// ImplicitRelationship yields the instances an instance is implicitly linked to
	ImplicitRelationship
)

// String returns the string representation of the constraint kind
func (k ConstraintKind) String() string {
	switch k {
	case Derivation:
		return "derivation"
	case Verification:
		return "verification"
	case ImplicitRelationship:
		return "implicit-relationship"
	default:
		return "unknown"
	}
}

// Reader is the read-only view of the instance runtime handed to native
// bodies. Native code may read engine state through it but must not mutate
// the graph during a validation pass.
type Reader interface {
	ClassOf(id value.ID) (string, error)
	GetProperty(id value.ID, name string) (value.Value, error)
	Conforms(sub, super string) bool
}

// NativeFunc is a precompiled constraint or operation body. For verification
// constraints the result must be a boolean; anything else counts as failure.
type NativeFunc func(r Reader, self value.Value, args []value.Value) (value.Value, error)

// PropertyDescriptor describes an attribute of a class
type PropertyDescriptor struct {
	Name     string
	Type     string // primitive type name or class name
	Lower    int
	Upper    int // Unbounded for no maximum
	Derived  bool
	ReadOnly bool
	Default  value.Value // zero value is null
}

// IsMany reports whether the property holds more than one value
func (p PropertyDescriptor) IsMany() bool {
	return p.Upper == Unbounded || p.Upper > 1
}

// Multiplicity renders the bounds as lower..upper
func (p PropertyDescriptor) Multiplicity() string {
	return formatBounds(p.Lower, p.Upper)
}

// ConstraintDescriptor describes a rule attached to a class. Exactly one of
// Native and Expression should be set; a constraint with neither always
// holds.
type ConstraintDescriptor struct {
	Name       string
	Kind       ConstraintKind
	Native     NativeFunc
	Expression string
	// Redefines names the superclass whose same-named constraint this one
	// replaces.
	Redefines string
	// Message is reported when a verification fails; defaults to a generic text.
	Message string
	// Property is the derived property computed by a derivation; defaults to Name.
	Property string
	// Association is the association used to link the results of an
	// implicit-relationship constraint.
	Association string
}

// Target returns the property a derivation computes
func (c ConstraintDescriptor) Target() string {
	if c.Property != "" {
		return c.Property
	}
	return c.Name
}

// HasBody reports whether the constraint carries a native or expression body
func (c ConstraintDescriptor) HasBody() bool {
	return c.Native != nil || c.Expression != ""
}

// ParameterDescriptor describes one operation parameter
type ParameterDescriptor struct {
	Name string
	Type string
}

// OperationDescriptor describes a callable member of a class
type OperationDescriptor struct {
	Name       string
	Parameters []ParameterDescriptor
	ReturnType string
	Native     NativeFunc
	Body       string
}

// ClassDescriptor describes a class of the metamodel
type ClassDescriptor struct {
	Name         string
	Superclasses []string
	Properties   []PropertyDescriptor
	Constraints  []ConstraintDescriptor
	Operations   []OperationDescriptor
	Abstract     bool
}

// Property looks up a property declared directly on the class
func (c *ClassDescriptor) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// Operation looks up an operation declared directly on the class
func (c *ClassDescriptor) Operation(name string) (OperationDescriptor, bool) {
	for _, op := range c.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return OperationDescriptor{}, false
}

// Constraint looks up a constraint declared directly on the class
func (c *ClassDescriptor) Constraint(name string) (ConstraintDescriptor, bool) {
	for _, cons := range c.Constraints {
		if cons.Name == name {
			return cons, true
		}
	}
	return ConstraintDescriptor{}, false
}

// AssociationEndDescriptor describes one end of a binary association
type AssociationEndDescriptor struct {
	Name        string // role name used for navigation
	Association string
	Type        string // class at this end
	Lower       int
	Upper       int
	Navigable   bool
}

// IsMany reports whether the end holds more than one instance
func (e AssociationEndDescriptor) IsMany() bool {
	return e.Upper == Unbounded || e.Upper > 1
}

// Multiplicity renders the bounds as lower..upper
func (e AssociationEndDescriptor) Multiplicity() string {
	return formatBounds(e.Lower, e.Upper)
}

// AssociationDescriptor is a binary association. Linking a source instance
// to a target instance stores the target under Target.Name on the source and,
// when Source is navigable, the source under Source.Name on the target.
type AssociationDescriptor struct {
	Name   string
	Source AssociationEndDescriptor
	Target AssociationEndDescriptor
}

func formatBounds(lower, upper int) string {
	if upper == Unbounded {
		return fmt.Sprintf("%d..*", lower)
	}
	return fmt.Sprintf("%d..%d", lower, upper)
}
