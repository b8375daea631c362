// Package demo holds the shapes model the CLI evaluates against.
package demo

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/internal/runtime"
)

// Registry builds the shapes schema: an abstract Shape with Square and
// Circle subclasses, a Canvas that adopts every circle through the
// Placement association, and a Color enumeration. Circle.area is computed
// natively.
func Registry(logger *zap.Logger) (*schema.Registry, error) {
	reg := schema.NewRegistry(schema.WithLogger(logger))
	reg.RegisterEnumeration("Color", "red", "green", "blue")

	classes := []schema.ClassDescriptor{
		{
			Name:     "Shape",
			Abstract: true,
			Properties: []schema.PropertyDescriptor{
				{Name: "name", Type: value.TypeString, Lower: 1, Upper: 1},
				{Name: "color", Type: "Color", Upper: 1, Default: value.Enum("Color", "red")},
				{Name: "tags", Type: value.TypeString, Upper: schema.Unbounded},
				{Name: "area", Type: value.TypeReal, Upper: 1, Derived: true},
			},
			Constraints: []schema.ConstraintDescriptor{
				{Name: "area", Kind: schema.Derivation, Expression: "0"},
				{Name: "named", Kind: schema.Verification, Expression: "name <> null and name.size() > 0",
					Message: "a shape needs a name"},
				{Name: "positiveArea", Kind: schema.Verification, Expression: "area > 0"},
			},
			Operations: []schema.OperationDescriptor{
				{Name: "describe", ReturnType: value.TypeString, Body: "name.concat(' shape')"},
				{Name: "scaled", ReturnType: value.TypeReal,
					Parameters: []schema.ParameterDescriptor{{Name: "factor", Type: value.TypeReal}},
					Body:       "area * factor * factor"},
			},
		},
		{
			Name:         "Square",
			Superclasses: []string{"Shape"},
			Properties: []schema.PropertyDescriptor{
				{Name: "side", Type: value.TypeReal, Lower: 1, Upper: 1, Default: value.Real(1)},
			},
			Constraints: []schema.ConstraintDescriptor{
				{Name: "area", Kind: schema.Derivation, Expression: "side * side", Redefines: "Shape"},
				{Name: "positiveArea", Kind: schema.Verification, Expression: "side > 0", Redefines: "Shape",
					Message: "side must be positive"},
			},
		},
		{
			Name:         "Circle",
			Superclasses: []string{"Shape"},
			Properties: []schema.PropertyDescriptor{
				{Name: "radius", Type: value.TypeReal, Lower: 1, Upper: 1, Default: value.Real(1)},
			},
			Constraints: []schema.ConstraintDescriptor{
				{Name: "area", Kind: schema.Derivation, Redefines: "Shape"},
			},
		},
		{
			Name:       "Canvas",
			Properties: []schema.PropertyDescriptor{{Name: "title", Type: value.TypeString, Upper: 1}},
			Constraints: []schema.ConstraintDescriptor{
				{Name: "adoptCircles", Kind: schema.ImplicitRelationship,
					Expression: "Circle.allInstances()", Association: "Placement"},
				{Name: "crowded", Kind: schema.Verification, Expression: "shapes->size() <= 3",
					Message: "a canvas holds at most three shapes"},
			},
			Operations: []schema.OperationDescriptor{
				{Name: "totalArea", ReturnType: value.TypeReal, Body: "shapes.area->sum()"},
			},
		},
	}
	for _, c := range classes {
		if err := reg.RegisterClass(c); err != nil {
			return nil, err
		}
	}

	if err := reg.RegisterAssociation(schema.AssociationDescriptor{
		Name:   "Placement",
		Source: schema.AssociationEndDescriptor{Name: "canvas", Type: "Canvas", Upper: 1, Navigable: true},
		Target: schema.AssociationEndDescriptor{Name: "shapes", Type: "Shape", Upper: schema.Unbounded},
	}); err != nil {
		return nil, err
	}

	if err := reg.InstallNative("Circle", "area", circleArea); err != nil {
		return nil, err
	}

	if problems := reg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("demo schema is inconsistent: %v", problems)
	}
	return reg, nil
}

func circleArea(r schema.Reader, self value.Value, _ []value.Value) (value.Value, error) {
	id, ok := self.AsRef()
	if !ok {
		return value.Invalid, fmt.Errorf("circle area needs an instance, got %s", self)
	}
	radius, err := r.GetProperty(id, "radius")
	if err != nil {
		return value.Invalid, err
	}
	x, ok := radius.AsReal()
	if !ok {
		return value.Null, nil
	}
	return value.Real(math.Pi * x * x), nil
}

// Population names the instances Populate created
type Population struct {
	Canvas value.ID
	Shapes []value.ID
}

// Populate materializes a canvas with two valid shapes, a square with a
// negative side and an unnamed circle, then adopts the circles onto the
// canvas.
func Populate(rt *runtime.Runtime) (*Population, error) {
	pop := &Population{}

	canvas, err := create(rt, "Canvas", map[string]value.Value{"title": value.String("sketch")})
	if err != nil {
		return nil, err
	}
	pop.Canvas = canvas

	shapes := []struct {
		class string
		props map[string]value.Value
	}{
		{"Square", map[string]value.Value{"name": value.String("tile"), "side": value.Real(2)}},
		{"Circle", map[string]value.Value{"name": value.String("dot"), "radius": value.Real(0.5),
			"color": value.Enum("Color", "blue")}},
		{"Square", map[string]value.Value{"name": value.String("hole"), "side": value.Real(-1)}},
		{"Circle", map[string]value.Value{"radius": value.Real(3)}},
	}
	for _, s := range shapes {
		id, err := create(rt, s.class, s.props)
		if err != nil {
			return nil, err
		}
		pop.Shapes = append(pop.Shapes, id)
	}

	if err := rt.Link(canvas, pop.Shapes[0], "Placement"); err != nil {
		return nil, err
	}
	if err := rt.ApplyImplicitRelationships(canvas); err != nil {
		return nil, err
	}
	return pop, nil
}

func create(rt *runtime.Runtime, class string, props map[string]value.Value) (value.ID, error) {
	id, err := rt.CreateInstance(class)
	if err != nil {
		return "", err
	}
	for name, v := range props {
		if err := rt.SetProperty(id, name, v); err != nil {
			return "", fmt.Errorf("failed to set %s.%s: %w", class, name, err)
		}
	}
	return id, nil
}
