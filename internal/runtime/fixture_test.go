package runtime

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelcore/internal/metrics"
	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// shapesRegistry describes Shape with subclasses Square and Circle, a Group
// holding at most two shapes, and a self-association on Node.
func shapesRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name: "Shape",
		Properties: []schema.PropertyDescriptor{
			{Name: "name", Type: value.TypeString, Lower: 1, Upper: 1},
			{Name: "tags", Type: value.TypeString, Upper: 3},
			{Name: "area", Type: value.TypeReal, Upper: 1, Derived: true},
		},
		Constraints: []schema.ConstraintDescriptor{
			{Name: "area", Kind: schema.Derivation, Expression: "0"},
			{Name: "named", Kind: schema.Verification, Expression: "name <> null and name.size() > 0",
				Message: "a shape needs a name"},
			{Name: "positive", Kind: schema.Verification, Expression: "area > 0"},
		},
		Operations: []schema.OperationDescriptor{
			{Name: "describe", Body: "name.concat(' shape')"},
			{Name: "scaled", Parameters: []schema.ParameterDescriptor{{Name: "f", Type: value.TypeReal}},
				Body: "area * f"},
		},
	}))

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name:         "Square",
		Superclasses: []string{"Shape"},
		Properties: []schema.PropertyDescriptor{
			{Name: "side", Type: value.TypeReal, Lower: 1, Upper: 1, Default: value.Real(1)},
		},
		Constraints: []schema.ConstraintDescriptor{
			{Name: "area", Kind: schema.Derivation, Expression: "side * side", Redefines: "Shape"},
			{Name: "positive", Kind: schema.Verification, Expression: "side > 0", Redefines: "Shape",
				Message: "side must be positive"},
		},
		Operations: []schema.OperationDescriptor{
			{Name: "describe", Body: "'square ' + name"},
		},
	}))

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name:         "Circle",
		Superclasses: []string{"Shape"},
		Properties: []schema.PropertyDescriptor{
			{Name: "radius", Type: value.TypeReal, Upper: 1, Default: value.Real(1)},
		},
		Constraints: []schema.ConstraintDescriptor{
			{Name: "area", Kind: schema.Derivation, Expression: "3 * radius * radius", Redefines: "Shape"},
		},
	}))

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name:       "Group",
		Properties: []schema.PropertyDescriptor{{Name: "label", Type: value.TypeString, Upper: 1}},
		Constraints: []schema.ConstraintDescriptor{
			{Name: "adoptCircles", Kind: schema.ImplicitRelationship,
				Expression: "Circle.allInstances()", Association: "Membership"},
		},
	}))
	require.NoError(t, reg.RegisterAssociation(schema.AssociationDescriptor{
		Name:   "Membership",
		Source: schema.AssociationEndDescriptor{Name: "group", Type: "Group", Upper: 1, Navigable: true},
		Target: schema.AssociationEndDescriptor{Name: "members", Type: "Shape", Upper: 2},
	}))

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{Name: "Node"}))
	require.NoError(t, reg.RegisterAssociation(schema.AssociationDescriptor{
		Name:   "Successor",
		Source: schema.AssociationEndDescriptor{Name: "prev", Type: "Node", Upper: schema.Unbounded},
		Target: schema.AssociationEndDescriptor{Name: "next", Type: "Node", Upper: 1},
	}))

	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{Name: "Abstract", Abstract: true}))
	require.Empty(t, reg.Validate())
	return reg
}

// newTestRuntime creates a runtime with predictable identities obj1, obj2, ...
// and a private metrics registry
func newTestRuntime(t *testing.T, reg *schema.Registry) (*Runtime, *prometheus.Registry) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	collector, err := metrics.New(promReg)
	require.NoError(t, err)

	n := 0
	rt, err := New(reg, Options{
		Metrics: collector,
		NewID: func() string {
			n++
			return fmt.Sprintf("obj%d", n)
		},
	})
	require.NoError(t, err)
	return rt, promReg
}

func mustCreate(t *testing.T, rt *Runtime, class string, props map[string]value.Value) value.ID {
	t.Helper()
	id, err := rt.CreateInstance(class)
	require.NoError(t, err)
	for name, v := range props {
		require.NoError(t, rt.SetProperty(id, name, v), "setting %s", name)
	}
	return id
}

func mustGet(t *testing.T, rt *Runtime, id value.ID, name string) value.Value {
	t.Helper()
	v, err := rt.GetProperty(id, name)
	require.NoError(t, err)
	return v
}
