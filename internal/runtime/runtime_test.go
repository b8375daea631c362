package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestCreateInstance(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))

	t.Run("defaults for stored properties", func(t *testing.T) {
		id, err := rt.CreateInstance("Square")
		require.NoError(t, err)

		class, err := rt.ClassOf(id)
		require.NoError(t, err)
		assert.Equal(t, "Square", class)

		assert.True(t, mustGet(t, rt, id, "name").IsNull())
		assert.Equal(t, value.Real(1), mustGet(t, rt, id, "side"))

		tags := mustGet(t, rt, id, "tags")
		require.True(t, tags.IsCollection())
		assert.Empty(t, tags.Items())
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := rt.CreateInstance("Hexagon")
		var unknown *UnknownClassError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "Hexagon", unknown.Class)
	})

	t.Run("abstract class", func(t *testing.T) {
		_, err := rt.CreateInstance("Abstract")
		var abstract *AbstractClassError
		assert.True(t, errors.As(err, &abstract))
	})

	t.Run("identities are fresh", func(t *testing.T) {
		a, err := rt.CreateInstance("Node")
		require.NoError(t, err)
		b, err := rt.CreateInstance("Node")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestCreateInstanceRandomIdentity(t *testing.T) {
	rt, err := New(shapesRegistry(t), Options{})
	require.NoError(t, err)

	id, err := rt.CreateInstance("Node")
	require.NoError(t, err)
	assert.Len(t, string(id), 36, "uuid")
}

func TestSetProperty(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))
	sq := mustCreate(t, rt, "Square", nil)

	require.NoError(t, rt.SetProperty(sq, "name", value.String("box")))
	assert.Equal(t, value.String("box"), mustGet(t, rt, sq, "name"))

	require.NoError(t, rt.SetProperty(sq, "side", value.Int(3)), "integers conform to Real")
	require.NoError(t, rt.SetProperty(sq, "name", value.Null))

	tests := []struct {
		name    string
		feature string
		v       value.Value
		check   func(t *testing.T, err error)
	}{
		{"derived", "area", value.Real(4), func(t *testing.T, err error) {
			var ro *ReadOnlyPropertyError
			require.True(t, errors.As(err, &ro))
			assert.True(t, ro.Derived)
		}},
		{"wrong primitive", "name", value.Int(1), func(t *testing.T, err error) {
			var mismatch *TypeMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, value.TypeString, mismatch.Expected)
		}},
		{"collection into single", "name", value.Collection(value.Set, nil), func(t *testing.T, err error) {
			var mismatch *TypeMismatchError
			assert.True(t, errors.As(err, &mismatch))
		}},
		{"invalid", "side", value.Invalid, func(t *testing.T, err error) {
			var mismatch *TypeMismatchError
			assert.True(t, errors.As(err, &mismatch))
		}},
		{"too many", "tags", value.Collection(value.Sequence, []value.Value{
			value.String("a"), value.String("b"), value.String("c"), value.String("d"),
		}), func(t *testing.T, err error) {
			var violation *MultiplicityViolation
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, 3, violation.Upper)
			assert.Equal(t, 4, violation.Count)
		}},
		{"unknown", "colour", value.String("red"), func(t *testing.T, err error) {
			var unknown *UnknownPropertyError
			assert.True(t, errors.As(err, &unknown))
		}},
		{"association end", "group", value.Null, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "use Link")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rt.SetProperty(sq, tt.feature, tt.v)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	t.Run("single value into multi-valued property", func(t *testing.T) {
		require.NoError(t, rt.SetProperty(sq, "tags", value.String("red")))
		tags := mustGet(t, rt, sq, "tags")
		assert.Len(t, tags.Items(), 1)
	})
}

func TestReadOnlyProperty(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name:       "Part",
		Properties: []schema.PropertyDescriptor{{Name: "serial", Type: value.TypeString, Upper: 1, ReadOnly: true}},
	}))
	rt, _ := newTestRuntime(t, reg)
	id := mustCreate(t, rt, "Part", nil)

	require.NoError(t, rt.SetProperty(id, "serial", value.String("A-1")), "unset read-only accepts one write")

	err := rt.SetProperty(id, "serial", value.String("B-2"))
	var ro *ReadOnlyPropertyError
	require.True(t, errors.As(err, &ro))
	assert.False(t, ro.Derived)
	assert.Equal(t, value.String("A-1"), mustGet(t, rt, id, "serial"))
}

func TestPropertyReferenceTypes(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{Name: "Engine"}))
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{Name: "Turbo", Superclasses: []string{"Engine"}}))
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name: "Car",
		Properties: []schema.PropertyDescriptor{
			{Name: "engine", Type: "Engine", Upper: 1},
			{Name: "gear", Type: "Gear", Upper: 1},
		},
	}))
	reg.RegisterEnumeration("Gear", "park", "drive")
	rt, _ := newTestRuntime(t, reg)

	car := mustCreate(t, rt, "Car", nil)
	turbo := mustCreate(t, rt, "Turbo", nil)
	other := mustCreate(t, rt, "Car", nil)

	require.NoError(t, rt.SetProperty(car, "engine", value.Ref(turbo)), "subclass conforms")
	require.NoError(t, rt.SetProperty(car, "gear", value.Enum("Gear", "drive")))

	assert.Error(t, rt.SetProperty(car, "engine", value.Ref(other)))
	assert.Error(t, rt.SetProperty(car, "engine", value.Ref("ghost")))
	assert.Error(t, rt.SetProperty(car, "gear", value.String("drive")))

	v, err := rt.Evaluate("self.engine.oclIsKindOf(Engine) and self.gear = Gear::drive", value.Ref(car), nil)
	require.NoError(t, err)
	assert.Equal(t, value.True, v)

	// Deleting the engine clears the reference
	require.NoError(t, rt.DeleteInstance(turbo))
	assert.True(t, mustGet(t, rt, car, "engine").IsNull())
}

func TestGetPropertyErrors(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))
	sq := mustCreate(t, rt, "Square", nil)

	_, err := rt.GetProperty(sq, "colour")
	var unknown *UnknownPropertyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Square", unknown.Class)

	_, err = rt.GetProperty("ghost", "name")
	var missing *UnknownInstanceError
	assert.True(t, errors.As(err, &missing))
}

func TestDerivedProperties(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))

	sq := mustCreate(t, rt, "Square", map[string]value.Value{"side": value.Real(3)})
	ci := mustCreate(t, rt, "Circle", map[string]value.Value{"radius": value.Real(2)})
	sh := mustCreate(t, rt, "Shape", nil)

	assert.Equal(t, value.Real(9), mustGet(t, rt, sq, "area"), "redefined derivation")
	assert.Equal(t, value.Real(12), mustGet(t, rt, ci, "area"))
	assert.Equal(t, value.Int(0), mustGet(t, rt, sh, "area"), "inherited derivation")

	// Derived values follow the stored state
	require.NoError(t, rt.SetProperty(sq, "side", value.Real(4)))
	assert.Equal(t, value.Real(16), mustGet(t, rt, sq, "area"))
}

func TestDerivationWithoutBody(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name:       "Part",
		Properties: []schema.PropertyDescriptor{{Name: "weight", Type: value.TypeReal, Upper: 1, Derived: true}},
	}))
	rt, _ := newTestRuntime(t, reg)
	id := mustCreate(t, rt, "Part", nil)

	assert.True(t, mustGet(t, rt, id, "weight").IsNull())
}

func TestCyclicDerivation(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name: "Loop",
		Properties: []schema.PropertyDescriptor{
			{Name: "a", Type: value.TypeInteger, Upper: 1, Derived: true},
			{Name: "b", Type: value.TypeInteger, Upper: 1, Derived: true},
		},
		Constraints: []schema.ConstraintDescriptor{
			{Name: "a", Kind: schema.Derivation, Expression: "b + 1"},
			{Name: "b", Kind: schema.Derivation, Expression: "a + 1"},
		},
	}))
	rt, _ := newTestRuntime(t, reg)
	id := mustCreate(t, rt, "Loop", nil)

	_, err := rt.GetProperty(id, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depends on itself")

	// The failed read leaves nothing behind
	assert.Empty(t, rt.deriving)
}

func TestNativeOverrides(t *testing.T) {
	reg := shapesRegistry(t)
	rt, promReg := newTestRuntime(t, reg)

	sq := mustCreate(t, rt, "Square", map[string]value.Value{"side": value.Real(2)})
	ci := mustCreate(t, rt, "Circle", map[string]value.Value{"radius": value.Real(1)})
	sh := mustCreate(t, rt, "Shape", nil)

	require.NoError(t, reg.InstallNative("Circle", "area", func(r schema.Reader, self value.Value, _ []value.Value) (value.Value, error) {
		id, _ := self.AsRef()
		radius, err := r.GetProperty(id, "radius")
		if err != nil {
			return value.Invalid, err
		}
		rr, _ := radius.AsReal()
		return value.Real(100 * rr), nil
	}))

	assert.Equal(t, value.Real(100), mustGet(t, rt, ci, "area"))

	expected := `
# HELP modelcore_dispatch_total Constraint and operation bodies executed, by tier.
# TYPE modelcore_dispatch_total counter
modelcore_dispatch_total{tier="native"} 1
`
	require.NoError(t, testutil.GatherAndCompare(promReg, strings.NewReader(expected), "modelcore_dispatch_total"))

	// An override on Shape reaches Shape itself but not the redefinition on Square
	require.NoError(t, reg.InstallNative("Shape", "area", func(schema.Reader, value.Value, []value.Value) (value.Value, error) {
		return value.Real(-1), nil
	}))
	assert.Equal(t, value.Real(-1), mustGet(t, rt, sh, "area"))
	assert.Equal(t, value.Real(4), mustGet(t, rt, sq, "area"))

	// Removing the override restores the expression
	reg.RemoveNative("Circle", "area")
	assert.Equal(t, value.Real(3), mustGet(t, rt, ci, "area"))
}

func TestNativeErrorsPropagate(t *testing.T) {
	reg := shapesRegistry(t)
	rt, _ := newTestRuntime(t, reg)
	ci := mustCreate(t, rt, "Circle", nil)

	boom := errors.New("boom")
	require.NoError(t, reg.InstallNative("Circle", "area", func(schema.Reader, value.Value, []value.Value) (value.Value, error) {
		return value.Invalid, boom
	}))

	_, err := rt.GetProperty(ci, "area")
	assert.ErrorIs(t, err, boom)
}

func TestInstancesAndDelete(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))
	sq := mustCreate(t, rt, "Square", nil)
	ci := mustCreate(t, rt, "Circle", nil)
	node := mustCreate(t, rt, "Node", nil)

	assert.Equal(t, []value.ID{sq, ci}, rt.Instances("Shape"))
	assert.Equal(t, []value.ID{node}, rt.Instances("Node"))
	assert.Equal(t, 3, rt.Len())

	require.NoError(t, rt.DeleteInstance(sq))
	assert.Equal(t, []value.ID{ci}, rt.Instances("Shape"))

	var missing *UnknownInstanceError
	assert.True(t, errors.As(rt.DeleteInstance(sq), &missing))

	_, err := rt.AllInstances("Hexagon")
	var unknown *UnknownClassError
	assert.True(t, errors.As(err, &unknown))
}
