package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelcore/internal/compiler/eval"
	"github.com/conduit-lang/modelcore/internal/model/schema"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

func TestInvokeOperation(t *testing.T) {
	rt, _ := newTestRuntime(t, shapesRegistry(t))
	sq := mustCreate(t, rt, "Square", map[string]value.Value{
		"name": value.String("box"),
		"side": value.Real(2),
	})
	ci := mustCreate(t, rt, "Circle", map[string]value.Value{"name": value.String("disc")})

	tests := []struct {
		name string
		id   value.ID
		op   string
		args []value.Value
		want value.Value
	}{
		{"most specific definition", sq, "describe", nil, value.String("square box")},
		{"inherited definition", ci, "describe", nil, value.String("disc shape")},
		{"parameters are bound", sq, "scaled", []value.Value{value.Int(3)}, value.Real(12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := rt.InvokeOperation(tt.id, tt.op, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("undefined operation", func(t *testing.T) {
		_, err := rt.InvokeOperation(sq, "rotate", nil)
		var undefined *UndefinedOperationError
		require.True(t, errors.As(err, &undefined))
		assert.Equal(t, "Square", undefined.Class)
	})

	t.Run("arity", func(t *testing.T) {
		_, err := rt.InvokeOperation(sq, "scaled", nil)
		assert.ErrorContains(t, err, "expects 1 argument")
	})

	t.Run("from expressions", func(t *testing.T) {
		v, err := rt.Evaluate("self.scaled(2) + describe().size()", value.Ref(sq), nil)
		require.NoError(t, err)
		assert.Equal(t, value.Real(18), v)

		v, err = rt.Evaluate("Shape.allInstances()->collect(s | s.describe())", value.Null, nil)
		require.NoError(t, err)
		assert.Equal(t, []value.Value{value.String("square box"), value.String("disc shape")}, v.Items())
	})

	t.Run("undefined operation from expressions", func(t *testing.T) {
		_, err := rt.Evaluate("self.rotate()", value.Ref(sq), nil)
		var evalErr *eval.EvalError
		require.True(t, errors.As(err, &evalErr))
		var undefined *UndefinedOperationError
		assert.True(t, errors.As(err, &undefined))
	})
}

func TestNativeOperation(t *testing.T) {
	reg := shapesRegistry(t)
	rt, _ := newTestRuntime(t, reg)
	sq := mustCreate(t, rt, "Square", map[string]value.Value{"name": value.String("box")})
	ci := mustCreate(t, rt, "Circle", map[string]value.Value{"name": value.String("disc")})

	require.NoError(t, reg.InstallNative("Shape", "describe", func(r schema.Reader, self value.Value, _ []value.Value) (value.Value, error) {
		id, _ := self.AsRef()
		class, err := r.ClassOf(id)
		if err != nil {
			return value.Invalid, err
		}
		return value.String("native " + class), nil
	}))

	v, err := rt.InvokeOperation(ci, "describe", nil)
	require.NoError(t, err)
	assert.Equal(t, value.String("native Circle"), v, "override reaches the inheriting class")

	v, err = rt.InvokeOperation(sq, "describe", nil)
	require.NoError(t, err)
	assert.Equal(t, value.String("square box"), v, "Square's own definition is closer")
}

func TestOperationDescriptorNative(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name: "Counter",
		Operations: []schema.OperationDescriptor{{
			Name:       "add",
			Parameters: []schema.ParameterDescriptor{{Name: "a"}, {Name: "b"}},
			Native: func(_ schema.Reader, _ value.Value, args []value.Value) (value.Value, error) {
				a, _ := args[0].AsInt()
				b, _ := args[1].AsInt()
				return value.Int(a + b), nil
			},
		}, {
			Name: "noop",
		}},
	}))
	rt, _ := newTestRuntime(t, reg)
	id := mustCreate(t, rt, "Counter", nil)

	v, err := rt.InvokeOperation(id, "add", []value.Value{value.Int(2), value.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), v)

	v, err = rt.InvokeOperation(id, "noop", nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull(), "no body yields null")
}

func TestRecursiveOperation(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterClass(schema.ClassDescriptor{
		Name: "Math",
		Operations: []schema.OperationDescriptor{{
			Name:       "fact",
			Parameters: []schema.ParameterDescriptor{{Name: "n", Type: value.TypeInteger}},
			Body:       "if n <= 1 then 1 else n * fact(n - 1) endif",
		}},
	}))
	rt, _ := newTestRuntime(t, reg)
	id := mustCreate(t, rt, "Math", nil)

	v, err := rt.InvokeOperation(id, "fact", []value.Value{value.Int(5)})
	require.NoError(t, err)
	assert.Equal(t, value.Int(120), v)

	stats := rt.Cache().Stats()
	assert.Equal(t, 1, stats.Size, "the body is parsed once")
	assert.Equal(t, uint64(4), stats.Hits)
}
