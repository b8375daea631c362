package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelcore/internal/model/value"
)

func TestCollectionOperations(t *testing.T) {
	m := newFakeModel()
	tests := []struct {
		source string
		want   value.Value
	}{
		{"Set{1, 2, 2}->size()", value.Int(2)},
		{"Bag{1, 2, 2}->size()", value.Int(3)},
		{"Sequence{1..4}", seq(ints(1, 2, 3, 4)...)},
		{"Sequence{1..3, 7}->sum()", value.Int(13)},
		{"Sequence{1, 2.5}->sum()", value.Real(3.5)},
		{"Sequence{}->sum()", value.Int(0)},
		{"Sequence{}->isEmpty()", value.True},
		{"Set{1}->notEmpty()", value.True},
		{"Set{1, 2}->includes(2)", value.True},
		{"Set{1, 2}->excludes(3)", value.True},
		{"Set{1, 2, 3}->includesAll(Set{1, 2})", value.True},
		{"Set{1, 2, 3}->excludesAll(Set{3, 4})", value.False},
		{"Bag{1, 2, 2}->count(2)", value.Int(2)},
		{"Set{3, 1, 2}->max()", value.Int(3)},
		{"Sequence{3, 1.5, 2}->min()", value.Real(1.5)},
		{"Sequence{4, 5, 6}->first()", value.Int(4)},
		{"Sequence{4, 5, 6}->last()", value.Int(6)},
		{"Sequence{4, 5, 6}->at(2)", value.Int(5)},
		{"Sequence{4, 5, 6}->indexOf(6)", value.Int(3)},
		{"Sequence{1, 2}->including(3)", seq(ints(1, 2, 3)...)},
		{"Sequence{1, 2, 1}->excluding(1)", seq(value.Int(2))},
		{"Sequence{1, 2}->append(3)", seq(ints(1, 2, 3)...)},
		{"Sequence{1, 2}->prepend(0)", seq(ints(0, 1, 2)...)},
		{"Sequence{1, 2, 3}->reverse()", seq(ints(3, 2, 1)...)},
		{"Sequence{1, 2}->union(Sequence{2, 3})", seq(ints(1, 2, 2, 3)...)},
		{"Set{1, 2}->union(Set{2, 3})->size()", value.Int(3)},
		{"Set{1, 2, 3}->intersection(Set{2, 3, 4})->size()", value.Int(2)},
		{"Sequence{Sequence{1, 2}, Sequence{3}}->flatten()", seq(ints(1, 2, 3)...)},
		{"Sequence{1, 1, 2}->asSet()->size()", value.Int(2)},
		{"Set{1}->asSequence()", seq(value.Int(1))},
		{"Set{1, 2} = Set{2, 1}", value.True},
		{"Sequence{1, 2} = Sequence{2, 1}", value.False},
		{"5->size()", value.Int(1)},
		{"null->isEmpty()", value.True},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.want, mustEval(t, m, tt.source), tt.source)
		})
	}
}

func TestIterators(t *testing.T) {
	m := newFakeModel()
	tests := []struct {
		source string
		want   value.Value
	}{
		{"Sequence{1, 2, 3}->select(x | x > 1)", seq(ints(2, 3)...)},
		{"Sequence{1, 2, 3}->reject(x | x > 1)", seq(value.Int(1))},
		{"Sequence{1, 2, 3}->collect(x | x * 2)", seq(ints(2, 4, 6)...)},
		{"Sequence{1, 2}->collect(x | Sequence{x, x})", seq(ints(1, 1, 2, 2)...)},
		{"Sequence{1, 2}->collectNested(x | Sequence{x})->size()", value.Int(2)},
		{"Sequence{1, 2}->collectNested(x | Sequence{x})->first()", seq(value.Int(1))},
		{"Set{1, 2, 3}->forAll(x | x > 0)", value.True},
		{"Set{1, 2, 3}->forAll(x | x > 1)", value.False},
		{"Set{1, 2}->forAll(a, b | a + b > 1)", value.True},
		{"Set{1, 2}->exists(a, b | a + b = 4)", value.True},
		{"Set{1, 2, 3}->exists(x | x = 5)", value.False},
		{"Sequence{}->forAll(x | false)", value.True},
		{"Sequence{1, 2, 3}->any(x | x > 1)", value.Int(2)},
		{"Sequence{1, 2, 3}->any(x | x > 5)", value.Null},
		{"Sequence{1, 2, 3}->one(x | x = 2)", value.True},
		{"Sequence{1, 2, 2}->one(x | x = 2)", value.False},
		{"Sequence{1, 2, 3}->isUnique(x | x)", value.True},
		{"Sequence{1, 2, 3}->isUnique(x | x mod 2)", value.False},
		{"Sequence{3, 1, 2}->sortedBy(x | x)", seq(ints(1, 2, 3)...)},
		{"Sequence{'b', 'a'}->sortedBy(s | s)", seq(value.String("a"), value.String("b"))},
		{"Sequence{1, 'a'}->sortedBy(x | x)", value.Invalid},
		{"Sequence{1, 2, 3}->select(x | null)", value.Invalid},
		{"Set{1, 2}->forAll(x | null)", value.Invalid},
		{"Set{1, 2}->exists(x | x = 1 or null)", value.Invalid},
		{"Set{1, 2}->exists(x | x = 1)", value.True},
		{"Sequence{1, 2, 3}->select(x : Integer | x <> 2)->size()", value.Int(2)},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.want, mustEval(t, m, tt.source), tt.source)
		})
	}

	_, err := evalSource(t, m, "Sequence{1}->select(a, b | true)", value.Null, nil)
	assert.Error(t, err, "select takes a single variable")
}

func TestIteratorVariableShadowsOuterScope(t *testing.T) {
	m := newFakeModel()
	got := mustEval(t, m, "let x = 10 in Sequence{1, 2}->collect(x | x + 1)->including(x)")
	assertValue(t, seq(ints(2, 3, 10)...), got, "shadowing")
}

func TestSelectByKindAndType(t *testing.T) {
	m := shapesModel()
	scope := NewScope(nil)
	scope.Bind("shapes", seq(value.Ref("sq"), value.Ref("ci"), value.Ref("sh")))

	v, err := evalSource(t, m, "shapes->selectByKind(Shape)", value.Null, scope)
	require.NoError(t, err)
	assert.Len(t, v.Items(), 3, "subclasses are included")

	v, err = evalSource(t, m, "shapes->selectByType(Shape)", value.Null, scope)
	require.NoError(t, err)
	assertValue(t, seq(value.Ref("sh")), v, "selectByType(Shape)")

	v, err = evalSource(t, m, "shapes->selectByKind(Circle)", value.Null, scope)
	require.NoError(t, err)
	assertValue(t, seq(value.Ref("ci")), v, "selectByKind(Circle)")

	_, err = evalSource(t, m, "shapes->selectByKind(1)", value.Null, scope)
	assert.Error(t, err, "type argument required")
}

func TestDynamicTypeOperand(t *testing.T) {
	m := shapesModel()
	scope := NewScope(nil)
	scope.Bind("other", value.Ref("sh"))

	v, err := evalSource(t, m, "self.oclIsKindOf(other.oclType())", value.Ref("sq"), scope)
	require.NoError(t, err)
	assertValue(t, value.True, v, "Square kind of Shape")

	v, err = evalSource(t, m, "other.oclIsKindOf(self.oclType())", value.Ref("sq"), scope)
	require.NoError(t, err)
	assertValue(t, value.False, v, "Shape kind of Square")

	v, err = evalSource(t, m, "self.oclIsTypeOf(Square) and not self.oclIsTypeOf(Shape)", value.Ref("sq"), scope)
	require.NoError(t, err)
	assertValue(t, value.True, v, "oclIsTypeOf")
}

func TestNavigation(t *testing.T) {
	m := shapesModel()
	self := value.Ref("sq")

	tests := []struct {
		source string
		want   value.Value
	}{
		{"self.side * 2", value.Int(4)},
		{"side + 1", value.Int(3)},
		{"self.name.toUpper()", value.String("SQUARE")},
		{"self.parent", value.Null},
		{"self.parent.side", value.Invalid},
		{"self.parent.oclIsUndefined()", value.True},
		{"self.area()", value.Int(4)},
		{"area() + 1", value.Int(5)},
		{"self.scaled(2)", value.Int(20)},
		{"Shape.allInstances()->size()", value.Int(3)},
		{"Square.allInstances()->size()", value.Int(1)},
		{"Shape.allInstances()->select(s | s.oclIsKindOf(Square))->size()", value.Int(1)},
		{"Shape.allInstances()->select(oclIsKindOf(Circle))->size()", value.Int(1)},
		{"Shape.allInstances()->collect(name)->size()", value.Int(3)},
		{"Shape.allInstances().name->includes('circle')", value.True},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v, err := evalSource(t, m, tt.source, self, nil)
			require.NoError(t, err)
			assertValue(t, tt.want, v, tt.source)
		})
	}
}

func TestNavigationUnknownFeature(t *testing.T) {
	m := shapesModel()

	_, err := evalSource(t, m, "self.nope", value.Ref("sq"), nil)
	require.Error(t, err)

	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 5, evalErr.Location.Column)

	var unknown *unknownFeature
	require.True(t, errors.As(err, &unknown), "model error is reachable")
	assert.Equal(t, "nope", unknown.name)

	// A bare identifier that is neither variable, feature nor type is
	// reported by the model as well
	_, err = evalSource(t, m, "nope", value.Ref("sq"), nil)
	require.True(t, errors.As(err, &unknown))

	// Primitive values have no features
	_, err = evalSource(t, m, "'abc'.length", value.Null, nil)
	assert.Error(t, err)
}

func TestClosure(t *testing.T) {
	m := newFakeModel().class("Node")
	m.object("a", "Node", map[string]value.Value{"next": value.Ref("b"), "kids": seq()})
	m.object("b", "Node", map[string]value.Value{"next": value.Ref("c"), "kids": seq()})
	m.object("c", "Node", map[string]value.Value{"next": value.Ref("a"), "kids": seq()})
	m.object("root", "Node", map[string]value.Value{
		"next": value.Null,
		"kids": seq(value.Ref("a"), value.Ref("d")),
	})
	m.object("d", "Node", map[string]value.Value{"next": value.Null, "kids": seq(value.Ref("root"))})

	tests := []struct {
		source string
		self   value.ID
		size   int
	}{
		{"self->closure(next)", "a", 3},
		{"self->closure(n | n.next)", "b", 3},
		{"self->closure(kids)", "root", 3},
		{"self->closure(n | n.kids.next)", "root", 2},
		{"self->closure(next)", "d", 1},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v, err := evalSource(t, m, tt.source, value.Ref(tt.self), nil)
			require.NoError(t, err)
			assert.Len(t, v.Items(), tt.size)
			assert.True(t, v.CollectionKind().Unique())
		})
	}
}
