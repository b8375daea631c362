// Package value defines the closed set of values that flow through the
// instance runtime and the expression evaluator.
//
// A Value is one of: null, invalid, boolean, integer, real, string, a
// reference to a live instance, an enumeration literal, a type, or a
// collection of values. Null and invalid are both "undefined"; invalid is the
// result of a failed computation (division by zero, navigation through null).
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindNull Kind = iota
	KindInvalid
	KindBool
	KindInt
	KindReal
	KindString
	KindRef
	KindEnum
	KindType
	KindCollection
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "Boolean"
	case KindInt:
		return "Integer"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindRef:
		return "Reference"
	case KindEnum:
		return "Enumeration"
	case KindType:
		return "Type"
	case KindCollection:
		return "Collection"
	default:
		return "unknown"
	}
}

// CollectionKind distinguishes the four collection flavours
type CollectionKind int

const (
	Set CollectionKind = iota
	OrderedSet
	Bag
	Sequence
)

// String returns the literal keyword of the collection kind
func (c CollectionKind) String() string {
	switch c {
	case Set:
		return "Set"
	case OrderedSet:
		return "OrderedSet"
	case Bag:
		return "Bag"
	case Sequence:
		return "Sequence"
	default:
		return "Collection"
	}
}

// Unique reports whether the collection kind forbids duplicates
func (c CollectionKind) Unique() bool {
	return c == Set || c == OrderedSet
}

// Ordered reports whether the collection kind keeps a meaningful order
func (c CollectionKind) Ordered() bool {
	return c == OrderedSet || c == Sequence
}

// ParseCollectionKind maps a collection keyword to its kind
func ParseCollectionKind(s string) (CollectionKind, bool) {
	switch s {
	case "Set":
		return Set, true
	case "OrderedSet":
		return OrderedSet, true
	case "Bag":
		return Bag, true
	case "Sequence":
		return Sequence, true
	default:
		return 0, false
	}
}

// ID is the opaque identity of a live instance
type ID string

// Primitive type names understood by the runtime and the evaluator.
const (
	TypeBoolean = "Boolean"
	TypeInteger = "Integer"
	TypeReal    = "Real"
	TypeString  = "String"
)

// Value is an immutable tagged value
type Value struct {
	kind  Kind
	b     bool
	i     int64
	r     float64
	s     string // string payload, ref id, type name or enum type
	lit   string // enum literal
	ckind CollectionKind
	items []Value
}

var (
	// Null is the absent value
	Null = Value{kind: KindNull}
	// Invalid is the result of a failed computation
	Invalid = Value{kind: KindInvalid}
	// True and False are the two booleans
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool, b: false}
	// Unlimited is the value of the '*' literal
	Unlimited = Value{kind: KindReal, r: math.Inf(1)}
)

// Bool returns True or False
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int wraps an integer
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Real wraps a real number
func Real(r float64) Value { return Value{kind: KindReal, r: r} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Ref refers to the instance with the given identity
func Ref(id ID) Value { return Value{kind: KindRef, s: string(id)} }

// Type names a class, enumeration or builtin type, as in oclAsType(T)
func Type(name string) Value { return Value{kind: KindType, s: name} }

// Enum is the literal lit of enumeration typ
func Enum(typ, lit string) Value {
	return Value{kind: KindEnum, s: typ, lit: lit}
}

// Collection builds a collection of the given kind. Unique kinds drop
// duplicates, keeping the first occurrence.
func Collection(kind CollectionKind, items []Value) Value {
	out := make([]Value, 0, len(items))
	if kind.Unique() {
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			k := it.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, it)
		}
	} else {
		out = append(out, items...)
	}
	return Value{kind: KindCollection, ckind: kind, items: out}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsInvalid reports whether v is the invalid value
func (v Value) IsInvalid() bool { return v.kind == KindInvalid }

// IsUndefined reports whether v is null or invalid
func (v Value) IsUndefined() bool { return v.kind == KindNull || v.kind == KindInvalid }

// IsNumeric reports whether v is an integer or a real
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindReal }

// AsBool returns the payload of a boolean
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the payload of an integer. Reals are not converted.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsString returns the payload of a string
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsRef returns the identity a reference points to
func (v Value) AsRef() (ID, bool) {
	return ID(v.s), v.kind == KindRef
}

// AsReal returns the numeric payload, promoting integers
func (v Value) AsReal() (float64, bool) {
	switch v.kind {
	case KindReal:
		return v.r, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// TypeName returns the name carried by a type value
func (v Value) TypeName() (string, bool) {
	return v.s, v.kind == KindType
}

// EnumLiteral returns the enumeration type and literal of an enum value
func (v Value) EnumLiteral() (typ, lit string, ok bool) {
	return v.s, v.lit, v.kind == KindEnum
}

// Items returns the elements of a collection. The slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindCollection {
		return nil
	}
	return v.items
}

// CollectionKind returns the flavour of a collection value
func (v Value) CollectionKind() CollectionKind { return v.ckind }

// IsCollection reports whether v is a collection
func (v Value) IsCollection() bool { return v.kind == KindCollection }

// Key returns a string that is equal for two values exactly when Equal
// reports them equal. Reals that hold an int64 exactly share the key of
// that integer.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10)
	case KindReal:
		if i, ok := exactInt(v.r); ok {
			return "n:" + strconv.FormatInt(i, 10)
		}
		return "n:" + strconv.FormatFloat(v.r, 'g', -1, 64)
	case KindString:
		return "s:" + strconv.Quote(v.s)
	case KindRef:
		return "@" + v.s
	case KindEnum:
		return "e:" + v.s + "::" + v.lit
	case KindType:
		return "t:" + v.s
	case KindCollection:
		keys := make([]string, len(v.items))
		for i, it := range v.items {
			keys[i] = it.Key()
		}
		if !v.ckind.Ordered() {
			sort.Strings(keys)
		}
		return v.ckind.String() + "{" + strings.Join(keys, ",") + "}"
	default:
		return "?"
	}
}

// Equal compares two values. Integers and reals compare numerically without
// rounding: an integer equals a real only when the real holds exactly that
// integer. Values of unrelated kinds are never equal.
func Equal(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.i == b.i
	case a.kind == KindReal && b.kind == KindReal:
		return a.r == b.r
	case a.kind == KindInt && b.kind == KindReal:
		i, ok := exactInt(b.r)
		return ok && i == a.i
	case a.kind == KindReal && b.kind == KindInt:
		i, ok := exactInt(a.r)
		return ok && i == b.i
	}
	if a.kind != b.kind {
		return false
	}
	return a.Key() == b.Key()
}

// exactInt returns r as an int64 when r is integral and in range
func exactInt(r float64) (int64, bool) {
	if r != math.Trunc(r) || r < -(1<<63) || r >= 1<<63 {
		return 0, false
	}
	return int64(r), true
}

// String renders v the way it would be written in an expression
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInvalid:
		return "invalid"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		if math.IsInf(v.r, 1) {
			return "*"
		}
		s := strconv.FormatFloat(v.r, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case KindString:
		return "'" + strings.ReplaceAll(v.s, "'", "\\'") + "'"
	case KindRef:
		return "@" + v.s
	case KindEnum:
		return v.s + "::" + v.lit
	case KindType:
		return v.s
	case KindCollection:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return fmt.Sprintf("%s{%s}", v.ckind, strings.Join(parts, ", "))
	default:
		return "<unknown>"
	}
}
