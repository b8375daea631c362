package runtime

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

// String Function Tests

func TestStringSize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty string", "", 0},
		{"ascii string", "hello", 5},
		{"unicode string", "héllo", 5},
		{"cjk", "日本", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringSize(tt.input)
			if got != tt.want {
				t.Errorf("StringSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringSubstring(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		lower  int
		upper  int
		want   string
		wantOK bool
	}{
		{"middle", "hello", 2, 4, "ell", true},
		{"whole", "hello", 1, 5, "hello", true},
		{"single", "hello", 1, 1, "h", true},
		{"empty range", "hello", 3, 2, "", true},
		{"unicode", "héllo", 2, 2, "é", true},
		{"lower out of range", "hello", 0, 2, "", false},
		{"upper out of range", "hello", 2, 9, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StringSubstring(tt.input, tt.lower, tt.upper)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("StringSubstring(%q, %d, %d) = %q, %v, want %q, %v",
					tt.input, tt.lower, tt.upper, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStringCase(t *testing.T) {
	if got := StringToUpper("hello World"); got != "HELLO WORLD" {
		t.Errorf("StringToUpper() = %q", got)
	}
	if got := StringToLower("Hello WORLD"); got != "hello world" {
		t.Errorf("StringToLower() = %q", got)
	}
	if got := StringToUpper("éclair"); got != "ÉCLAIR" {
		t.Errorf("StringToUpper(éclair) = %q, want ÉCLAIR", got)
	}
}

func TestStringIndexOf(t *testing.T) {
	tests := []struct {
		s, sub string
		want   int
	}{
		{"hello", "l", 3},
		{"hello", "lo", 4},
		{"hello", "z", 0},
		{"héllo", "l", 3},
		{"hello", "", 1},
	}

	for _, tt := range tests {
		if got := StringIndexOf(tt.s, tt.sub); got != tt.want {
			t.Errorf("StringIndexOf(%q, %q) = %d, want %d", tt.s, tt.sub, got, tt.want)
		}
	}
}

func TestStringMatches(t *testing.T) {
	tests := []struct {
		s, pattern string
		want       bool
	}{
		{"abc", "[a-c]+", true},
		{"abcd", "[a-c]+", false},
		{"x1", `x\d`, true},
		{"yx1", `x\d`, false},
	}

	for _, tt := range tests {
		got, err := StringMatches(tt.s, tt.pattern)
		if err != nil {
			t.Fatalf("StringMatches(%q, %q) error: %v", tt.s, tt.pattern, err)
		}
		if got != tt.want {
			t.Errorf("StringMatches(%q, %q) = %v, want %v", tt.s, tt.pattern, got, tt.want)
		}
	}

	if _, err := StringMatches("a", "("); err == nil {
		t.Errorf("StringMatches() expected error for bad pattern")
	}
}

func TestIsValidName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Part", true},
		{"_hidden", true},
		{"part2", true},
		{"2part", false},
		{"my part", false},
		{"", false},
		{"and", false},
		{"let", false},
		{"self", false},
		{"null", false},
		{"andy", true},
		{"café", false},
	}

	for _, tt := range tests {
		if got := IsValidName(tt.input); got != tt.want {
			t.Errorf("IsValidName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestQuotedRoundTrip(t *testing.T) {
	tests := []struct {
		input  string
		quoted string
	}{
		{"plain", "'plain'"},
		{"it's", `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
		{"line\nbreak", `'line\nbreak'`},
	}

	for _, tt := range tests {
		got := Quoted(tt.input)
		if got != tt.quoted {
			t.Errorf("Quoted(%q) = %q, want %q", tt.input, got, tt.quoted)
		}
		if back := Unquoted(got); back != tt.input {
			t.Errorf("Unquoted(%q) = %q, want %q", got, back, tt.input)
		}
	}

	if got := Unquoted("bare"); got != "bare" {
		t.Errorf("Unquoted(bare) = %q", got)
	}
}

func TestStringConversions(t *testing.T) {
	if n, ok := StringToInteger(" 42 "); !ok || n != 42 {
		t.Errorf("StringToInteger() = %d, %v", n, ok)
	}
	if _, ok := StringToInteger("4.2"); ok {
		t.Errorf("StringToInteger(4.2) should fail")
	}
	if f, ok := StringToReal("2.5"); !ok || f != 2.5 {
		t.Errorf("StringToReal() = %v, %v", f, ok)
	}
	if _, ok := StringToReal("abc"); ok {
		t.Errorf("StringToReal(abc) should fail")
	}
}

// Number Function Tests

func TestNumberFunctions(t *testing.T) {
	if got, ok := IntAbs(-3); !ok || got != 3 {
		t.Errorf("IntAbs(-3) = %d, %v", got, ok)
	}
	if _, ok := IntAbs(math.MinInt64); ok {
		t.Errorf("IntAbs(MinInt64) should fail")
	}
	if got := RealFloor(-1.5); got != -2 {
		t.Errorf("RealFloor(-1.5) = %d", got)
	}
	if got := RealRound(2.5); got != 3 {
		t.Errorf("RealRound(2.5) = %d", got)
	}
	if got := RealRound(-2.5); got != -2 {
		t.Errorf("RealRound(-2.5) = %d", got)
	}
	if q, ok := IntDiv(7, 2); !ok || q != 3 {
		t.Errorf("IntDiv(7, 2) = %d, %v", q, ok)
	}
	if _, ok := IntDiv(7, 0); ok {
		t.Errorf("IntDiv(7, 0) should fail")
	}
	if r, ok := IntMod(7, 3); !ok || r != 1 {
		t.Errorf("IntMod(7, 3) = %d, %v", r, ok)
	}
	if _, ok := IntMod(7, 0); ok {
		t.Errorf("IntMod(7, 0) should fail")
	}
	if _, ok := IntDiv(math.MinInt64, -1); ok {
		t.Errorf("IntDiv(MinInt64, -1) should fail")
	}
}

func TestCheckedIntegerArithmetic(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b int64) (int64, bool)
		a, b int64
		want int64
		ok   bool
	}{
		{"add", IntAdd, 2, 3, 5, true},
		{"add negative", IntAdd, -2, -3, -5, true},
		{"add overflow", IntAdd, math.MaxInt64, 1, 0, false},
		{"add underflow", IntAdd, math.MinInt64, -1, 0, false},
		{"add to max", IntAdd, math.MaxInt64 - 1, 1, math.MaxInt64, true},
		{"sub", IntSub, 2, 3, -1, true},
		{"sub overflow", IntSub, math.MinInt64, 1, 0, false},
		{"sub negative overflow", IntSub, math.MaxInt64, -1, 0, false},
		{"sub zero", IntSub, math.MinInt64, 0, math.MinInt64, true},
		{"mul", IntMul, -4, 5, -20, true},
		{"mul zero", IntMul, math.MaxInt64, 0, 0, true},
		{"mul overflow", IntMul, math.MaxInt64, 2, 0, false},
		{"mul min by minus one", IntMul, math.MinInt64, -1, 0, false},
		{"mul minus one by min", IntMul, -1, math.MinInt64, 0, false},
		{"mul min by one", IntMul, math.MinInt64, 1, math.MinInt64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.fn(tt.a, tt.b)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("%s(%d, %d) = %d, %v, want %d, %v", tt.name, tt.a, tt.b, got, ok, tt.want, tt.ok)
			}
		})
	}

	if _, ok := IntNeg(math.MinInt64); ok {
		t.Errorf("IntNeg(MinInt64) should fail")
	}
	if got, ok := IntNeg(math.MaxInt64); !ok || got != -math.MaxInt64 {
		t.Errorf("IntNeg(MaxInt64) = %d, %v", got, ok)
	}
}

// Identity Function Tests

func TestNewIdentity(t *testing.T) {
	a := NewIdentity()
	b := NewIdentity()
	if a == b {
		t.Errorf("NewIdentity() returned duplicate %s", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("NewIdentity() = %q is not a UUID: %v", a, err)
	}
}
