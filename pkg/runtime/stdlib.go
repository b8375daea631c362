// Package runtime provides the pure string and number functions behind the
// builtin operations of the constraint expression language. Positions and
// lengths are counted in runes, and indexes are 1-based as they are in
// expressions.
package runtime

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conduit-lang/modelcore/internal/compiler/lexer"
)

// String Functions

// StringSize returns the length of a string in characters (runes, not bytes).
func StringSize(s string) int {
	return len([]rune(s))
}

// StringConcat joins two strings.
func StringConcat(s, other string) string {
	return s + other
}

// StringSubstring returns the characters from lower to upper inclusive,
// both 1-based. ok is false when the range is out of bounds.
//
// Example:
//
//	StringSubstring("hello", 2, 4) => "ell", true
func StringSubstring(s string, lower, upper int) (string, bool) {
	runes := []rune(s)
	if lower < 1 || upper > len(runes) || lower > upper+1 {
		return "", false
	}
	return string(runes[lower-1 : upper]), true
}

// StringToUpper converts a string to uppercase using Unicode case rules.
func StringToUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// StringToLower converts a string to lowercase using Unicode case rules.
func StringToLower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// StringIndexOf returns the 1-based character position of the first
// occurrence of sub, or 0 when absent. The empty string is found at 1.
func StringIndexOf(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return 0
	}
	return len([]rune(s[:i])) + 1
}

// StringStartsWith checks if a string begins with prefix.
func StringStartsWith(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}

// StringEndsWith checks if a string ends with suffix.
func StringEndsWith(s, suffix string) bool {
	return strings.HasSuffix(s, suffix)
}

var (
	patternMu    sync.Mutex
	patternCache = make(map[string]*regexp.Regexp)
)

// StringMatches reports whether the whole string matches the regular
// expression pattern.
func StringMatches(s, pattern string) (bool, error) {
	patternMu.Lock()
	re, ok := patternCache[pattern]
	patternMu.Unlock()
	if !ok {
		var err error
		re, err = regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return false, err
		}
		patternMu.Lock()
		patternCache[pattern] = re
		patternMu.Unlock()
	}
	return re.MatchString(s), nil
}

// IsValidName reports whether s can be written as a name without quoting:
// it must lex as an identifier and must not be a reserved word.
func IsValidName(s string) bool {
	return lexer.IsValidIdentifier(s)
}

// Quoted wraps s in single quotes, escaping quotes and backslashes.
//
// Example:
//
//	Quoted("it's") => 'it\'s'
func Quoted(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Unquoted reverses Quoted. A string that is not quoted is returned as is.
func Unquoted(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	escaped := false
	for _, r := range body {
		if escaped {
			switch r {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StringToInteger parses a decimal integer.
func StringToInteger(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}

// StringToReal parses a decimal real number.
func StringToReal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// Number Functions

// IntAbs returns the absolute value of an integer. ok is false for
// math.MinInt64, whose magnitude does not fit.
func IntAbs(n int64) (int64, bool) {
	if n < 0 {
		return IntNeg(n)
	}
	return n, true
}

// IntNeg negates n. ok is false for math.MinInt64.
func IntNeg(n int64) (int64, bool) {
	if n == math.MinInt64 {
		return 0, false
	}
	return -n, true
}

// IntAdd adds two integers. ok is false when the sum overflows int64.
func IntAdd(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

// IntSub subtracts b from a. ok is false when the difference overflows int64.
func IntSub(a, b int64) (int64, bool) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, false
	}
	return c, true
}

// IntMul multiplies two integers. ok is false when the product overflows
// int64.
func IntMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

// RealFloor returns the largest integer not greater than x.
func RealFloor(x float64) int64 {
	return int64(math.Floor(x))
}

// RealRound rounds half up: RealRound(2.5) = 3, RealRound(-2.5) = -2.
func RealRound(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// IntDiv performs truncated integer division. ok is false for a zero divisor
// and for math.MinInt64 div -1.
func IntDiv(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a / b, true
}

// IntMod returns the remainder of truncated division. ok is false for a
// zero divisor.
func IntMod(a, b int64) (int64, bool) {
	if b == 0 {
		return 0, false
	}
	return a % b, true
}

// Identity Functions

// NewIdentity generates a new random instance identity.
func NewIdentity() string {
	return uuid.New().String()
}
