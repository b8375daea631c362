package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "unknown class",
				Problem: "Cannot find class 'Sqare'.",
			},
			contains: []string{"❌", "UNKNOWN CLASS", "Cannot find class 'Sqare'."},
		},
		{
			name: "suggestions and help",
			opts: ErrorOptions{
				Problem:      "bad",
				Suggestions:  []string{"Square", "Shape"},
				HelpCommands: []string{"Get help: modelcore --help"},
			},
			contains: []string{"Did you mean: Square, Shape?", "→ Get help: modelcore --help"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠️", "careful"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "note"},
			contains: []string{"ℹ️", "note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			result := FormatError(tt.opts)
			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("FormatError() missing %q in:\n%s", want, result)
				}
			}
		})
	}
}

func TestCaret(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
		column int
		want   []string
	}{
		{"first line", "1 + ", 1, 5, []string{"1 + ", "    ^"}},
		{"second line", "let x = 1 in\nx +", 2, 4, []string{"x +", "   ^"}},
		{"column clamped", "x", 1, 0, []string{"x", "^"}},
		{"line out of range", "x", 3, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Caret(tt.source, tt.line, tt.column)
			if len(got) != len(tt.want) {
				t.Fatalf("Caret() = %q; want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Caret()[%d] = %q; want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSyntaxError(t *testing.T) {
	out := SyntaxError("self.side +", "unexpected end of input", 1, 12, true)

	for _, want := range []string{"SYNTAX ERROR: unexpected end of input", "   self.side +\n", "              ^"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestUnknownClassError(t *testing.T) {
	out := UnknownClassError("Sqare", []string{"Square"}, true)

	if !strings.Contains(out, "Cannot find class 'Sqare'.") || !strings.Contains(out, "Did you mean: Square?") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "all constraints hold", true)

	if buf.String() != "✓ all constraints hold\n" {
		t.Errorf("got %q", buf.String())
	}
}
