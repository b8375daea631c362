package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Detail       []string // preformatted lines printed under the problem
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ UNKNOWN CLASS: Sqare
//
//	   Did you mean: Square?
//
//	   → List classes: modelcore demo --classes
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = newColor(opts.NoColor, color.FgYellow, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = newColor(opts.NoColor, color.FgCyan, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = newColor(opts.NoColor, color.FgRed, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgRed)
		symbol = "❌"
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Detail) > 0 {
		b.WriteString("\n")
		for _, line := range opts.Detail {
			bodyColor.Fprintf(&b, "   %s\n", line)
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := newColor(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// Caret renders a source line with a marker under the given 1-based column
func Caret(source string, line, column int) []string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return nil
	}
	text := lines[line-1]
	if column < 1 {
		column = 1
	}
	return []string{text, strings.Repeat(" ", column-1) + "^"}
}

// SyntaxError formats a parse failure with the offending position marked
func SyntaxError(source, message string, line, column int, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "SYNTAX ERROR",
		Problem: message,
		Detail:  Caret(source, line, column),
		NoColor: noColor,
	})
}

// EvaluationError formats an evaluation failure
func EvaluationError(source, message string, line, column int, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "EVALUATION FAILED",
		Problem: message,
		Detail:  Caret(source, line, column),
		NoColor: noColor,
	})
}

// UnknownClassError creates a class-not-found error with suggestions
func UnknownClassError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "UNKNOWN CLASS",
		Problem:      fmt.Sprintf("Cannot find class '%s'.", name),
		Suggestions:  suggestions,
		HelpCommands: []string{"List classes: modelcore demo --classes"},
		NoColor:      noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "CONFIGURATION ERROR",
		Problem:      message,
		HelpCommands: []string{"View config: cat modelcore.yaml", "Get help: modelcore --help"},
		NoColor:      noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
