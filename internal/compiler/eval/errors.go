package eval

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/modelcore/internal/compiler/ast"
)

// EvalError reports an expression that could not be evaluated. Err holds
// the underlying model error, if any, so errors.As reaches it.
type EvalError struct {
	Message  string
	Location ast.SourceLocation
	Err      error
}

// Error implements the error interface
func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation error at %d:%d: %s: %v", e.Location.Line, e.Location.Column, e.Message, e.Err)
	}
	return fmt.Sprintf("evaluation error at %d:%d: %s", e.Location.Line, e.Location.Column, e.Message)
}

// Unwrap returns the underlying error
func (e *EvalError) Unwrap() error {
	return e.Err
}

func newError(n ast.Expr, format string, args ...interface{}) error {
	return &EvalError{Message: fmt.Sprintf(format, args...), Location: n.Location()}
}

// wrapError attaches the location of n to err. An error that already
// carries a location keeps the innermost one.
func wrapError(n ast.Expr, message string, err error) error {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return err
	}
	return &EvalError{Message: message, Location: n.Location(), Err: err}
}
