package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelcore/internal/cli/config"
	"github.com/conduit-lang/modelcore/internal/cli/ui"
	"github.com/conduit-lang/modelcore/internal/compiler/eval"
	"github.com/conduit-lang/modelcore/internal/compiler/parser"
	"github.com/conduit-lang/modelcore/internal/demo"
	"github.com/conduit-lang/modelcore/internal/logging"
	"github.com/conduit-lang/modelcore/internal/metrics"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/internal/runtime"
)

// reportedError marks an error that was already rendered for the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// loadConfig reads the configuration and applies the global flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil && outputFormat != "" {
		cfg.Output.Format = outputFormat
		if outputFormat != config.FormatTable && outputFormat != config.FormatYAML {
			err = fmt.Errorf("invalid output format: %s (must be table or yaml)", outputFormat)
		}
	}
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), noColor))
		return nil, &reportedError{err: err}
	}
	if noColor {
		cfg.Output.NoColor = true
	}
	return cfg, nil
}

// session is the demo model loaded into a runtime, with its logger and
// metrics wired from config
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	rt       *runtime.Runtime
	pop      *demo.Population
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	collector, err := metrics.New(promReg)
	if err != nil {
		return nil, err
	}

	reg, err := demo.Registry(logger)
	if err != nil {
		return nil, err
	}
	rt, err := runtime.New(reg, runtime.Options{
		Logger:    logger,
		Metrics:   collector,
		CacheSize: cfg.Eval.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	pop, err := demo.Populate(rt)
	if err != nil {
		return nil, fmt.Errorf("failed to populate demo model: %w", err)
	}

	return &session{cfg: cfg, logger: logger, gatherer: promReg, rt: rt, pop: pop}, nil
}

func (s *session) noColor() bool {
	return s.cfg.Output.NoColor
}

// receiver creates a fresh instance of class to evaluate against. An empty
// class yields null.
func (s *session) receiver(w io.Writer, class string) (value.Value, error) {
	if class == "" {
		return value.Null, nil
	}
	if !s.rt.HasClass(class) {
		fmt.Fprint(w, ui.UnknownClassError(class, ui.FindSimilar(class, s.rt.Registry().ClassNames()), s.noColor()))
		return value.Invalid, &reportedError{err: &runtime.UnknownClassError{Class: class}}
	}
	id, err := s.rt.CreateInstance(class)
	if err != nil {
		return value.Invalid, err
	}
	return value.Ref(id), nil
}

// evaluate runs source and renders syntax or evaluation errors with the
// offending position marked
func (s *session) evaluate(w io.Writer, source string, self value.Value) (value.Value, error) {
	v, err := s.rt.Evaluate(source, self, nil)
	if err != nil {
		return value.Invalid, reportExpressionError(w, source, err, s.noColor())
	}
	return v, nil
}

func reportExpressionError(w io.Writer, source string, err error, noColor bool) error {
	var syntaxErr *parser.SyntaxError
	var evalErr *eval.EvalError
	switch {
	case errors.As(err, &syntaxErr):
		fmt.Fprint(w, ui.SyntaxError(source, syntaxErr.Message, syntaxErr.Line, syntaxErr.Column, noColor))
	case errors.As(err, &evalErr):
		problem := evalErr.Message
		if evalErr.Err != nil {
			problem += ": " + evalErr.Err.Error()
		}
		fmt.Fprint(w, ui.EvaluationError(source, problem, evalErr.Location.Line, evalErr.Location.Column, noColor))
	default:
		ui.WriteError(w, ui.ErrorOptions{Context: "evaluation failed", Problem: err.Error(), NoColor: noColor})
	}
	return &reportedError{err: err}
}
