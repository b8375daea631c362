package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelcore/internal/cli/config"
	"github.com/conduit-lang/modelcore/internal/cli/ui"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

var selfClass string

// NewEvalCommand creates the eval command
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the demo model",
		Long: `Evaluate a constraint expression against the populated demo model.

With --self the expression runs with a fresh instance of the given class as
its receiver; otherwise self is null and the expression can reach the model
through allInstances().`,
		Example: `  modelcore eval "Shape.allInstances()->collect(s | s.area)"
  modelcore eval "side * side" --self Square`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&selfClass, "self", "", "Class of a fresh instance to use as self")
	return cmd
}

func runEval(cmd *cobra.Command, source string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync() //nolint:errcheck

	self, err := s.receiver(cmd.ErrOrStderr(), selfClass)
	if err != nil {
		return err
	}
	v, err := s.evaluate(cmd.ErrOrStderr(), source, self)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.cfg.Output.Format == config.FormatYAML {
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(map[string]string{
			"expression": source,
			"result":     v.String(),
			"type":       typeName(v),
		})
	}

	kv := ui.NewKeyValueTable(out, s.noColor())
	kv.AddRow("expression", source)
	kv.AddRow("result", v.String())
	kv.AddRow("type", typeName(v))
	kv.Render()
	return nil
}

// typeName names the kind of a result, refining collections by their kind
func typeName(v value.Value) string {
	if v.IsCollection() {
		return fmt.Sprintf("%s(%d)", v.CollectionKind(), len(v.Items()))
	}
	return v.Kind().String()
}
