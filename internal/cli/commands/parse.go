package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelcore/internal/cli/config"
	"github.com/conduit-lang/modelcore/internal/cli/ui"
	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/compiler/parser"
)

// NewParseCommand creates the parse command
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <expression>",
		Short: "Parse an expression and print its syntax tree",
		Long: `Parse a constraint expression without evaluating it.

The table format lists every node with its source position; the yaml format
prints the full tree.`,
		Example: `  modelcore parse "self.side * self.side"
  modelcore parse "shapes->select(s | s.area > 1)" --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0])
		},
	}
}

func runParse(cmd *cobra.Command, source string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	expr, err := parser.ParseExpression(source)
	if err != nil {
		return reportExpressionError(cmd.ErrOrStderr(), source, err, cfg.Output.NoColor)
	}

	out := cmd.OutOrStdout()
	if cfg.Output.Format == config.FormatYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(ast.Dump(expr)); err != nil {
			return fmt.Errorf("failed to encode syntax tree: %w", err)
		}
		return enc.Close()
	}

	ui.Header(out, ast.Format(expr), cfg.Output.NoColor)
	table := ui.NewTable(out, []string{"Node", "At", "Expression"}, &ui.TableOptions{NoColor: cfg.Output.NoColor})
	addNodes(table, expr, 0)
	table.Render()
	return nil
}

func addNodes(table *ui.Table, n ast.Expr, depth int) {
	loc := n.Location()
	table.AddRow(strings.Repeat("  ", depth)+n.Kind().String(), fmt.Sprintf("%d:%d", loc.Line, loc.Column), ast.Format(n))
	for _, child := range ast.Children(n) {
		addNodes(table, child, depth+1)
	}
}
