package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelcore/internal/cli/ui"
	"github.com/conduit-lang/modelcore/internal/model/value"
)

// prompter reads one line of input after showing message
type prompter func(message string) (string, error)

func surveyPrompt(message string) (string, error) {
	var line string
	err := survey.AskOne(&survey.Input{Message: message}, &line)
	return line, err
}

// NewReplCommand creates the repl command
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate expressions interactively against the demo model",
		Long: `Start an interactive prompt over the populated demo model.

Commands:
  :self <Class>  use a fresh instance of Class as self (no class resets to null)
  :stats         show expression cache statistics
  :quit          leave the prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.logger.Sync() //nolint:errcheck
			return runRepl(cmd.OutOrStdout(), cmd.ErrOrStderr(), s, surveyPrompt)
		},
	}
}

func runRepl(out, errOut io.Writer, s *session, ask prompter) error {
	fmt.Fprintln(out, "Type an expression, :self <Class> to change the receiver, :quit to leave.")

	self := value.Null
	for {
		line, err := ask(promptFor(s, self))
		if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":q":
			return nil
		case line == ":stats":
			stats := s.rt.Cache().Stats()
			kv := ui.NewKeyValueTable(out, s.noColor())
			kv.AddRow("cached", fmt.Sprint(stats.Size))
			kv.AddRow("hits", fmt.Sprint(stats.Hits))
			kv.AddRow("misses", fmt.Sprint(stats.Misses))
			kv.Render()
			continue
		case line == ":self" || strings.HasPrefix(line, ":self "):
			v, err := s.receiver(errOut, strings.TrimSpace(strings.TrimPrefix(line, ":self")))
			if err != nil {
				if !reported(err) {
					ui.WriteError(errOut, ui.ErrorOptions{Problem: err.Error(), NoColor: s.noColor()})
				}
				continue
			}
			self = v
			continue
		case strings.HasPrefix(line, ":"):
			fmt.Fprint(errOut, ui.Warning(fmt.Sprintf("unknown command %s", line), s.noColor()))
			continue
		}

		v, err := s.evaluate(errOut, line, self)
		if err != nil {
			continue
		}
		fmt.Fprintln(out, v)
	}
}

func promptFor(s *session, self value.Value) string {
	id, ok := self.AsRef()
	if !ok {
		return "modelcore>"
	}
	class, err := s.rt.ClassOf(id)
	if err != nil {
		return "modelcore>"
	}
	return class + ">"
}
