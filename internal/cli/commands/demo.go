package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelcore/internal/cli/config"
	"github.com/conduit-lang/modelcore/internal/cli/ui"
	"github.com/conduit-lang/modelcore/internal/model/value"
	"github.com/conduit-lang/modelcore/internal/runtime"
)

var listClasses bool

type demoReport struct {
	Instances []instanceReport   `yaml:"instances"`
	Failures  []failureReport    `yaml:"failures"`
	Metrics   map[string]float64 `yaml:"metrics"`
}

type instanceReport struct {
	ID    string `yaml:"id"`
	Class string `yaml:"class"`
	Label string `yaml:"label"`
	Area  string `yaml:"area"`
}

type failureReport struct {
	ID         string `yaml:"id"`
	Class      string `yaml:"class"`
	Constraint string `yaml:"constraint"`
	Message    string `yaml:"message"`
}

// NewDemoCommand creates the demo command
func NewDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build the shapes model, validate it and report failures",
		Long: `Build the shapes demo schema, materialize a canvas with four shapes,
link them (explicitly and through the canvas's implicit relationship), then
validate every instance and report the constraints that do not hold.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.logger.Sync() //nolint:errcheck

			if listClasses {
				return renderClasses(cmd.OutOrStdout(), s)
			}
			report, err := buildReport(s)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), s, report)
		},
	}

	cmd.Flags().BoolVar(&listClasses, "classes", false, "List the demo schema's classes instead of validating")
	return cmd
}

func buildReport(s *session) (*demoReport, error) {
	report := &demoReport{Metrics: make(map[string]float64)}

	ids := append([]value.ID{s.pop.Canvas}, s.pop.Shapes...)
	for _, id := range ids {
		class, err := s.rt.ClassOf(id)
		if err != nil {
			return nil, err
		}
		report.Instances = append(report.Instances, instanceReport{
			ID:    string(id),
			Class: class,
			Label: label(s.rt, id),
			Area:  area(s.rt, id),
		})

		err = s.rt.ValidateInstance(id)
		var vf *runtime.ValidationFailure
		switch {
		case err == nil:
		case errors.As(err, &vf):
			for _, f := range vf.Failures {
				report.Failures = append(report.Failures, failureReport{
					ID: string(id), Class: class, Constraint: f.Constraint, Message: f.Message,
				})
			}
		default:
			return nil, err
		}
	}

	families, err := s.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			report.Metrics[name] = m.GetCounter().GetValue()
		}
	}
	return report, nil
}

func label(rt *runtime.Runtime, id value.ID) string {
	for _, feature := range []string{"name", "title"} {
		if v, err := rt.GetProperty(id, feature); err == nil {
			if s, ok := v.AsString(); ok {
				return s
			}
			return v.String()
		}
	}
	return "-"
}

func area(rt *runtime.Runtime, id value.ID) string {
	v, err := rt.GetProperty(id, "area")
	if err != nil {
		v, err = rt.InvokeOperation(id, "totalArea", nil)
	}
	if err != nil {
		return "-"
	}
	if r, ok := v.AsReal(); ok {
		return fmt.Sprintf("%.2f", r)
	}
	return v.String()
}

func renderReport(w io.Writer, s *session, report *demoReport) error {
	if s.cfg.Output.Format == config.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report)
	}

	opts := &ui.TableOptions{NoColor: s.noColor()}

	ui.Header(w, "Instances", s.noColor())
	instances := ui.NewTable(w, []string{"Instance", "Class", "Label", "Area"}, opts)
	for _, inst := range report.Instances {
		instances.AddRow(inst.ID, inst.Class, inst.Label, inst.Area)
	}
	instances.Render()
	fmt.Fprintln(w)

	if len(report.Failures) == 0 {
		ui.WriteSuccess(w, "all constraints hold", s.noColor())
	} else {
		ui.Header(w, "Failures", s.noColor())
		failures := ui.NewTable(w, []string{"Instance", "Class", "Constraint", "Message"}, opts)
		for _, f := range report.Failures {
			failures.AddRow(f.ID, f.Class, f.Constraint, f.Message)
		}
		failures.Render()
		fmt.Fprintln(w)
		fmt.Fprint(w, ui.Warning(fmt.Sprintf("%d constraint failure(s)", len(report.Failures)), s.noColor()))
	}
	fmt.Fprintln(w)

	ui.Header(w, "Metrics", s.noColor())
	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	kv := ui.NewKeyValueTable(w, s.noColor())
	for _, name := range names {
		kv.AddRow(name, fmt.Sprint(report.Metrics[name]))
	}
	kv.Render()
	return nil
}

func renderClasses(w io.Writer, s *session) error {
	reg := s.rt.Registry()
	names := reg.ClassNames()
	sort.Strings(names)

	table := ui.NewTable(w, []string{"Class", "Superclasses", "Abstract", "Properties", "Operations"},
		&ui.TableOptions{NoColor: s.noColor()})
	for _, name := range names {
		desc, ok := reg.GetClass(name)
		if !ok {
			continue
		}
		props := make([]string, len(desc.Properties))
		for i, p := range desc.Properties {
			props[i] = fmt.Sprintf("%s[%s]", p.Name, p.Multiplicity())
		}
		ops := make([]string, len(desc.Operations))
		for i, op := range desc.Operations {
			ops[i] = op.Name
		}
		abstract := ""
		if desc.Abstract {
			abstract = "yes"
		}
		table.AddRow(name, strings.Join(desc.Superclasses, ", "), abstract,
			strings.Join(props, ", "), strings.Join(ops, ", "))
	}
	table.Render()
	return nil
}
