package cli

import (
	"errors"
	"fmt"

	"github.com/jetmock/jetmock/pkg/cli/internal/output"
	"github.com/jetmock/jetmock/pkg/config"
	"github.com/jetmock/jetmock/pkg/validation"
	"github.com/spf13/cobra"
)

// ErrInvalidFlows is returned when a validated file holds violations.
var ErrInvalidFlows = errors.New("flow file has validation errors")

// flowFile is a file of flow definitions. It holds either a single flow at
// the top level or a list under "mocks".
type flowFile struct {
	Name      string            `json:"name" yaml:"name"`
	FlowSteps []validation.Step `json:"flowSteps" yaml:"flowSteps"`
	Mocks     []flowDefinition  `json:"mocks" yaml:"mocks"`
}

type flowDefinition struct {
	Name      string            `json:"name" yaml:"name"`
	FlowSteps []validation.Step `json:"flowSteps" yaml:"flowSteps"`
}

// FlowReport is the validation outcome of one flow in a file.
type FlowReport struct {
	Name   string                   `json:"name"`
	Valid  bool                     `json:"valid"`
	Errors []*validation.FieldError `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check flow definitions without a running server",
	Long: `Check flow definitions in a YAML or JSON file. The file holds either one
flow with a top-level flowSteps list, or several under "mocks".`,
	Example: `  jetmock validate flows.yaml
  jetmock validate order-created.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := validateFile(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := output.JSON(w, reports); err != nil {
				return err
			}
		} else {
			for _, r := range reports {
				if r.Valid {
					fmt.Fprintf(w, "✓ %s\n", r.Name)
					continue
				}
				fmt.Fprintf(w, "✗ %s\n", r.Name)
				for _, fe := range r.Errors {
					fmt.Fprintf(w, "    %s: %s\n", fe.Field, fe.Message)
				}
			}
		}

		for _, r := range reports {
			if !r.Valid {
				return ErrInvalidFlows
			}
		}
		return nil
	},
}

// validateFile loads path and validates every flow it defines.
func validateFile(path string) ([]FlowReport, error) {
	var file flowFile
	if err := config.LoadDocument(path, &file); err != nil {
		return nil, err
	}

	defs := file.Mocks
	if file.FlowSteps != nil {
		defs = append([]flowDefinition{{Name: file.Name, FlowSteps: file.FlowSteps}}, defs...)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no flows found in %s", path)
	}

	reports := make([]FlowReport, 0, len(defs))
	for i, def := range defs {
		name := def.Name
		if name == "" {
			name = fmt.Sprintf("flow #%d", i+1)
		}
		res := validation.ValidateSteps(def.FlowSteps)
		reports = append(reports, FlowReport{Name: name, Valid: res.Valid(), Errors: res.Errors})
	}
	return reports, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
