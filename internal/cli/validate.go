package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"replicator/pkg/workflow"
)

func newValidateCmd() *cobra.Command {
	var planPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a plan file: unique stage ids, known dependencies, no cycles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(planPath)
			if err != nil {
				return fmt.Errorf("failed to read plan file %s: %w", planPath, err)
			}
			var plan workflow.Plan
			if err := yaml.Unmarshal(data, &plan); err != nil {
				return fmt.Errorf("failed to parse plan file %s: %w", planPath, err)
			}

			var problems []string

			seen := make(map[string]bool)
			for i := range plan.Stages {
				stage := &plan.Stages[i]
				if stage.ID == "" {
					problems = append(problems, fmt.Sprintf("stage at index %d has no id", i))
					continue
				}
				if seen[stage.ID] {
					problems = append(problems, fmt.Sprintf("duplicate stage id %q", stage.ID))
				}
				seen[stage.ID] = true
			}
			for i := range plan.Stages {
				for _, dep := range plan.Stages[i].Dependencies {
					if !seen[dep] {
						problems = append(problems, fmt.Sprintf(
							"stage %q depends on unknown stage %q", plan.Stages[i].ID, dep))
					}
				}
			}

			for _, cycle := range workflow.DetectCycles(&plan) {
				problems = append(problems, fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
			}

			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s\n", p)
				}
				return fmt.Errorf("plan has %d problem(s)", len(problems))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "plan ok: %d stage(s)\n", len(plan.Stages))
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "plan.yaml", "plan file (YAML)")
	return cmd
}
