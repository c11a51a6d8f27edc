package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"replicator/pkg/agent"
	"replicator/pkg/archive"
	"replicator/pkg/auditlog"
	"replicator/pkg/contextmgr"
	"replicator/pkg/logx"
	"replicator/pkg/supervisor"
	"replicator/pkg/workflow"
)

func newStepCmd() *cobra.Command {
	var (
		statePath string
		deltaOnly bool
	)

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Run one supervisor step against a state snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logx.NewLogger("cli")

			data, err := os.ReadFile(statePath)
			if err != nil {
				return fmt.Errorf("failed to read state file %s: %w", statePath, err)
			}
			var state workflow.State
			if err := json.Unmarshal(data, &state); err != nil {
				return fmt.Errorf("failed to parse state file %s: %w", statePath, err)
			}

			var decider agent.Decider
			if key := globalConfig.APIKey(); key != "" {
				decider = agent.NewClaudeDecider(key, globalConfig.Model)
			} else {
				logger.Warn("%s not set, using mock decider", globalConfig.APIKeyEnv)
				decider = &agent.MockDecider{}
			}

			opts := []supervisor.Option{
				supervisor.WithContextChecker(contextmgr.NewChecker(globalConfig.TokenBudget)),
			}

			store, err := archive.Open(globalConfig.ArchiveDBPath)
			if err != nil {
				logger.Warn("archive unavailable, continuing without it: %v", err)
			} else {
				defer func() { _ = store.Close() }()
				opts = append(opts, supervisor.WithArchiver(store))
			}

			audit, err := auditlog.NewWriter(globalConfig.AuditLogDir)
			if err != nil {
				logger.Warn("audit mirror unavailable, continuing without it: %v", err)
			} else {
				defer func() { _ = audit.Close() }()
				opts = append(opts, supervisor.WithAuditWriter(audit))
			}

			controller := supervisor.NewController(decider, supervisor.NewStatePromptBuilder(), opts...)
			delta := controller.Step(cmd.Context(), &state)

			var out any = delta
			if !deltaOnly {
				merged := delta.Apply(state)
				out = struct {
					Delta *workflow.Delta `json:"delta"`
					State workflow.State  `json:"state"`
				}{delta, merged}
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode step result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "state.json", "workflow state snapshot (JSON)")
	cmd.Flags().BoolVar(&deltaOnly, "delta-only", false, "print only the delta, not the merged state")
	return cmd
}
