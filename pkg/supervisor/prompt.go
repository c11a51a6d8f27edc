package supervisor

import (
	"fmt"
	"strings"

	"replicator/pkg/workflow"
)

// StatePromptBuilder renders a plain-text snapshot of the workflow for the
// decision model: the plan, per-stage progress, counters and recent feedback.
type StatePromptBuilder struct {
	// MaxFeedback bounds how many recent entries per channel are included.
	MaxFeedback int
}

// NewStatePromptBuilder returns a builder with sensible defaults.
func NewStatePromptBuilder() *StatePromptBuilder {
	return &StatePromptBuilder{MaxFeedback: 5}
}

// Build renders the snapshot. It never fails on partial state; missing pieces
// are simply omitted.
func (b *StatePromptBuilder) Build(state *workflow.State) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Workflow snapshot\n\n")

	if state.Plan != nil && len(state.Plan.Stages) > 0 {
		sb.WriteString("## Plan\n")
		for i := range state.Plan.Stages {
			stage := &state.Plan.Stages[i]
			status := "not_started"
			if rec, ok := state.ProgressFor(stage.ID); ok {
				status = rec.Status.String()
			}
			fmt.Fprintf(&sb, "- %s (%s) deps=[%s] status=%s\n",
				stage.ID, stage.Type, strings.Join(stage.Dependencies, ","), status)
		}
		sb.WriteString("\n")
	}

	if state.CurrentStageID != "" {
		fmt.Fprintf(&sb, "Current stage: %s\n", state.CurrentStageID)
		if summary := state.SummaryFor(state.CurrentStageID); summary != nil {
			fmt.Fprintf(&sb, "Latest analysis: classification=%s comparison=%s physics=%s\n",
				summary.Classification, summary.ComparisonVerdict, summary.PhysicsVerdict)
		}
		sb.WriteString("\n")
	}

	if len(state.Counters) > 0 {
		sb.WriteString("## Counters\n")
		for _, key := range []string{
			workflow.CounterDesignRevisions, workflow.CounterCodeRevisions,
			workflow.CounterAnalysisRevisions, workflow.CounterCodeFailures,
			workflow.CounterExecFailures, workflow.CounterAnalysisFailures,
			workflow.CounterReplans, workflow.CounterBacktracks,
		} {
			if v := state.Counter(key); v > 0 {
				fmt.Fprintf(&sb, "- %s: %d\n", key, v)
			}
		}
		sb.WriteString("\n")
	}

	b.writeFeedback(&sb, "Planner feedback", state.PlannerFeedback)
	b.writeFeedback(&sb, "Reviewer feedback", state.ReviewerFeedback)
	b.writeFeedback(&sb, "Analysis feedback", state.AnalysisFeedback)
	b.writeFeedback(&sb, "Supervisor feedback", state.SupervisorFeedback)

	if state.Backtrack != nil {
		fmt.Fprintf(&sb, "Pending backtrack suggestion: target=%s reason=%s\n\n",
			state.Backtrack.TargetStageID, state.Backtrack.Reason)
	}

	sb.WriteString("Decide the next move and answer with the JSON object described in the system prompt.\n")
	return sb.String(), nil
}

func (b *StatePromptBuilder) writeFeedback(sb *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	limit := b.MaxFeedback
	if limit <= 0 {
		limit = 5
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	fmt.Fprintf(sb, "## %s\n", title)
	for _, e := range entries {
		fmt.Fprintf(sb, "- %s\n", e)
	}
	sb.WriteString("\n")
}
