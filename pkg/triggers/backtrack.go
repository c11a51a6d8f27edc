package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// backtrackApprovalHandler resolves the human gate on a suggested backtrack.
// Rejection beats approval: a reply containing both keyword kinds is treated
// as a rejection, never as an approval.
type backtrackApprovalHandler struct{}

func (h *backtrackApprovalHandler) Trigger() proto.Trigger {
	return proto.TriggerBacktrackApproval
}

func (h *backtrackApprovalHandler) Handle(ctx *Context) {
	switch {
	case keywords.Rejection.Matches(ctx.Response):
		ctx.Result.ClearBacktrack = true
		ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
			"Backtrack suggestion rejected by user; continuing forward.")
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "Backtrack rejected")

	case keywords.Approval.Matches(ctx.Response):
		h.approve(ctx)

	default:
		askAgain(ctx, proto.TriggerBacktrackApproval)
	}
}

// approve computes the blast radius of the suggested target and promotes the
// suggestion into the routed decision.
func (h *backtrackApprovalHandler) approve(ctx *Context) {
	suggestion := ctx.State.Backtrack
	if suggestion == nil || suggestion.TargetStageID == "" {
		ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
			"No backtrack suggestion is pending; continuing forward.")
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "No backtrack pending")
		return
	}

	decision := workflow.BacktrackDecision{
		TargetStageID:      suggestion.TargetStageID,
		Reason:             suggestion.Reason,
		StagesToInvalidate: ctx.Dependents(ctx.State.Plan, suggestion.TargetStageID),
	}
	ctx.Result.Backtrack = &decision
	ctx.Result.SetVerdict(proto.VerdictBacktrackToStage,
		fmt.Sprintf("Backtrack to %s approved, invalidating %d stage(s)",
			decision.TargetStageID, len(decision.StagesToInvalidate)))
}

// backtrackLimitHandler resolves the too-many-backtracks escalation.
type backtrackLimitHandler struct{}

func (h *backtrackLimitHandler) Trigger() proto.Trigger {
	return proto.TriggerBacktrackLimit
}

func (h *backtrackLimitHandler) Handle(ctx *Context) {
	switch {
	case keywords.ContainsAny(ctx.Response, "FORCE", "CONTINUE"):
		ctx.Result.ResetCounter(workflow.CounterBacktracks)
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "Backtrack limit overridden by user")

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop("User stopped the workflow at the backtrack limit")

	default:
		askAgain(ctx, proto.TriggerBacktrackLimit)
	}
}

// invalidBacktrackDecisionHandler clears a malformed stored decision on
// CONTINUE.
type invalidBacktrackDecisionHandler struct{}

func (h *invalidBacktrackDecisionHandler) Trigger() proto.Trigger {
	return proto.TriggerInvalidBacktrackDecision
}

func (h *invalidBacktrackDecisionHandler) Handle(ctx *Context) {
	switch {
	case keywords.Contains(ctx.Response, "CONTINUE"):
		ctx.Result.ClearBacktrack = true
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "Invalid backtrack decision discarded")

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop("User stopped the workflow on an invalid backtrack decision")

	default:
		askAgain(ctx, proto.TriggerInvalidBacktrackDecision)
	}
}
