package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
)

// deadlockHandler resolves the no-further-progress escalation. Report and stop
// are both terminal; replan forwards the reply to the planner and keeps going.
type deadlockHandler struct{}

func (h *deadlockHandler) Trigger() proto.Trigger {
	return proto.TriggerDeadlockDetected
}

func (h *deadlockHandler) Handle(ctx *Context) {
	switch {
	case keywords.ContainsAny(ctx.Response, "GENERATE_REPORT", "REPORT"):
		ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
			"Deadlock report requested; finishing with the results gathered so far.")
		ctx.Result.Stop("User requested a final report on deadlock")

	case keywords.Contains(ctx.Response, "REPLAN"):
		ctx.Result.PlannerFeedback = append(ctx.Result.PlannerFeedback, ctx.Response)
		ctx.Result.SetVerdict(proto.VerdictReplanNeeded, "User requested a replan to break the deadlock")

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop("User stopped the workflow on deadlock")

	default:
		askAgain(ctx, proto.TriggerDeadlockDetected)
	}
}

// retryStopHandler resolves the critical-error family: retry the step or stop
// the workflow.
type retryStopHandler struct {
	trigger proto.Trigger
}

func (h *retryStopHandler) Trigger() proto.Trigger {
	return h.trigger
}

func (h *retryStopHandler) Handle(ctx *Context) {
	switch {
	case keywords.Contains(ctx.Response, "RETRY"):
		ctx.Result.SetVerdict(proto.VerdictOkContinue,
			fmt.Sprintf("User requested a retry after %s", h.trigger))

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop(fmt.Sprintf("User stopped the workflow after %s", h.trigger))

	default:
		askAgain(ctx, h.trigger)
	}
}

// replanStopHandler resolves the planning-error family: ask the planner for a
// new plan or stop.
type replanStopHandler struct {
	trigger proto.Trigger
}

func (h *replanStopHandler) Trigger() proto.Trigger {
	return h.trigger
}

func (h *replanStopHandler) Handle(ctx *Context) {
	switch {
	case keywords.Contains(ctx.Response, "REPLAN"):
		ctx.Result.PlannerFeedback = append(ctx.Result.PlannerFeedback, ctx.Response)
		ctx.Result.SetVerdict(proto.VerdictReplanNeeded,
			fmt.Sprintf("User requested a replan after %s", h.trigger))

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop(fmt.Sprintf("User stopped the workflow after %s", h.trigger))

	default:
		askAgain(ctx, h.trigger)
	}
}

// clarificationHandler always continues, forwarding the reply verbatim.
type clarificationHandler struct{}

func (h *clarificationHandler) Trigger() proto.Trigger {
	return proto.TriggerClarification
}

func (h *clarificationHandler) Handle(ctx *Context) {
	ctx.Result.PlannerFeedback = append(ctx.Result.PlannerFeedback, ctx.Response)
	ctx.Result.SetVerdict(proto.VerdictOkContinue, "User clarification recorded")
}
