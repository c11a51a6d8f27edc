package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
)

// feedbackChannel names the downstream consumer a limit trigger forwards hints
// to.
type feedbackChannel int

const (
	channelPlanner feedbackChannel = iota
	channelReviewer
	channelAnalysis
)

// limitHandler resolves the revision/failure limit family. One instance per
// trigger tag, bound to its counter key, feedback channel and retry verdict.
type limitHandler struct {
	trigger      proto.Trigger
	counterKey   string
	channel      feedbackChannel
	retryVerdict proto.Verdict
}

func (h *limitHandler) Trigger() proto.Trigger {
	return h.trigger
}

// Handle applies the family's rules in the order the options are listed to
// the user: hint/retry first, then accept-partial, skip, stop. The first
// matching rule wins, so a reply naming both a hint and STOP forwards the
// hint.
func (h *limitHandler) Handle(ctx *Context) {
	switch {
	case keywords.ContainsAny(ctx.Response, "PROVIDE_HINT", "HINT", "GUIDANCE", "RETRY_WITH_GUIDANCE", "RETRY"):
		ctx.Result.ResetCounter(h.counterKey)
		h.forward(ctx)
		ctx.Result.SetVerdict(h.retryVerdict,
			fmt.Sprintf("Counter %s reset, retrying with user guidance", h.counterKey))

	case keywords.ContainsAny(ctx.Response, "ACCEPT_PARTIAL", "FORCE", "ACCEPT"):
		ctx.Result.ResetCounter(h.counterKey)
		ctx.Result.MarkStage(ctx.StageID, proto.StatusCompletedPartial,
			fmt.Sprintf("Partial result accepted by user at %s", h.trigger))
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "User accepted the partial result")

	case keywords.ContainsAny(ctx.Response, "SKIP", "SKIP_STAGE"):
		ctx.Result.MarkStage(ctx.StageID, proto.StatusBlocked,
			fmt.Sprintf("Stage skipped by user at %s", h.trigger))
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "User skipped the stage")

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop(fmt.Sprintf("User stopped the workflow at %s", h.trigger))

	default:
		askAgain(ctx, h.trigger)
	}
}

// forward passes the raw reply to the bound downstream channel. The hint text
// is forwarded verbatim; downstream prompt builders decide how to use it.
func (h *limitHandler) forward(ctx *Context) {
	switch h.channel {
	case channelPlanner:
		ctx.Result.PlannerFeedback = append(ctx.Result.PlannerFeedback, ctx.Response)
	case channelReviewer:
		ctx.Result.ReviewerFeedback = append(ctx.Result.ReviewerFeedback, ctx.Response)
	case channelAnalysis:
		ctx.Result.AnalysisFeedback = append(ctx.Result.AnalysisFeedback, ctx.Response)
	}
}
