package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
)

// Truncation geometry for TRUNCATE: keep the head and tail of the paper text
// joined by a fixed marker. The marker is exactly 39 bytes, so text at or
// below 20039 bytes is already short enough.
const (
	TruncateHead   = 15000
	TruncateTail   = 5000
	TruncateMarker = "\n\n[...truncated for context budget...]\n"
)

// contextOverflowHandler resolves the paper-text-over-budget escalation.
type contextOverflowHandler struct{}

func (h *contextOverflowHandler) Trigger() proto.Trigger {
	return proto.TriggerContextOverflow
}

func (h *contextOverflowHandler) Handle(ctx *Context) {
	switch {
	case keywords.Contains(ctx.Response, "SUMMARIZE"):
		ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
			"User requested paper text summarization to fit the context budget.")
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "Summarization requested")

	case keywords.Contains(ctx.Response, "TRUNCATE"):
		h.truncate(ctx)

	case keywords.Contains(ctx.Response, "SKIP"):
		ctx.Result.MarkStage(ctx.StageID, proto.StatusBlocked, "Stage skipped on context overflow")
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "User skipped the stage")

	case keywords.Contains(ctx.Response, "STOP"):
		ctx.Result.Stop("User stopped the workflow on context overflow")

	default:
		askAgain(ctx, proto.TriggerContextOverflow)
	}
}

// truncate keeps the first TruncateHead and last TruncateTail bytes joined by
// the marker, but only when the original text is actually longer than the
// result would be.
func (h *contextOverflowHandler) truncate(ctx *Context) {
	text := ctx.State.PaperText
	truncatedLen := TruncateHead + len(TruncateMarker) + TruncateTail

	if len(text) <= truncatedLen {
		ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
			fmt.Sprintf("Paper text is already short enough (%d chars); nothing truncated.", len(text)))
		ctx.Result.SetVerdict(proto.VerdictOkContinue, "Paper text already short enough")
		return
	}

	truncated := text[:TruncateHead] + TruncateMarker + text[len(text)-TruncateTail:]
	ctx.Result.PaperText = &truncated
	ctx.Result.SupervisorFeedback = append(ctx.Result.SupervisorFeedback,
		fmt.Sprintf("Paper text truncated from %d to %d chars.", len(text), len(truncated)))
	ctx.Result.SetVerdict(proto.VerdictOkContinue, "Paper text truncated")
}
