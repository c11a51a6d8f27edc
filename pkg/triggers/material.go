package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// materialCheckpointHandler resolves the human checkpoint on candidate
// materials. Change requests are checked before approval so a reply like
// "YES, but CHANGE_DATABASE" routes to the change branch.
type materialCheckpointHandler struct{}

func (h *materialCheckpointHandler) Trigger() proto.Trigger {
	return proto.TriggerMaterialCheckpoint
}

func (h *materialCheckpointHandler) Handle(ctx *Context) {
	switch {
	case keywords.Contains(ctx.Response, "CHANGE_DATABASE"):
		h.requestChange(ctx, "CHANGE_DATABASE")

	case keywords.Contains(ctx.Response, "CHANGE_MATERIAL"):
		h.requestChange(ctx, "CHANGE_MATERIAL")

	case keywords.Approval.Matches(ctx.Response):
		h.approve(ctx)

	case keywords.Contains(ctx.Response, "NEED_HELP"):
		ctx.Result.AskAgain(proto.TriggerMaterialCheckpoint, fmt.Sprintf(
			"Material checkpoint for stage %s: %d material(s) pending validation. "+
				"Reply APPROVE to validate them, CHANGE_DATABASE to switch databases, "+
				"or CHANGE_MATERIAL to pick different materials.",
			ctx.StageID, len(ctx.State.PendingMaterials)))

	case keywords.Rejection.Matches(ctx.Response):
		ctx.Result.AskAgain(proto.TriggerMaterialCheckpoint,
			"Materials rejected. Please specify CHANGE_DATABASE or CHANGE_MATERIAL so the plan can be revised.")

	default:
		askAgain(ctx, proto.TriggerMaterialCheckpoint)
	}
}

// approve promotes every pending material to validated and completes the
// stage. With nothing pending there is nothing to approve, so ask again.
func (h *materialCheckpointHandler) approve(ctx *Context) {
	if len(ctx.State.PendingMaterials) == 0 {
		ctx.Result.AskAgain(proto.TriggerMaterialCheckpoint,
			"No materials are pending validation; there is nothing to approve. "+
				"Reply CHANGE_DATABASE or CHANGE_MATERIAL to request a revision.")
		return
	}

	validated := append(append([]workflow.Material(nil), ctx.State.ValidatedMaterials...),
		ctx.State.PendingMaterials...)
	pending := []workflow.Material{}
	ctx.Result.ValidatedMaterials = &validated
	ctx.Result.PendingMaterials = &pending

	ctx.Result.MarkStage(ctx.StageID, proto.StatusCompletedSuccess,
		fmt.Sprintf("%d material(s) validated by user", len(ctx.State.PendingMaterials)))
	ctx.Result.SetVerdict(proto.VerdictOkContinue,
		fmt.Sprintf("User approved %d material(s)", len(ctx.State.PendingMaterials)))
}

// requestChange clears both material lists and asks the planner for a revised
// plan carrying a typed reason.
func (h *materialCheckpointHandler) requestChange(ctx *Context, kind string) {
	empty := []workflow.Material{}
	ctx.Result.PendingMaterials = &empty
	ctx.Result.ValidatedMaterials = &empty

	ctx.Result.MarkStage(ctx.StageID, proto.StatusNeedsRerun,
		fmt.Sprintf("Material change requested (%s)", kind))
	ctx.Result.PlannerFeedback = append(ctx.Result.PlannerFeedback,
		fmt.Sprintf("material_change_requested=%s: %s", kind, ctx.Response))
	ctx.Result.SetVerdict(proto.VerdictReplanNeeded,
		fmt.Sprintf("User requested %s at the material checkpoint", kind))
}
