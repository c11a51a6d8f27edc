// Package auditlog appends structured records of every human exchange. The
// durable copy lives in the workflow state (append-only, sequential ids); a
// JSONL mirror file is kept best-effort for offline review.
package auditlog

import (
	"fmt"
	"time"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// Placeholder texts for fields a later review fills in.
const (
	QuestionCleared         = "(question cleared)"
	ImpactPlaceholder       = "(not assessed)"
	AlternativesPlaceholder = "(none recorded)"
)

// Record builds the audit entry for one resolved trigger. Ids are sequential:
// "U" + (existing count + 1). The record is logged even when the response list
// is empty.
func Record(state *workflow.State, trigger proto.Trigger, stageID string,
	responses []keywords.ResponseEntry) workflow.UserInteractionRecord {

	question := QuestionCleared
	if len(state.PendingQuestions) > 0 {
		question = state.PendingQuestions[0]
	}

	return workflow.UserInteractionRecord{
		ID:              fmt.Sprintf("U%d", len(state.InteractionLog)+1),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		InteractionType: trigger.String(),
		Context: workflow.InteractionContext{
			StageID: stageID,
			Actor:   proto.ActorSupervisor,
			Reason:  trigger.String(),
		},
		Question:               question,
		UserResponse:           keywords.LastResponse(responses),
		Impact:                 ImpactPlaceholder,
		AlternativesConsidered: AlternativesPlaceholder,
	}
}
