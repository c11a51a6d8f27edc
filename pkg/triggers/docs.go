package triggers

import (
	"fmt"
	"strings"

	"replicator/pkg/proto"
)

// Doc describes one trigger for humans: the keywords it accepts and a short
// line of guidance. Built once at init; treat as read-only.
type Doc struct {
	Options  []string
	Guidance string
}

var docs = map[proto.Trigger]Doc{
	proto.TriggerMaterialCheckpoint: {
		Options:  []string{"APPROVE", "CHANGE_DATABASE", "CHANGE_MATERIAL", "NEED_HELP"},
		Guidance: "Approve the pending materials or request a database/material change.",
	},
	proto.TriggerDesignReviewLimit: {
		Options:  limitOptions,
		Guidance: "The design has hit its review limit.",
	},
	proto.TriggerCodeReviewLimit: {
		Options:  limitOptions,
		Guidance: "The generated code has hit its review limit.",
	},
	proto.TriggerAnalysisReviewLimit: {
		Options:  limitOptions,
		Guidance: "The analysis has hit its review limit.",
	},
	proto.TriggerCodeFailureLimit: {
		Options:  limitOptions,
		Guidance: "Code generation has failed repeatedly.",
	},
	proto.TriggerExecFailureLimit: {
		Options:  limitOptions,
		Guidance: "Execution has failed repeatedly.",
	},
	proto.TriggerAnalysisFailureLimit: {
		Options:  limitOptions,
		Guidance: "Analysis has failed repeatedly.",
	},
	proto.TriggerReplanLimit: {
		Options:  limitOptions,
		Guidance: "Replanning has hit its limit.",
	},
	proto.TriggerContextOverflow: {
		Options:  []string{"SUMMARIZE", "TRUNCATE", "SKIP", "STOP"},
		Guidance: "The paper text exceeds the context budget.",
	},
	proto.TriggerBacktrackApproval: {
		Options:  []string{"APPROVE", "REJECT"},
		Guidance: "Approve or reject the suggested backtrack.",
	},
	proto.TriggerBacktrackLimit: {
		Options:  []string{"FORCE", "CONTINUE", "STOP"},
		Guidance: "The backtrack limit has been reached.",
	},
	proto.TriggerInvalidBacktrackTarget: {
		Options:  []string{"REPLAN", "STOP"},
		Guidance: "The suggested backtrack target does not exist in the plan.",
	},
	proto.TriggerMissingBacktrackTarget: {
		Options:  []string{"REPLAN", "STOP"},
		Guidance: "A backtrack was requested without naming a target stage.",
	},
	proto.TriggerInvalidBacktrackDecision: {
		Options:  []string{"CONTINUE", "STOP"},
		Guidance: "The stored backtrack decision is malformed.",
	},
	proto.TriggerDeadlockDetected: {
		Options:  []string{"GENERATE_REPORT", "REPLAN", "STOP"},
		Guidance: "The workflow can make no further progress.",
	},
	proto.TriggerLLMError:           retryStopDoc("The decision model call failed."),
	proto.TriggerMissingPaperText:   retryStopDoc("No paper text is available."),
	proto.TriggerMissingStageID:     retryStopDoc("No current stage id is set."),
	proto.TriggerProgressInitFailed: retryStopDoc("Progress records could not be initialized."),
	proto.TriggerNoStagesAvailable: {
		Options:  []string{"REPLAN", "STOP"},
		Guidance: "The plan has no runnable stages.",
	},
	proto.TriggerClarification: {
		Options:  nil, // free-form
		Guidance: "Any reply is forwarded verbatim as feedback.",
	},
}

var limitOptions = []string{
	"PROVIDE_HINT", "RETRY", "RETRY_WITH_GUIDANCE", "ACCEPT_PARTIAL", "SKIP", "STOP",
}

func retryStopDoc(guidance string) Doc {
	return Doc{Options: []string{"RETRY", "STOP"}, Guidance: guidance}
}

// Docs returns the documentation entry for a trigger.
func Docs(t proto.Trigger) (Doc, bool) {
	d, ok := docs[t]
	return d, ok
}

// reaskMessage builds the re-prompt shown when a reply matched no rule.
func reaskMessage(t proto.Trigger, response string) string {
	doc, ok := docs[t]
	if !ok || len(doc.Options) == 0 {
		return fmt.Sprintf("Response %q was not understood for %s. Please reply again.", response, t)
	}
	return fmt.Sprintf("Response %q was not understood for %s. %s Valid options: %s.",
		response, t, doc.Guidance, strings.Join(doc.Options, ", "))
}
