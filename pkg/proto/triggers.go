package proto

import "strings"

// Trigger names why the workflow paused to ask a human. The set is closed;
// unknown tags are tolerated downstream but always resolve to ok_continue.
type Trigger string

const (
	// Checkpoint triggers.
	TriggerMaterialCheckpoint Trigger = "material_checkpoint"

	// Revision / failure limit triggers.
	TriggerDesignReviewLimit    Trigger = "design_review_limit"
	TriggerCodeReviewLimit      Trigger = "code_review_limit"
	TriggerAnalysisReviewLimit  Trigger = "analysis_review_limit"
	TriggerCodeFailureLimit     Trigger = "code_failure_limit"
	TriggerExecFailureLimit     Trigger = "execution_failure_limit"
	TriggerAnalysisFailureLimit Trigger = "analysis_failure_limit"
	TriggerReplanLimit          Trigger = "replan_limit"

	// Context budget triggers.
	TriggerContextOverflow Trigger = "context_overflow"

	// Backtracking triggers.
	TriggerBacktrackApproval       Trigger = "backtrack_approval"
	TriggerBacktrackLimit          Trigger = "backtrack_limit"
	TriggerInvalidBacktrackTarget  Trigger = "invalid_backtrack_target"
	TriggerMissingBacktrackTarget  Trigger = "missing_backtrack_target"
	TriggerInvalidBacktrackDecision Trigger = "invalid_backtrack_decision"

	// Deadlock and critical-error triggers.
	TriggerDeadlockDetected   Trigger = "deadlock_detected"
	TriggerLLMError           Trigger = "llm_error"
	TriggerMissingPaperText   Trigger = "missing_paper_text"
	TriggerMissingStageID     Trigger = "missing_stage_id"
	TriggerProgressInitFailed Trigger = "progress_init_failed"
	TriggerNoStagesAvailable  Trigger = "no_stages_available"

	// Free-form triggers.
	TriggerClarification Trigger = "clarification"
)

// String returns the string representation of Trigger.
func (t Trigger) String() string {
	return string(t)
}

// AllTriggers lists every known trigger tag. The returned slice is a copy.
func AllTriggers() []Trigger {
	return []Trigger{
		TriggerMaterialCheckpoint,
		TriggerDesignReviewLimit, TriggerCodeReviewLimit, TriggerAnalysisReviewLimit,
		TriggerCodeFailureLimit, TriggerExecFailureLimit, TriggerAnalysisFailureLimit,
		TriggerReplanLimit,
		TriggerContextOverflow,
		TriggerBacktrackApproval, TriggerBacktrackLimit,
		TriggerInvalidBacktrackTarget, TriggerMissingBacktrackTarget,
		TriggerInvalidBacktrackDecision,
		TriggerDeadlockDetected, TriggerLLMError, TriggerMissingPaperText,
		TriggerMissingStageID, TriggerProgressInitFailed, TriggerNoStagesAvailable,
		TriggerClarification,
	}
}

// ValidateTrigger validates if a string is a known trigger tag.
func ValidateTrigger(s string) (Trigger, bool) {
	for _, t := range AllTriggers() {
		if Trigger(s) == t {
			return t, true
		}
	}
	return "", false
}

// Classification is the overall analysis classification tag for a stage.
// Matching is case-insensitive; unrecognized tags fall through to the
// default-to-success policy in the outcome resolver.
type Classification string

const (
	ClassExcellentMatch  Classification = "EXCELLENT_MATCH"
	ClassAcceptableMatch Classification = "ACCEPTABLE_MATCH"
	ClassPartialMatch    Classification = "PARTIAL_MATCH"
	ClassPoorMatch       Classification = "POOR_MATCH"
	ClassFailed          Classification = "FAILED"
	ClassNoTargets       Classification = "NO_TARGETS"
)

// NormalizeClassification uppercases and trims a raw classification tag.
func NormalizeClassification(s string) Classification {
	return Classification(strings.ToUpper(strings.TrimSpace(s)))
}

// ComparisonVerdict is the optional per-stage comparison reviewer verdict.
type ComparisonVerdict string

const (
	ComparisonNeedsRevision ComparisonVerdict = "needs_revision"
	ComparisonAccepted      ComparisonVerdict = "accepted"
)

// PhysicsVerdict is the optional per-stage physics sanity verdict.
type PhysicsVerdict string

const (
	PhysicsPass    PhysicsVerdict = "pass"
	PhysicsWarning PhysicsVerdict = "warning"
	PhysicsFail    PhysicsVerdict = "fail"
)

// Figure comparison buckets. A figure classification in the missing bucket
// forces completed_failed; one in the pending bucket downgrades success to
// completed_partial.
var (
	figureMissingBucket = map[string]bool{
		"missing_output": true,
		"fail":           true,
		"not_reproduced": true,
		"mismatch":       true,
		"poor_match":     true,
	}
	figurePendingBucket = map[string]bool{
		"pending_validation": true,
		"partial_match":      true,
		"match_pending":      true,
		"partial":            true,
	}
)

// FigureMissing reports whether a figure classification falls in the
// missing-output bucket. Case-insensitive.
func FigureMissing(class string) bool {
	return figureMissingBucket[strings.ToLower(strings.TrimSpace(class))]
}

// FigurePending reports whether a figure classification falls in the
// pending-validation bucket. Case-insensitive.
func FigurePending(class string) bool {
	return figurePendingBucket[strings.ToLower(strings.TrimSpace(class))]
}

// ActorSupervisor is the fixed actor tag recorded on audit log entries.
const ActorSupervisor = "SupervisorAgent"

// PhaseSupervisor is the phase marker stamped on every step result.
const PhaseSupervisor = "supervisor"
