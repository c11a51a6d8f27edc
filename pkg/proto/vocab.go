// Package proto defines the closed vocabularies shared between the supervisor
// engine and the host routing layer: verdicts, stage statuses, trigger tags and
// analysis classification tags. These are process-wide constants; nothing in
// this package is mutable after init.
package proto

import (
	"fmt"
	"strings"
)

// Verdict is the single outcome of one supervisor decision, consumed by the
// external router to pick the next node of work.
type Verdict string

const (
	VerdictOkContinue       Verdict = "ok_continue"
	VerdictAskUser          Verdict = "ask_user"
	VerdictAllComplete      Verdict = "all_complete"
	VerdictReplanNeeded     Verdict = "replan_needed"
	VerdictBacktrackToStage Verdict = "backtrack_to_stage"
	VerdictRetryAnalyze     Verdict = "retry_analyze"
	VerdictRetryGenerate    Verdict = "retry_generate_code"
	VerdictRetryDesign      Verdict = "retry_design"
)

// String returns the string representation of Verdict.
func (v Verdict) String() string {
	return string(v)
}

// ValidateVerdict validates if a string is a valid verdict token.
func ValidateVerdict(s string) (Verdict, bool) {
	switch Verdict(s) {
	case VerdictOkContinue, VerdictAskUser, VerdictAllComplete, VerdictReplanNeeded,
		VerdictBacktrackToStage, VerdictRetryAnalyze, VerdictRetryGenerate, VerdictRetryDesign:
		return Verdict(s), true
	default:
		return "", false
	}
}

// ParseVerdict parses a string into a Verdict with validation.
// Input is normalized to lowercase first.
func ParseVerdict(s string) (Verdict, error) {
	if v, ok := ValidateVerdict(strings.ToLower(strings.TrimSpace(s))); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown verdict: %q", s)
}

// StageStatus represents the lifecycle status of a stage's progress record.
type StageStatus string

const (
	StatusNotStarted       StageStatus = "not_started"
	StatusInProgress       StageStatus = "in_progress"
	StatusCompletedSuccess StageStatus = "completed_success"
	StatusCompletedPartial StageStatus = "completed_partial"
	StatusCompletedFailed  StageStatus = "completed_failed"
	StatusBlocked          StageStatus = "blocked"
	StatusNeedsRerun       StageStatus = "needs_rerun"
)

// String returns the string representation of StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// ValidateStageStatus validates if a string is a valid stage status.
func ValidateStageStatus(s string) (StageStatus, bool) {
	switch StageStatus(s) {
	case StatusNotStarted, StatusInProgress, StatusCompletedSuccess,
		StatusCompletedPartial, StatusCompletedFailed, StatusBlocked, StatusNeedsRerun:
		return StageStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal returns true if the status indicates the stage finished a run,
// successfully or not.
func (s StageStatus) IsTerminal() bool {
	switch s {
	case StatusCompletedSuccess, StatusCompletedPartial, StatusCompletedFailed:
		return true
	default:
		return false
	}
}

// StageType distinguishes the kinds of work a plan stage can carry.
type StageType string

const (
	StageTypeMaterial   StageType = "material"
	StageTypeSimulation StageType = "simulation"
	StageTypeAnalysis   StageType = "analysis"
)
