// Package workflow defines the supervisor's data model: the dependency-ordered
// plan, per-stage progress records, the aggregate workflow state passed into
// every step, and the tagged delta every operation returns. The engine never
// mutates a State in place; the host merges deltas with whatever durability
// policy it needs.
package workflow

import (
	"time"

	"replicator/pkg/keywords"
	"replicator/pkg/proto"
)

// Stage is one unit of work in a dependency-ordered plan.
type Stage struct {
	ID           string          `json:"id" yaml:"id"`
	Type         proto.StageType `json:"type" yaml:"type"`
	Dependencies []string        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Targets      []string        `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Plan is an ordered collection of stages. Stage ids are unique; dependency
// ids should reference existing stages but this is not enforced here, since
// traversal skips unknown references.
type Plan struct {
	Stages []Stage `json:"stages" yaml:"stages"`
}

// ProgressRecord tracks the lifecycle status of one stage. Records are created
// at plan-build time by the host and only ever status-transitioned, never
// destroyed.
type ProgressRecord struct {
	StageID string            `json:"stage_id"`
	Status  proto.StageStatus `json:"status"`
	Summary string            `json:"summary,omitempty"`
}

// ArchiveErrorRecord remembers a failed persistence call so it can be retried
// on a later step.
type ArchiveErrorRecord struct {
	StageID   string    `json:"stage_id"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// BacktrackDecision names an earlier stage to re-run and the stages that
// become invalid when it does. Ephemeral: produced by the decision collaborator
// or by trigger recovery and consumed by the external routing layer.
type BacktrackDecision struct {
	TargetStageID      string   `json:"target_stage_id"`
	Reason             string   `json:"reason,omitempty"`
	StagesToInvalidate []string `json:"stages_to_invalidate,omitempty"`
}

// InteractionContext records who asked and why on an audit log entry.
type InteractionContext struct {
	StageID string `json:"stage_id"`
	Actor   string `json:"actor"`
	Reason  string `json:"reason"`
}

// UserInteractionRecord is one append-only audit record of a human exchange.
// IDs are sequential: "U" + (existing count + 1).
type UserInteractionRecord struct {
	ID                     string             `json:"id"`
	Timestamp              string             `json:"timestamp"`
	InteractionType        string             `json:"interaction_type"`
	Context                InteractionContext `json:"context"`
	Question               string             `json:"question"`
	UserResponse           string             `json:"user_response"`
	Impact                 string             `json:"impact"`
	AlternativesConsidered string             `json:"alternatives_considered"`
}

// Material is a candidate material record awaiting or past human validation.
type Material struct {
	MaterialID string `json:"material_id"`
	Formula    string `json:"formula,omitempty"`
	Database   string `json:"database,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// AnalysisSummary carries the weak signals the outcome resolver derives a
// stage's terminal status from.
type AnalysisSummary struct {
	Classification    string                  `json:"classification,omitempty"`
	ComparisonVerdict proto.ComparisonVerdict `json:"comparison_verdict,omitempty"`
	PhysicsVerdict    proto.PhysicsVerdict    `json:"physics_verdict,omitempty"`
	Notes             string                  `json:"notes,omitempty"`
	Matches           int                     `json:"matches,omitempty"`
	Targets           int                     `json:"targets,omitempty"`
	RawSummary        string                  `json:"raw_summary,omitempty"`
}

// FigureComparison is one per-figure comparison result for a stage.
type FigureComparison struct {
	StageID        string `json:"stage_id"`
	FigureID       string `json:"figure_id,omitempty"`
	Classification string `json:"classification"`
}

// Counter keys for the per-kind revision/failure counters.
const (
	CounterDesignRevisions   = "design_revisions"
	CounterCodeRevisions     = "code_revisions"
	CounterAnalysisRevisions = "analysis_revisions"
	CounterCodeFailures      = "code_failures"
	CounterExecFailures      = "execution_failures"
	CounterAnalysisFailures  = "analysis_failures"
	CounterReplans           = "replan_count"
	CounterBacktracks        = "backtrack_count"
)

// State is the aggregate passed into every supervisor step. Treated as
// read-only by the engine; every operation returns a Delta instead.
type State struct {
	Plan           *Plan            `json:"plan,omitempty"`
	Progress       []ProgressRecord `json:"progress,omitempty"`
	CurrentStageID string           `json:"current_stage_id,omitempty"`
	PaperText      string           `json:"paper_text,omitempty"`

	Counters map[string]int `json:"counters,omitempty"`

	PendingTrigger   proto.Trigger            `json:"pending_trigger,omitempty"`
	PendingQuestions []string                 `json:"pending_user_questions,omitempty"`
	Responses        []keywords.ResponseEntry `json:"user_responses,omitempty"`

	PlannerFeedback    []string `json:"planner_feedback,omitempty"`
	ReviewerFeedback   []string `json:"reviewer_feedback,omitempty"`
	AnalysisFeedback   []string `json:"analysis_feedback,omitempty"`
	SupervisorFeedback []string `json:"supervisor_feedback,omitempty"`

	PendingMaterials   []Material `json:"pending_materials,omitempty"`
	ValidatedMaterials []Material `json:"validated_materials,omitempty"`

	Backtrack *BacktrackDecision `json:"backtrack_decision,omitempty"`

	ArchiveErrors  []ArchiveErrorRecord    `json:"archive_errors,omitempty"`
	InteractionLog []UserInteractionRecord `json:"interaction_log,omitempty"`

	AnalysisSummaries map[string]*AnalysisSummary `json:"analysis_summaries,omitempty"`
	FigureComparisons []FigureComparison          `json:"figure_comparisons,omitempty"`
}

// StageByID returns the plan stage with the given id.
func (p *Plan) StageByID(id string) (*Stage, bool) {
	if p == nil || id == "" {
		return nil, false
	}
	for i := range p.Stages {
		if p.Stages[i].ID == id {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// ProgressFor returns the progress record for a stage id.
func (s *State) ProgressFor(stageID string) (*ProgressRecord, bool) {
	for i := range s.Progress {
		if s.Progress[i].StageID == stageID {
			return &s.Progress[i], true
		}
	}
	return nil, false
}

// SummaryFor returns the analysis summary for a stage, or nil.
func (s *State) SummaryFor(stageID string) *AnalysisSummary {
	if s.AnalysisSummaries == nil {
		return nil
	}
	return s.AnalysisSummaries[stageID]
}

// FiguresFor returns the figure comparisons recorded for a stage.
func (s *State) FiguresFor(stageID string) []FigureComparison {
	var out []FigureComparison
	for i := range s.FigureComparisons {
		if s.FigureComparisons[i].StageID == stageID {
			out = append(out, s.FigureComparisons[i])
		}
	}
	return out
}

// Counter returns the named counter value, zero when absent.
func (s *State) Counter(key string) int {
	if s.Counters == nil {
		return 0
	}
	return s.Counters[key]
}

// LastResponse returns the most recent raw human reply, or "".
func (s *State) LastResponse() string {
	return keywords.LastResponse(s.Responses)
}
