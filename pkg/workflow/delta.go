package workflow

import (
	"replicator/pkg/keywords"
	"replicator/pkg/proto"
)

// StatusUpdate is one stage status transition carried in a Delta.
type StatusUpdate struct {
	StageID string            `json:"stage_id"`
	Status  proto.StageStatus `json:"status"`
	Summary string            `json:"summary,omitempty"`
}

// Delta is the tagged result of one supervisor operation. Fields follow three
// conventions: plain slices are appended to the state's lists, pointer fields
// replace the state's value outright, and Clear* flags remove it. The host
// routing layer reads the json-tagged fields directly to pick the next node.
type Delta struct {
	Verdict    Verdict `json:"supervisor_verdict,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
	ShouldStop bool    `json:"should_stop,omitempty"`
	Phase      string  `json:"phase,omitempty"`

	AskUserTrigger    proto.Trigger `json:"ask_user_trigger,omitempty"`
	ClearTrigger      bool          `json:"clear_trigger,omitempty"`
	PendingQuestions  *[]string     `json:"pending_user_questions,omitempty"`
	AwaitingUserInput bool          `json:"awaiting_user_input,omitempty"`

	Backtrack      *BacktrackDecision `json:"backtrack_decision,omitempty"`
	ClearBacktrack bool               `json:"clear_backtrack,omitempty"`

	PlannerFeedback    []string `json:"planner_feedback,omitempty"`
	ReviewerFeedback   []string `json:"reviewer_feedback,omitempty"`
	AnalysisFeedback   []string `json:"analysis_feedback,omitempty"`
	SupervisorFeedback []string `json:"supervisor_feedback,omitempty"`

	StatusUpdates []StatusUpdate `json:"status_updates,omitempty"`
	CounterResets []string       `json:"counter_resets,omitempty"`

	PendingMaterials   *[]Material `json:"pending_materials,omitempty"`
	ValidatedMaterials *[]Material `json:"validated_materials,omitempty"`

	PaperText *string `json:"paper_text,omitempty"`

	// ArchiveErrors replaces the whole list (the retry coordinator rebuilds
	// it); ArchiveErrorAppends adds failures discovered later in the step.
	ArchiveErrors       *[]ArchiveErrorRecord `json:"archive_errors,omitempty"`
	ArchiveErrorAppends []ArchiveErrorRecord  `json:"archive_error_appends,omitempty"`

	AuditRecords []UserInteractionRecord `json:"audit_records,omitempty"`
}

// Verdict aliases proto.Verdict for the json surface.
type Verdict = proto.Verdict

// SetVerdict records the verdict with optional reasoning, overwriting any
// earlier value. First matching trigger rule wins, so handlers call this once.
func (d *Delta) SetVerdict(v Verdict, reasoning string) {
	d.Verdict = v
	if reasoning != "" {
		d.Reasoning = reasoning
	}
}

// AskAgain re-escalates the same trigger with a fresh question listing the
// valid options. The pending trigger survives the step.
func (d *Delta) AskAgain(trigger proto.Trigger, question string) {
	d.Verdict = proto.VerdictAskUser
	d.AskUserTrigger = trigger
	qs := []string{question}
	d.PendingQuestions = &qs
	d.AwaitingUserInput = true
}

// MarkStage records a stage status transition.
func (d *Delta) MarkStage(stageID string, status proto.StageStatus, summary string) {
	if stageID == "" {
		return
	}
	d.StatusUpdates = append(d.StatusUpdates, StatusUpdate{StageID: stageID, Status: status, Summary: summary})
}

// ResetCounter schedules a counter reset to zero.
func (d *Delta) ResetCounter(key string) {
	d.CounterResets = append(d.CounterResets, key)
}

// Stop sets the terminal verdict with the stop flag. The only self-terminating
// path in the engine.
func (d *Delta) Stop(reasoning string) {
	d.SetVerdict(proto.VerdictAllComplete, reasoning)
	d.ShouldStop = true
}

// Apply merges the delta into a copy of the state and returns the copy. The
// engine itself never calls this on its input; it exists for the host, the CLI
// and tests.
func (d *Delta) Apply(s State) State {
	out := s.clone()

	// Verdict, reasoning and phase are per-step outputs read by the router,
	// not durable state; they are not merged.

	if d.ClearTrigger {
		out.PendingTrigger = ""
	}
	if d.AskUserTrigger != "" {
		out.PendingTrigger = d.AskUserTrigger
	}
	if d.PendingQuestions != nil {
		out.PendingQuestions = append([]string(nil), (*d.PendingQuestions)...)
	}

	if d.ClearBacktrack {
		out.Backtrack = nil
	}
	if d.Backtrack != nil {
		bd := *d.Backtrack
		out.Backtrack = &bd
	}

	out.PlannerFeedback = append(out.PlannerFeedback, d.PlannerFeedback...)
	out.ReviewerFeedback = append(out.ReviewerFeedback, d.ReviewerFeedback...)
	out.AnalysisFeedback = append(out.AnalysisFeedback, d.AnalysisFeedback...)
	out.SupervisorFeedback = append(out.SupervisorFeedback, d.SupervisorFeedback...)

	for _, upd := range d.StatusUpdates {
		if rec, ok := out.ProgressFor(upd.StageID); ok {
			rec.Status = upd.Status
			if upd.Summary != "" {
				rec.Summary = upd.Summary
			}
		} else {
			out.Progress = append(out.Progress, ProgressRecord{
				StageID: upd.StageID, Status: upd.Status, Summary: upd.Summary,
			})
		}
	}

	for _, key := range d.CounterResets {
		if out.Counters == nil {
			out.Counters = make(map[string]int)
		}
		out.Counters[key] = 0
	}

	if d.PendingMaterials != nil {
		out.PendingMaterials = append([]Material(nil), (*d.PendingMaterials)...)
	}
	if d.ValidatedMaterials != nil {
		out.ValidatedMaterials = append([]Material(nil), (*d.ValidatedMaterials)...)
	}

	if d.PaperText != nil {
		out.PaperText = *d.PaperText
	}

	if d.ArchiveErrors != nil {
		out.ArchiveErrors = append([]ArchiveErrorRecord(nil), (*d.ArchiveErrors)...)
	}
	out.ArchiveErrors = append(out.ArchiveErrors, d.ArchiveErrorAppends...)

	out.InteractionLog = append(out.InteractionLog, d.AuditRecords...)

	return out
}

// clone makes a copy of the state deep enough that merging a delta never
// aliases the caller's slices or maps.
func (s *State) clone() State {
	out := *s

	out.Progress = append([]ProgressRecord(nil), s.Progress...)
	out.PendingQuestions = append([]string(nil), s.PendingQuestions...)
	out.Responses = append([]keywords.ResponseEntry(nil), s.Responses...)
	out.PlannerFeedback = append([]string(nil), s.PlannerFeedback...)
	out.ReviewerFeedback = append([]string(nil), s.ReviewerFeedback...)
	out.AnalysisFeedback = append([]string(nil), s.AnalysisFeedback...)
	out.SupervisorFeedback = append([]string(nil), s.SupervisorFeedback...)
	out.PendingMaterials = append([]Material(nil), s.PendingMaterials...)
	out.ValidatedMaterials = append([]Material(nil), s.ValidatedMaterials...)
	out.ArchiveErrors = append([]ArchiveErrorRecord(nil), s.ArchiveErrors...)
	out.InteractionLog = append([]UserInteractionRecord(nil), s.InteractionLog...)
	out.FigureComparisons = append([]FigureComparison(nil), s.FigureComparisons...)

	if s.Counters != nil {
		out.Counters = make(map[string]int, len(s.Counters))
		for k, v := range s.Counters {
			out.Counters[k] = v
		}
	}
	if s.AnalysisSummaries != nil {
		out.AnalysisSummaries = make(map[string]*AnalysisSummary, len(s.AnalysisSummaries))
		for k, v := range s.AnalysisSummaries {
			if v != nil {
				cp := *v
				out.AnalysisSummaries[k] = &cp
			}
		}
	}
	if s.Backtrack != nil {
		bd := *s.Backtrack
		out.Backtrack = &bd
	}
	if s.Plan != nil {
		plan := Plan{Stages: append([]Stage(nil), s.Plan.Stages...)}
		out.Plan = &plan
	}

	return out
}
