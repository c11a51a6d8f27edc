package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replicator/pkg/agent"
	"replicator/pkg/keywords"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// fakeArchiver fails for the stage ids in failFor.
type fakeArchiver struct {
	failFor map[string]error
	calls   []string
}

func (f *fakeArchiver) ArchiveStage(_ context.Context, _ *workflow.State, stageID string) error {
	f.calls = append(f.calls, stageID)
	if err, ok := f.failFor[stageID]; ok {
		return err
	}
	return nil
}

// fakeChecker returns a fixed escalation.
type fakeChecker struct {
	escalation *workflow.Delta
}

func (f *fakeChecker) Check(_ *workflow.State) *workflow.Delta {
	return f.escalation
}

// fakeSink records status updates.
type fakeSink struct {
	updates []string
	err     error
}

func (f *fakeSink) UpdateStatus(_ context.Context, stageID string, status proto.StageStatus, _ string) error {
	f.updates = append(f.updates, stageID+"="+status.String())
	return f.err
}

func newTestController(decider agent.Decider, opts ...Option) *Controller {
	return NewController(decider, NewStatePromptBuilder(), opts...)
}

func TestStepContextEscalationShortCircuits(t *testing.T) {
	questions := []string{"over budget, reply SUMMARIZE, TRUNCATE, SKIP, or STOP"}
	escalation := &workflow.Delta{
		Verdict:           proto.VerdictAskUser,
		AskUserTrigger:    proto.TriggerContextOverflow,
		PendingQuestions:  &questions,
		AwaitingUserInput: true,
	}
	mock := &agent.MockDecider{}
	ctl := newTestController(mock, WithContextChecker(&fakeChecker{escalation: escalation}))

	delta := ctl.Step(context.Background(), &workflow.State{CurrentStageID: "stage0"})

	assert.Equal(t, proto.VerdictAskUser, delta.Verdict)
	assert.Equal(t, proto.PhaseSupervisor, delta.Phase)
	assert.Zero(t, mock.Calls())
	// Short-circuit: no outcome resolution happened.
	assert.Empty(t, delta.StatusUpdates)
}

func TestStepDecisionPath(t *testing.T) {
	mock := &agent.MockDecider{Script: []agent.Decision{
		{Verdict: proto.VerdictReplanNeeded, Reasoning: "plan is stale"},
	}}
	ctl := newTestController(mock)

	delta := ctl.Step(context.Background(), &workflow.State{})

	assert.Equal(t, proto.VerdictReplanNeeded, delta.Verdict)
	assert.Equal(t, "plan is stale", delta.Reasoning)
	assert.Equal(t, proto.PhaseSupervisor, delta.Phase)
	assert.Empty(t, delta.AuditRecords)
	assert.False(t, delta.ClearTrigger)
}

func TestStepDeciderErrorDefaultsForward(t *testing.T) {
	mock := &agent.MockDecider{Err: errors.New("model offline")}
	ctl := newTestController(mock)

	delta := ctl.Step(context.Background(), &workflow.State{})

	assert.Equal(t, proto.VerdictOkContinue, delta.Verdict)
	assert.False(t, delta.ShouldStop)
	require.Len(t, delta.SupervisorFeedback, 1)
	assert.Contains(t, delta.SupervisorFeedback[0], "defaulted to ok_continue")
	assert.Contains(t, delta.SupervisorFeedback[0], "model offline")
}

func TestStepBacktrackDecisionPopulatesDecision(t *testing.T) {
	mock := &agent.MockDecider{Script: []agent.Decision{
		{Verdict: proto.VerdictBacktrackToStage, BacktrackTarget: "stage1", Reasoning: "bad structure"},
	}}
	ctl := newTestController(mock)

	delta := ctl.Step(context.Background(), &workflow.State{})

	assert.Equal(t, proto.VerdictBacktrackToStage, delta.Verdict)
	require.NotNil(t, delta.Backtrack)
	assert.Equal(t, "stage1", delta.Backtrack.TargetStageID)
	assert.Equal(t, "bad structure", delta.Backtrack.Reason)
}

func TestStepTriggerPathResolvesAndAudits(t *testing.T) {
	state := &workflow.State{
		PendingTrigger:   proto.TriggerLLMError,
		PendingQuestions: []string{"The decision model call failed. RETRY or STOP?"},
		Responses:        []keywords.ResponseEntry{{Question: "q", Text: "RETRY"}},
	}
	mock := &agent.MockDecider{}
	ctl := newTestController(mock)

	delta := ctl.Step(context.Background(), state)

	assert.Equal(t, proto.VerdictOkContinue, delta.Verdict)
	assert.True(t, delta.ClearTrigger)
	assert.Zero(t, mock.Calls(), "decision model is not consulted while a trigger is pending")

	require.Len(t, delta.AuditRecords, 1)
	rec := delta.AuditRecords[0]
	assert.Equal(t, "U1", rec.ID)
	assert.Equal(t, "llm_error", rec.InteractionType)
	assert.Equal(t, "RETRY", rec.UserResponse)
	assert.Equal(t, "The decision model call failed. RETRY or STOP?", rec.Question)
}

func TestStepTriggerReaskKeepsAsking(t *testing.T) {
	state := &workflow.State{
		CurrentStageID: "stage0",
		PendingTrigger: proto.TriggerLLMError,
		Responses:      []keywords.ResponseEntry{{Question: "q", Text: "no idea"}},
	}
	ctl := newTestController(&agent.MockDecider{})

	delta := ctl.Step(context.Background(), state)

	assert.Equal(t, proto.VerdictAskUser, delta.Verdict)
	assert.Equal(t, proto.TriggerLLMError, delta.AskUserTrigger)
	assert.True(t, delta.ClearTrigger)

	// Merge round trip keeps the trigger pending for the next step.
	merged := delta.Apply(*state)
	assert.Equal(t, proto.TriggerLLMError, merged.PendingTrigger)
	// No outcome resolution while still waiting on the user.
	assert.Empty(t, delta.StatusUpdates)
}

func TestStepOutcomeResolution(t *testing.T) {
	state := &workflow.State{
		CurrentStageID: "stage0",
		AnalysisSummaries: map[string]*workflow.AnalysisSummary{
			"stage0": {Classification: "PARTIAL_MATCH", Notes: "half the targets"},
		},
	}
	sink := &fakeSink{}
	archiver := &fakeArchiver{}
	ctl := newTestController(&agent.MockDecider{},
		WithProgressSink(sink), WithArchiver(archiver))

	delta := ctl.Step(context.Background(), state)

	require.Len(t, delta.StatusUpdates, 1)
	assert.Equal(t, "stage0", delta.StatusUpdates[0].StageID)
	assert.Equal(t, proto.StatusCompletedPartial, delta.StatusUpdates[0].Status)
	assert.Equal(t, "half the targets", delta.StatusUpdates[0].Summary)
	assert.Equal(t, []string{"stage0=completed_partial"}, sink.updates)
	assert.Equal(t, []string{"stage0"}, archiver.calls)
	assert.Empty(t, delta.ArchiveErrorAppends)
}

func TestStepOutcomeSkippedWhenHandlerTransitionedStage(t *testing.T) {
	state := &workflow.State{
		CurrentStageID: "stage0",
		PendingTrigger: proto.TriggerCodeReviewLimit,
		Responses:      []keywords.ResponseEntry{{Question: "q", Text: "ACCEPT_PARTIAL"}},
	}
	ctl := newTestController(&agent.MockDecider{})

	delta := ctl.Step(context.Background(), state)

	// The limit handler marked the stage; outcome resolution must not add a
	// second, conflicting update.
	require.Len(t, delta.StatusUpdates, 1)
	assert.Equal(t, proto.StatusCompletedPartial, delta.StatusUpdates[0].Status)
}

func TestStepHandlerTransitionIsStillPersisted(t *testing.T) {
	state := &workflow.State{
		CurrentStageID:   "stage0",
		PendingTrigger:   proto.TriggerMaterialCheckpoint,
		PendingMaterials: []workflow.Material{{MaterialID: "gold"}},
		Responses:        []keywords.ResponseEntry{{Question: "q", Text: "APPROVE"}},
	}
	sink := &fakeSink{}
	archiver := &fakeArchiver{}
	ctl := newTestController(&agent.MockDecider{},
		WithProgressSink(sink), WithArchiver(archiver))

	delta := ctl.Step(context.Background(), state)

	// The checkpoint handler completed the stage; that status, not a derived
	// one, reaches the archive and the progress sink.
	require.Len(t, delta.StatusUpdates, 1)
	assert.Equal(t, proto.StatusCompletedSuccess, delta.StatusUpdates[0].Status)
	assert.Equal(t, []string{"stage0"}, archiver.calls)
	assert.Equal(t, []string{"stage0=completed_success"}, sink.updates)
}

func TestStepReaskedStageIsNotPersisted(t *testing.T) {
	state := &workflow.State{
		CurrentStageID: "stage0",
		PendingTrigger: proto.TriggerMaterialCheckpoint,
		Responses:      []keywords.ResponseEntry{{Question: "q", Text: "no idea"}},
	}
	archiver := &fakeArchiver{}
	ctl := newTestController(&agent.MockDecider{}, WithArchiver(archiver))

	delta := ctl.Step(context.Background(), state)

	assert.Equal(t, proto.VerdictAskUser, delta.Verdict)
	assert.Empty(t, archiver.calls)
}

func TestStepArchiveFailureRecordedForRetry(t *testing.T) {
	archiver := &fakeArchiver{failFor: map[string]error{
		"stage0": errors.New("database is locked"),
	}}
	state := &workflow.State{CurrentStageID: "stage0"}
	ctl := newTestController(&agent.MockDecider{}, WithArchiver(archiver))

	delta := ctl.Step(context.Background(), state)

	require.Len(t, delta.ArchiveErrorAppends, 1)
	assert.Equal(t, "stage0", delta.ArchiveErrorAppends[0].StageID)
	assert.Equal(t, "database is locked", delta.ArchiveErrorAppends[0].Error)
}

func TestStepRetriesPendingArchiveErrors(t *testing.T) {
	archiver := &fakeArchiver{}
	state := &workflow.State{
		ArchiveErrors: []workflow.ArchiveErrorRecord{{StageID: "stage3", Error: "disk full"}},
	}
	ctl := newTestController(&agent.MockDecider{}, WithArchiver(archiver))

	delta := ctl.Step(context.Background(), state)

	require.NotNil(t, delta.ArchiveErrors)
	assert.Empty(t, *delta.ArchiveErrors)
	assert.Equal(t, []string{"stage3"}, archiver.calls)

	merged := delta.Apply(*state)
	assert.Empty(t, merged.ArchiveErrors)
}

func TestStepProgressSinkFailureIsNonFatal(t *testing.T) {
	sink := &fakeSink{err: errors.New("progress store offline")}
	state := &workflow.State{CurrentStageID: "stage0"}
	ctl := newTestController(&agent.MockDecider{}, WithProgressSink(sink))

	delta := ctl.Step(context.Background(), state)

	assert.Equal(t, proto.VerdictOkContinue, delta.Verdict)
	require.Len(t, delta.StatusUpdates, 1)
}

func TestPromptBuilderSnapshot(t *testing.T) {
	state := &workflow.State{
		Plan: &workflow.Plan{Stages: []workflow.Stage{
			{ID: "stage0", Type: proto.StageTypeMaterial},
			{ID: "stage1", Type: proto.StageTypeSimulation, Dependencies: []string{"stage0"}},
		}},
		Progress: []workflow.ProgressRecord{
			{StageID: "stage0", Status: proto.StatusCompletedSuccess},
		},
		CurrentStageID:  "stage1",
		Counters:        map[string]int{workflow.CounterCodeRevisions: 2},
		PlannerFeedback: []string{"one", "two", "three", "four", "five", "six"},
		Backtrack:       &workflow.BacktrackDecision{TargetStageID: "stage0", Reason: "redo"},
	}

	prompt, err := NewStatePromptBuilder().Build(state)
	require.NoError(t, err)

	assert.Contains(t, prompt, "stage0 (material)")
	assert.Contains(t, prompt, "status=completed_success")
	assert.Contains(t, prompt, "Current stage: stage1")
	assert.Contains(t, prompt, "code_revisions: 2")
	assert.Contains(t, prompt, "target=stage0")
	// Feedback is capped to the most recent entries.
	assert.NotContains(t, prompt, "- one\n")
	assert.Contains(t, prompt, "- six\n")
}

func TestPromptBuilderEmptyState(t *testing.T) {
	prompt, err := NewStatePromptBuilder().Build(&workflow.State{})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Workflow snapshot")
}
