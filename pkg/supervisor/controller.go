// Package supervisor composes the step controller: context pre-check, archive
// retry, trigger recovery, the decision call, and stage outcome resolution.
// One invocation processes exactly one pending decision for one workflow
// instance; the host runtime owns scheduling and serialization.
package supervisor

import (
	"context"
	"fmt"

	"replicator/pkg/agent"
	"replicator/pkg/archive"
	"replicator/pkg/auditlog"
	"replicator/pkg/logx"
	"replicator/pkg/metrics"
	"replicator/pkg/outcome"
	"replicator/pkg/proto"
	"replicator/pkg/triggers"
	"replicator/pkg/workflow"
)

// ContextChecker signals an escalation when the working context exceeds its
// budget. A nil return means proceed.
type ContextChecker interface {
	Check(state *workflow.State) *workflow.Delta
}

// PromptBuilder renders the workflow snapshot handed to the decision model.
type PromptBuilder interface {
	Build(state *workflow.State) (string, error)
}

// ProgressSink persists stage status transitions outside the state delta.
type ProgressSink interface {
	UpdateStatus(ctx context.Context, stageID string, status proto.StageStatus, summary string) error
}

// Controller is the supervisor step entry point.
type Controller struct {
	decider    agent.Decider
	prompts    PromptBuilder
	checker    ContextChecker
	progress   ProgressSink
	archiver   archive.Archiver
	dispatcher *triggers.Dispatcher
	audit      *auditlog.Writer // optional JSONL mirror
	logger     *logx.Logger
}

// Option configures optional collaborators.
type Option func(*Controller)

// WithContextChecker wires the context budget pre-check.
func WithContextChecker(c ContextChecker) Option {
	return func(ctl *Controller) { ctl.checker = c }
}

// WithProgressSink wires the external progress-status updater.
func WithProgressSink(p ProgressSink) Option {
	return func(ctl *Controller) { ctl.progress = p }
}

// WithArchiver wires the output archiver.
func WithArchiver(a archive.Archiver) Option {
	return func(ctl *Controller) { ctl.archiver = a }
}

// WithAuditWriter wires the JSONL audit mirror.
func WithAuditWriter(w *auditlog.Writer) Option {
	return func(ctl *Controller) { ctl.audit = w }
}

// NewController builds a step controller around the decision collaborator.
func NewController(decider agent.Decider, prompts PromptBuilder, opts ...Option) *Controller {
	ctl := &Controller{
		decider:    decider,
		prompts:    prompts,
		dispatcher: triggers.NewDispatcher(),
		logger:     logx.NewLogger("supervisor"),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Step runs one supervisor invocation. The input state is never mutated;
// every effect lands in the returned delta for the host to merge.
func (c *Controller) Step(ctx context.Context, state *workflow.State) *workflow.Delta {
	// Context budget pre-check short-circuits everything else.
	if c.checker != nil {
		if esc := c.checker.Check(state); esc != nil {
			esc.Phase = proto.PhaseSupervisor
			metrics.Verdicts.WithLabelValues(esc.Verdict.String()).Inc()
			return esc
		}
	}

	delta := &workflow.Delta{}

	// Opportunistic retry of previously failed archive calls.
	if c.archiver != nil && len(state.ArchiveErrors) > 0 {
		remaining := archive.RetryPending(ctx, state, c.archiver)
		if remaining == nil {
			remaining = []workflow.ArchiveErrorRecord{}
		}
		delta.ArchiveErrors = &remaining
	}

	if state.PendingTrigger != "" {
		c.resolveTrigger(state, delta)
	} else {
		c.decide(ctx, state, delta)
	}

	if state.CurrentStageID != "" {
		c.resolveStageOutcome(ctx, state, delta)
	}

	delta.Phase = proto.PhaseSupervisor
	metrics.Verdicts.WithLabelValues(delta.Verdict.String()).Inc()
	return delta
}

// resolveTrigger dispatches the pending escalation against the latest human
// reply and appends the audit record. The trigger is cleared; handlers re-set
// it when they need to ask again.
func (c *Controller) resolveTrigger(state *workflow.State, delta *workflow.Delta) {
	responses := state.Responses
	if len(responses) == 0 {
		c.logger.Warn("trigger %s pending with no response list; treating as empty", state.PendingTrigger)
	}

	c.dispatcher.Handle(state.PendingTrigger, state, delta, responses,
		state.CurrentStageID, workflow.ComputeDependents)

	rec := auditlog.Record(state, state.PendingTrigger, state.CurrentStageID, responses)
	delta.AuditRecords = append(delta.AuditRecords, rec)
	if c.audit != nil {
		if err := c.audit.Write(&rec); err != nil {
			c.logger.Warn("audit mirror write failed: %v", err)
		}
	}

	delta.ClearTrigger = true
	metrics.TriggerResolutions.WithLabelValues(state.PendingTrigger.String()).Inc()
	c.logger.Info("trigger %s resolved: verdict=%s", state.PendingTrigger, delta.Verdict)
}

// decide invokes the decision collaborator. Any failure degrades to a default
// forward-progress verdict; the workflow never halts on a collaborator error.
func (c *Controller) decide(ctx context.Context, state *workflow.State, delta *workflow.Delta) {
	prompt, err := c.prompts.Build(state)
	if err != nil {
		c.defaultForward(delta, fmt.Sprintf("prompt build failed: %v", err))
		return
	}

	decision, err := c.decider.Decide(ctx, prompt)
	if err != nil {
		c.defaultForward(delta, fmt.Sprintf("decision call failed: %v", err))
		return
	}

	delta.SetVerdict(decision.Verdict, decision.Reasoning)
	delta.ShouldStop = decision.ShouldStop

	if decision.Verdict == proto.VerdictBacktrackToStage && decision.BacktrackTarget != "" {
		delta.Backtrack = &workflow.BacktrackDecision{
			TargetStageID: decision.BacktrackTarget,
			Reason:        decision.Reasoning,
		}
	}
}

func (c *Controller) defaultForward(delta *workflow.Delta, reason string) {
	c.logger.Warn("defaulting to ok_continue: %s", reason)
	delta.SetVerdict(proto.VerdictOkContinue, "")
	delta.SupervisorFeedback = append(delta.SupervisorFeedback,
		fmt.Sprintf("Supervisor defaulted to ok_continue: %s", reason))
}

// resolveStageOutcome persists the active stage's terminal status. When a
// trigger handler already transitioned the stage this step, that status is
// persisted as-is; otherwise the status is derived from the analysis signals.
// Nothing happens while the step is still waiting on the user.
func (c *Controller) resolveStageOutcome(ctx context.Context, state *workflow.State, delta *workflow.Delta) {
	if delta.Verdict == proto.VerdictAskUser {
		return
	}

	var status proto.StageStatus
	var summary string
	handled := false
	for i := range delta.StatusUpdates {
		if delta.StatusUpdates[i].StageID == state.CurrentStageID {
			status = delta.StatusUpdates[i].Status
			summary = delta.StatusUpdates[i].Summary
			handled = true
			break
		}
	}

	if !handled {
		status, summary = outcome.Derive(state, state.CurrentStageID)
		delta.MarkStage(state.CurrentStageID, status, summary)
	}

	if c.progress != nil {
		if err := c.progress.UpdateStatus(ctx, state.CurrentStageID, status, summary); err != nil {
			c.logger.Warn("progress update for stage %s failed: %v", state.CurrentStageID, err)
		}
	}

	if c.archiver != nil {
		if err := c.archiver.ArchiveStage(ctx, state, state.CurrentStageID); err != nil {
			c.logger.Warn("archive for stage %s failed, recorded for retry: %v", state.CurrentStageID, err)
			delta.ArchiveErrorAppends = append(delta.ArchiveErrorAppends,
				archive.NewFailure(state.CurrentStageID, err))
		}
	}
}
