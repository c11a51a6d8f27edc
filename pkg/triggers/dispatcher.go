// Package triggers implements the escalation-handling state machine. Each
// trigger tag has a dedicated handler; handlers read the workflow state and
// the latest human reply and write their effects into the step's Delta only.
package triggers

import (
	"fmt"

	"replicator/pkg/keywords"
	"replicator/pkg/logx"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// DependentsFunc computes the transitive dependents of a stage. Injected so
// tests can observe or replace graph resolution.
type DependentsFunc func(plan *workflow.Plan, targetID string) []string

// Context carries everything a handler may touch. Handlers mutate Result only.
type Context struct {
	State    *workflow.State
	Result   *workflow.Delta
	Response string
	StageID  string

	Dependents DependentsFunc
	Logger     *logx.Logger
}

// Handler resolves one trigger kind.
type Handler interface {
	Trigger() proto.Trigger
	Handle(ctx *Context)
}

// Dispatcher routes a pending trigger to its handler. The registry is built
// once and never mutated afterwards.
type Dispatcher struct {
	handlers map[proto.Trigger]Handler
	logger   *logx.Logger
}

// NewDispatcher builds the dispatcher with every known handler registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[proto.Trigger]Handler),
		logger:   logx.NewLogger("triggers"),
	}

	d.register(&materialCheckpointHandler{})

	// Revision / failure limit family. Each instance binds its counter key,
	// downstream feedback channel and retry verdict.
	d.register(&limitHandler{
		trigger: proto.TriggerDesignReviewLimit, counterKey: workflow.CounterDesignRevisions,
		channel: channelPlanner, retryVerdict: proto.VerdictRetryDesign,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerCodeReviewLimit, counterKey: workflow.CounterCodeRevisions,
		channel: channelReviewer, retryVerdict: proto.VerdictRetryGenerate,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerAnalysisReviewLimit, counterKey: workflow.CounterAnalysisRevisions,
		channel: channelAnalysis, retryVerdict: proto.VerdictRetryAnalyze,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerCodeFailureLimit, counterKey: workflow.CounterCodeFailures,
		channel: channelReviewer, retryVerdict: proto.VerdictRetryGenerate,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerExecFailureLimit, counterKey: workflow.CounterExecFailures,
		channel: channelAnalysis, retryVerdict: proto.VerdictRetryAnalyze,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerAnalysisFailureLimit, counterKey: workflow.CounterAnalysisFailures,
		channel: channelAnalysis, retryVerdict: proto.VerdictRetryAnalyze,
	})
	d.register(&limitHandler{
		trigger: proto.TriggerReplanLimit, counterKey: workflow.CounterReplans,
		channel: channelPlanner, retryVerdict: proto.VerdictReplanNeeded,
	})

	d.register(&contextOverflowHandler{})

	d.register(&backtrackApprovalHandler{})
	d.register(&backtrackLimitHandler{})
	d.register(&invalidBacktrackDecisionHandler{})

	d.register(&deadlockHandler{})

	// Critical-error family: simple retry/stop.
	for _, t := range []proto.Trigger{
		proto.TriggerLLMError, proto.TriggerMissingPaperText,
		proto.TriggerMissingStageID, proto.TriggerProgressInitFailed,
	} {
		d.register(&retryStopHandler{trigger: t})
	}

	// Planning-error family: replan/stop.
	for _, t := range []proto.Trigger{
		proto.TriggerNoStagesAvailable, proto.TriggerInvalidBacktrackTarget,
		proto.TriggerMissingBacktrackTarget,
	} {
		d.register(&replanStopHandler{trigger: t})
	}

	d.register(&clarificationHandler{})

	return d
}

func (d *Dispatcher) register(h Handler) {
	d.handlers[h.Trigger()] = h
}

// Handle resolves one pending trigger against the latest human reply, writing
// effects into result. Unknown tags never fail the workflow: they degrade to
// ok_continue with feedback naming the tag.
func (d *Dispatcher) Handle(trigger proto.Trigger, state *workflow.State, result *workflow.Delta,
	responses []keywords.ResponseEntry, currentStageID string, dependents DependentsFunc) {

	if dependents == nil {
		dependents = workflow.ComputeDependents
	}

	handler, known := d.handlers[trigger]
	if !known {
		d.logger.Warn("unknown trigger %q, continuing", trigger)
		result.SetVerdict(proto.VerdictOkContinue, "")
		result.SupervisorFeedback = append(result.SupervisorFeedback,
			fmt.Sprintf("Ignored unknown trigger %q; continuing the workflow.", trigger))
		return
	}

	ctx := &Context{
		State:      state,
		Result:     result,
		Response:   keywords.LastResponse(responses),
		StageID:    currentStageID,
		Dependents: dependents,
		Logger:     d.logger,
	}
	handler.Handle(ctx)
}

// askAgain re-prompts the same trigger, enumerating its valid keywords. The
// engine never guesses at ambiguous input.
func askAgain(ctx *Context, trigger proto.Trigger) {
	ctx.Logger.Debug("response %q not understood for trigger %s, re-asking", ctx.Response, trigger)
	ctx.Result.AskAgain(trigger, reaskMessage(trigger, ctx.Response))
}
