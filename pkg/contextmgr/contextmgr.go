// Package contextmgr checks the workflow's text payload against the decision
// model's context budget before any model call is attempted.
package contextmgr

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"replicator/pkg/logx"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

// DefaultTokenBudget is the ceiling applied when the config does not set one.
const DefaultTokenBudget = 150000

// Checker estimates token usage and escalates when the budget is exceeded.
type Checker struct {
	codec  tokenizer.Codec
	budget int
	logger *logx.Logger
}

// NewChecker creates a budget checker. Claude tokenization is approximated
// with the GPT-4 encoding; when the codec cannot be built the checker falls
// back to a characters/4 estimate rather than failing.
func NewChecker(budget int) *Checker {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}

	c := &Checker{budget: budget, logger: logx.NewLogger("contextmgr")}

	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		c.logger.Warn("tokenizer unavailable, using character estimate: %v", err)
		return c
	}
	c.codec = codec
	return c
}

// CountTokens returns the token count for text, estimating when no codec is
// available.
func (c *Checker) CountTokens(text string) int {
	if c.codec == nil {
		return len(text) / 4
	}
	count, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// Budget returns the configured token ceiling.
func (c *Checker) Budget() int {
	return c.budget
}

// Check returns nil when the state's text payload fits the budget, or an
// escalation delta asking the user how to shrink it. The escalation payload
// short-circuits the step: the controller returns it without further work.
func (c *Checker) Check(state *workflow.State) *workflow.Delta {
	total := c.CountTokens(state.PaperText)
	for _, fb := range state.PlannerFeedback {
		total += c.CountTokens(fb)
	}
	for _, fb := range state.SupervisorFeedback {
		total += c.CountTokens(fb)
	}

	if total <= c.budget {
		return nil
	}

	c.logger.Warn("context budget exceeded: %d tokens > %d", total, c.budget)

	questions := []string{fmt.Sprintf(
		"The working context is %d tokens, over the %d token budget. "+
			"Reply SUMMARIZE, TRUNCATE, SKIP, or STOP.", total, c.budget)}

	delta := &workflow.Delta{
		Verdict:           proto.VerdictAskUser,
		AskUserTrigger:    proto.TriggerContextOverflow,
		PendingQuestions:  &questions,
		AwaitingUserInput: true,
	}
	return delta
}
