package agent

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"replicator/pkg/logx"
)

const decisionSystemPrompt = `You are the supervisor of a multi-stage scientific
reproduction workflow. Given the workflow snapshot in the user message, decide
the next move. Respond with a single JSON object:
{"verdict": "<ok_continue|ask_user|all_complete|replan_needed|backtrack_to_stage|retry_analyze|retry_generate_code|retry_design>",
 "reasoning": "<one sentence>",
 "backtrack_target": "<stage id, only with backtrack_to_stage>",
 "should_stop": <bool, only with all_complete>}`

const defaultMaxTokens = 1024

// ClaudeDecider implements Decider against the Anthropic API.
type ClaudeDecider struct {
	client anthropic.Client
	model  anthropic.Model
	logger *logx.Logger
}

// NewClaudeDecider creates a Claude-backed decider.
func NewClaudeDecider(apiKey, model string) *ClaudeDecider {
	return &ClaudeDecider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
		logger: logx.NewLogger("decider"),
	}
}

// Decide sends one decision request and parses the verdict from the reply.
func (c *ClaudeDecider) Decide(ctx context.Context, prompt string) (Decision, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: decisionSystemPrompt, Type: "text"},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Decision{}, fmt.Errorf("decision call failed: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return Decision{}, fmt.Errorf("decision call returned an empty response")
	}

	var text string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	decision, err := ParseDecision(text)
	if err != nil {
		return Decision{}, err
	}

	c.logger.Debug("decision: %s (%s)", decision.Verdict, decision.Reasoning)
	return decision, nil
}
