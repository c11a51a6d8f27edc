// Package agent provides the decision-making collaborator: the model call
// that picks the workflow's next move when no human trigger is pending.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"replicator/pkg/proto"
)

// Decision is the parsed outcome of one decision call.
type Decision struct {
	Verdict         proto.Verdict `json:"verdict"`
	Reasoning       string        `json:"reasoning,omitempty"`
	BacktrackTarget string        `json:"backtrack_target,omitempty"`
	ShouldStop      bool          `json:"should_stop,omitempty"`
}

// Decider makes one synchronous decision call. Implementations carry no
// internal timeout; cancellation flows through ctx and errors are converted to
// forward-progress verdicts at the call site.
type Decider interface {
	Decide(ctx context.Context, prompt string) (Decision, error)
}

// ParseDecision extracts a Decision from raw model output. The model is asked
// for a JSON object but tends to wrap it in prose or fences, so the first
// braced object in the text is parsed.
func ParseDecision(raw string) (Decision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Decision{}, fmt.Errorf("no JSON object in decision output: %q", truncate(raw, 120))
	}

	var parsed struct {
		Verdict         string `json:"verdict"`
		Reasoning       string `json:"reasoning"`
		BacktrackTarget string `json:"backtrack_target"`
		ShouldStop      bool   `json:"should_stop"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Decision{}, fmt.Errorf("failed to parse decision JSON: %w", err)
	}

	verdict, err := proto.ParseVerdict(parsed.Verdict)
	if err != nil {
		return Decision{}, fmt.Errorf("decision carried invalid verdict: %w", err)
	}

	return Decision{
		Verdict:         verdict,
		Reasoning:       parsed.Reasoning,
		BacktrackTarget: parsed.BacktrackTarget,
		ShouldStop:      parsed.ShouldStop,
	}, nil
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
