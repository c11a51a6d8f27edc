package agent

import (
	"context"

	"replicator/pkg/proto"
)

// MockDecider is a scripted Decider for tests and offline runs. With an empty
// script it always continues.
type MockDecider struct {
	Script []Decision
	Err    error

	calls int
}

// Decide returns the next scripted decision, the configured error, or a
// default ok_continue.
func (m *MockDecider) Decide(_ context.Context, _ string) (Decision, error) {
	if m.Err != nil {
		return Decision{}, m.Err
	}
	if m.calls < len(m.Script) {
		d := m.Script[m.calls]
		m.calls++
		return d, nil
	}
	return Decision{Verdict: proto.VerdictOkContinue, Reasoning: "mock decision"}, nil
}

// Calls reports how many decisions were served.
func (m *MockDecider) Calls() int {
	return m.calls
}
