package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

func stateWithSummary(stageID string, summary *workflow.AnalysisSummary) *workflow.State {
	return &workflow.State{
		AnalysisSummaries: map[string]*workflow.AnalysisSummary{stageID: summary},
	}
}

func TestDeriveClassificationMapping(t *testing.T) {
	cases := []struct {
		classification string
		want           proto.StageStatus
	}{
		{"EXCELLENT_MATCH", proto.StatusCompletedSuccess},
		{"ACCEPTABLE_MATCH", proto.StatusCompletedSuccess},
		{"NO_TARGETS", proto.StatusCompletedSuccess},
		{"PARTIAL_MATCH", proto.StatusCompletedPartial},
		{"POOR_MATCH", proto.StatusCompletedFailed},
		{"FAILED", proto.StatusCompletedFailed},
		{"partial_match", proto.StatusCompletedPartial}, // case-insensitive
		{"SOMETHING_NEW", proto.StatusCompletedSuccess}, // unrecognized defaults to success
		{"", proto.StatusCompletedSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.classification, func(t *testing.T) {
			state := stateWithSummary("stage0", &workflow.AnalysisSummary{Classification: tc.classification})
			status, _ := Derive(state, "stage0")
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestDeriveNoSummaryDefaultsToSuccess(t *testing.T) {
	status, summary := Derive(&workflow.State{}, "stage0")
	assert.Equal(t, proto.StatusCompletedSuccess, status)
	assert.Equal(t, "Stage stage0 completed (no analysis summary)", summary)
}

func TestDeriveMissingFigureForcesFailed(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{Classification: "EXCELLENT_MATCH"})
	state.FigureComparisons = []workflow.FigureComparison{
		{StageID: "stage0", FigureID: "fig2", Classification: "missing_output"},
		{StageID: "stage0", FigureID: "fig3", Classification: "match"},
		{StageID: "other", FigureID: "fig1", Classification: "fail"},
	}

	status, summary := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedFailed, status)
	assert.Equal(t, "Missing outputs: fig2", summary)
}

func TestDerivePhysicsFailForcesFailed(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		PhysicsVerdict: proto.PhysicsFail,
		Notes:          "negative band gap",
	})

	status, summary := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedFailed, status)
	assert.Equal(t, "negative band gap", summary)
}

func TestDeriveDowngradesSuccessOnNeedsRevision(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification:    "ACCEPTABLE_MATCH",
		ComparisonVerdict: proto.ComparisonNeedsRevision,
	})

	status, _ := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedPartial, status)
}

func TestDeriveDowngradesSuccessOnPhysicsWarning(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		PhysicsVerdict: proto.PhysicsWarning,
	})

	status, _ := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedPartial, status)
}

func TestDeriveFailedNotRescuedByVerdicts(t *testing.T) {
	// Downgrades only apply to success; a failed classification stays failed.
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification:    "POOR_MATCH",
		ComparisonVerdict: proto.ComparisonAccepted,
		PhysicsVerdict:    proto.PhysicsPass,
	})

	status, _ := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedFailed, status)
}

func TestDerivePendingFigureDowngrades(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		Notes:          "good fit",
	})
	state.FigureComparisons = []workflow.FigureComparison{
		{StageID: "stage0", FigureID: "fig4", Classification: "pending_validation"},
	}

	status, summary := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedPartial, status)
	assert.Equal(t, "good fit (validation pending: fig4)", summary)
}

func TestDerivePendingFigureDoesNotTouchPartial(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{Classification: "PARTIAL_MATCH"})
	state.FigureComparisons = []workflow.FigureComparison{
		{StageID: "stage0", FigureID: "fig1", Classification: "partial"},
	}

	status, summary := Derive(state, "stage0")
	assert.Equal(t, proto.StatusCompletedPartial, status)
	assert.NotContains(t, summary, "validation pending")
}

func TestSummaryTextPrecedence(t *testing.T) {
	state := stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		Notes:          "  explicit notes  ",
		Matches:        3,
		Targets:        4,
		RawSummary:     "raw",
	})
	_, summary := Derive(state, "stage0")
	assert.Equal(t, "explicit notes", summary)

	state = stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		Matches:        3,
		Targets:        4,
		RawSummary:     "raw",
	})
	_, summary = Derive(state, "stage0")
	assert.Equal(t, "3/4 targets matched", summary)

	state = stateWithSummary("stage0", &workflow.AnalysisSummary{
		Classification: "EXCELLENT_MATCH",
		RawSummary:     "raw",
	})
	_, summary = Derive(state, "stage0")
	assert.Equal(t, "raw", summary)

	state = stateWithSummary("stage0", &workflow.AnalysisSummary{Classification: "EXCELLENT_MATCH"})
	_, summary = Derive(state, "stage0")
	assert.Equal(t, "Stage stage0 classified EXCELLENT_MATCH", summary)

	state = stateWithSummary("stage0", &workflow.AnalysisSummary{})
	_, summary = Derive(state, "stage0")
	assert.Equal(t, "Stage stage0 classified UNSET", summary)
}
