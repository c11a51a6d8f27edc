// Package outcome derives a stage's terminal status from the weak signals the
// analysis collaborators leave behind: an overall classification tag, optional
// comparison and physics verdicts, and per-figure comparison results.
package outcome

import (
	"fmt"
	"strings"

	"replicator/pkg/logx"
	"replicator/pkg/proto"
	"replicator/pkg/workflow"
)

var logger = logx.NewLogger("outcome")

// Derive resolves the terminal status and summary for a stage. Decision order,
// first match wins:
//
//  1. any figure comparison in the missing bucket -> completed_failed
//  2. physics verdict fail                        -> completed_failed
//  3. base classification mapping (unrecognized or unset defaults to success)
//  4. success downgraded to partial on needs_revision or physics warning
//  5. success downgraded to partial on any pending-bucket figure
func Derive(state *workflow.State, stageID string) (proto.StageStatus, string) {
	summary := state.SummaryFor(stageID)
	figures := state.FiguresFor(stageID)

	if missing := missingFigures(figures); len(missing) > 0 {
		return proto.StatusCompletedFailed,
			fmt.Sprintf("Missing outputs: %s", strings.Join(missing, ", "))
	}

	if summary != nil && summary.PhysicsVerdict == proto.PhysicsFail {
		return proto.StatusCompletedFailed, summaryText(summary, stageID)
	}

	status := baseStatus(summary, stageID)

	if status == proto.StatusCompletedSuccess && summary != nil {
		if summary.ComparisonVerdict == proto.ComparisonNeedsRevision ||
			summary.PhysicsVerdict == proto.PhysicsWarning {
			status = proto.StatusCompletedPartial
		}
	}

	if status == proto.StatusCompletedSuccess {
		if pending := pendingFigures(figures); len(pending) > 0 {
			return proto.StatusCompletedPartial,
				fmt.Sprintf("%s (validation pending: %s)", summaryText(summary, stageID), strings.Join(pending, ", "))
		}
	}

	return status, summaryText(summary, stageID)
}

// baseStatus maps the overall classification tag onto a stage status.
// Empty and unrecognized tags resolve to success, logged at WARN so the
// silent successes stay visible.
func baseStatus(summary *workflow.AnalysisSummary, stageID string) proto.StageStatus {
	var raw string
	if summary != nil {
		raw = summary.Classification
	}

	switch proto.NormalizeClassification(raw) {
	case proto.ClassPartialMatch:
		return proto.StatusCompletedPartial
	case proto.ClassPoorMatch, proto.ClassFailed:
		return proto.StatusCompletedFailed
	case proto.ClassExcellentMatch, proto.ClassAcceptableMatch, proto.ClassNoTargets:
		return proto.StatusCompletedSuccess
	default:
		if raw != "" {
			logger.Warn("unrecognized classification %q for stage %s, defaulting to success", raw, stageID)
		}
		return proto.StatusCompletedSuccess
	}
}

// summaryText picks the summary string. Precedence: explicit notes, then a
// matches/targets ratio, then the raw summary, then a fallback naming the
// classification.
func summaryText(summary *workflow.AnalysisSummary, stageID string) string {
	if summary == nil {
		return fmt.Sprintf("Stage %s completed (no analysis summary)", stageID)
	}
	if strings.TrimSpace(summary.Notes) != "" {
		return strings.TrimSpace(summary.Notes)
	}
	if summary.Targets > 0 {
		return fmt.Sprintf("%d/%d targets matched", summary.Matches, summary.Targets)
	}
	if strings.TrimSpace(summary.RawSummary) != "" {
		return strings.TrimSpace(summary.RawSummary)
	}
	class := summary.Classification
	if class == "" {
		class = "UNSET"
	}
	return fmt.Sprintf("Stage %s classified %s", stageID, class)
}

func missingFigures(figures []workflow.FigureComparison) []string {
	var out []string
	for i := range figures {
		if proto.FigureMissing(figures[i].Classification) {
			out = append(out, figureName(&figures[i]))
		}
	}
	return out
}

func pendingFigures(figures []workflow.FigureComparison) []string {
	var out []string
	for i := range figures {
		if proto.FigurePending(figures[i].Classification) {
			out = append(out, figureName(&figures[i]))
		}
	}
	return out
}

func figureName(fig *workflow.FigureComparison) string {
	if fig.FigureID != "" {
		return fig.FigureID
	}
	return fig.Classification
}
