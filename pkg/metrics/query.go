package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// SessionMetrics aggregates the counters a scraping Prometheus has seen for
// one supervisor run.
type SessionMetrics struct {
	Verdicts        map[string]int64 `json:"verdicts"`
	Triggers        map[string]int64 `json:"triggers"`
	ArchiveRetries  map[string]int64 `json:"archive_retries"`
	TotalDecisions  int64            `json:"total_decisions"`
	TotalTriggerRes int64            `json:"total_trigger_resolutions"`
}

// QueryService reads supervisor counters back out of a Prometheus server.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// SessionSummary queries the per-label totals of every supervisor counter.
func (s *QueryService) SessionSummary(ctx context.Context) (*SessionMetrics, error) {
	out := &SessionMetrics{
		Verdicts:       make(map[string]int64),
		Triggers:       make(map[string]int64),
		ArchiveRetries: make(map[string]int64),
	}

	verdicts, err := s.queryByLabel(ctx, "supervisor_verdicts_total", "verdict")
	if err != nil {
		return nil, err
	}
	for label, value := range verdicts {
		out.Verdicts[label] = value
		out.TotalDecisions += value
	}

	triggers, err := s.queryByLabel(ctx, "supervisor_trigger_resolutions_total", "trigger")
	if err != nil {
		return nil, err
	}
	for label, value := range triggers {
		out.Triggers[label] = value
		out.TotalTriggerRes += value
	}

	retries, err := s.queryByLabel(ctx, "supervisor_archive_retries_total", "result")
	if err != nil {
		return nil, err
	}
	for label, value := range retries {
		out.ArchiveRetries[label] = value
	}

	return out, nil
}

// queryByLabel evaluates an instant sum-by query and returns label -> total.
func (s *QueryService) queryByLabel(ctx context.Context, metric, label string) (map[string]int64, error) {
	query := fmt.Sprintf("sum by (%s) (%s)", label, metric)

	result, warnings, err := s.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", metric, err)
	}
	if len(warnings) > 0 {
		logger.Warn("prometheus query warnings for %s: %v", metric, warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T for %s", result, metric)
	}

	out := make(map[string]int64, len(vector))
	for _, sample := range vector {
		out[string(sample.Metric[model.LabelName(label)])] = int64(sample.Value)
	}
	return out, nil
}
