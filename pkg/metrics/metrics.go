// Package metrics exposes Prometheus counters for supervisor activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"replicator/pkg/logx"
)

var logger = logx.NewLogger("metrics")

//nolint:gochecknoglobals // promauto registration is inherently package-level
var (
	// Verdicts counts step outcomes by verdict token.
	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_verdicts_total",
			Help: "Total number of supervisor step verdicts by verdict token",
		},
		[]string{"verdict"},
	)

	// TriggerResolutions counts resolved human escalations by trigger tag.
	TriggerResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_trigger_resolutions_total",
			Help: "Total number of resolved escalation triggers by tag",
		},
		[]string{"trigger"},
	)

	// ArchiveRetries counts opportunistic archive retries by result.
	ArchiveRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_archive_retries_total",
			Help: "Total number of archive retry attempts by result",
		},
		[]string{"result"},
	)
)
