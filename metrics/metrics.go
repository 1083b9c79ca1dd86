// Package metrics records coverage-gate results and stage timings on a
// dedicated prometheus registry. A one-shot CLI has nothing to scrape, so the
// registry is flushed to a node-exporter textfile when requested.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsNamespace = "covgate"

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	lineCoverage = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "line_coverage",
		Help:      "Aggregate line coverage fraction parsed from the report",
	}, []string{
		"run_id",
	})

	branchCoverage = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "branch_coverage",
		Help:      "Aggregate branch coverage fraction parsed from the report",
	}, []string{
		"run_id",
	})

	runResult = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_result",
		Help:      "Result of the coverage gate run (1 for the observed result)",
	}, []string{
		"run_id",
		"result",
	})

	stageDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
	}, []string{
		"run_id",
		"stage",
	})
)

// RecordCoverage stores the parsed coverage fractions for a run.
func RecordCoverage(runID string, line, branch float64) {
	lineCoverage.WithLabelValues(runID).Set(line)
	branchCoverage.WithLabelValues(runID).Set(branch)
}

// RecordResult stores the gate outcome ("pass" or "fail") for a run.
func RecordResult(runID, result string) {
	runResult.WithLabelValues(runID, result).Set(1)
}

// RecordStage stores how long a pipeline stage took.
func RecordStage(runID, stage string, d time.Duration) {
	stageDuration.WithLabelValues(runID, stage).Set(d.Seconds())
}

// WriteTextfile atomically writes the registry in the prometheus text format
// for node-exporter textfile collection.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
