package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_cycles_completed_total",
		Help: "Evaluation cycles that ran to completion.",
	})

	cycleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_cycle_failures_total",
		Help: "Evaluation cycles aborted by a store error.",
	})

	cyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_cycles_skipped_total",
		Help: "Ticks skipped because the previous cycle was still running.",
	})

	activeAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evaluator_active_alerts",
		Help: "Alerts currently firing across all equipment.",
	})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_publish_failures_total",
		Help: "Alert transition events that could not be published.",
	})
)
