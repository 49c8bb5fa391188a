package metrics

import (
	// External Packages
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run and stage metrics of the scoring pipeline.

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_pipeline",
		Subsystem: "runner",
		Name:      "runs_total",
		Help:      "Total pipeline runs by terminal outcome",
	}, []string{"outcome"})

	RunFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_pipeline",
		Subsystem: "runner",
		Name:      "failures_total",
		Help:      "Total failed runs by stage and error kind",
	}, []string{"stage", "kind"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fraud_pipeline",
		Subsystem: "runner",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"stage"})

	FraudProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraud_pipeline",
		Subsystem: "scoring",
		Name:      "fraud_probability",
		Help:      "Distribution of returned fraud probabilities",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	// Alerts
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_pipeline",
		Subsystem: "alerts",
		Name:      "notifications_total",
		Help:      "Total notifications handed to a channel by result",
	}, []string{"channel", "result"})
)
