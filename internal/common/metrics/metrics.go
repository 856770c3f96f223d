package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_route_total",
			Help: "Total number of routed inputs by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	RouteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_route_duration_seconds",
			Help:    "Duration of a full route, engine calls included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	EngineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_engine_failures_total",
			Help: "Total number of external engine invocations that failed",
		},
		[]string{"engine"},
	)

	TranscriptCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transcript_cache_lookups_total",
			Help: "Transcript cache lookups by result",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
