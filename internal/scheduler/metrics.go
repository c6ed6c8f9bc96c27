package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metric names and bucket scheme are carried over verbatim from
// _examples/original_source crates/icn-mesh/src/metrics.rs so dashboards
// built against the reference implementation keep working unmodified.
// jobProcessTime is registered, but no code path in this package records
// samples into it.
var (
	pendingJobsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "icn_mesh_pending_jobs",
		Help: "Number of mesh jobs currently queued awaiting auction.",
	})
	jobProcessTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "icn_mesh_job_process_time_seconds",
		Help:    "Time from job submission to receipt anchoring.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 10),
	})
	selectExecutorCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "icn_mesh_select_executor_calls_total",
		Help: "Count of executor-selection invocations.",
	})
	scheduleMeshJobCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "icn_mesh_schedule_job_calls_total",
		Help: "Count of job-submission invocations.",
	})
)

func init() {
	prometheus.MustRegister(pendingJobsGauge, jobProcessTime, selectExecutorCalls, scheduleMeshJobCalls)
}
