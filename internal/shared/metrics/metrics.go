package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	documentsUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "documents_uploaded_total",
		Help: "Total documents accepted for processing.",
	})
	pipelineCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_completed_total",
		Help: "Total pipeline runs that reached done.",
	})
	pipelineFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_failed_total",
		Help: "Total pipeline runs that ended failed.",
	})
	pipelineCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_cancelled_total",
		Help: "Total pipeline runs cancelled by users.",
	})
	pipelineDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_duration_seconds",
		Help:    "Wall time from upload to terminal status.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	stageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_transitions_total",
		Help: "Stage transitions applied, labeled by the stage entered.",
	}, []string{"stage"})
	workerJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_jobs_total",
		Help: "Queue jobs handled by the worker, labeled by outcome.",
	}, []string{"outcome"})
)

// IncDocumentsUploaded counts an accepted upload.
func IncDocumentsUploaded() {
	documentsUploadedTotal.Inc()
}

// IncPipelineCompleted counts a run reaching done.
func IncPipelineCompleted() {
	pipelineCompletedTotal.Inc()
}

// IncPipelineFailed counts a run ending failed.
func IncPipelineFailed() {
	pipelineFailedTotal.Inc()
}

// IncPipelineCancelled counts a user-initiated cancel.
func IncPipelineCancelled() {
	pipelineCancelledTotal.Inc()
}

// ObservePipelineDuration records time from run start to terminal status.
func ObservePipelineDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	pipelineDurationSeconds.Observe(d.Seconds())
}

// IncStageTransition counts a stage entry.
func IncStageTransition(stage string) {
	stageTransitionsTotal.WithLabelValues(stage).Inc()
}

// IncWorkerJobsReceived counts a message pulled off the queue.
func IncWorkerJobsReceived() {
	workerJobsTotal.WithLabelValues("received").Inc()
}

// IncWorkerJobsCompleted counts a processed and deleted message.
func IncWorkerJobsCompleted() {
	workerJobsTotal.WithLabelValues("completed").Inc()
}

// IncWorkerJobsFailed counts a message whose processing failed.
func IncWorkerJobsFailed() {
	workerJobsTotal.WithLabelValues("failed").Inc()
}

// IncWorkerJobsDeletedUnrecoverable counts a malformed message dropped
// without processing.
func IncWorkerJobsDeletedUnrecoverable() {
	workerJobsTotal.WithLabelValues("unrecoverable").Inc()
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
