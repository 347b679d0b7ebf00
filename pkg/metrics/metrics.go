// Package metrics holds the Prometheus instruments of movie creation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

// Metrics holds all Prometheus metrics. A nil *Metrics discards observations.
type Metrics struct {
	Registry *prometheus.Registry

	// Run metrics
	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	RunDuration  prometheus.Histogram

	// Frame metrics
	FramesAppended prometheus.Counter
	FrameBuild     prometheus.Histogram
	ReadyWait      prometheus.Histogram

	// Album metrics
	AlbumSaves *prometheus.CounterVec
}

// New creates all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "imageseq_runs_started_total",
			Help: "Total number of movie creation runs started",
		}),
		RunsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imageseq_runs_finished_total",
				Help: "Total number of movie creation runs finished",
			},
			[]string{"outcome", "code"},
		),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "imageseq_run_duration_seconds",
			Help:    "Wall time of movie creation runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),

		FramesAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "imageseq_frames_appended_total",
			Help: "Total number of frames accepted by the movie writer",
		}),
		FrameBuild: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "imageseq_frame_build_seconds",
			Help:    "Time spent compositing one frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		}),
		ReadyWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "imageseq_writer_ready_wait_seconds",
			Help:    "Time spent waiting for the movie writer to accept a frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),

		AlbumSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imageseq_album_saves_total",
				Help: "Total number of album save attempts",
			},
			[]string{"outcome", "album_created"},
		),
	}
}

// RunStarted records the start of a run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsStarted.Inc()
}

// RunFinished records a run outcome and its duration.
func (m *Metrics) RunFinished(outcome, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsFinished.WithLabelValues(outcome, code).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// FrameAppended records one accepted frame and how long it took to build.
func (m *Metrics) FrameAppended(build time.Duration) {
	if m == nil {
		return
	}
	m.FramesAppended.Inc()
	m.FrameBuild.Observe(build.Seconds())
}

// WaitedForReady records time blocked on the writer readiness signal.
func (m *Metrics) WaitedForReady(d time.Duration) {
	if m == nil {
		return
	}
	m.ReadyWait.Observe(d.Seconds())
}

// AlbumSaved records an album save attempt.
func (m *Metrics) AlbumSaved(outcome string, created bool) {
	if m == nil {
		return
	}
	label := "false"
	if created {
		label = "true"
	}
	m.AlbumSaves.WithLabelValues(outcome, label).Inc()
}

// WriteToFile writes all metrics in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Metrics) WriteToFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
