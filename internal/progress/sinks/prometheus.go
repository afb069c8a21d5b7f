package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/pagevault/internal/progress"
)

// PrometheusSink exports snapshot pipeline metrics via Prometheus. It owns
// all collectors for run lifecycle and per-class URL outcomes.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runActive     prometheus.Gauge
	runDuration   prometheus.Histogram

	urlsProcessed   *prometheus.CounterVec
	urlFailures     *prometheus.CounterVec
	captureDuration *prometheus.HistogramVec
	captureBytes    *prometheus.CounterVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagevault_runs_started_total",
			Help: "Total snapshot runs that have started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagevault_runs_completed_total",
			Help: "Total snapshot runs that finished, including interrupted ones.",
		}),
		runActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pagevault_run_active",
			Help: "Whether a snapshot run is currently in progress.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pagevault_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		urlsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagevault_urls_processed_total",
			Help: "URL outcomes partitioned by content class and result.",
		}, []string{"class", "outcome"}),
		urlFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagevault_url_failures_total",
			Help: "URL failures partitioned by failure kind.",
		}, []string{"kind"}),
		captureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagevault_capture_duration_seconds",
			Help:    "Per-URL capture duration partitioned by content class.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"class"}),
		captureBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagevault_capture_bytes_total",
			Help: "Artifact bytes persisted per content class.",
		}, []string{"class"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runActive,
		s.runDuration,
		s.urlsProcessed,
		s.urlFailures,
		s.captureDuration,
		s.captureBytes,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart, progress.StageRunDone:
		s.handleRunEvent(evt)
	case progress.StageURLDone:
		s.handleURLOutcome(evt, "success")
	case progress.StageURLFailed:
		s.handleURLOutcome(evt, "failure")
		s.urlFailures.WithLabelValues(orUnknown(evt.Kind)).Inc()
	}
}

func (s *PrometheusSink) handleRunEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runActive.Inc()
		}
	case progress.StageRunDone:
		s.runsCompleted.Inc()
		if evt.Dur > 0 {
			s.runDuration.Observe(evt.Dur.Seconds())
		}
		if s.tracker.complete(evt.RunID) {
			s.runActive.Dec()
		}
	}
}

func (s *PrometheusSink) handleURLOutcome(evt progress.Event, outcome string) {
	class := orUnknown(evt.Class)
	s.urlsProcessed.WithLabelValues(class, outcome).Inc()
	if evt.Dur > 0 {
		s.captureDuration.WithLabelValues(class).Observe(evt.Dur.Seconds())
	}
	if evt.Bytes > 0 {
		s.captureBytes.WithLabelValues(class).Add(float64(evt.Bytes))
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// runTracker deduplicates lifecycle events so the active gauge stays correct
// even if a stage is emitted twice.
type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
