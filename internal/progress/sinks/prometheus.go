package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
)

// PrometheusSink exports scrape job progress. It owns the collectors for
// job starts, completions, running jobs, runtimes and batch counts.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    *prometheus.HistogramVec
	batches       *prometheus.CounterVec

	mu      sync.Mutex
	running map[string]struct{}
}

// NewPrometheusSink registers the collectors against reg, or the default
// registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_scrape_jobs_started_total",
			Help: "Scrape jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_scrape_jobs_completed_total",
			Help: "Scrape jobs completed, partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "atlas_scrape_jobs_running",
			Help: "Scrape jobs currently running.",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atlas_scrape_job_runtime_seconds",
			Help:    "Wall time per completed scrape job.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_scrape_batches_total",
			Help: "Detail page batches finished, partitioned by stage.",
		}, []string{"stage"}),
		running: make(map[string]struct{}),
	}
	for _, c := range []prometheus.Collector{s.jobsStarted, s.jobsCompleted, s.jobsRunning, s.jobRuntime, s.batches} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageJobStart:
			s.jobsStarted.Inc()
			if s.track(evt.JobID, true) {
				s.jobsRunning.Inc()
			}
		case progress.StageParentBatch:
			s.batches.WithLabelValues("parent").Inc()
		case progress.StageChildBatch:
			s.batches.WithLabelValues("child").Inc()
		case progress.StageJobDone, progress.StageJobError:
			result := "success"
			if evt.Stage == progress.StageJobError {
				result = "error"
			}
			s.jobsCompleted.WithLabelValues(result).Inc()
			if evt.Dur > 0 {
				s.jobRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
			}
			if s.track(evt.JobID, false) {
				s.jobsRunning.Dec()
			}
		}
	}
	return nil
}

// track records a job as started or finished and reports whether the
// running set changed.
func (s *PrometheusSink) track(id string, start bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	switch {
	case start && !ok:
		s.running[id] = struct{}{}
		return true
	case !start && ok:
		delete(s.running, id)
		return true
	}
	return false
}

// Close implements progress.Sink.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
