// Package metrics exposes the engine's Prometheus counters and the
// /metrics HTTP endpoint, mirroring the teacher's pkg/analyzer metrics
// registration style (a package-level Registry plus a small set of
// domain counters/histograms registered once at startup).
package metrics

import (
	"context"
	"net/http"
	"time"

	"katapultqc/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric RunQC invocations feed. A nil *Collector is
// valid and every method is a no-op, so callers that never enable metrics
// don't need to guard each call site.
type Collector struct {
	reg *prometheus.Registry

	runsTotal       prometheus.Counter
	runDuration     prometheus.Histogram
	polesEvaluated  prometheus.Counter
	midspansEvaluated prometheus.Counter
	issuesTotal     *prometheus.CounterVec
	entityStatus    *prometheus.CounterVec
}

// New builds a Collector registered under namespace (the CLI passes
// "katapultqc").
func New(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qc_runs_total",
			Help:      "Total number of RunQC evaluations performed.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qc_run_duration_seconds",
			Help:      "Wall-clock duration of a single RunQC evaluation.",
			Buckets:   prometheus.DefBuckets,
		}),
		polesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qc_poles_evaluated_total",
			Help:      "Total number of poles evaluated across all runs.",
		}),
		midspansEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qc_midspans_evaluated_total",
			Help:      "Total number of midspans evaluated across all runs.",
		}),
		issuesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qc_issues_total",
			Help:      "Total number of issues emitted, by severity and rule code.",
		}, []string{"severity", "rule_code"}),
		entityStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qc_entity_status_total",
			Help:      "Total number of pass/warn/fail/unknown roll-ups, by entity type.",
		}, []string{"entity_type", "status"}),
	}

	reg.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.polesEvaluated,
		c.midspansEvaluated,
		c.issuesTotal,
		c.entityStatus,
	)
	return c
}

// ObserveRun records one RunQC invocation: its duration, the entity counts
// it evaluated, the issues it emitted, and the status each entity rolled up
// to. Called once per evaluation from the CLI and the watch loop alike.
func (c *Collector) ObserveRun(duration time.Duration, poles, midspans int, issues []types.Issue, poleStatuses, midspanStatuses map[string]types.Status) {
	if c == nil {
		return
	}
	c.runsTotal.Inc()
	c.runDuration.Observe(duration.Seconds())
	c.polesEvaluated.Add(float64(poles))
	c.midspansEvaluated.Add(float64(midspans))

	for _, iss := range issues {
		c.issuesTotal.WithLabelValues(string(iss.Severity), iss.RuleCode).Inc()
	}
	for _, st := range poleStatuses {
		c.entityStatus.WithLabelValues("pole", string(st)).Inc()
	}
	for _, st := range midspanStatuses {
		c.entityStatus.WithLabelValues("midspan", string(st)).Inc()
	}
}

// Handler returns the HTTP handler that serves this Collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts the /metrics HTTP server on addr and blocks until ctx is
// canceled, per spec.md §9's optional metrics endpoint.
func (c *Collector) Serve(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
