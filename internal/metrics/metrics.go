// Package metrics exposes simplifier counters as Prometheus collectors.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Run status label values.
const (
	StatusOK            = "ok"
	StatusStepsExceeded = "steps_exceeded"
	StatusCancelled     = "cancelled"
	StatusError         = "error"
)

// Collector holds the simplifier counters. It implements the engine's
// Metrics interface.
type Collector struct {
	steps     prometheus.Counter
	restarts  prometheus.Counter
	cacheHits prometheus.Counter
	rewrites  *prometheus.CounterVec
	runs      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsimp_steps_total",
			Help: "Steps charged by the simplifier (node visits and rule attempts).",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsimp_restarts_total",
			Help: "Passes restarted after a canonicalizer mutation.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsimp_cache_hits_total",
			Help: "Node visits answered from the traversal cache.",
		}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsimp_rewrites_total",
			Help: "Successful rule applications by rule.",
		}, []string{"rule"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsimp_runs_total",
			Help: "Simplification runs by outcome.",
		}, []string{"status"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range c.toList() {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) toList() []prometheus.Collector {
	return []prometheus.Collector{c.steps, c.restarts, c.cacheHits, c.rewrites, c.runs}
}

func (c *Collector) ObserveStep()               { c.steps.Inc() }
func (c *Collector) ObserveRestart()            { c.restarts.Inc() }
func (c *Collector) ObserveCacheHit()           { c.cacheHits.Inc() }
func (c *Collector) ObserveRewrite(rule string) { c.rewrites.WithLabelValues(rule).Inc() }

// ObserveRun counts a finished run under one of the Status* values.
func (c *Collector) ObserveRun(status string) {
	c.runs.WithLabelValues(status).Inc()
}

// Snapshot flattens counters and gauges gathered from g into a map keyed
// by metric name, with labels appended as {k="v",...}.
func Snapshot(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			out[mf.GetName()+labelString(m.GetLabel())] = v
		}
	}
	return out, nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
