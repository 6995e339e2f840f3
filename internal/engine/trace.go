package engine

import (
	"log/slog"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Tracer is the diagnostic sink. It observes the run and has no effect
// on results.
type Tracer interface {
	Visit(depth int, e expr.Expr)
	Restart(pass int)
}

type nopTracer struct{}

func (nopTracer) Visit(int, expr.Expr) {}
func (nopTracer) Restart(int)          {}

// SlogTracer logs every visited node at Debug level.
type SlogTracer struct {
	Logger *slog.Logger
}

func (t SlogTracer) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t SlogTracer) Visit(depth int, e expr.Expr) {
	t.logger().Debug("dsimplify visit", "depth", depth, "expr", e.String())
}

func (t SlogTracer) Restart(pass int) {
	t.logger().Debug("dsimplify restart", "pass", pass)
}

// RewriteObserver is called for every successful rule application.
type RewriteObserver func(rule string, before, after expr.Expr)

// Metrics receives run counters. Implemented by metrics.Collector.
type Metrics interface {
	ObserveStep()
	ObserveRestart()
	ObserveCacheHit()
	ObserveRewrite(rule string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStep()          {}
func (nopMetrics) ObserveRestart()       {}
func (nopMetrics) ObserveCacheHit()      {}
func (nopMetrics) ObserveRewrite(string) {}
