package engine

import (
	"context"
	"log/slog"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
	"github.com/ChrisHughes24/lean/internal/tctx"
)

// DefaultMaxSteps is the default step ceiling per Simplify call.
const DefaultMaxSteps = 10000

// TypeContext is the part of the type-context service the traversal
// needs: local frames for binders and the signature classifier.
// Implemented by *tctx.Context.
type TypeContext interface {
	NewScope() *tctx.Scope
	FunInfo(fn expr.Expr, nargs int) []tctx.ParamInfo
}

// Canonizer maps an instance-implicit argument to the representative of
// its definitional-equality class. mutated reports that the canonizer
// changed its global representatives. Implemented by *canon.Canonizer.
type Canonizer interface {
	Canonize(e expr.Expr) (rep expr.Expr, mutated bool)
}

// Stats summarizes the last Simplify call.
type Stats struct {
	Steps     int
	Restarts  int
	CacheHits int
	Rewrites  int
}

// Core is the memoizing traversal.
//
// Thread-safety: a Core must not run two Simplify calls concurrently.
type Core struct {
	tc             TypeContext
	canon          Canonizer
	hooks          Hooks
	maxSteps       int
	visitInstances bool
	tracer         Tracer
	observer       RewriteObserver
	metrics        Metrics
	log            *slog.Logger

	quota *StepQuota
	stats Stats
}

// Option allows configuration of a Core.
type Option func(*Core)

// WithMaxSteps sets the step ceiling.
//
// Default: 10000 steps (DefaultMaxSteps)
func WithMaxSteps(maxSteps int) Option {
	return func(c *Core) {
		c.maxSteps = maxSteps
	}
}

// WithVisitInstances makes the traversal simplify instance-implicit
// arguments like any other argument instead of canonizing them.
func WithVisitInstances(visit bool) Option {
	return func(c *Core) {
		c.visitInstances = visit
	}
}

func WithTracer(t Tracer) Option {
	return func(c *Core) {
		c.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Core) {
		c.log = l
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Core) {
		c.metrics = m
	}
}

// WithRewriteObserver registers a callback for every rule application.
func WithRewriteObserver(fn RewriteObserver) Option {
	return func(c *Core) {
		c.observer = fn
	}
}

// NewCore creates a traversal over tc using the given strategy. canon may
// be nil, in which case instance-implicit arguments are left untouched
// unless WithVisitInstances is set.
func NewCore(tc TypeContext, canon Canonizer, hooks Hooks, opts ...Option) *Core {
	if hooks == nil {
		hooks = HookFuncs{}
	}
	c := &Core{
		tc:       tc,
		canon:    canon,
		hooks:    hooks,
		maxSteps: DefaultMaxSteps,
		tracer:   nopTracer{},
		metrics:  nopMetrics{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.quota = NewStepQuota(c.maxSteps)
	return c
}

// Simplify rewrites e under the configured hooks. It either returns the
// fully simplified expression or fails; there is no partial result.
//
// When the canonizer reports a mutation during a pass, the cache is
// discarded and the pass is re-run on the original e.
func (c *Core) Simplify(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	c.quota.Reset()
	c.stats = Stats{}
	c.log.Debug("simplify starting", "max_steps", c.maxSteps, "visit_instances", c.visitInstances)

	for pass := 1; ; pass++ {
		p := &traversal{core: c, cache: make(map[uint64][]cacheEntry)}
		r, err := p.visit(ctx, e)
		c.stats.Steps = c.quota.Current()
		if err != nil {
			c.log.Debug("simplify failed", "steps", c.stats.Steps, "error", err)
			return nil, err
		}
		if !p.restart {
			c.log.Debug("simplify finished",
				"steps", c.stats.Steps,
				"restarts", c.stats.Restarts,
				"rewrites", c.stats.Rewrites)
			return r, nil
		}
		c.stats.Restarts++
		c.metrics.ObserveRestart()
		c.tracer.Restart(pass + 1)
	}
}

// Step checks for cancellation and charges one step against the ceiling.
func (c *Core) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewCancelledError(err)
	}
	if err := c.quota.Check(); err != nil {
		return err
	}
	c.metrics.ObserveStep()
	return nil
}

// Rewrote records a rule application.
func (c *Core) Rewrote(rule string, before, after expr.Expr) {
	c.stats.Rewrites++
	c.metrics.ObserveRewrite(rule)
	if c.observer != nil {
		c.observer(rule, before, after)
	}
}

// Stats returns the counters of the last Simplify call.
func (c *Core) Stats() Stats {
	s := c.stats
	s.Steps = c.quota.Current()
	return s
}

// Simplify runs the fixed-point rule applicator for set over e.
func Simplify(ctx context.Context, tc TypeContext, canon Canonizer, set *rules.Set, e expr.Expr, opts ...Option) (expr.Expr, error) {
	return NewCore(tc, canon, NewRuleApplicator(set), opts...).Simplify(ctx, e)
}
