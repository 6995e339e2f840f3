// Package tctx is the type-context service consumed by the simplifier:
// global declarations, fresh-local scopes, type inference, weak-head
// normalization, definitional equality and function signature info.
//
// The checker is partial. InferType and IsDefEq answer for
// the fragment the simplifier needs (constants, locals, application,
// binders, let, sorts) and report failure rather than guessing.
package tctx

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ChrisHughes24/lean/internal/expr"
)

const (
	// DefaultCacheSize bounds the defeq and signature caches.
	DefaultCacheSize = 4096

	// DefaultMaxUnfold bounds reduction steps per WHNF call.
	DefaultMaxUnfold = 512

	maxDefEqDepth = 256
)

// Option configures a Context.
type Option func(*Context)

// WithNameGenerator sets the generator used for fresh local names.
// Default: UUIDNames.
func WithNameGenerator(g NameGenerator) Option {
	return func(c *Context) {
		c.names = g
	}
}

// WithDefEqCacheSize sets the LRU capacity of the defeq and signature
// caches. Non-positive sizes fall back to DefaultCacheSize.
func WithDefEqCacheSize(n int) Option {
	return func(c *Context) {
		c.cacheSize = n
	}
}

// WithMaxUnfold bounds the reduction steps a single WHNF call may take.
func WithMaxUnfold(n int) Option {
	return func(c *Context) {
		c.maxUnfold = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

type pairKey struct {
	a, b expr.Expr
}

type sigKey struct {
	fn    expr.Expr
	nargs int
}

// Context answers type questions about expressions over an Env.
//
// Thread-safety: caches are safe for concurrent use, but a Context is
// normally owned by one simplifier run.
type Context struct {
	env       *Env
	names     NameGenerator
	cacheSize int
	maxUnfold int
	log       *slog.Logger

	defeq *lru.Cache[pairKey, bool]
	sigs  *lru.Cache[sigKey, []ParamInfo]
}

// New creates a Context over env. A nil env is treated as empty.
func New(env *Env, opts ...Option) *Context {
	if env == nil {
		env = NewEnv()
	}
	c := &Context{
		env:       env,
		names:     UUIDNames{},
		cacheSize: DefaultCacheSize,
		maxUnfold: DefaultMaxUnfold,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize <= 0 {
		c.cacheSize = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	c.defeq, _ = lru.New[pairKey, bool](c.cacheSize)
	c.sigs, _ = lru.New[sigKey, []ParamInfo](c.cacheSize)
	return c
}

func (c *Context) Env() *Env {
	return c.env
}

// NewScope opens an empty local-variable frame.
func (c *Context) NewScope() *Scope {
	return &Scope{names: c.names}
}

// MkLocal creates a fresh local outside any scope.
func (c *Context) MkLocal(prettyName string, typ expr.Expr, info expr.BinderInfo) *expr.Local {
	return expr.MkLocal(c.names.Generate(), prettyName, typ, info)
}

// InferType returns the type of a closed expression, or false when the
// expression falls outside the supported fragment.
func (c *Context) InferType(e expr.Expr) (expr.Expr, bool) {
	switch n := e.(type) {
	case *expr.Const:
		d, ok := c.env.Lookup(n.Name)
		if !ok {
			return nil, false
		}
		return d.Type, true
	case *expr.Local:
		return n.Type, n.Type != nil
	case *expr.Meta:
		return n.Type, n.Type != nil
	case *expr.Sort:
		return expr.MkSort(n.Level + 1), true
	case *expr.App:
		ft, ok := c.InferType(n.Fn)
		if !ok {
			return nil, false
		}
		for _, a := range n.Args {
			pi, ok := c.WHNF(ft).(*expr.Binding)
			if !ok || pi.Kind() != expr.KindPi {
				return nil, false
			}
			ft = expr.Instantiate(pi.Body, a)
		}
		return ft, true
	case *expr.Binding:
		l := c.MkLocal(n.Name, n.Domain, n.Info)
		body := expr.Instantiate(n.Body, l)
		if n.Kind() == expr.KindLambda {
			bt, ok := c.InferType(body)
			if !ok {
				return nil, false
			}
			return expr.MkPi(n.Name, n.Domain, expr.Abstract(bt, l), n.Info), true
		}
		ds, ok := c.sortOf(n.Domain)
		if !ok {
			return nil, false
		}
		bs, ok := c.sortOf(body)
		if !ok {
			return nil, false
		}
		if bs == 0 {
			return expr.Prop(), true
		}
		return expr.MkSort(max(ds, bs)), true
	case *expr.Let:
		return c.InferType(expr.Instantiate(n.Body, n.Value))
	}
	return nil, false
}

func (c *Context) sortOf(t expr.Expr) (uint32, bool) {
	tt, ok := c.InferType(t)
	if !ok {
		return 0, false
	}
	s, ok := c.WHNF(tt).(*expr.Sort)
	if !ok {
		return 0, false
	}
	return s.Level, true
}

// WHNF reduces e to weak-head normal form by beta, zeta (let and
// let-bound locals) and delta (definitions) steps.
func (c *Context) WHNF(e expr.Expr) expr.Expr {
	for i := 0; i < c.maxUnfold; i++ {
		next, ok := c.whnfStep(e)
		if !ok {
			return e
		}
		e = next
	}
	c.log.Debug("whnf unfold limit reached", "limit", c.maxUnfold, "expr", e.String())
	return e
}

func (c *Context) whnfStep(e expr.Expr) (expr.Expr, bool) {
	switch n := e.(type) {
	case *expr.Let:
		return expr.Instantiate(n.Body, n.Value), true
	case *expr.Local:
		if n.Value != nil {
			return n.Value, true
		}
	case *expr.Const:
		if d, ok := c.env.Lookup(n.Name); ok && d.Value != nil {
			return d.Value, true
		}
	case *expr.App:
		if lam, ok := n.Fn.(*expr.Binding); ok && lam.Kind() == expr.KindLambda {
			return beta(lam, n.Args), true
		}
		if fn, ok := c.whnfStep(n.Fn); ok {
			return expr.MkApp(fn, n.Args...), true
		}
	}
	return e, false
}

// beta consumes as many arguments as fn has leading lambdas.
func beta(fn expr.Expr, args []expr.Expr) expr.Expr {
	body := fn
	i := 0
	for i < len(args) {
		lam, ok := body.(*expr.Binding)
		if !ok || lam.Kind() != expr.KindLambda {
			break
		}
		body = lam.Body
		i++
	}
	return expr.MkApp(expr.InstantiateRev(body, args[:i]...), args[i:]...)
}

// IsDefEq reports whether a and b are definitionally equal. Results are
// cached per (a, b) pointer pair.
func (c *Context) IsDefEq(a, b expr.Expr) bool {
	return c.isDefEq(a, b, 0)
}

func (c *Context) isDefEq(a, b expr.Expr, depth int) bool {
	if expr.Equal(a, b) {
		return true
	}
	if depth > maxDefEqDepth {
		return false
	}
	key := pairKey{a, b}
	if r, ok := c.defeq.Get(key); ok {
		return r
	}
	r := c.isDefEqCore(a, b, depth)
	c.defeq.Add(key, r)
	return r
}

func (c *Context) isDefEqCore(a, b expr.Expr, depth int) bool {
	a, b = c.WHNF(a), c.WHNF(b)
	if expr.Equal(a, b) {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *expr.Binding:
		y := b.(*expr.Binding)
		if !c.isDefEq(x.Domain, y.Domain, depth+1) {
			return false
		}
		l := c.MkLocal(x.Name, x.Domain, x.Info)
		return c.isDefEq(expr.Instantiate(x.Body, l), expr.Instantiate(y.Body, l), depth+1)
	case *expr.App:
		y := b.(*expr.App)
		if len(x.Args) != len(y.Args) || !c.isDefEq(x.Fn, y.Fn, depth+1) {
			return false
		}
		return c.defEqList(x.Args, y.Args, depth)
	case *expr.Macro:
		y := b.(*expr.Macro)
		return x.Tag == y.Tag && len(x.Args) == len(y.Args) && c.defEqList(x.Args, y.Args, depth)
	}
	return false
}

func (c *Context) defEqList(xs, ys []expr.Expr, depth int) bool {
	for i := range xs {
		if !c.isDefEq(xs[i], ys[i], depth+1) {
			return false
		}
	}
	return true
}
