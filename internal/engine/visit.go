package engine

import (
	"context"

	"github.com/ChrisHughes24/lean/internal/expr"
)

type cacheEntry struct {
	in, out expr.Expr
}

// traversal is one pass over the root. Its cache and restart flag die
// with it.
type traversal struct {
	core    *Core
	cache   map[uint64][]cacheEntry
	restart bool
	depth   int
}

// lookup finds a structurally equal input. An entry whose output is its
// own input answers with e itself, so unchanged subterms keep their
// identity even when an equal copy was cached first.
func (t *traversal) lookup(e expr.Expr) (expr.Expr, bool) {
	for _, ce := range t.cache[e.Hash()] {
		if !expr.Equal(ce.in, e) {
			continue
		}
		if ce.out == ce.in {
			return e, true
		}
		return ce.out, true
	}
	return nil, false
}

func (t *traversal) insert(in, out expr.Expr) {
	h := in.Hash()
	t.cache[h] = append(t.cache[h], cacheEntry{in: in, out: out})
}

func (t *traversal) visit(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	c := t.core
	if err := c.Step(ctx); err != nil {
		return nil, err
	}
	c.tracer.Visit(t.depth, e)

	if r, ok := t.lookup(e); ok {
		c.stats.CacheHits++
		c.metrics.ObserveCacheHit()
		return r, nil
	}

	curr := e
	pre, err := c.hooks.Pre(ctx, c, e)
	if err != nil {
		return nil, err
	}
	if pre.Rewrote() {
		if !pre.Continue {
			t.insert(e, pre.Expr)
			return pre.Expr, nil
		}
		curr = pre.Expr
	}

	t.depth++
	curr, err = t.visitChildren(ctx, curr)
	t.depth--
	if err != nil {
		return nil, err
	}

	for first := true; ; first = false {
		if !first {
			if err := c.Step(ctx); err != nil {
				return nil, err
			}
		}
		post, err := c.hooks.Post(ctx, c, curr)
		if err != nil {
			return nil, err
		}
		if !post.Rewrote() {
			break
		}
		curr = post.Expr
		if !post.Continue {
			break
		}
	}

	t.insert(e, curr)
	return curr, nil
}

func (t *traversal) visitChildren(ctx context.Context, e expr.Expr) (expr.Expr, error) {
	switch n := e.(type) {
	case *expr.Local, *expr.Meta, *expr.Sort, *expr.Const:
		return e, nil
	case *expr.BVar:
		return nil, NewLooseBVarError(n)
	case *expr.Macro:
		return t.visitMacro(ctx, n)
	case *expr.Binding:
		return t.visitBinding(ctx, n)
	case *expr.Let:
		return t.visitLet(ctx, n)
	case *expr.App:
		return t.visitApp(ctx, n)
	}
	return e, nil
}

func (t *traversal) visitMacro(ctx context.Context, e *expr.Macro) (expr.Expr, error) {
	args := make([]expr.Expr, len(e.Args))
	modified := false
	for i, a := range e.Args {
		na, err := t.visit(ctx, a)
		if err != nil {
			return nil, err
		}
		if na != a {
			modified = true
		}
		args[i] = na
	}
	if !modified {
		return e, nil
	}
	return expr.MkMacro(e.Tag, args...), nil
}

// visitBinding walks a chain of binders of e's kind. Each domain is
// instantiated against the frame built so far and visited, and the
// local pushed for it carries the simplified domain.
func (t *traversal) visitBinding(ctx context.Context, e *expr.Binding) (expr.Expr, error) {
	kind := e.Kind()
	scope := t.core.tc.NewScope()
	modified := false

	var b expr.Expr = e
	for {
		bb, ok := b.(*expr.Binding)
		if !ok || bb.Kind() != kind {
			break
		}
		d := expr.InstantiateRev(bb.Domain, scope.Locals()...)
		nd, err := t.visit(ctx, d)
		if err != nil {
			return nil, err
		}
		if nd != d {
			modified = true
		}
		scope.PushLocal(bb.Name, nd, bb.Info)
		b = bb.Body
	}

	body := expr.InstantiateRev(b, scope.Locals()...)
	nb, err := t.visit(ctx, body)
	if err != nil {
		return nil, err
	}
	if nb != body {
		modified = true
	}
	if !modified {
		return e, nil
	}
	if kind == expr.KindPi {
		return scope.MkPi(nb), nil
	}
	return scope.MkLambda(nb), nil
}

func (t *traversal) visitLet(ctx context.Context, e *expr.Let) (expr.Expr, error) {
	scope := t.core.tc.NewScope()
	modified := false

	var b expr.Expr = e
	for {
		l, ok := b.(*expr.Let)
		if !ok {
			break
		}
		locals := scope.Locals()
		typ := expr.InstantiateRev(l.Type, locals...)
		val := expr.InstantiateRev(l.Value, locals...)
		nt, err := t.visit(ctx, typ)
		if err != nil {
			return nil, err
		}
		nv, err := t.visit(ctx, val)
		if err != nil {
			return nil, err
		}
		if nt != typ || nv != val {
			modified = true
		}
		scope.PushLet(l.Name, nt, nv)
		b = l.Body
	}

	body := expr.InstantiateRev(b, scope.Locals()...)
	nb, err := t.visit(ctx, body)
	if err != nil {
		return nil, err
	}
	if nb != body {
		modified = true
	}
	if !modified {
		return e, nil
	}
	return scope.MkLambda(nb), nil
}

// visitApp leaves the head alone. Instance-implicit arguments are
// canonized instead of visited unless visitInstances is set.
func (t *traversal) visitApp(ctx context.Context, e *expr.App) (expr.Expr, error) {
	fn, args := expr.GetAppArgs(e)
	modified := false

	i := 0
	if !t.core.visitInstances {
		for _, p := range t.core.tc.FunInfo(fn, len(args)) {
			var na expr.Expr
			if p.IsInstImplicit() {
				// A representative structurally equal to the argument
				// keeps the argument, so no-op runs return e itself.
				if na = t.canonize(args[i]); expr.Equal(na, args[i]) {
					na = args[i]
				}
			} else {
				var err error
				if na, err = t.visit(ctx, args[i]); err != nil {
					return nil, err
				}
			}
			if na != args[i] {
				modified = true
			}
			args[i] = na
			i++
		}
	}
	for ; i < len(args); i++ {
		na, err := t.visit(ctx, args[i])
		if err != nil {
			return nil, err
		}
		if na != args[i] {
			modified = true
		}
		args[i] = na
	}
	if !modified {
		return e, nil
	}
	return expr.MkApp(fn, args...), nil
}

func (t *traversal) canonize(e expr.Expr) expr.Expr {
	if t.core.canon == nil {
		return e
	}
	rep, mutated := t.core.canon.Canonize(e)
	if mutated {
		t.restart = true
	}
	return rep
}
