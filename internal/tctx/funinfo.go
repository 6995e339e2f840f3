package tctx

import "github.com/ChrisHughes24/lean/internal/expr"

// ParamInfo describes one parameter of a function signature.
type ParamInfo struct {
	Name string
	Info expr.BinderInfo
}

// IsInstImplicit reports whether the parameter is filled by instance
// resolution.
func (p ParamInfo) IsInstImplicit() bool {
	return p.Info == expr.InstImplicit
}

// FunInfo classifies the first nargs parameters of fn by reading the pi
// binders of its type. The result is shorter than nargs when the type
// does not expose that many binders, and nil when fn has no inferable
// type.
func (c *Context) FunInfo(fn expr.Expr, nargs int) []ParamInfo {
	key := sigKey{fn, nargs}
	if ps, ok := c.sigs.Get(key); ok {
		return ps
	}
	t, ok := c.InferType(fn)
	if !ok {
		return nil
	}
	ps := make([]ParamInfo, 0, nargs)
	for len(ps) < nargs {
		pi, ok := c.WHNF(t).(*expr.Binding)
		if !ok || pi.Kind() != expr.KindPi {
			break
		}
		ps = append(ps, ParamInfo{Name: pi.Name, Info: pi.Info})
		t = expr.Instantiate(pi.Body, c.MkLocal(pi.Name, pi.Domain, pi.Info))
	}
	c.sigs.Add(key, ps)
	return ps
}
