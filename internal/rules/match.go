package rules

import "github.com/ChrisHughes24/lean/internal/expr"

// Subst maps pattern-variable names to the terms they matched.
type Subst map[string]expr.Expr

// Match matches pattern against e. Metas in the pattern are pattern
// variables; a variable occurring twice must match structurally equal
// terms. Variables never capture terms with loose bound variables, so a
// match under a binder cannot leak the binder's index.
func Match(pattern, e expr.Expr) (Subst, bool) {
	s := Subst{}
	if !match(pattern, e, s) {
		return nil, false
	}
	return s, true
}

func match(p, e expr.Expr, s Subst) bool {
	if m, ok := p.(*expr.Meta); ok {
		if bound, ok := s[m.Name]; ok {
			return expr.Equal(bound, e)
		}
		if expr.HasLooseBVars(e) {
			return false
		}
		s[m.Name] = e
		return true
	}
	if p == e {
		return true
	}
	if p.Kind() != e.Kind() {
		return false
	}
	switch x := p.(type) {
	case *expr.Const:
		return x.Name == e.(*expr.Const).Name
	case *expr.Sort:
		return x.Level == e.(*expr.Sort).Level
	case *expr.BVar:
		return x.Idx == e.(*expr.BVar).Idx
	case *expr.Local:
		return x.Name == e.(*expr.Local).Name
	case *expr.App:
		y := e.(*expr.App)
		return len(x.Args) == len(y.Args) && match(x.Fn, y.Fn, s) && matchList(x.Args, y.Args, s)
	case *expr.Macro:
		y := e.(*expr.Macro)
		return x.Tag == y.Tag && len(x.Args) == len(y.Args) && matchList(x.Args, y.Args, s)
	case *expr.Binding:
		y := e.(*expr.Binding)
		return x.Info == y.Info && match(x.Domain, y.Domain, s) && match(x.Body, y.Body, s)
	case *expr.Let:
		y := e.(*expr.Let)
		return match(x.Type, y.Type, s) && match(x.Value, y.Value, s) && match(x.Body, y.Body, s)
	}
	return false
}

func matchList(ps, es []expr.Expr, s Subst) bool {
	for i := range ps {
		if !match(ps[i], es[i], s) {
			return false
		}
	}
	return true
}
