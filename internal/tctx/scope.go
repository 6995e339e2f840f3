package tctx

import "github.com/ChrisHughes24/lean/internal/expr"

// Scope is a local-variable frame: the fresh locals introduced while
// descending into one binder chain. A Scope belongs to exactly one
// recursive descent and is dropped when that descent returns.
type Scope struct {
	names  NameGenerator
	locals []*expr.Local
}

// PushLocal introduces a fresh local for a lambda or pi binder. typ must
// already be instantiated against the locals pushed before it.
func (s *Scope) PushLocal(name string, typ expr.Expr, info expr.BinderInfo) *expr.Local {
	l := expr.MkLocal(s.names.Generate(), name, typ, info)
	s.locals = append(s.locals, l)
	return l
}

// PushLet introduces a fresh local standing for a let-bound value.
func (s *Scope) PushLet(name string, typ, value expr.Expr) *expr.Local {
	l := expr.MkLetLocal(s.names.Generate(), name, typ, value)
	s.locals = append(s.locals, l)
	return l
}

func (s *Scope) Len() int {
	return len(s.locals)
}

// Locals returns the frame in push order, ready for expr.InstantiateRev.
func (s *Scope) Locals() []expr.Expr {
	out := make([]expr.Expr, len(s.locals))
	for i, l := range s.locals {
		out[i] = l
	}
	return out
}

// MkLambda re-abstracts the frame around body. Let locals become Let
// nodes, all other locals lambda binders.
func (s *Scope) MkLambda(body expr.Expr) expr.Expr {
	return s.mkBinding(expr.KindLambda, body)
}

// MkPi is MkLambda producing pi binders.
func (s *Scope) MkPi(body expr.Expr) expr.Expr {
	return s.mkBinding(expr.KindPi, body)
}

func (s *Scope) mkBinding(kind expr.Kind, body expr.Expr) expr.Expr {
	r := expr.Abstract(body, s.locals...)
	for i := len(s.locals) - 1; i >= 0; i-- {
		l := s.locals[i]
		outer := s.locals[:i]
		typ := expr.Abstract(l.Type, outer...)
		if l.Value != nil {
			r = expr.MkLet(l.PrettyName, typ, expr.Abstract(l.Value, outer...), r)
			continue
		}
		r = expr.MkBinding(kind, l.PrettyName, typ, r, l.Info)
	}
	return r
}
