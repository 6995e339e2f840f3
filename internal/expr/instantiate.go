package expr

// ReplaceFunc is called on every subterm visited by Replace together with
// the number of binders crossed to reach it. Returning ok=true substitutes
// the returned expression and stops descent into that subterm.
type ReplaceFunc func(e Expr, offset uint32) (r Expr, ok bool)

// Replace rebuilds e bottom-up with f applied to each subterm. Subtrees in
// which nothing was replaced are returned as-is, so an identity
// replacement returns e itself.
func Replace(e Expr, f ReplaceFunc) Expr {
	return replace(e, 0, f)
}

func replace(e Expr, offset uint32, f ReplaceFunc) Expr {
	if r, ok := f(e, offset); ok {
		return r
	}
	switch n := e.(type) {
	case *Macro:
		args, changed := replaceList(n.Args, offset, f)
		if !changed {
			return e
		}
		return MkMacro(n.Tag, args...)
	case *Binding:
		d := replace(n.Domain, offset, f)
		b := replace(n.Body, offset+1, f)
		if d == n.Domain && b == n.Body {
			return e
		}
		return MkBinding(n.kind, n.Name, d, b, n.Info)
	case *Let:
		t := replace(n.Type, offset, f)
		v := replace(n.Value, offset, f)
		b := replace(n.Body, offset+1, f)
		if t == n.Type && v == n.Value && b == n.Body {
			return e
		}
		return MkLet(n.Name, t, v, b)
	case *App:
		fn := replace(n.Fn, offset, f)
		args, changed := replaceList(n.Args, offset, f)
		if !changed && fn == n.Fn {
			return e
		}
		if !changed {
			args = n.Args
		}
		return MkApp(fn, args...)
	}
	return e
}

func replaceList(es []Expr, offset uint32, f ReplaceFunc) ([]Expr, bool) {
	var out []Expr
	for i, a := range es {
		r := replace(a, offset, f)
		if r != a && out == nil {
			out = make([]Expr, len(es))
			copy(out, es[:i])
		}
		if out != nil {
			out[i] = r
		}
	}
	return out, out != nil
}

// LiftLooseBVars adds d to every loose bound variable of e at or above s.
func LiftLooseBVars(e Expr, s, d uint32) Expr {
	if d == 0 || e.LooseBVarRange() <= s {
		return e
	}
	return Replace(e, func(m Expr, offset uint32) (Expr, bool) {
		if m.LooseBVarRange() <= s+offset {
			return m, true
		}
		if bv, ok := m.(*BVar); ok {
			return MkBVar(bv.Idx + d), true
		}
		return nil, false
	})
}

// Instantiate replaces loose bound variable i with subst[i] for i below
// len(subst) and lowers the remaining loose variables by len(subst).
func Instantiate(e Expr, subst ...Expr) Expr {
	n := uint32(len(subst))
	if n == 0 || !HasLooseBVars(e) {
		return e
	}
	return Replace(e, func(m Expr, offset uint32) (Expr, bool) {
		if m.LooseBVarRange() <= offset {
			return m, true
		}
		bv, ok := m.(*BVar)
		if !ok {
			return nil, false
		}
		switch {
		case bv.Idx < offset:
			return m, true
		case bv.Idx < offset+n:
			return LiftLooseBVars(subst[bv.Idx-offset], 0, offset), true
		default:
			return MkBVar(bv.Idx - n), true
		}
	})
}

// InstantiateRev is Instantiate with subst in reverse order: loose bound
// variable 0 becomes the last element. This is the order in which a binder
// chain pushes its locals.
func InstantiateRev(e Expr, subst ...Expr) Expr {
	if len(subst) == 0 || !HasLooseBVars(e) {
		return e
	}
	rev := make([]Expr, len(subst))
	for i, s := range subst {
		rev[len(subst)-1-i] = s
	}
	return Instantiate(e, rev...)
}

// Abstract replaces each occurrence of locals[i] with the bound variable
// that points at it when the locals are re-bound outermost first: the last
// local becomes index 0.
func Abstract(e Expr, locals ...*Local) Expr {
	if len(locals) == 0 {
		return e
	}
	pos := make(map[string]uint32, len(locals))
	for i, l := range locals {
		pos[l.Name] = uint32(len(locals) - 1 - i)
	}
	return Replace(e, func(m Expr, offset uint32) (Expr, bool) {
		l, ok := m.(*Local)
		if !ok {
			return nil, false
		}
		if idx, ok := pos[l.Name]; ok {
			return MkBVar(offset + idx), true
		}
		return m, true
	})
}

// InstantiateMetas replaces metas found in subst. Values in subst are
// assumed closed.
func InstantiateMetas(e Expr, subst map[string]Expr) Expr {
	if len(subst) == 0 {
		return e
	}
	return Replace(e, func(m Expr, offset uint32) (Expr, bool) {
		mv, ok := m.(*Meta)
		if !ok {
			return nil, false
		}
		if v, ok := subst[mv.Name]; ok {
			return LiftLooseBVars(v, 0, offset), true
		}
		return m, true
	})
}

// Metas returns the names of metas in e in first-occurrence order.
func Metas(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Replace(e, func(m Expr, _ uint32) (Expr, bool) {
		if mv, ok := m.(*Meta); ok {
			if !seen[mv.Name] {
				seen[mv.Name] = true
				names = append(names, mv.Name)
			}
			return m, true
		}
		return nil, false
	})
	return names
}

// Consts returns the names of constants in e in first-occurrence order.
func Consts(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Replace(e, func(m Expr, _ uint32) (Expr, bool) {
		if c, ok := m.(*Const); ok {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
			return m, true
		}
		return nil, false
	})
	return names
}
