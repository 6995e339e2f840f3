package expr

// Equal reports whether a and b are the same tree up to binder names.
//
// Pointer identity short-circuits to true and a hash mismatch to false, so
// the full walk only runs on hash collisions and on equal trees built
// separately.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Hash() != b.Hash() || a.Kind() != b.Kind() || a.Size() != b.Size() {
		return false
	}
	switch x := a.(type) {
	case *BVar:
		return x.Idx == b.(*BVar).Idx
	case *Local:
		return x.Name == b.(*Local).Name
	case *Meta:
		return x.Name == b.(*Meta).Name
	case *Sort:
		return x.Level == b.(*Sort).Level
	case *Const:
		return x.Name == b.(*Const).Name
	case *Macro:
		y := b.(*Macro)
		return x.Tag == y.Tag && equalList(x.Args, y.Args)
	case *Binding:
		y := b.(*Binding)
		return x.Info == y.Info && Equal(x.Domain, y.Domain) && Equal(x.Body, y.Body)
	case *Let:
		y := b.(*Let)
		return Equal(x.Type, y.Type) && Equal(x.Value, y.Value) && Equal(x.Body, y.Body)
	case *App:
		y := b.(*App)
		return Equal(x.Fn, y.Fn) && equalList(x.Args, y.Args)
	}
	return false
}

func equalList(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}
