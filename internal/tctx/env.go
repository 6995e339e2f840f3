package tctx

import (
	"fmt"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Decl is a global declaration. Value is nil for axioms and opaque
// constants; definitions with a value unfold during weak-head
// normalization.
type Decl struct {
	Name  string
	Type  expr.Expr
	Value expr.Expr
}

// IsDefinition reports whether the declaration can be unfolded.
func (d Decl) IsDefinition() bool {
	return d.Value != nil
}

// Env is an ordered set of declarations.
//
// INVARIANTS:
//   - Names are unique
//   - Types and values are closed (no loose bound variables)
type Env struct {
	decls map[string]Decl
	order []string
}

func NewEnv() *Env {
	return &Env{decls: make(map[string]Decl)}
}

// Add registers a declaration in declaration order.
func (e *Env) Add(d Decl) error {
	if d.Name == "" {
		return fmt.Errorf("declaration name is required")
	}
	if d.Type == nil {
		return fmt.Errorf("declaration %s: type is required", d.Name)
	}
	if _, dup := e.decls[d.Name]; dup {
		return fmt.Errorf("duplicate declaration: %s", d.Name)
	}
	if expr.HasLooseBVars(d.Type) {
		return fmt.Errorf("declaration %s: type has loose bound variables", d.Name)
	}
	if d.Value != nil && expr.HasLooseBVars(d.Value) {
		return fmt.Errorf("declaration %s: value has loose bound variables", d.Name)
	}
	e.decls[d.Name] = d
	e.order = append(e.order, d.Name)
	return nil
}

// Lookup returns the declaration with the given name.
func (e *Env) Lookup(name string) (Decl, bool) {
	d, ok := e.decls[name]
	return d, ok
}

// Decls returns the declarations in declaration order.
func (e *Env) Decls() []Decl {
	out := make([]Decl, len(e.order))
	for i, n := range e.order {
		out[i] = e.decls[n]
	}
	return out
}

func (e *Env) Len() int {
	return len(e.order)
}
