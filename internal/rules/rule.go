// Package rules is the rewrite-rule database: rules over expression
// patterns, head-symbol indexed rule sets and first-order matching.
//
// Pattern variables are the metavariables of a rule's left-hand side.
// A rule with no hypotheses is unconditional and can be applied without
// discharging any side condition.
package rules

import (
	"fmt"
	"slices"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Rule rewrites instances of LHS to the matching instance of RHS.
//
// INVARIANTS (checked by Validate):
//   - LHS is headed by a constant
//   - LHS and RHS are closed (no loose bound variables)
//   - every meta of RHS and Hyps also occurs in LHS
type Rule struct {
	Name     string
	LHS      expr.Expr
	RHS      expr.Expr
	Hyps     []expr.Expr
	Priority int
}

// Unconditional reports whether the rule has no side conditions.
func (r *Rule) Unconditional() bool {
	return len(r.Hyps) == 0
}

// Head returns the index key of the rule's left-hand side.
func (r *Rule) Head() string {
	h, _ := expr.HeadSymbol(r.LHS)
	return h
}

// Validate checks the rule invariants.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.LHS == nil || r.RHS == nil {
		return fmt.Errorf("rule %s: lhs and rhs are required", r.Name)
	}
	if _, ok := expr.GetAppFn(r.LHS).(*expr.Const); !ok {
		return fmt.Errorf("rule %s: lhs must be headed by a constant, got %s", r.Name, r.LHS)
	}
	for _, e := range append([]expr.Expr{r.LHS, r.RHS}, r.Hyps...) {
		if expr.HasLooseBVars(e) {
			return fmt.Errorf("rule %s: %s has loose bound variables", r.Name, e)
		}
	}
	vars := expr.Metas(r.LHS)
	for _, e := range append([]expr.Expr{r.RHS}, r.Hyps...) {
		for _, m := range expr.Metas(e) {
			if !slices.Contains(vars, m) {
				return fmt.Errorf("rule %s: pattern variable ?%s does not occur in lhs", r.Name, m)
			}
		}
	}
	return nil
}

// Rewrite applies the rule at the root of e. It returns e unchanged and
// false when the left-hand side does not match.
func (r *Rule) Rewrite(e expr.Expr) (expr.Expr, bool) {
	s, ok := Match(r.LHS, e)
	if !ok {
		return e, false
	}
	return expr.InstantiateMetas(r.RHS, s), true
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s: %s => %s", r.Name, r.LHS, r.RHS)
}
