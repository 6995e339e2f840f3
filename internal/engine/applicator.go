package engine

import (
	"context"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
)

// RuleApplicator is the fixed-point rule strategy: its post hook rewrites
// the current node with unconditional rules until none applies.
//
// Each loop iteration charges one step. A rewrite counts as progress when
// it yields a different node identity, so a rule whose right-hand side is
// rebuilt from pattern variables always counts as progress, even when the
// result is structurally equal to its input. Such rules run until the
// step ceiling stops them.
type RuleApplicator struct {
	rules *rules.Set
}

func NewRuleApplicator(set *rules.Set) *RuleApplicator {
	return &RuleApplicator{rules: set}
}

func (a *RuleApplicator) Pre(context.Context, Control, expr.Expr) (Result, error) {
	return Result{}, nil
}

func (a *RuleApplicator) Post(ctx context.Context, c Control, e expr.Expr) (Result, error) {
	curr := e
	for {
		if err := c.Step(ctx); err != nil {
			return Result{}, err
		}
		candidates := a.rules.Find(curr)
		if len(candidates) == 0 {
			break
		}
		next, rule := a.rewrite(candidates, curr)
		if next == curr {
			break
		}
		c.Rewrote(rule.Name, curr, next)
		curr = next
	}
	if curr == e {
		return Result{}, nil
	}
	return Again(curr), nil
}

// rewrite applies the first unconditional candidate whose left-hand side
// matches e.
func (a *RuleApplicator) rewrite(candidates []*rules.Rule, e expr.Expr) (expr.Expr, *rules.Rule) {
	for _, r := range candidates {
		if !r.Unconditional() {
			continue
		}
		if out, ok := r.Rewrite(e); ok {
			return out, r
		}
	}
	return e, nil
}
