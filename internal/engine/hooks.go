package engine

import (
	"context"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Result is a hook's answer for one node. The zero Result means "no
// rewrite".
type Result struct {
	// Expr replaces the node when non-nil.
	Expr expr.Expr
	// Continue asks for more work on Expr. For a pre hook that means
	// descend into Expr's children; for a post hook, call the post hook
	// again on Expr.
	Continue bool
}

// Rewrote reports whether the hook produced a replacement.
func (r Result) Rewrote() bool {
	return r.Expr != nil
}

// Done replaces the node and stops further work on it.
func Done(e expr.Expr) Result {
	return Result{Expr: e}
}

// Again replaces the node and asks for more work on the replacement.
func Again(e expr.Expr) Result {
	return Result{Expr: e, Continue: true}
}

// Control is the engine handle passed to hooks. Hooks that loop must
// charge a step per iteration so that the ceiling bounds them.
type Control interface {
	// Step checks for cancellation and charges one step.
	Step(ctx context.Context) error
	// Rewrote records a successful rule application.
	Rewrote(rule string, before, after expr.Expr)
}

// Hooks is the rewrite strategy injected into a Core.
type Hooks interface {
	Pre(ctx context.Context, c Control, e expr.Expr) (Result, error)
	Post(ctx context.Context, c Control, e expr.Expr) (Result, error)
}

// HookFuncs adapts a pair of functions to Hooks. Nil functions never
// rewrite, so HookFuncs{} is the identity strategy.
type HookFuncs struct {
	PreFunc  func(ctx context.Context, c Control, e expr.Expr) (Result, error)
	PostFunc func(ctx context.Context, c Control, e expr.Expr) (Result, error)
}

func (h HookFuncs) Pre(ctx context.Context, c Control, e expr.Expr) (Result, error) {
	if h.PreFunc == nil {
		return Result{}, nil
	}
	return h.PreFunc(ctx, c, e)
}

func (h HookFuncs) Post(ctx context.Context, c Control, e expr.Expr) (Result, error) {
	if h.PostFunc == nil {
		return Result{}, nil
	}
	return h.PostFunc(ctx, c, e)
}
