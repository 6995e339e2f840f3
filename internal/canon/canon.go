// Package canon maps expressions to a canonical representative of their
// definitional-equality class.
//
// Classes are bucketed by the head symbol of the expression's type, so
// only instances of the same class (e.g. two proofs of (Dec n)) are ever
// compared. When a newcomer is definitionally equal to an existing
// representative but strictly smaller, it becomes the new representative.
// That replacement changes the answer for every expression previously
// canonized into the class, and is reported to the caller as a mutation.
package canon

import (
	"log/slog"
	"sort"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// TypeContext is the slice of the type-context service the canonicalizer
// depends on.
type TypeContext interface {
	InferType(e expr.Expr) (expr.Expr, bool)
	IsDefEq(a, b expr.Expr) bool
}

// Option configures a Canonizer.
type Option func(*Canonizer)

func WithLogger(l *slog.Logger) Option {
	return func(c *Canonizer) {
		c.log = l
	}
}

// Canonizer holds the global equality bookkeeping: per class key, the
// list of current representatives.
type Canonizer struct {
	tc      TypeContext
	log     *slog.Logger
	classes map[string][]expr.Expr
	// mutations counts representative replacements since the last Reset.
	mutations int
}

func New(tc TypeContext, opts ...Option) *Canonizer {
	c := &Canonizer{
		tc:      tc,
		log:     slog.Default(),
		classes: make(map[string][]expr.Expr),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Canonize returns the representative of e's class. mutated is true when
// e displaced an existing representative.
func (c *Canonizer) Canonize(e expr.Expr) (expr.Expr, bool) {
	key := c.classKey(e)
	reps := c.classes[key]
	for i, rep := range reps {
		if rep == e {
			return rep, false
		}
		if !c.tc.IsDefEq(rep, e) {
			continue
		}
		if e.Size() < rep.Size() {
			reps[i] = e
			c.mutations++
			c.log.Debug("canonical representative replaced",
				"class", key,
				"old", rep.String(),
				"new", e.String())
			return e, true
		}
		return rep, false
	}
	c.classes[key] = append(reps, e)
	return e, false
}

func (c *Canonizer) classKey(e expr.Expr) string {
	if t, ok := c.tc.InferType(e); ok {
		if h, ok := expr.HeadSymbol(t); ok {
			return "type:" + h
		}
	}
	if h, ok := expr.HeadSymbol(e); ok {
		return "term:" + h
	}
	return "kind:" + e.Kind().String()
}

// Reset drops all classes.
func (c *Canonizer) Reset() {
	c.classes = make(map[string][]expr.Expr)
	c.mutations = 0
}

// Classes returns the class keys in sorted order.
func (c *Canonizer) Classes() []string {
	keys := make([]string, 0, len(c.classes))
	for k := range c.classes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Representatives returns the current representatives of a class.
func (c *Canonizer) Representatives(class string) []expr.Expr {
	return append([]expr.Expr(nil), c.classes[class]...)
}

// Mutations returns the number of representative replacements since the
// last Reset.
func (c *Canonizer) Mutations() int {
	return c.mutations
}
