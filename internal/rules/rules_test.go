package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
)

func rule(name, lhs, rhs string) Rule {
	return Rule{Name: name, LHS: expr.MustParse(lhs), RHS: expr.MustParse(rhs)}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		term    string
		ok      bool
		binds   map[string]string
	}{
		{"const", "a", "a", true, map[string]string{}},
		{"var", "(f ?x)", "(f (g a))", true, map[string]string{"x": "(g a)"}},
		{"nonlinear agree", "(f ?x ?x)", "(f a a)", true, map[string]string{"x": "a"}},
		{"nonlinear disagree", "(f ?x ?x)", "(f a b)", false, nil},
		{"arity", "(f ?x)", "(f a b)", false, nil},
		{"head", "(f ?x)", "(g a)", false, nil},
		{"under binder", "(f (fun (y : A) (g ?x)))", "(f (fun (z : A) (g a)))", true, map[string]string{"x": "a"}},
		{"no capture of bound var", "(f (fun (y : A) (g ?x)))", "(f (fun (z : A) (g z)))", false, nil},
		{"binder info", "(f (fun {y : A} y))", "(f (fun (y : A) y))", false, nil},
		{"macro", "(macro m ?x)", "(macro m a)", true, map[string]string{"x": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Match(expr.MustParse(tt.pattern), expr.MustParse(tt.term))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			got := make(map[string]string, len(s))
			for k, v := range s {
				got[k] = expr.Print(v)
			}
			assert.Equal(t, tt.binds, got)
		})
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		ok   bool
	}{
		{"ok", rule("r", "(f ?x)", "(g ?x)"), true},
		{"unbound rhs var", rule("r", "(f ?x)", "(g ?y)"), false},
		{"meta head", rule("r", "(?f a)", "a"), false},
		{"loose bvar", rule("r", "(f #0)", "a"), false},
		{"no name", rule("", "(f ?x)", "?x"), false},
		{"unbound hyp var", Rule{Name: "r", LHS: expr.MustParse("(f ?x)"), RHS: expr.MustParse("?x"),
			Hyps: []expr.Expr{expr.MustParse("(P ?y)")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRule_Rewrite(t *testing.T) {
	r := rule("comm", "(add ?a ?b)", "(add ?b ?a)")

	got, ok := r.Rewrite(expr.MustParse("(add x (succ y))"))
	require.True(t, ok)
	assert.Equal(t, "(add (succ y) x)", expr.Print(got))

	e := expr.MustParse("(mul x y)")
	got, ok = r.Rewrite(e)
	assert.False(t, ok)
	assert.Same(t, e, got)

	assert.True(t, r.Unconditional())
	r.Hyps = []expr.Expr{expr.MustParse("(lt ?a ?b)")}
	assert.False(t, r.Unconditional())
}

func TestSet_FindOrdersByPriority(t *testing.T) {
	low := rule("low", "(f ?x)", "(g ?x)")
	high := rule("high", "(f ?x)", "(h ?x)")
	high.Priority = 10
	mid := rule("mid", "(f a)", "b")
	other := rule("other", "(g ?x)", "?x")

	s, err := NewSet(low, high, mid, other)
	require.NoError(t, err)

	var names []string
	for _, r := range s.Find(expr.MustParse("(f a)")) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high", "low", "mid"}, names)
	assert.Len(t, s.Find(expr.MustParse("(g a)")), 1)
	assert.Nil(t, s.Find(expr.MustParse("(fun (x : A) x)")))
	assert.Nil(t, s.Find(expr.MustParse("(k a)")))
	assert.Equal(t, 4, s.Len())
}

func TestSet_RejectsDuplicates(t *testing.T) {
	_, err := NewSet(rule("r", "(f ?x)", "?x"), rule("r", "(g ?x)", "?x"))
	assert.Error(t, err)
}

func TestSet_ID(t *testing.T) {
	a := MustSet(rule("r", "(f (fun (x : A) x))", "a"))
	b := MustSet(rule("r", "(f (fun (y : A) y))", "a"))
	c := MustSet(rule("r", "(f (fun (y : A) y))", "b"))

	ida, err := a.ID()
	require.NoError(t, err)
	idb, err := b.ID()
	require.NoError(t, err)
	idc, err := c.ID()
	require.NoError(t, err)

	assert.Equal(t, ida, idb)
	assert.NotEqual(t, ida, idc)

	var empty *Set
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Find(expr.MustParse("(f a)")))
}
