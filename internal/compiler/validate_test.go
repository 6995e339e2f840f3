package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
	"github.com/ChrisHughes24/lean/internal/tctx"
)

func decl(name, typ string) tctx.Decl {
	return tctx.Decl{Name: name, Type: expr.MustParse(typ)}
}

func rule(name, lhs, rhs string, hyps ...string) rules.Rule {
	r := rules.Rule{Name: name, LHS: expr.MustParse(lhs), RHS: expr.MustParse(rhs)}
	for _, h := range hyps {
		r.Hyps = append(r.Hyps, expr.MustParse(h))
	}
	return r
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	p := &Program{
		Decls: []tctx.Decl{decl("A", "Type"), decl("a", "A"), decl("f", "(pi (x : A) A)")},
		Rules: []rules.Rule{rule("r", "(f ?x)", "?x")},
	}
	assert.Empty(t, Validate(p))
}

func TestValidate_Errors(t *testing.T) {
	base := []tctx.Decl{decl("A", "Type"), decl("f", "(pi (x : A) A)"), decl("P", "(pi (x : A) Prop)")}
	tests := []struct {
		name     string
		decls    []tctx.Decl
		rules    []rules.Rule
		expected []string
		field    string
	}{
		{
			name:     "undeclared constant in decl",
			decls:    []tctx.Decl{decl("a", "B")},
			expected: []string{ErrUndeclaredConstant},
			field:    "decls.a.type",
		},
		{
			name:     "loose bvar in decl",
			decls:    []tctx.Decl{decl("A", "Type"), decl("a", "(pi (x : A) #1)")},
			expected: []string{ErrLooseBoundVar},
			field:    "decls.a.type",
		},
		{
			name:     "meta in decl",
			decls:    []tctx.Decl{decl("A", "Type"), decl("a", "?T")},
			expected: []string{ErrMetaInDecl},
			field:    "decls.a.type",
		},
		{
			name:     "meta head",
			decls:    base,
			rules:    []rules.Rule{rule("r", "(?g a)", "a")},
			expected: []string{ErrBadRuleHead, ErrUndeclaredConstant, ErrUndeclaredConstant},
			field:    "rules.r.lhs",
		},
		{
			name:     "undeclared head",
			decls:    base,
			rules:    []rules.Rule{rule("r", "(g ?x)", "?x")},
			expected: []string{ErrRuleHeadNotDeclared, ErrUndeclaredConstant},
			field:    "rules.r.lhs",
		},
		{
			name:     "unbound rhs variable",
			decls:    base,
			rules:    []rules.Rule{rule("r", "(f ?x)", "?y")},
			expected: []string{ErrUnboundPatternVar},
			field:    "rules.r.rhs",
		},
		{
			name:     "unbound hyp variable",
			decls:    base,
			rules:    []rules.Rule{rule("r", "(f ?x)", "?x", "(P ?z)")},
			expected: []string{ErrUnboundPatternVar},
			field:    "rules.r.hyps[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&Program{Decls: tt.decls, Rules: tt.rules})
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.expected, codes(errs))
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "rules.r.rhs", Message: "bad", Code: ErrUnboundPatternVar}
	assert.Equal(t, "[E111] rules.r.rhs: bad", e.Error())

	e.Line = 3
	assert.Equal(t, "[E111] line 3: rules.r.rhs: bad", e.Error())
}

func TestValidate_ReportsLines(t *testing.T) {
	p, err := CompileSource("lines.cue", `decls: A: type: "Type"
rules: r: {lhs: "(A ?x)", rhs: "?y"}`)
	require.NoError(t, err)

	errs := Validate(p)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
}
