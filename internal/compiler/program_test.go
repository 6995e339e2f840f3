package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
)

const natProgram = `
decls: {
	Nat:  type: "Type"
	zero: type: "Nat"
	succ: type: "(pi (n : Nat) Nat)"
	add:  type: "(pi (a b : Nat) Nat)"
	one: {
		type:  "Nat"
		value: "(succ zero)"
	}
	lt: type: "(pi (a b : Nat) Prop)"
}

rules: {
	add_zero: {lhs: "(add ?n zero)", rhs: "?n"}
	add_succ: {
		lhs:      "(add ?n (succ ?m))"
		rhs:      "(succ (add ?n ?m))"
		priority: 5
	}
	add_comm: {
		lhs:  "(add ?a ?b)"
		rhs:  "(add ?b ?a)"
		hyps: ["(lt ?b ?a)"]
	}
}
`

func TestCompileSource_Basic(t *testing.T) {
	p, err := CompileSource("nat.cue", natProgram)
	require.NoError(t, err)

	require.Len(t, p.Decls, 6)
	assert.Equal(t, "Nat", p.Decls[0].Name)
	assert.Equal(t, "one", p.Decls[4].Name)
	assert.Equal(t, "(succ zero)", expr.Print(p.Decls[4].Value))
	assert.Nil(t, p.Decls[0].Value)

	require.Len(t, p.Rules, 3)
	assert.Equal(t, "add_zero", p.Rules[0].Name)
	assert.Equal(t, 5, p.Rules[1].Priority)
	assert.Len(t, p.Rules[2].Hyps, 1)
	assert.False(t, p.Rules[2].Unconditional())

	assert.True(t, p.Pos("rules.add_zero").IsValid())
}

func TestCompileValue_Path(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`program: rules: r: {lhs: "(f ?x)", rhs: "?x"}`)
	require.NoError(t, v.Err())

	p, err := CompileValue(v.LookupPath(cue.ParsePath("program")))
	require.NoError(t, err)
	assert.Empty(t, p.Decls)
	assert.Len(t, p.Rules, 1)
}

func TestCompileSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name:    "missing lhs",
			src:     `rules: r: rhs: "a"`,
			field:   "rules.r.lhs",
			message: "lhs is required",
		},
		{
			name:    "missing decl type",
			src:     `decls: a: value: "b"`,
			field:   "decls.a.type",
			message: "type is required",
		},
		{
			name:    "bad expression",
			src:     `rules: r: {lhs: "(f", rhs: "a"}`,
			field:   "rules.r.lhs",
			message: "unexpected end of input",
		},
		{
			name:    "non-string expression",
			src:     `rules: r: {lhs: 3, rhs: "a"}`,
			field:   "rules.r.lhs",
			message: "must be an expression string",
		},
		{
			name:    "non-integer priority",
			src:     `rules: r: {lhs: "(f ?x)", rhs: "?x", priority: "high"}`,
			field:   "rules.r.priority",
			message: "priority must be an integer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource("bad.cue", tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestCompileSource_CUEError(t *testing.T) {
	_, err := CompileSource("conflict.cue", `decls: a: type: "A"
decls: a: type: "B"`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "conflict.cue:")
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nat.cue")
	require.NoError(t, os.WriteFile(path, []byte(natProgram), 0o644))

	p, err := CompileFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Rules, 3)

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	ctx := cuecontext.New()

	_, env, set, err := Load(ctx.CompileString(natProgram))
	require.NoError(t, err)
	assert.Equal(t, 6, env.Len())
	assert.Equal(t, 3, set.Len())
	// priority 5 sorts add_succ first among the add rules
	assert.Equal(t, "add_succ", set.Find(expr.MustParse("(add a b)"))[0].Name)

	_, _, _, err = Load(ctx.CompileString(`rules: r: {lhs: "(f ?x)", rhs: "(g ?y)"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrRuleHeadNotDeclared)
	assert.Contains(t, err.Error(), ErrUnboundPatternVar)
}
