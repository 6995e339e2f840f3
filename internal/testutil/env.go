package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/tctx"
)

// Env builds an environment from declarations written as
// "name : type" or "name : type := value".
func Env(t testing.TB, decls ...string) *tctx.Env {
	t.Helper()
	env := tctx.NewEnv()
	for _, src := range decls {
		name, rest, ok := strings.Cut(src, " : ")
		require.True(t, ok, "declaration %q has no type", src)

		d := tctx.Decl{Name: strings.TrimSpace(name)}
		typ, value, hasValue := strings.Cut(rest, " := ")
		d.Type = Expr(t, typ)
		if hasValue {
			d.Value = Expr(t, value)
		}
		require.NoError(t, env.Add(d))
	}
	return env
}

// Context builds a type context over decls with sequential local names,
// so printed and hashed locals are stable across runs.
func Context(t testing.TB, decls ...string) *tctx.Context {
	t.Helper()
	return tctx.New(Env(t, decls...), tctx.WithNameGenerator(tctx.NewSeqNames("")))
}

// Expr parses src, failing the test on error.
func Expr(t testing.TB, src string, locals ...*expr.Local) expr.Expr {
	t.Helper()
	e, err := expr.ParseWith(strings.TrimSpace(src), locals...)
	require.NoError(t, err, "parse %q", src)
	return e
}
