package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/expr"
)

func TestDeterministicClock(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 50, 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*calls), clock.Current())
}

func TestEnv(t *testing.T) {
	env := Env(t,
		"Nat : Type",
		"zero : Nat",
		"one : Nat := (succ zero)",
	)
	require.Equal(t, 3, env.Len())

	d, ok := env.Lookup("one")
	require.True(t, ok)
	assert.True(t, d.IsDefinition())
	assert.Equal(t, "(succ zero)", expr.Print(d.Value))
}

func TestContext_SequentialNames(t *testing.T) {
	a := Context(t, "A : Type")
	b := Context(t, "A : Type")

	la := a.MkLocal("x", expr.MkConst("A"), expr.Default)
	lb := b.MkLocal("x", expr.MkConst("A"), expr.Default)
	assert.Equal(t, la.Name, lb.Name)
	assert.True(t, expr.Equal(la, lb))
}
