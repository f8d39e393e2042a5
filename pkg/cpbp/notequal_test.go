package cpbp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotEqualFiltersOnBind(t *testing.T) {
	cp := NewSolver()
	x := cp.NewVar(0, 2)
	y := cp.NewVar(0, 2)
	c := NewNotEqual(cp, x, y, 0)
	require.NoError(t, cp.Post(c))

	require.NoError(t, x.Assign(1))
	require.NoError(t, cp.FixPoint())
	assert.False(t, y.Contains(1))
	assert.Equal(t, 2, y.Size())
	// permanently satisfied on this branch
	assert.False(t, c.IsActive())
}

func TestNotEqualWithOffset(t *testing.T) {
	cp := NewSolver()
	x := cp.NewVar(0, 4)
	y := cp.NewVar(0, 4)
	// x != y + 2
	require.NoError(t, cp.Post(NewNotEqual(cp, x, y, 2)))

	require.NoError(t, y.Assign(1))
	require.NoError(t, cp.FixPoint())
	assert.False(t, x.Contains(3))
	assert.Equal(t, 4, x.Size())
}

func TestNotEqualExactBeliefs(t *testing.T) {
	cp := NewSolver(WithMaxIterations(1))
	x := cp.NewVar(0, 1)
	y := cp.NewVar(0, 2)
	require.NoError(t, cp.Post(NewNotEqual(cp, x, y, 0)))

	require.NoError(t, cp.BeliefPropagation())
	// y's values are uniform at 1/3, so each x value keeps support 2/3;
	// normalized over two values that is exactly 1/2
	assert.InDelta(t, 0.5, x.Marginal(0), 1e-12)
	assert.InDelta(t, 0.5, x.Marginal(1), 1e-12)
	// y = 2 conflicts with nothing in x's domain, y = 0 and 1 each lose
	// half their support: beliefs (1/2, 1/2, 1) normalize to (1/4, 1/4, 1/2)
	assert.InDelta(t, 0.25, y.Marginal(0), 1e-12)
	assert.InDelta(t, 0.25, y.Marginal(1), 1e-12)
	assert.InDelta(t, 0.5, y.Marginal(2), 1e-12)
}

func TestNotEqualBacktrackRestoresFiltering(t *testing.T) {
	cp := NewSolver()
	x := cp.NewVar(0, 1)
	y := cp.NewVar(0, 1)
	c := NewNotEqual(cp, x, y, 0)
	require.NoError(t, cp.Post(c))

	snap := cp.Checkpoint()
	require.NoError(t, x.Assign(0))
	require.NoError(t, cp.FixPoint())
	require.True(t, y.IsBound())
	require.Equal(t, 1, y.Min())

	cp.Restore(snap)
	assert.Equal(t, 2, x.Size())
	assert.Equal(t, 2, y.Size())
	assert.True(t, c.IsActive())
}
