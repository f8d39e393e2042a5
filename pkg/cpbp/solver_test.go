package cpbp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyConstraint counts propagation calls.
type spyConstraint struct {
	*Base
	propagations int
	fail         bool
}

func newSpyConstraint(cp *Solver, vars ...Var) *spyConstraint {
	c := &spyConstraint{}
	c.Base = NewBase(cp, c, vars...)
	return c
}

func (c *spyConstraint) Propagate() error {
	c.propagations++
	if c.fail {
		return ErrInconsistency
	}
	return nil
}

func TestFixPointDrainsQueue(t *testing.T) {
	cp := NewSolver()
	v := cp.NewVar(0, 2)
	c := newSpyConstraint(cp, v)

	cp.Schedule(c)
	cp.Schedule(c) // queue membership is idempotent
	require.NoError(t, cp.FixPoint())
	assert.Equal(t, 1, c.propagations)
	assert.False(t, c.IsScheduled())
}

func TestFixPointClearsQueueOnInconsistency(t *testing.T) {
	cp := NewSolver()
	v := cp.NewVar(0, 2)
	bad := newSpyConstraint(cp, v)
	bad.fail = true
	after := newSpyConstraint(cp, v)

	cp.Schedule(bad)
	cp.Schedule(after)
	assert.ErrorIs(t, cp.FixPoint(), ErrInconsistency)
	assert.Equal(t, 0, after.propagations)
	assert.False(t, after.IsScheduled())
}

func TestFixPointSkipsInactiveConstraints(t *testing.T) {
	cp := NewSolver()
	v := cp.NewVar(0, 2)
	c := newSpyConstraint(cp, v)
	c.SetActive(false)

	cp.Schedule(c)
	require.NoError(t, cp.FixPoint())
	assert.Equal(t, 0, c.propagations)
}

func TestPostSurfacesRootInconsistency(t *testing.T) {
	cp := NewSolver()
	x := cp.NewVar(0, 0)
	y := cp.NewVar(0, 0)
	assert.ErrorIs(t, cp.Post(NewNotEqual(cp, x, y, 0)), ErrInconsistency)
}

func TestBeliefSweepUniformMarginals(t *testing.T) {
	cp := NewSolver(WithMaxIterations(1))
	vars := make([]Var, 3)
	for i := range vars {
		vars[i] = cp.NewVar(0, 1)
	}
	// a constraint without an UpdateBelief override contributes uniformly
	require.NoError(t, cp.Post(NewBase(cp, nil, vars...)))

	require.NoError(t, cp.BeliefPropagation())
	for _, v := range vars {
		assert.InDelta(t, 0.5, v.Marginal(0), 1e-12)
		assert.InDelta(t, 0.5, v.Marginal(1), 1e-12)
	}
}

func TestDeactivationRevertsOnBacktrack(t *testing.T) {
	cp := NewSolver()
	x := cp.NewVar(0, 2)
	y := cp.NewVar(0, 2)
	c := NewNotEqual(cp, x, y, 0)
	require.NoError(t, cp.Post(c))

	snap := cp.Checkpoint()
	require.NoError(t, x.Assign(1))
	require.NoError(t, cp.FixPoint())
	require.False(t, c.IsActive())
	require.False(t, y.Contains(1))

	cp.Restore(snap)
	assert.True(t, c.IsActive())
	assert.True(t, y.Contains(1))
}

func TestResetBeliefs(t *testing.T) {
	cp := NewSolver(WithDamping(0.5), WithMaxIterations(2))
	x := cp.NewVar(0, 1)
	y := cp.NewVar(0, 1)
	require.NoError(t, cp.Post(NewNotEqual(cp, x, y, 0)))
	require.NoError(t, cp.BeliefPropagation())
	require.True(t, cp.PrevOutsideBeliefRecorded())

	cp.ResetBeliefs()
	assert.False(t, cp.PrevOutsideBeliefRecorded())
	assert.Equal(t, 1.0, x.Marginal(0))
	assert.Equal(t, 1.0, x.Marginal(1))
}
