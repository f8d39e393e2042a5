package cpbp

import (
	"context"
	"errors"
	"sort"
)

// errSearchDone stops the depth-first descent once the solution limit is
// reached; Solve maps it back to a nil error.
var errSearchDone = errors.New("search: limit reached")

// Solve runs a depth-first search over trail checkpoints, branching on the
// variable with the strongest marginal and trying its values in decreasing
// marginal order. At every node it re-establishes the fixpoint and runs
// belief sweeps, so filtering, counting and branching all see the same
// state. limit caps the number of solutions; limit <= 0 means all.
//
// Each solution is the registered variables' values in registration order.
// The solver state is restored to its pre-Solve checkpoint before
// returning, whatever the outcome.
func (cp *Solver) Solve(ctx context.Context, limit int) ([][]int, error) {
	root := cp.trail.Checkpoint()
	defer cp.trail.RestoreTo(root)

	if err := cp.FixPoint(); err != nil {
		if errors.Is(err, ErrInconsistency) {
			return nil, nil
		}
		return nil, err
	}
	if err := cp.BeliefPropagation(); err != nil {
		if errors.Is(err, ErrInconsistency) {
			return nil, nil
		}
		return nil, err
	}

	var solutions [][]int
	err := cp.dfs(ctx, &solutions, limit)
	if errors.Is(err, errSearchDone) {
		err = nil
	}
	return solutions, err
}

func (cp *Solver) dfs(ctx context.Context, solutions *[][]int, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := cp.selectBranchVar()
	if v == nil {
		*solutions = append(*solutions, cp.snapshotSolution())
		if limit > 0 && len(*solutions) >= limit {
			return errSearchDone
		}
		return nil
	}
	for _, val := range cp.branchValues(v) {
		snap := cp.trail.Checkpoint()
		err := cp.tryValue(ctx, v, val, solutions, limit)
		cp.trail.RestoreTo(snap)
		if err != nil && !errors.Is(err, ErrInconsistency) {
			return err
		}
	}
	return nil
}

func (cp *Solver) tryValue(ctx context.Context, v Var, val int, solutions *[][]int, limit int) error {
	if err := v.Assign(val); err != nil {
		return err
	}
	if err := cp.FixPoint(); err != nil {
		return err
	}
	if err := cp.BeliefPropagation(); err != nil {
		return err
	}
	return cp.dfs(ctx, solutions, limit)
}

// selectBranchVar picks the unbound variable whose strongest marginal is
// largest: branch where the network is most confident first.
func (cp *Solver) selectBranchVar() Var {
	var best Var
	bestB := cp.rep.Zero()
	for _, v := range cp.vars {
		if v.IsBound() {
			continue
		}
		if _, b := v.MaxMarginal(); best == nil || b > bestB {
			best, bestB = v, b
		}
	}
	return best
}

// branchValues orders v's current domain by decreasing marginal.
func (cp *Solver) branchValues(v Var) []int {
	buf := make([]int, v.Max()-v.Min()+1)
	n := v.FillArray(buf)
	vals := append([]int(nil), buf[:n]...)
	sort.SliceStable(vals, func(a, b int) bool {
		return v.Marginal(vals[a]) > v.Marginal(vals[b])
	})
	return vals
}

func (cp *Solver) snapshotSolution() []int {
	sol := make([]int, len(cp.vars))
	for i, v := range cp.vars {
		sol[i] = v.Min()
	}
	return sol
}
