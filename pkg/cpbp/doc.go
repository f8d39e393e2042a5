// Package cpbp implements a finite-domain constraint solving core whose
// propagation is extended with belief propagation (sum-product message
// passing), turning plain domain filtering into weighted model counting and
// marginal estimation over finite-domain variables.
//
// The package is organized around five pieces:
//
//   - BeliefRep: the numeric representation of belief values, with a linear
//     (StdRep) and a log-domain (LogRep) implementation behind one contract.
//   - Trail, StateBool, StateFloat: reversible state shared by domains,
//     local beliefs and activity flags, so one checkpoint restore rewinds
//     filtering decisions and belief state together.
//   - Var / IntVar: finite-domain variables that relay belief messages
//     between the constraints sharing them.
//   - Constraint / Base: the per-constraint message-passing engine
//     (receive, update, send) with normalization, damping and optional
//     filtering on certain (zero/one) beliefs.
//   - Solver: the coordinator owning configuration, the trail, the
//     domain-consistency fixpoint loop and the belief sweeps, plus a
//     marginal-guided depth-first search.
//
// Typical usage:
//
//	cp := cpbp.NewSolver(cpbp.WithDamping(0.5))
//	x := cp.NewVar(0, 2)
//	y := cp.NewVar(0, 2)
//	if err := cp.Post(cpbp.NewNotEqual(cp, x, y, 0)); err != nil {
//		// inconsistent model
//	}
//	if err := cp.BeliefPropagation(); err != nil {
//		// inconsistency surfaced during a sweep
//	}
//	val, belief := x.MaxMarginal()
//
// All operations run on a single cooperative thread; no locking is
// performed. Inconsistencies (a filtering step emptying a domain) are
// ordinary error values answered by backtracking, never panics.
package cpbp
