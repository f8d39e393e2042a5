package cpbp

import (
	"errors"

	"go.uber.org/zap"
)

// Solver errors. ErrInconsistency is the ordinary, frequent outcome of
// search: a filtering operation would empty a domain and the caller must
// backtrack. It is never a programming defect.
var (
	ErrInconsistency = errors.New("inconsistent state: empty domain")
	ErrInvalidModel  = errors.New("invalid model")
)

// Solver coordinates constraints over a shared reversible trail. It owns
// global configuration (belief representation, weighing scheme, damping,
// zero/one acting mode), the domain-consistency fixpoint loop and the
// belief sweeps. Constraints consume this configuration and may trigger a
// fixpoint pass, but never run one of their own.
//
// All methods must be called from a single goroutine.
type Solver struct {
	trail       *Trail
	rep         BeliefRep
	vars        []Var
	constraints []Constraint
	queue       []Constraint

	weighing            WeighingScheme
	damping             bool
	dampingFactor       float64
	prevOutsideRecorded bool
	actOnZeroOne        bool
	maxIter             int
	tracing             bool
	log                 *zap.Logger
}

// Option configures a Solver at construction.
type Option func(*Solver)

// WithBeliefRep selects the belief representation (StdRep by default).
func WithBeliefRep(rep BeliefRep) Option {
	return func(cp *Solver) { cp.rep = rep }
}

// WithWeighing selects the constraint weighing scheme.
func WithWeighing(ws WeighingScheme) Option {
	return func(cp *Solver) { cp.weighing = ws }
}

// WithDamping enables message damping with factor lambda in (0,1]: each
// round's outside beliefs are blended as lambda*new + (1-lambda)*previous.
// lambda = 1 means no damping effect.
func WithDamping(lambda float64) Option {
	return func(cp *Solver) {
		if lambda <= 0 || lambda > 1 {
			panic("cpbp: damping factor must be in (0,1]")
		}
		cp.damping = true
		cp.dampingFactor = lambda
	}
}

// WithActOnZeroOneBelief makes SendMessages filter domains on exact Zero
// beliefs and assign variables on exact One beliefs.
func WithActOnZeroOneBelief() Option {
	return func(cp *Solver) { cp.actOnZeroOne = true }
}

// WithMaxIterations sets how many belief sweeps BeliefPropagation runs.
func WithMaxIterations(n int) Option {
	return func(cp *Solver) {
		if n < 1 {
			panic("cpbp: iteration count must be positive")
		}
		cp.maxIter = n
	}
}

// WithLogger installs a structured logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(cp *Solver) { cp.log = log }
}

// WithTracing logs per-sweep marginals, for debugging convergence.
func WithTracing() Option {
	return func(cp *Solver) { cp.tracing = true }
}

// NewSolver creates a coordinator with an empty model.
func NewSolver(opts ...Option) *Solver {
	cp := &Solver{
		trail:         NewTrail(),
		rep:           StdRep{},
		dampingFactor: 1.0,
		maxIter:       5,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// BeliefRep returns the configured belief representation.
func (cp *Solver) BeliefRep() BeliefRep { return cp.rep }

// Weighing returns the configured weighing scheme.
func (cp *Solver) Weighing() WeighingScheme { return cp.weighing }

// Damping reports whether message damping is enabled.
func (cp *Solver) Damping() bool { return cp.damping }

// DampingFactor returns lambda in plain probability space.
func (cp *Solver) DampingFactor() float64 { return cp.dampingFactor }

// PrevOutsideBeliefRecorded reports whether a damping baseline from an
// earlier sweep exists.
func (cp *Solver) PrevOutsideBeliefRecorded() bool { return cp.prevOutsideRecorded }

// ActingOnZeroOneBelief reports whether exact Zero/One local beliefs
// trigger filtering during SendMessages.
func (cp *Solver) ActingOnZeroOneBelief() bool { return cp.actOnZeroOne }

// Trail returns the shared undo trail.
func (cp *Solver) Trail() *Trail { return cp.trail }

// Variables returns every registered variable.
func (cp *Solver) Variables() []Var { return cp.vars }

// RegisterVar adds a variable to the registry consulted by the ARITY
// weighing scheme and driven during belief sweeps. IntVar registers
// itself; external Var implementations must call this.
func (cp *Solver) RegisterVar(v Var) {
	cp.vars = append(cp.vars, v)
}

// Checkpoint marks the current solver state for a later Restore.
func (cp *Solver) Checkpoint() int { return cp.trail.Checkpoint() }

// Restore rewinds domains, local beliefs, damping baselines and activity
// flags to a checkpoint in one pass over the trail.
func (cp *Solver) Restore(checkpoint int) { cp.trail.RestoreTo(checkpoint) }

// Post registers a constraint, runs its initial filtering and propagates
// to the fixpoint. An ErrInconsistency return means the model is already
// infeasible at the root (or at the current search node).
func (cp *Solver) Post(c Constraint) error {
	cp.constraints = append(cp.constraints, c)
	if err := c.Post(); err != nil {
		return err
	}
	return cp.FixPoint()
}

// Schedule queues a constraint for propagation unless it already is.
// Queue membership is per-node working state and is never trailed.
func (cp *Solver) Schedule(c Constraint) {
	if !c.IsScheduled() {
		c.SetScheduled(true)
		cp.queue = append(cp.queue, c)
	}
}

// FixPoint drains the propagation queue until no constraint is scheduled.
// On inconsistency the queue is cleared (scheduled flags reset) and the
// error is surfaced for the search to backtrack on.
func (cp *Solver) FixPoint() error {
	for len(cp.queue) > 0 {
		c := cp.queue[0]
		cp.queue = cp.queue[1:]
		c.SetScheduled(false)
		if !c.IsActive() {
			continue
		}
		if err := c.Propagate(); err != nil {
			for _, d := range cp.queue {
				d.SetScheduled(false)
			}
			cp.queue = cp.queue[:0]
			return err
		}
	}
	return nil
}

// BeliefPropagation runs the configured number of belief sweeps. Each
// sweep has every active constraint receive its outside beliefs, resets
// the variable marginals, has every active constraint send its local
// beliefs, and normalizes the marginals. In acting mode a sweep can filter
// domains; inconsistency is returned for the caller to backtrack on.
func (cp *Solver) BeliefPropagation() error {
	for it := 0; it < cp.maxIter; it++ {
		if err := cp.beliefSweep(); err != nil {
			return err
		}
	}
	return nil
}

func (cp *Solver) beliefSweep() error {
	for _, c := range cp.constraints {
		if c.IsActive() {
			c.ReceiveMessages()
		}
	}
	for _, v := range cp.vars {
		v.ResetMarginals()
	}
	for _, c := range cp.constraints {
		if !c.IsActive() {
			continue
		}
		if err := c.SendMessages(); err != nil {
			return err
		}
	}
	for _, v := range cp.vars {
		v.NormalizeMarginals()
	}
	if cp.damping {
		cp.prevOutsideRecorded = true
	}
	if cp.tracing {
		cp.traceMarginals()
	}
	return nil
}

func (cp *Solver) traceMarginals() {
	for _, v := range cp.vars {
		val, b := v.MaxMarginal()
		cp.log.Debug("marginal",
			zap.String("var", v.Name()),
			zap.Int("maxValue", val),
			zap.Float64("belief", cp.rep.Rep2Std(b)))
	}
}

// ResetBeliefs reinitializes every constraint's local beliefs and every
// variable's marginals to One, for re-entering belief propagation from
// scratch on the current domains.
func (cp *Solver) ResetBeliefs() {
	for _, c := range cp.constraints {
		c.ResetLocalBelief()
	}
	for _, v := range cp.vars {
		v.ResetMarginals()
	}
	cp.prevOutsideRecorded = false
}

// ResetDampingBaseline forgets the previous-round damping anchor, making
// the next sweep run undamped and record a fresh baseline. Call it per
// search node to restart damping instead of blending against the baseline
// restored from the ancestor node.
func (cp *Solver) ResetDampingBaseline() {
	cp.prevOutsideRecorded = false
}
