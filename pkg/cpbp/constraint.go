package cpbp

import "go.uber.org/zap"

// WeighingScheme fixes a constraint's multiplicative influence on message
// strength at construction time.
type WeighingScheme int

const (
	// WeighSame gives every constraint weight 1.0.
	WeighSame WeighingScheme = iota
	// WeighArity gives weight 1 + scopeSize/totalVariables, rewarding
	// constraints that touch a larger fraction of the model.
	WeighArity
)

// Constraint is the contract the coordinator and the search drive.
// Concrete constraints embed Base, which supplies the whole message cycle;
// they override Propagate for filtering and UpdateBelief for their
// marginalization semantics.
type Constraint interface {
	// Post hooks the constraint to its variables and performs initial
	// filtering. Called once via Solver.Post.
	Post() error
	// Propagate re-establishes domain consistency after a domain change.
	// Returns ErrInconsistency when a domain would be emptied.
	Propagate() error

	// UpdateBelief recomputes local beliefs from the outside beliefs
	// gathered by ReceiveMessages. The Base default is a uniform
	// placeholder with a one-time diagnostic notice.
	UpdateBelief()
	ReceiveMessages()
	SendMessages() error
	ResetLocalBelief()

	IsScheduled() bool
	SetScheduled(scheduled bool)
	IsActive() bool
	SetActive(active bool)
	Weight() float64
	SetWeight(w float64)
	Name() string
	SetName(name string)
}

// beliefGet and beliefSet are the accessor pair the shared normalization
// routine is parameterized over, so the same code serves local and outside
// beliefs.
type beliefGet func(i, val int) float64
type beliefSet func(i, val int, b float64)

// Base carries the per-constraint belief state and implements the
// receive/update/send message cycle. Per-(variable,value) arrays are sized
// to each variable's construction-time span and addressed as value-ofs[i];
// they are never indexed outside that span even after the domain shrinks.
type Base struct {
	cp   *Solver
	rep  BeliefRep
	self Constraint // outermost constraint, for UpdateBelief dispatch
	name string

	vars []Var
	ofs  []int

	// localBelief and prevOutsideBelief live in reversible cells: a
	// backtrack restores them through the trail, never by explicit reset.
	// outsideBelief is working data recomputed every sweep.
	localBelief       [][]*StateFloat
	outsideBelief     [][]float64
	prevOutsideBelief [][]*StateFloat

	weight         float64
	active         *StateBool
	scheduled      bool
	exactWCounting bool
	warnedUniform  bool

	// scratch sized to the largest construction-time span in the scope
	domainValues []int
	beliefValues []float64
}

// NewBase builds the engine for a constraint over vars. self is the
// outermost constraint whose UpdateBelief override the message cycle must
// call; pass nil when the uniform default is intended. The scope is fixed;
// local beliefs and damping baselines start at One.
func NewBase(cp *Solver, self Constraint, vars ...Var) *Base {
	if len(vars) == 0 {
		panic("cpbp: constraint with empty scope")
	}
	b := &Base{
		cp:     cp,
		rep:    cp.rep,
		vars:   vars,
		ofs:    make([]int, len(vars)),
		active: cp.trail.MakeStateBool(true),
	}
	b.self = self
	if b.self == nil {
		b.self = b
	}
	switch cp.weighing {
	case WeighArity:
		// assumes every model variable is already registered
		b.weight = 1.0 + float64(len(vars))/float64(len(cp.vars))
	default:
		b.weight = 1.0
	}
	b.localBelief = make([][]*StateFloat, len(vars))
	b.outsideBelief = make([][]float64, len(vars))
	b.prevOutsideBelief = make([][]*StateFloat, len(vars))
	maxSpan := 0
	for i, v := range vars {
		span := v.Max() - v.Min() + 1
		b.ofs[i] = v.Min()
		b.localBelief[i] = make([]*StateFloat, span)
		b.outsideBelief[i] = make([]float64, span)
		b.prevOutsideBelief[i] = make([]*StateFloat, span)
		for j := 0; j < span; j++ {
			// One so the first variable-to-constraint message divides out
			// a neutral contribution
			b.localBelief[i][j] = cp.trail.MakeStateFloat(b.rep.One())
			b.prevOutsideBelief[i][j] = cp.trail.MakeStateFloat(b.rep.One())
		}
		if span > maxSpan {
			maxSpan = span
		}
	}
	b.domainValues = make([]int, maxSpan)
	b.beliefValues = make([]float64, maxSpan)
	return b
}

// Post is a no-op by default; concrete constraints register domain watches
// and perform initial filtering.
func (b *Base) Post() error { return nil }

// Propagate is a no-op by default.
func (b *Base) Propagate() error { return nil }

// Solver returns the coordinator this constraint was created against.
func (b *Base) Solver() *Solver { return b.cp }

// Scope returns the constraint's variables in construction order.
func (b *Base) Scope() []Var { return b.vars }

func (b *Base) IsScheduled() bool           { return b.scheduled }
func (b *Base) SetScheduled(scheduled bool) { b.scheduled = scheduled }
func (b *Base) IsActive() bool              { return b.active.Value() }
func (b *Base) SetActive(active bool)       { b.active.SetValue(active) }
func (b *Base) Name() string                { return b.name }
func (b *Base) SetName(name string)         { b.name = name }
func (b *Base) Weight() float64             { return b.weight }

// SetWeight overrides the constructed weight. Negative weights are a
// configuration defect and panic.
func (b *Base) SetWeight(w float64) {
	if w < 0 {
		panic("cpbp: constraint weight must be nonnegative")
	}
	b.weight = w
}

func (b *Base) setExactWCounting(exact bool) { b.exactWCounting = exact }
func (b *Base) isExactWCounting() bool       { return b.exactWCounting }

func (b *Base) localB(i, val int) float64 {
	return b.localBelief[i][val-b.ofs[i]].Value()
}

func (b *Base) setLocalB(i, val int, x float64) {
	b.localBelief[i][val-b.ofs[i]].SetValue(x)
}

func (b *Base) outsideB(i, val int) float64 {
	return b.outsideBelief[i][val-b.ofs[i]]
}

func (b *Base) setOutsideB(i, val int, x float64) {
	b.outsideBelief[i][val-b.ofs[i]] = x
}

func (b *Base) prevOutsideB(i, val int) float64 {
	return b.prevOutsideBelief[i][val-b.ofs[i]].Value()
}

func (b *Base) setPrevOutsideB(i, val int, x float64) {
	b.prevOutsideBelief[i][val-b.ofs[i]].SetValue(x)
}

// normalize rescales variable i's beliefs over its current domain so they
// sum to One. A bound variable gets exactly One without computing a sum. A
// zero normalizing sum is the transient state of a domain about to be
// emptied elsewhere in the same sweep; the values are left untouched.
func (b *Base) normalize(i int, get beliefGet, set beliefSet) {
	n := b.vars[i].FillArray(b.domainValues)
	if n == 1 {
		set(i, b.domainValues[0], b.rep.One())
		return
	}
	for j := 0; j < n; j++ {
		b.beliefValues[j] = get(i, b.domainValues[j])
	}
	sum := b.rep.Summation(b.beliefValues, n)
	if b.rep.IsZero(sum) {
		return
	}
	for j := 0; j < n; j++ {
		val := b.domainValues[j]
		x := b.rep.Divide(get(i, val), sum)
		assertBelief(b.rep, x)
		set(i, val, x)
	}
}

// ResetLocalBelief reinitializes every current domain value's local belief
// to One, for re-entering belief propagation from scratch.
func (b *Base) ResetLocalBelief() {
	for i := range b.vars {
		n := b.vars[i].FillArray(b.domainValues)
		for j := 0; j < n; j++ {
			b.setLocalB(i, b.domainValues[j], b.rep.One())
		}
	}
}

// dampen blends this round's outside beliefs for variable i with the
// previous round's baseline: lambda*new + (1-lambda)*prev, then
// renormalizes. Damping stabilizes iterative message passing on cyclic
// constraint graphs, where undamped updates can oscillate.
//
// The baseline lives in reversible cells, so after a backtrack sibling
// branches dampen against the value recorded at their common ancestor
// node; see Solver.ResetDampingBaseline to restart damping instead.
func (b *Base) dampen(i int) {
	lambda := b.rep.Std2Rep(b.cp.dampingFactor)
	oneMinusLambda := b.rep.Complement(lambda)
	n := b.vars[i].FillArray(b.domainValues)
	for j := 0; j < n; j++ {
		val := b.domainValues[j]
		b.setOutsideB(i, val, b.rep.Add(
			b.rep.Multiply(lambda, b.outsideB(i, val)),
			b.rep.Multiply(oneMinusLambda, b.prevOutsideB(i, val))))
	}
	b.normalize(i, b.outsideB, b.setOutsideB)
}

// ReceiveMessages pulls this round's outside belief for every
// (variable,value) in scope. A bound variable contributes certainty
// directly, bypassing the network; unbound variables are queried value by
// value, then normalized and, when damping is on and a baseline exists,
// blended with the previous round.
func (b *Base) ReceiveMessages() {
	for i, v := range b.vars {
		if v.IsBound() {
			b.setOutsideB(i, v.Min(), b.rep.One())
			continue
		}
		n := v.FillArray(b.domainValues)
		for j := 0; j < n; j++ {
			val := b.domainValues[j]
			b.setOutsideB(i, val, v.SendMessage(val, b.rep.Pow(b.localB(i, val), b.weight)))
		}
		b.normalize(i, b.outsideB, b.setOutsideB)
		if b.cp.damping {
			if b.cp.prevOutsideRecorded {
				b.dampen(i)
			}
			for j := 0; j < n; j++ {
				val := b.domainValues[j]
				b.setPrevOutsideB(i, val, b.outsideB(i, val))
			}
		}
	}
}

// SendMessages runs the constraint's UpdateBelief, then forwards the
// normalized local beliefs to every unbound variable. When the solver acts
// on exact beliefs, a Zero local belief removes the value and a One local
// belief assigns it; both request an immediate fixpoint pass so later
// constraints in the same sweep observe consistent domains. After a One,
// the remaining values of that variable are skipped: normalization
// guarantees they are all Zero and the assignment already filtered them.
func (b *Base) SendMessages() error {
	b.self.UpdateBelief()
	for i, v := range b.vars {
		if v.IsBound() {
			// pointless to send a certainly-true message
			continue
		}
		b.normalize(i, b.localB, b.setLocalB)
		n := v.FillArray(b.domainValues)
		for j := 0; j < n; j++ {
			val := b.domainValues[j]
			localB := b.localB(i, val)
			assertBelief(b.rep, localB)
			if b.cp.actOnZeroOne {
				if b.rep.IsZero(localB) {
					// no support from this constraint
					if err := v.Remove(val); err != nil {
						return err
					}
					if err := b.cp.FixPoint(); err != nil {
						return err
					}
					continue
				}
				if b.rep.IsOne(localB) {
					// backbone value for this constraint, hence for all
					if err := v.Assign(val); err != nil {
						return err
					}
					if err := b.cp.FixPoint(); err != nil {
						return err
					}
					break
				}
			}
			v.ReceiveMessage(val, b.rep.Pow(localB, b.weight))
		}
	}
	return nil
}

// UpdateBelief is the engine default: uniform local beliefs, normalized
// later by SendMessages. Acceptable for constraints used only for
// filtering; counting and marginal accuracy need a real override. Named
// constraints get a single diagnostic notice per instance.
func (b *Base) UpdateBelief() {
	if !b.warnedUniform {
		if b.name != "" {
			b.cp.log.Warn("updateBelief not implemented, using uniform belief",
				zap.String("constraint", b.name))
		}
		b.warnedUniform = true
	}
	for i := range b.vars {
		for j := range b.localBelief[i] {
			b.localBelief[i][j].SetValue(b.rep.One())
		}
	}
}
