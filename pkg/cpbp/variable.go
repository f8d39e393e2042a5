package cpbp

// Var is the variable contract the constraint engine consumes. A variable
// owns a finite integer domain plus the belief relay used during sweeps:
// SendMessage returns the aggregate belief contributed by every constraint
// except the caller, ReceiveMessage records the caller's contribution for
// the next round.
type Var interface {
	Solver() *Solver
	Name() string

	// Min and Max are the current domain bounds.
	Min() int
	Max() int
	// Size returns the number of values currently in the domain.
	Size() int
	// IsBound reports whether exactly one value remains.
	IsBound() bool
	Contains(v int) bool
	// FillArray writes the current domain values into buf and returns how
	// many were written. buf must cover the construction-time span.
	FillArray(buf []int) int

	// Remove and Assign are the filtering operations. Both return
	// ErrInconsistency when they would leave the domain empty.
	Remove(v int) error
	Assign(v int) error

	// SendMessage aggregates this constraint's contribution b with all
	// other constraints touching the variable and returns the combined
	// outside belief for value v.
	SendMessage(v int, b float64) float64
	// ReceiveMessage records this constraint's local belief for value v.
	ReceiveMessage(v int, b float64)

	// Marginal relay driven by the coordinator between sweep phases.
	ResetMarginals()
	NormalizeMarginals()
	Marginal(v int) float64
	// MaxMarginal returns the domain value with the strongest marginal.
	MaxMarginal() (val int, belief float64)

	// WhenDomainChanges registers a constraint to be scheduled whenever a
	// value is removed from the domain.
	WhenDomainChanges(c Constraint)
}

// IntVar is the built-in Var implementation: an offset bitset domain whose
// mutations are recorded on the solver trail, plus reversible per-value
// marginal cells so backtracking restores belief state along with the
// domain.
type IntVar struct {
	cp        *Solver
	name      string
	ofs       int // construction-time lower bound
	dom       BitSet
	lastMagic uint64
	marginal  []*StateFloat
	watchers  []Constraint
}

// NewVar creates a variable with domain [min,max] and registers it with the
// solver. Create all variables before posting constraints when the ARITY
// weighing scheme is in use; the scheme reads the registry size.
func (cp *Solver) NewVar(min, max int) *IntVar {
	if max < min {
		panic("cpbp: empty initial domain")
	}
	span := max - min + 1
	v := &IntVar{cp: cp, ofs: min, dom: NewBitSet(span)}
	v.marginal = make([]*StateFloat, span)
	for i := range v.marginal {
		v.marginal[i] = cp.trail.MakeStateFloat(cp.rep.One())
	}
	cp.RegisterVar(v)
	return v
}

func (v *IntVar) Solver() *Solver { return v.cp }

func (v *IntVar) Name() string { return v.name }

// SetName attaches a display name used in logs and models.
func (v *IntVar) SetName(name string) { v.name = name }

func (v *IntVar) Min() int  { return v.ofs + v.dom.MinPos() }
func (v *IntVar) Max() int  { return v.ofs + v.dom.MaxPos() }
func (v *IntVar) Size() int { return v.dom.Count() }

func (v *IntVar) IsBound() bool { return v.dom.IsSingleton() }

func (v *IntVar) Contains(val int) bool { return v.dom.Has(val - v.ofs) }

func (v *IntVar) FillArray(buf []int) int {
	n := 0
	v.dom.IteratePos(func(pos int) {
		buf[n] = v.ofs + pos
		n++
	})
	return n
}

// trailDomain records the current domain once per checkpoint interval.
// BitSet operations are copy-on-write, so the stored value stays intact.
func (v *IntVar) trailDomain() {
	if v.lastMagic != v.cp.trail.magic {
		v.lastMagic = v.cp.trail.magic
		v.cp.trail.push(domainUndo{v: v, dom: v.dom})
	}
}

type domainUndo struct {
	v   *IntVar
	dom BitSet
}

func (u domainUndo) undo() { u.v.dom = u.dom }

// Remove deletes val from the domain, scheduling watching constraints.
// Removing the last value returns ErrInconsistency.
func (v *IntVar) Remove(val int) error {
	if !v.Contains(val) {
		return nil
	}
	v.trailDomain()
	v.dom = v.dom.Remove(val - v.ofs)
	if v.dom.Count() == 0 {
		return ErrInconsistency
	}
	v.wake()
	return nil
}

// Assign reduces the domain to exactly val. Assigning a value outside the
// current domain returns ErrInconsistency.
func (v *IntVar) Assign(val int) error {
	if !v.Contains(val) {
		return ErrInconsistency
	}
	if v.IsBound() {
		return nil
	}
	v.trailDomain()
	v.dom = v.dom.KeepOnly(val - v.ofs)
	v.wake()
	return nil
}

func (v *IntVar) wake() {
	for _, c := range v.watchers {
		if c.IsActive() {
			v.cp.Schedule(c)
		}
	}
}

func (v *IntVar) WhenDomainChanges(c Constraint) {
	v.watchers = append(v.watchers, c)
}

// SendMessage divides the caller's own contribution back out of the
// variable's marginal, yielding the outside belief for val.
func (v *IntVar) SendMessage(val int, b float64) float64 {
	return v.cp.rep.Divide(v.marginal[val-v.ofs].Value(), b)
}

// ReceiveMessage multiplies the caller's local belief for val into the
// marginal being accumulated this round.
func (v *IntVar) ReceiveMessage(val int, b float64) {
	cell := v.marginal[val-v.ofs]
	cell.SetValue(v.cp.rep.Multiply(cell.Value(), b))
}

// ResetMarginals reinitializes the marginal of every current domain value
// to One before constraints send this round's messages.
func (v *IntVar) ResetMarginals() {
	v.dom.IteratePos(func(pos int) {
		v.marginal[pos].SetValue(v.cp.rep.One())
	})
}

// NormalizeMarginals rescales the marginals of the current domain to sum to
// One. A bound variable gets exactly One for its single value; a zero sum
// is a transient state of a soon-to-be-empty domain and is left alone.
func (v *IntVar) NormalizeMarginals() {
	rep := v.cp.rep
	if v.IsBound() {
		v.marginal[v.dom.MinPos()].SetValue(rep.One())
		return
	}
	sum := rep.Zero()
	v.dom.IteratePos(func(pos int) {
		sum = rep.Add(sum, v.marginal[pos].Value())
	})
	if rep.IsZero(sum) {
		return
	}
	v.dom.IteratePos(func(pos int) {
		v.marginal[pos].SetValue(rep.Divide(v.marginal[pos].Value(), sum))
	})
}

func (v *IntVar) Marginal(val int) float64 {
	return v.marginal[val-v.ofs].Value()
}

func (v *IntVar) MaxMarginal() (int, float64) {
	best, bestB := -1, v.cp.rep.Zero()
	v.dom.IteratePos(func(pos int) {
		if b := v.marginal[pos].Value(); best == -1 || b > bestB {
			best, bestB = pos, b
		}
	})
	return v.ofs + best, bestB
}
