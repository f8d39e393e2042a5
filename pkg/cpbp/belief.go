package cpbp

import "math"

// BeliefRep is the numeric representation used for belief values.
// Beliefs are weights in [Zero(), One()] expressing confidence that a
// variable takes a given value. The abstraction exists because belief
// products over many variables underflow in linear probability space; a
// log-domain implementation can be substituted transparently since every
// caller goes through this contract.
//
// Both implementations keep Zero() <= b <= One() under ordinary float
// comparison, so range checks are representation-agnostic.
type BeliefRep interface {
	// Zero returns the representation of certainty that a value is excluded.
	Zero() float64
	// One returns the representation of certainty that a value holds.
	One() float64
	IsZero(b float64) bool
	IsOne(b float64) bool

	Multiply(a, b float64) float64
	// Divide returns a/b in the representation. Dividing Zero by anything,
	// including Zero, yields Zero: a zero belief stays zero no matter which
	// factor is divided out.
	Divide(a, b float64) float64
	Add(a, b float64) float64
	// Complement returns the representation of 1-x.
	Complement(a float64) float64
	// Pow raises a belief to a constraint weight. Pow(b, 0) is One for
	// every b, including Zero.
	Pow(a, w float64) float64
	// Summation sums the first n entries of values in the representation.
	Summation(values []float64, n int) float64

	// Std2Rep converts a plain probability in [0,1] into the representation;
	// Rep2Std is its inverse. Used for externally supplied parameters such
	// as the damping factor.
	Std2Rep(p float64) float64
	Rep2Std(b float64) float64
}

// StdRep represents beliefs as plain linear probabilities in [0,1].
type StdRep struct{}

func (StdRep) Zero() float64                 { return 0 }
func (StdRep) One() float64                  { return 1 }
func (StdRep) IsZero(b float64) bool         { return b == 0 }
func (StdRep) IsOne(b float64) bool          { return b == 1 }
func (StdRep) Multiply(a, b float64) float64 { return a * b }

func (StdRep) Divide(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return a / b
}

func (StdRep) Add(a, b float64) float64     { return a + b }
func (StdRep) Complement(a float64) float64 { return 1 - a }
func (StdRep) Pow(a, w float64) float64     { return math.Pow(a, w) }

func (StdRep) Summation(values []float64, n int) float64 {
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
	}
	return sum
}

func (StdRep) Std2Rep(p float64) float64 { return p }
func (StdRep) Rep2Std(b float64) float64 { return b }

// LogRep represents beliefs as natural logarithms of probabilities:
// Zero is -Inf, One is 0, products become sums. Use it when constraint
// scopes are large enough for linear products to underflow.
type LogRep struct{}

func (LogRep) Zero() float64         { return math.Inf(-1) }
func (LogRep) One() float64          { return 0 }
func (LogRep) IsZero(b float64) bool { return math.IsInf(b, -1) }
func (LogRep) IsOne(b float64) bool  { return b == 0 }

func (LogRep) Multiply(a, b float64) float64 {
	// -Inf + -Inf is well defined, no special case needed
	return a + b
}

func (LogRep) Divide(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return a
	}
	return a - b
}

// Add computes log(exp(a)+exp(b)) shifted by the larger operand for
// numerical stability.
func (LogRep) Add(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

func (r LogRep) Complement(a float64) float64 {
	if r.IsZero(a) {
		return r.One()
	}
	if r.IsOne(a) {
		return r.Zero()
	}
	return math.Log1p(-math.Exp(a))
}

func (r LogRep) Pow(a, w float64) float64 {
	if w == 0 {
		return r.One()
	}
	return w * a
}

func (r LogRep) Summation(values []float64, n int) float64 {
	max := math.Inf(-1)
	for i := 0; i < n; i++ {
		if values[i] > max {
			max = values[i]
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Exp(values[i] - max)
	}
	return max + math.Log(sum)
}

func (LogRep) Std2Rep(p float64) float64 { return math.Log(p) }
func (LogRep) Rep2Std(b float64) float64 { return math.Exp(b) }

// assertBelief fails fast on a belief outside [Zero,One]: continuing would
// silently corrupt the probabilistic computation.
func assertBelief(rep BeliefRep, b float64) {
	if math.IsNaN(b) || b < rep.Zero() || b > rep.One() {
		panic("cpbp: belief out of range")
	}
}
