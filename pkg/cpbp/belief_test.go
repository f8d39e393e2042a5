package cpbp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdRepIdentities(t *testing.T) {
	rep := StdRep{}
	assert.True(t, rep.IsZero(rep.Zero()))
	assert.True(t, rep.IsOne(rep.One()))
	assert.Equal(t, 0.15, rep.Multiply(0.3, 0.5))
	assert.Equal(t, 0.8, rep.Add(0.3, 0.5))
	assert.Equal(t, 0.25, rep.Complement(0.75))
	assert.InDelta(t, 0.6, rep.Divide(0.3, 0.5), 1e-12)
}

func TestStdRepDivideZeroByZero(t *testing.T) {
	rep := StdRep{}
	// a zero belief stays zero no matter which factor is divided out
	assert.Equal(t, 0.0, rep.Divide(0, 0))
	assert.False(t, math.IsNaN(rep.Divide(0, 0)))
}

func TestLogRepIdentities(t *testing.T) {
	rep := LogRep{}
	assert.True(t, rep.IsZero(rep.Zero()))
	assert.True(t, rep.IsOne(rep.One()))
	assert.True(t, rep.IsZero(rep.Multiply(rep.Zero(), rep.One())))
	assert.True(t, rep.IsZero(rep.Divide(rep.Zero(), rep.Std2Rep(0.5))))
	assert.False(t, math.IsNaN(rep.Divide(rep.Zero(), rep.Zero())))
}

func TestLogRepMatchesLinearArithmetic(t *testing.T) {
	std, lg := StdRep{}, LogRep{}
	for _, pair := range [][2]float64{{0.3, 0.5}, {0.9, 0.1}, {0.25, 0.25}} {
		a, b := pair[0], pair[1]
		la, lb := lg.Std2Rep(a), lg.Std2Rep(b)
		assert.InDelta(t, std.Multiply(a, b), lg.Rep2Std(lg.Multiply(la, lb)), 1e-12)
		assert.InDelta(t, std.Add(a, b), lg.Rep2Std(lg.Add(la, lb)), 1e-12)
		assert.InDelta(t, std.Divide(a, b), lg.Rep2Std(lg.Divide(la, lb)), 1e-12)
		assert.InDelta(t, std.Complement(a), lg.Rep2Std(lg.Complement(la)), 1e-12)
		assert.InDelta(t, std.Pow(a, 1.5), lg.Rep2Std(lg.Pow(la, 1.5)), 1e-12)
	}
}

func TestLogRepComplementEndpoints(t *testing.T) {
	rep := LogRep{}
	assert.True(t, rep.IsOne(rep.Complement(rep.Zero())))
	assert.True(t, rep.IsZero(rep.Complement(rep.One())))
}

func TestPowZeroWeightIsOne(t *testing.T) {
	// b^0 must be One for every b, including Zero
	assert.Equal(t, 1.0, StdRep{}.Pow(0, 0))
	assert.True(t, LogRep{}.IsOne(LogRep{}.Pow(LogRep{}.Zero(), 0)))
}

func TestLogRepSummationUnderflow(t *testing.T) {
	rep := LogRep{}
	// products of 400 factors of 0.1 underflow linear float64 entirely;
	// the log representation keeps them apart
	tiny := rep.One()
	for i := 0; i < 400; i++ {
		tiny = rep.Multiply(tiny, rep.Std2Rep(0.1))
	}
	twice := rep.Multiply(tiny, rep.Std2Rep(0.5))
	vals := []float64{tiny, twice}
	sum := rep.Summation(vals, 2)
	require.False(t, rep.IsZero(sum))
	assert.InDelta(t, 1.0/1.5, rep.Rep2Std(rep.Divide(tiny, sum)), 1e-9)
}

func TestSummationCounts(t *testing.T) {
	vals := []float64{0.25, 0.25, 0.5, 99}
	// only the first n entries participate
	assert.Equal(t, 1.0, StdRep{}.Summation(vals, 3))
}
