package cpbp

// Table constrains its variables to take, jointly, one of an explicit list
// of tuples (a positive table constraint). Filtering removes values with
// no supporting tuple; the belief side performs exact weighted counting:
// a tuple's weight is the product of the outside beliefs of its values,
// and a value's local belief accumulates the weights of the tuples using
// it, each divided by the value's own outside contribution.
type Table struct {
	*Base
	tuples [][]int

	// acc accumulates per-(variable,value) tuple weights; pre and suf hold
	// running products while weighing one tuple.
	acc      [][]float64
	pre, suf []float64
}

// NewTable creates a table constraint over vars. Every tuple must have
// exactly len(vars) entries; tuples are copied.
func NewTable(cp *Solver, vars []Var, tuples [][]int) *Table {
	c := &Table{tuples: make([][]int, len(tuples))}
	for i, t := range tuples {
		if len(t) != len(vars) {
			panic("cpbp: table tuple arity does not match scope")
		}
		c.tuples[i] = append([]int(nil), t...)
	}
	c.Base = NewBase(cp, c, vars...)
	c.SetName("table")
	c.setExactWCounting(true)
	c.acc = make([][]float64, len(vars))
	for i, v := range vars {
		c.acc[i] = make([]float64, v.Max()-v.Min()+1)
	}
	c.pre = make([]float64, len(vars)+1)
	c.suf = make([]float64, len(vars)+1)
	return c
}

func (c *Table) Post() error {
	for _, v := range c.vars {
		v.WhenDomainChanges(c)
	}
	return c.Propagate()
}

// tupleAlive reports whether every entry of the tuple is still in its
// variable's domain.
func (c *Table) tupleAlive(t []int) bool {
	for i, v := range c.vars {
		if !v.Contains(t[i]) {
			return false
		}
	}
	return true
}

// Propagate removes every value that no live tuple supports.
func (c *Table) Propagate() error {
	for i, v := range c.vars {
		n := v.FillArray(c.domainValues)
		for j := 0; j < n; j++ {
			val := c.domainValues[j]
			if !c.supports(i, val) {
				if err := v.Remove(val); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Table) supports(i, val int) bool {
	for _, t := range c.tuples {
		if t[i] == val && c.tupleAlive(t) {
			return true
		}
	}
	return false
}

// UpdateBelief performs exact weighted counting over the live tuples.
// For each tuple the contribution to position i is the product of the
// outside beliefs at every other position, computed with prefix/suffix
// products so a Zero outside belief at one position does not poison the
// others.
func (c *Table) UpdateBelief() {
	rep := c.rep
	for i := range c.vars {
		for j := range c.acc[i] {
			c.acc[i][j] = rep.Zero()
		}
	}
	k := len(c.vars)
	for _, t := range c.tuples {
		if !c.tupleAlive(t) {
			continue
		}
		c.pre[0] = rep.One()
		for i := 0; i < k; i++ {
			c.pre[i+1] = rep.Multiply(c.pre[i], c.outsideB(i, t[i]))
		}
		c.suf[k] = rep.One()
		for i := k - 1; i >= 0; i-- {
			c.suf[i] = rep.Multiply(c.suf[i+1], c.outsideB(i, t[i]))
		}
		for i := 0; i < k; i++ {
			w := rep.Multiply(c.pre[i], c.suf[i+1])
			pos := t[i] - c.ofs[i]
			c.acc[i][pos] = rep.Add(c.acc[i][pos], w)
		}
	}
	for i, v := range c.vars {
		n := v.FillArray(c.domainValues)
		for j := 0; j < n; j++ {
			val := c.domainValues[j]
			c.setLocalB(i, val, c.acc[i][val-c.ofs[i]])
		}
	}
}
