package cpbp

// NotEqual enforces x != y + offset. Filtering waits until one side is
// bound, then removes the single forbidden value and deactivates; the
// belief side is exact: a value's support is the complement of the outside
// belief of the one tuple that would violate the constraint.
type NotEqual struct {
	*Base
	x, y   Var
	offset int
}

// NewNotEqual creates x != y + offset.
func NewNotEqual(cp *Solver, x, y Var, offset int) *NotEqual {
	c := &NotEqual{x: x, y: y, offset: offset}
	c.Base = NewBase(cp, c, x, y)
	c.SetName("notEqual")
	c.setExactWCounting(true)
	return c
}

func (c *NotEqual) Post() error {
	c.x.WhenDomainChanges(c)
	c.y.WhenDomainChanges(c)
	return c.Propagate()
}

func (c *NotEqual) Propagate() error {
	if c.x.IsBound() {
		if err := c.y.Remove(c.x.Min() - c.offset); err != nil {
			return err
		}
		c.SetActive(false)
	} else if c.y.IsBound() {
		if err := c.x.Remove(c.y.Min() + c.offset); err != nil {
			return err
		}
		c.SetActive(false)
	}
	return nil
}

// UpdateBelief computes exact local beliefs: value a of x is supported by
// every y value except a-offset, and outside beliefs are normalized, so
// its belief is Complement(outside(y, a-offset)). Symmetrically for y.
func (c *NotEqual) UpdateBelief() {
	n := c.x.FillArray(c.domainValues)
	for j := 0; j < n; j++ {
		a := c.domainValues[j]
		if c.y.Contains(a - c.offset) {
			c.setLocalB(0, a, c.rep.Complement(c.outsideB(1, a-c.offset)))
		} else {
			c.setLocalB(0, a, c.rep.One())
		}
	}
	n = c.y.FillArray(c.domainValues)
	for j := 0; j < n; j++ {
		b := c.domainValues[j]
		if c.x.Contains(b + c.offset) {
			c.setLocalB(1, b, c.rep.Complement(c.outsideB(0, b+c.offset)))
		} else {
			c.setLocalB(1, b, c.rep.One())
		}
	}
}
