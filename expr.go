package miom

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Expr is a linear expression over flux variables, built by explicit
// composition rather than operator overloading. All composition methods
// return a new expression and leave their operands untouched, so partial
// expressions can be reused freely.
type Expr struct {
	terms map[int]float64 // reaction index -> coefficient
	konst float64
}

// NewExpr returns the empty expression.
func NewExpr() *Expr {
	return &Expr{terms: make(map[int]float64)}
}

// Expr returns a single-term expression holding this variable with
// coefficient 1.
func (v *FluxVar) Expr() *Expr {
	e := NewExpr()
	e.terms[v.index] = 1
	return e
}

// Sum returns the expression summing the given flux variables.
func Sum(vars ...*FluxVar) *Expr {
	e := NewExpr()
	for _, v := range vars {
		e.terms[v.index] += 1
	}
	return e
}

func (e *Expr) clone() *Expr {
	c := &Expr{terms: make(map[int]float64, len(e.terms)), konst: e.konst}
	for i, v := range e.terms {
		c.terms[i] = v
	}
	return c
}

// Add returns the sum of the two expressions.
func (e *Expr) Add(o *Expr) *Expr {
	c := e.clone()
	for i, v := range o.terms {
		c.terms[i] += v
	}
	c.konst += o.konst
	return c
}

// AddTerm returns the expression with coef*v added.
func (e *Expr) AddTerm(v *FluxVar, coef float64) *Expr {
	c := e.clone()
	c.terms[v.index] += coef
	return c
}

// AddConst returns the expression with the constant k added.
func (e *Expr) AddConst(k float64) *Expr {
	c := e.clone()
	c.konst += k
	return c
}

// Scale returns the expression multiplied by k.
func (e *Expr) Scale(k float64) *Expr {
	c := e.clone()
	for i := range c.terms {
		c.terms[i] *= k
	}
	c.konst *= k
	return c
}

// NumTerms returns the number of variables with a non-zero coefficient.
func (e *Expr) NumTerms() int {
	n := 0
	for _, v := range e.terms {
		if v != 0 {
			n++
		}
	}
	return n
}

// Coef returns the coefficient of the given variable.
func (e *Expr) Coef(v *FluxVar) float64 { return e.terms[v.index] }

// LE returns the constraint e <= rhs.
func (e *Expr) LE(rhs float64) *Constraint {
	return e.Between(math.Inf(-1), rhs)
}

// GE returns the constraint e >= rhs.
func (e *Expr) GE(rhs float64) *Constraint {
	return e.Between(rhs, math.Inf(1))
}

// EQ returns the constraint e == rhs.
func (e *Expr) EQ(rhs float64) *Constraint {
	return e.Between(rhs, rhs)
}

// Between returns the constraint lo <= e <= hi. Any constant in the
// expression is folded into the bounds.
func (e *Expr) Between(lo, hi float64) *Constraint {
	c := &Constraint{
		terms: make(map[int]float64, len(e.terms)),
		lo:    lo - e.konst,
		hi:    hi - e.konst,
	}
	for i, v := range e.terms {
		if v != 0 {
			c.terms[i] = v
		}
	}
	return c
}

// Constraint is a bounded linear row over flux variables, produced by
// comparing an Expr and consumed by Model.AddConstraint.
type Constraint struct {
	terms map[int]float64
	lo    float64
	hi    float64
}

// Bounds returns the lower and upper bound of the row.
func (c *Constraint) Bounds() (lo, hi float64) { return c.lo, c.hi }

// NumTerms returns the number of variables in the row.
func (c *Constraint) NumTerms() int { return len(c.terms) }

func (c *Constraint) clone() *Constraint {
	n := &Constraint{terms: make(map[int]float64, len(c.terms)), lo: c.lo, hi: c.hi}
	for i, v := range c.terms {
		n.terms[i] = v
	}
	return n
}

// sortedTerms returns the row terms in ascending variable order, so that
// lowering is deterministic run to run.
func (c *Constraint) sortedTerms() []struct {
	col  int
	coef float64
} {
	idx := make([]int, 0, len(c.terms))
	for i := range c.terms {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]struct {
		col  int
		coef float64
	}, len(idx))
	for k, i := range idx {
		out[k].col = i
		out[k].coef = c.terms[i]
	}
	return out
}

// validate checks that every term references a reaction of the network.
func (c *Constraint) validate(n *Network) error {
	if c.lo > c.hi {
		return errors.Wrapf(ErrBadInput, "constraint has reversed bounds [%g, %g]", c.lo, c.hi)
	}
	for i := range c.terms {
		if i < 0 || i >= n.NumReactions() {
			return errors.Wrapf(ErrBadInput, "constraint references variable %d of %d", i, n.NumReactions())
		}
	}
	return nil
}
