package miom

import (
	"math"

	"github.com/pkg/errors"
)

// FluxVar is the continuous decision variable holding the flux of one
// reaction. Its effective bounds are the network bounds unless the owning
// model has overridden them (SetFluxBounds, FixFluxes).
type FluxVar struct {
	index    int
	id       string
	override bool
	lb, ub   float64
}

// Index returns the position of the variable, which equals the index of its
// reaction in the network.
func (v *FluxVar) Index() int { return v.index }

// ID returns the id of the reaction the variable belongs to.
func (v *FluxVar) ID() string { return v.id }

// Bounds returns the effective bounds of the variable given the current
// network bounds.
func (v *FluxVar) Bounds(n *Network) (lo, hi float64) {
	if v.override {
		return v.lb, v.ub
	}
	r := n.Reaction(v.index)
	return r.LB, r.UB
}

// IndicatorRole states what an indicator variable asserts about its reaction
// when set to 1.
type IndicatorRole int8

const (
	// RoleForward asserts forward flux of at least eps.
	RoleForward IndicatorRole = iota
	// RoleReverse asserts reverse flux of at most -eps.
	RoleReverse
	// RoleInactive asserts exactly zero flux.
	RoleInactive
)

// IndicatorVar is a binary decision variable created by subset selection.
type IndicatorVar struct {
	index int // position among indicator columns
	rxn   int // reaction the indicator asserts about
	role  IndicatorRole
}

// Index returns the position of the variable among the indicator columns.
func (x *IndicatorVar) Index() int { return x.index }

// Reaction returns the index of the reaction the indicator asserts about.
func (x *IndicatorVar) Reaction() int { return x.rxn }

// Role returns what the indicator asserts when set.
func (x *IndicatorVar) Role() IndicatorRole { return x.role }

// VariableSet owns the decision variables of one model: one flux variable per
// reaction, and the indicator variables materialized by subset selection.
// Models never share a VariableSet; Copy produces fresh variable objects.
type VariableSet struct {
	flux       []*FluxVar
	indicators []*IndicatorVar
	byRxn      [][]*IndicatorVar // indicator vars grouped by reaction

	// solved indicator values by reaction, nil before a solve
	activity []float64
}

func newVariableSet(n *Network) *VariableSet {
	vs := &VariableSet{flux: make([]*FluxVar, n.NumReactions())}
	for i := range vs.flux {
		vs.flux[i] = &FluxVar{index: i, id: n.Reaction(i).ID}
	}
	return vs
}

// Flux returns the flux variable of the reaction at index i.
func (vs *VariableSet) Flux(i int) *FluxVar { return vs.flux[i] }

// NumFlux returns the number of flux variables.
func (vs *VariableSet) NumFlux() int { return len(vs.flux) }

// Indicators returns the indicator variables in column order, or nil when
// subset selection has not been staged.
func (vs *VariableSet) Indicators() []*IndicatorVar {
	out := make([]*IndicatorVar, len(vs.indicators))
	copy(out, vs.indicators)
	return out
}

// NumIndicators returns the number of indicator variables.
func (vs *VariableSet) NumIndicators() int { return len(vs.indicators) }

// HasIndicators reports whether subset selection created indicator variables.
func (vs *VariableSet) HasIndicators() bool { return len(vs.indicators) > 0 }

// ReactionActivity returns the per-reaction activity of the last solve:
// +1 forward active, -1 reverse active, 0 inactive. NaN marks an assignment
// where both direction indicators were set, which the pairing row forbids.
// It fails before a successful solve.
func (vs *VariableSet) ReactionActivity() ([]float64, error) {
	if vs.activity == nil {
		return nil, errors.Wrap(ErrNotSolved, "reaction activity unavailable")
	}
	out := make([]float64, len(vs.activity))
	copy(out, vs.activity)
	return out, nil
}

// materializeIndicators creates the indicator variables for the staged
// weights. For a positive weight the reaction gets one indicator per feasible
// flux direction; for a negative weight it gets a single inactive indicator.
// Zero-weight reactions get none.
func (vs *VariableSet) materializeIndicators(n *Network, weights []float64) {
	vs.indicators = nil
	vs.byRxn = make([][]*IndicatorVar, n.NumReactions())
	add := func(rxn int, role IndicatorRole) {
		x := &IndicatorVar{index: len(vs.indicators), rxn: rxn, role: role}
		vs.indicators = append(vs.indicators, x)
		vs.byRxn[rxn] = append(vs.byRxn[rxn], x)
	}
	for i := range weights {
		w := weights[i]
		if w == 0 {
			continue
		}
		lo, hi := vs.flux[i].Bounds(n)
		if w < 0 {
			add(i, RoleInactive)
			continue
		}
		if hi > 0 {
			add(i, RoleForward)
		}
		if lo < 0 {
			add(i, RoleReverse)
		}
	}
}

// indicatorsFor returns the indicator variables of one reaction.
func (vs *VariableSet) indicatorsFor(rxn int) []*IndicatorVar {
	if vs.byRxn == nil {
		return nil
	}
	return vs.byRxn[rxn]
}

// setSolution records solved indicator values and derives activities.
func (vs *VariableSet) setSolution(indVals []float64) {
	vs.activity = make([]float64, len(vs.flux))
	for rxn := range vs.flux {
		vs.activity[rxn] = 0
	}
	if vs.byRxn == nil {
		return
	}
	for rxn, group := range vs.byRxn {
		fwd, rev := false, false
		for _, x := range group {
			if indVals[x.index] < 0.5 {
				continue
			}
			switch x.role {
			case RoleForward:
				fwd = true
			case RoleReverse:
				rev = true
			case RoleInactive:
				// inactive indicators do not contribute to activity
			}
		}
		switch {
		case fwd && rev:
			vs.activity[rxn] = math.NaN()
		case fwd:
			vs.activity[rxn] = 1
		case rev:
			vs.activity[rxn] = -1
		}
	}
}

func (vs *VariableSet) clearSolution() { vs.activity = nil }

// copy returns a deep copy with fresh variable objects.
func (vs *VariableSet) copy() *VariableSet {
	c := &VariableSet{flux: make([]*FluxVar, len(vs.flux))}
	for i, v := range vs.flux {
		nv := *v
		c.flux[i] = &nv
	}
	if vs.indicators != nil {
		c.indicators = make([]*IndicatorVar, len(vs.indicators))
		c.byRxn = make([][]*IndicatorVar, len(vs.flux))
		for i, x := range vs.indicators {
			nx := *x
			c.indicators[i] = &nx
			c.byRxn[nx.rxn] = append(c.byRxn[nx.rxn], &nx)
		}
	}
	if vs.activity != nil {
		c.activity = make([]float64, len(vs.activity))
		copy(c.activity, vs.activity)
	}
	return c
}
