package miom

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/LouisonF/miom/solver"
)

// problemBuilder assembles a solver.Problem row by row. Flux variables occupy
// columns [0, NumReactions); indicator variables follow in materialization
// order.
type problemBuilder struct {
	p *solver.Problem
}

func (b *problemBuilder) addCol(name string, lo, hi float64, typ solver.VarType) int {
	b.p.ColNames = append(b.p.ColNames, name)
	b.p.ColLower = append(b.p.ColLower, lo)
	b.p.ColUpper = append(b.p.ColUpper, hi)
	b.p.ColTypes = append(b.p.ColTypes, typ)
	b.p.Obj = append(b.p.Obj, 0)
	return len(b.p.ColLower) - 1
}

func (b *problemBuilder) addRow(name string, lo, hi float64) int {
	b.p.RowNames = append(b.p.RowNames, name)
	b.p.RowLower = append(b.p.RowLower, lo)
	b.p.RowUpper = append(b.p.RowUpper, hi)
	return len(b.p.RowLower) - 1
}

func (b *problemBuilder) addTerm(row, col int, val float64) {
	if val == 0 {
		return
	}
	b.p.A = append(b.p.A, solver.Nonzero{Row: row, Col: col, Val: val})
}

// lower translates the staged model state into a solver problem. It is called
// by every Solve, so bound mutations made through the network or the model
// are always picked up.
func (m *Model) lower() (*solver.Problem, error) {
	n := m.net.NumReactions()
	if n == 0 {
		return nil, errors.Wrap(ErrBadInput, "network has no reactions")
	}

	b := &problemBuilder{p: &solver.Problem{}}

	// Flux columns carry the effective bounds: model overrides first, then
	// the current network bounds.
	for i := 0; i < n; i++ {
		v := m.vars.flux[i]
		lo, hi := v.Bounds(m.net)
		if lo > hi {
			return nil, errors.Wrapf(ErrBadInput, "reaction %s has reversed bounds [%g, %g]", v.id, lo, hi)
		}
		b.addCol("v_"+v.id, lo, hi, solver.Continuous)
	}

	// Indicator columns are binary.
	for _, x := range m.vars.indicators {
		b.addCol(fmt.Sprintf("x%d_%s", x.index, m.vars.flux[x.rxn].id), 0, 1, solver.Binary)
	}

	switch m.objKind {
	case objReaction:
		b.p.Obj[m.objRxn] = 1
		b.p.Maximize = m.objDir == Maximize
	case objSubset:
		// Maximize the weighted count of set indicators. The weight sign
		// chose the indicator role at materialization; only the magnitude
		// enters the objective.
		for _, x := range m.vars.indicators {
			b.p.Obj[n+x.index] = math.Abs(m.weights[x.rxn])
		}
		b.p.Maximize = true
	}

	if m.steady {
		m.addSteadyStateRows(b)
	}

	for i, c := range m.cons {
		if err := c.validate(m.net); err != nil {
			return nil, err
		}
		row := b.addRow(fmt.Sprintf("usr%d", i), c.lo, c.hi)
		for _, t := range c.sortedTerms() {
			b.addTerm(row, t.col, t.coef)
		}
	}

	if m.vars.HasIndicators() {
		if err := m.addIndicatorRows(b); err != nil {
			return nil, err
		}
	}

	return b.p, nil
}

// addSteadyStateRows emits one mass-balance equality row per metabolite:
// the stoichiometric contributions of all reactions must cancel.
func (m *Model) addSteadyStateRows(b *problemBuilder) {
	rows := make([]int, m.net.NumMetabolites())
	for i := 0; i < m.net.NumMetabolites(); i++ {
		rows[i] = b.addRow("ss_"+m.net.metabolites[i].ID, 0, 0)
	}
	for _, s := range m.net.stoich {
		b.addTerm(rows[s.Met], s.Rxn, s.Value)
	}
}

// addIndicatorRows emits the big-M rows tying indicators to fluxes, the
// one-direction pairing rows, keep and cardinality rows, and exclusion cuts.
func (m *Model) addIndicatorRows(b *problemBuilder) error {
	n := m.net.NumReactions()

	for _, x := range m.vars.indicators {
		v := m.vars.flux[x.rxn]
		lo, hi := v.Bounds(m.net)
		lbM := math.Max(lo, -m.bigM)
		ubM := math.Min(hi, m.bigM)
		col := n + x.index

		switch x.role {
		case RoleForward:
			// set => v >= eps, clear => v >= lbM
			row := b.addRow(fmt.Sprintf("fwd_%s", v.id), lbM, math.Inf(1))
			b.addTerm(row, x.rxn, 1)
			b.addTerm(row, col, -(m.eps - lbM))
		case RoleReverse:
			// set => v <= -eps, clear => v <= ubM
			row := b.addRow(fmt.Sprintf("rev_%s", v.id), math.Inf(-1), ubM)
			b.addTerm(row, x.rxn, 1)
			b.addTerm(row, col, m.eps+ubM)
		case RoleInactive:
			// set => v = 0, clear => bounds unchanged
			up := b.addRow(fmt.Sprintf("off_%s_u", v.id), math.Inf(-1), ubM)
			b.addTerm(up, x.rxn, 1)
			b.addTerm(up, col, ubM)
			dn := b.addRow(fmt.Sprintf("off_%s_l", v.id), lbM, math.Inf(1))
			b.addTerm(dn, x.rxn, 1)
			b.addTerm(dn, col, lbM)
		}
	}

	// A reversible reaction cannot be active in both directions at once.
	for rxn := 0; rxn < n; rxn++ {
		group := m.vars.indicatorsFor(rxn)
		if len(group) == 2 {
			row := b.addRow(fmt.Sprintf("dir_%s", m.vars.flux[rxn].id), math.Inf(-1), 1)
			b.addTerm(row, n+group[0].index, 1)
			b.addTerm(row, n+group[1].index, 1)
		}
	}

	kept := make([]int, 0, len(m.kept))
	for rxn := range m.kept {
		kept = append(kept, rxn)
	}
	sort.Ints(kept)
	for _, rxn := range kept {
		group := m.vars.indicatorsFor(rxn)
		if len(group) == 0 {
			return errors.Wrapf(ErrBadInput, "cannot keep blocked reaction %s", m.vars.flux[rxn].id)
		}
		row := b.addRow(fmt.Sprintf("keep_%s", m.vars.flux[rxn].id), 1, 1)
		for _, x := range group {
			b.addTerm(row, n+x.index, 1)
		}
	}

	if m.card >= 0 {
		row := b.addRow("card", float64(m.card), float64(m.card))
		for _, x := range m.vars.indicators {
			if x.role != RoleInactive {
				b.addTerm(row, n+x.index, 1)
			}
		}
	}

	// No-good cuts: each excluded pattern must differ in at least one
	// indicator.
	for i, cut := range m.cuts {
		ones := 0
		row := b.addRow(fmt.Sprintf("cut%d", i), 0, math.Inf(1))
		for _, x := range m.vars.indicators {
			if cut.Test(uint(x.index)) {
				b.addTerm(row, n+x.index, -1)
				ones++
			} else {
				b.addTerm(row, n+x.index, 1)
			}
		}
		b.p.RowLower[row] = float64(1 - ones)
	}

	return nil
}
