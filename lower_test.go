package miom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LouisonF/miom/solver"
)

// nopBackend satisfies the backend contract for tests that only need
// lowering, never a real solve.
type nopBackend struct{}

func (nopBackend) Name() string { return "nop" }

func (nopBackend) Solve(p *solver.Problem, _ solver.Options) (*solver.Result, error) {
	return &solver.Result{Status: solver.StatusOptimal, Columns: make([]float64, p.NumCols())}, nil
}

func lowerNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork(
		[]Reaction{
			{ID: "EX_m", LB: 0, UB: 10},
			{ID: "R_rev", LB: -5, UB: 5},
			{ID: "R_free", LB: math.Inf(-1), UB: math.Inf(1)},
		},
		[]Metabolite{{ID: "m"}},
		[]Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
			{Met: 0, Rxn: 2, Value: -1},
		},
	)
	require.NoError(t, err)
	return net
}

func rowByName(t *testing.T, p *solver.Problem, name string) int {
	t.Helper()
	for i, n := range p.RowNames {
		if n == name {
			return i
		}
	}
	t.Fatalf("row %s not in problem", name)
	return -1
}

func coef(p *solver.Problem, row, col int) float64 {
	for _, nz := range p.A {
		if nz.Row == row && nz.Col == col {
			return nz.Val
		}
	}
	return 0
}

func TestLowerFluxBalance(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SetReactionObjective("EX_m", Minimize)
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)

	require.Equal(t, 3, p.NumCols())
	require.Equal(t, []string{"v_EX_m", "v_R_rev", "v_R_free"}, p.ColNames)
	require.Equal(t, []float64{0, -5, math.Inf(-1)}, p.ColLower)
	require.Equal(t, []float64{10, 5, math.Inf(1)}, p.ColUpper)
	require.False(t, p.IsMIP())

	require.Equal(t, []float64{1, 0, 0}, p.Obj)
	require.False(t, p.Maximize)

	ss := rowByName(t, p, "ss_m")
	require.Equal(t, 0.0, p.RowLower[ss])
	require.Equal(t, 0.0, p.RowUpper[ss])
	require.Equal(t, 1.0, coef(p, ss, 0))
	require.Equal(t, -1.0, coef(p, ss, 1))
	require.Equal(t, -1.0, coef(p, ss, 2))
}

func TestLowerUserConstraint(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).SteadyState()
	vs := m.Variables()
	m.AddConstraint(vs.Flux(0).Expr().AddTerm(vs.Flux(1), -2).Between(-1, 4))
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)

	row := rowByName(t, p, "usr0")
	require.Equal(t, -1.0, p.RowLower[row])
	require.Equal(t, 4.0, p.RowUpper[row])
	require.Equal(t, 1.0, coef(p, row, 0))
	require.Equal(t, -2.0, coef(p, row, 1))
}

func TestLowerIndicatorRows(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelection(1)
	require.NoError(t, m.Err())

	// EX_m gets one forward indicator, R_rev and R_free get forward plus
	// reverse, for five binary columns after the three flux columns.
	require.Equal(t, 5, m.vars.NumIndicators())

	p, err := m.lower()
	require.NoError(t, err)
	require.Equal(t, 8, p.NumCols())
	require.True(t, p.IsMIP())
	require.True(t, p.Maximize)
	for col := 3; col < 8; col++ {
		require.Equal(t, solver.Binary, p.ColTypes[col])
		require.Equal(t, 0.0, p.ColLower[col])
		require.Equal(t, 1.0, p.ColUpper[col])
		require.Equal(t, 1.0, p.Obj[col])
	}

	// Forward row of EX_m: v - (eps - lb)*x >= lb with lb = 0.
	fwd := rowByName(t, p, "fwd_EX_m")
	require.Equal(t, 0.0, p.RowLower[fwd])
	require.True(t, math.IsInf(p.RowUpper[fwd], 1))
	require.Equal(t, 1.0, coef(p, fwd, 0))
	require.Equal(t, -DefaultEps, coef(p, fwd, 3))

	// Forward row of R_rev uses its finite lower bound -5.
	fwd = rowByName(t, p, "fwd_R_rev")
	require.Equal(t, -5.0, p.RowLower[fwd])
	require.Equal(t, -(DefaultEps + 5), coef(p, fwd, 4))

	// Reverse row of R_rev: v + (eps + ub)*x <= ub with ub = 5.
	rev := rowByName(t, p, "rev_R_rev")
	require.True(t, math.IsInf(p.RowLower[rev], -1))
	require.Equal(t, 5.0, p.RowUpper[rev])
	require.Equal(t, 1.0, coef(p, rev, 1))
	require.Equal(t, DefaultEps+5, coef(p, rev, 5))

	// Infinite bounds are clamped to the big bound.
	fwd = rowByName(t, p, "fwd_R_free")
	require.Equal(t, -DefaultBigBound, p.RowLower[fwd])
	require.Equal(t, -(DefaultEps + DefaultBigBound), coef(p, fwd, 6))
	rev = rowByName(t, p, "rev_R_free")
	require.Equal(t, DefaultBigBound, p.RowUpper[rev])
	require.Equal(t, DefaultEps+DefaultBigBound, coef(p, rev, 7))

	// Reversible reactions carry a one-direction pairing row.
	dir := rowByName(t, p, "dir_R_rev")
	require.Equal(t, 1.0, p.RowUpper[dir])
	require.Equal(t, 1.0, coef(p, dir, 4))
	require.Equal(t, 1.0, coef(p, dir, 5))
}

func TestLowerInactiveRows(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelection(-1)
	require.NoError(t, m.Err())

	// A negative weight yields exactly one inactive indicator per reaction.
	require.Equal(t, 3, m.vars.NumIndicators())

	p, err := m.lower()
	require.NoError(t, err)

	// Inactive rows of R_rev: v + ub*x <= ub and v + lb*x >= lb.
	up := rowByName(t, p, "off_R_rev_u")
	require.Equal(t, 5.0, p.RowUpper[up])
	require.Equal(t, 1.0, coef(p, up, 1))
	require.Equal(t, 5.0, coef(p, up, 4))

	dn := rowByName(t, p, "off_R_rev_l")
	require.Equal(t, -5.0, p.RowLower[dn])
	require.Equal(t, 1.0, coef(p, dn, 1))
	require.Equal(t, -5.0, coef(p, dn, 4))

	// The objective rewards inactive indicators with the weight magnitude.
	require.Equal(t, 1.0, p.Obj[4])
	require.True(t, p.Maximize)
}

func TestLowerWeightMagnitudeInObjective(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelectionWeights([]float64{2, -3, 0})
	require.NoError(t, m.Err())

	// Zero weight means no indicator at all for R_free.
	require.Equal(t, 2, m.vars.NumIndicators())

	p, err := m.lower()
	require.NoError(t, err)
	require.Equal(t, 5, p.NumCols())
	require.Equal(t, 2.0, p.Obj[3]) // forward EX_m
	require.Equal(t, 3.0, p.Obj[4]) // inactive R_rev
}

func TestLowerCardinalityRow(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelectionCount(2)
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)

	row := rowByName(t, p, "card")
	require.Equal(t, 2.0, p.RowLower[row])
	require.Equal(t, 2.0, p.RowUpper[row])
	for _, x := range m.vars.Indicators() {
		require.Equal(t, 1.0, coef(p, row, 3+x.Index()))
	}
}

func TestLowerKeepRow(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelection(-1).
		Keep("R_rev")
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)

	// Keep re-stages R_rev with a positive weight, so it now owns a
	// forward and a reverse indicator whose sum is pinned to one.
	row := rowByName(t, p, "keep_R_rev")
	require.Equal(t, 1.0, p.RowLower[row])
	require.Equal(t, 1.0, p.RowUpper[row])

	count := 0
	for _, x := range m.vars.Indicators() {
		if x.Reaction() == 1 {
			require.NotEqual(t, RoleInactive, x.Role())
			count++
		}
	}
	require.Equal(t, 2, count)
}

func TestLowerKeepBlockedFails(t *testing.T) {
	net, err := NewNetwork(
		[]Reaction{
			{ID: "R_ok", LB: 0, UB: 10},
			{ID: "R_blocked", LB: 0, UB: 0},
		},
		[]Metabolite{{ID: "m"}},
		[]Stoich{{Met: 0, Rxn: 0, Value: 1}, {Met: 0, Rxn: 1, Value: -1}},
	)
	require.NoError(t, err)

	m := New(net, WithBackend(nopBackend{})).
		SubsetSelection(1).
		Keep("R_blocked")
	require.NoError(t, m.Err())

	_, err = m.lower()
	require.ErrorIs(t, err, ErrBadInput)
}

func TestLowerExclusionCut(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelection(1).
		Solve()
	require.NoError(t, m.Err())

	// Pretend indicators 0 and 2 were set in the solution, then cut it.
	m.indVals = []float64{1, 0, 1, 0, 0}
	m.Exclude()
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)

	row := rowByName(t, p, "cut0")
	require.Equal(t, -1.0, p.RowLower[row]) // 1 - |ones| with two ones
	require.True(t, math.IsInf(p.RowUpper[row], 1))
	require.Equal(t, -1.0, coef(p, row, 3))
	require.Equal(t, 1.0, coef(p, row, 4))
	require.Equal(t, -1.0, coef(p, row, 5))
	require.Equal(t, 1.0, coef(p, row, 6))
	require.Equal(t, 1.0, coef(p, row, 7))
}

func TestKeepDiscardsStaleCuts(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelectionWeights([]float64{-1, 1, 0}).
		Solve()
	require.NoError(t, m.Err())

	// Exclude the assignment {inactive EX_m, forward R_rev}, recorded
	// against the layout [off_EX_m, fwd_R_rev, rev_R_rev].
	m.indVals = []float64{1, 1, 0}
	m.Exclude()
	require.NoError(t, m.Err())

	// Keep flips EX_m to a positive weight and renumbers the indicator
	// columns; under the old layout the cut pattern would now forbid
	// {fwd_EX_m, fwd_R_rev}, an assignment that was never solved.
	m.Keep("EX_m")
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)
	for _, name := range p.RowNames {
		require.NotEqual(t, "cut0", name)
	}
}

func TestKeepOnActiveReactionPreservesCuts(t *testing.T) {
	net := lowerNet(t)
	m := New(net, WithBackend(nopBackend{})).
		SteadyState().
		SubsetSelection(1).
		Solve()
	require.NoError(t, m.Err())

	m.indVals = []float64{1, 0, 0, 0, 0}
	m.Exclude()

	// EX_m already carries a positive weight, so the indicator layout is
	// untouched and the cut stays in force.
	m.Keep("EX_m")
	require.NoError(t, m.Err())

	p, err := m.lower()
	require.NoError(t, err)
	rowByName(t, p, "cut0")
}

func TestLowerEmptyNetwork(t *testing.T) {
	net, err := NewNetwork(nil, nil, nil)
	require.NoError(t, err)

	m := New(net, WithBackend(nopBackend{}))
	_, err = m.lower()
	require.ErrorIs(t, err, ErrBadInput)
}

func TestLowerReversedOverrideFails(t *testing.T) {
	m := New(lowerNet(t), WithBackend(nopBackend{}))
	m.vars.flux[0].override = true
	m.vars.flux[0].lb, m.vars.flux[0].ub = 4, 2

	_, err := m.lower()
	require.ErrorIs(t, err, ErrBadInput)
}
