package miom_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LouisonF/miom"
	"github.com/LouisonF/miom/solver"
)

// stubBackend lets tests observe the lowered problem and script the result
// without a real solving engine.
type stubBackend struct {
	solve func(p *solver.Problem, o solver.Options) (*solver.Result, error)

	calls int
	last  *solver.Problem
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Solve(p *solver.Problem, o solver.Options) (*solver.Result, error) {
	b.calls++
	b.last = p
	if b.solve != nil {
		return b.solve(p, o)
	}
	return &solver.Result{
		Status:  solver.StatusOptimal,
		Columns: make([]float64, p.NumCols()),
	}, nil
}

// toyNetwork builds the parallel-pathway model used throughout the tests:
//
//	EX_a:  -> a   [0, 10]
//	R_ab1: a -> b [0, 100]
//	R_ab2: a -> b [0, 100]
//	R_ac:  a -> c [0, 100]
//	EX_b:  b ->   [0, 6]
//	EX_c:  c ->   [0, 100]
//
// At steady state the maximum of EX_b is 6 (capped by its own bound) and the
// maximum of EX_c is 10 (capped by the EX_a uptake).
func toyNetwork(t *testing.T) *miom.Network {
	t.Helper()
	net, err := miom.NewNetwork(
		[]miom.Reaction{
			{ID: "EX_a", LB: 0, UB: 10},
			{ID: "R_ab1", LB: 0, UB: 100},
			{ID: "R_ab2", LB: 0, UB: 100},
			{ID: "R_ac", LB: 0, UB: 100},
			{ID: "EX_b", LB: 0, UB: 6},
			{ID: "EX_c", LB: 0, UB: 100},
		},
		[]miom.Metabolite{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]miom.Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
			{Met: 1, Rxn: 1, Value: 1},
			{Met: 0, Rxn: 2, Value: -1},
			{Met: 1, Rxn: 2, Value: 1},
			{Met: 0, Rxn: 3, Value: -1},
			{Met: 2, Rxn: 3, Value: 1},
			{Met: 1, Rxn: 4, Value: -1},
			{Met: 2, Rxn: 5, Value: -1},
		},
	)
	require.NoError(t, err)
	return net
}
