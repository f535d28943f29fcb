package miom_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LouisonF/miom"
)

func mustNetwork(t *testing.T, rxns []miom.Reaction, mets []miom.Metabolite, stoich []miom.Stoich) *miom.Network {
	t.Helper()
	net, err := miom.NewNetwork(rxns, mets, stoich)
	require.NoError(t, err)
	return net
}

func TestReduceKeepsBalancedNetwork(t *testing.T) {
	net := toyNetwork(t)

	out, stats, err := net.Reduce(miom.DefaultReduceCtrl())
	require.NoError(t, err)
	require.Equal(t, 6, out.NumReactions())
	require.Equal(t, 3, out.NumMetabolites())
	require.Equal(t, 0, stats.RxnsDel)
	require.Equal(t, 0, stats.MetsDel)
	require.Equal(t, 1, stats.IterUsed)
}

func TestReduceRemovesBlockedReactions(t *testing.T) {
	net := mustNetwork(t,
		[]miom.Reaction{
			{ID: "EX_m", LB: 0, UB: 10},
			{ID: "R_blocked", LB: 0, UB: 0},
			{ID: "R_sink", LB: 0, UB: 10},
		},
		[]miom.Metabolite{{ID: "m"}},
		[]miom.Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
			{Met: 0, Rxn: 2, Value: -1},
		},
	)

	out, stats, err := net.Reduce(miom.ReduceCtrl{DelBlocked: true})
	require.NoError(t, err)
	require.Equal(t, []string{"EX_m", "R_sink"}, out.ReactionIDs())
	require.Equal(t, 1, stats.RxnsDel)

	// The input network is never modified.
	require.Equal(t, 3, net.NumReactions())
}

func TestReduceDeadEndCascade(t *testing.T) {
	// R2 is the only reaction touching m2, so it cannot carry flux at
	// steady state. Removing it leaves m1 touched only by R1, which the
	// next pass removes in turn.
	net := mustNetwork(t,
		[]miom.Reaction{
			{ID: "R1", LB: 0, UB: 10},
			{ID: "R2", LB: 0, UB: 10},
		},
		[]miom.Metabolite{{ID: "m1"}, {ID: "m2"}},
		[]miom.Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
			{Met: 1, Rxn: 1, Value: 1},
		},
	)

	out, stats, err := net.Reduce(miom.DefaultReduceCtrl())
	require.NoError(t, err)
	require.Equal(t, 0, out.NumReactions())
	require.Equal(t, 0, out.NumMetabolites())
	require.Equal(t, 2, stats.RxnsDel)
	require.Equal(t, 2, stats.MetsDel)
	require.Equal(t, 3, stats.IterUsed)
}

func TestReduceRemovesOrphanMetabolites(t *testing.T) {
	net := mustNetwork(t,
		[]miom.Reaction{
			{ID: "EX_m", LB: 0, UB: 10},
			{ID: "R_sink", LB: 0, UB: 10},
		},
		[]miom.Metabolite{{ID: "m"}, {ID: "orphan"}},
		[]miom.Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
		},
	)

	out, stats, err := net.Reduce(miom.ReduceCtrl{DelOrphanMets: true})
	require.NoError(t, err)
	require.Equal(t, 2, out.NumReactions())
	require.Equal(t, 1, out.NumMetabolites())
	require.Equal(t, "m", out.Metabolite(0).ID)
	require.Equal(t, 1, stats.MetsDel)
}

func TestReduceHonorsIterationLimit(t *testing.T) {
	net := mustNetwork(t,
		[]miom.Reaction{
			{ID: "R1", LB: 0, UB: 10},
			{ID: "R2", LB: 0, UB: 10},
		},
		[]miom.Metabolite{{ID: "m1"}, {ID: "m2"}},
		[]miom.Stoich{
			{Met: 0, Rxn: 0, Value: 1},
			{Met: 0, Rxn: 1, Value: -1},
			{Met: 1, Rxn: 1, Value: 1},
		},
	)

	// One pass removes R2 but never reaches the cascade onto R1.
	out, stats, err := net.Reduce(miom.ReduceCtrl{MaxIter: 1, DelDeadEnds: true})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumReactions())
	require.Equal(t, 1, stats.RxnsDel)
	require.Equal(t, 1, stats.IterUsed)
}

func TestReduceEmptyNetwork(t *testing.T) {
	net := mustNetwork(t, nil, []miom.Metabolite{{ID: "m"}}, nil)

	_, _, err := net.Reduce(miom.DefaultReduceCtrl())
	require.ErrorIs(t, err, miom.ErrBadInput)
}
