package miom_test

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/LouisonF/miom"
)

// NetworkSuite exercises network construction, lookup, and restriction.
type NetworkSuite struct {
	suite.Suite
}

// TestRejectsDuplicateReactionID verifies that two reactions may not share an id.
func (s *NetworkSuite) TestRejectsDuplicateReactionID() {
	_, err := miom.NewNetwork(
		[]miom.Reaction{{ID: "R1", UB: 1}, {ID: "R1", UB: 1}},
		[]miom.Metabolite{{ID: "m"}},
		nil,
	)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)
	require.Contains(s.T(), err.Error(), "duplicate reaction id R1")
}

// TestRejectsEmptyIDs verifies that reactions and metabolites need ids.
func (s *NetworkSuite) TestRejectsEmptyIDs() {
	_, err := miom.NewNetwork([]miom.Reaction{{UB: 1}}, nil, nil)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)

	_, err = miom.NewNetwork(
		[]miom.Reaction{{ID: "R1", UB: 1}},
		[]miom.Metabolite{{}},
		nil,
	)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)
}

// TestRejectsReversedBounds verifies that a lower bound above the upper bound fails.
func (s *NetworkSuite) TestRejectsReversedBounds() {
	_, err := miom.NewNetwork(
		[]miom.Reaction{{ID: "R1", LB: 5, UB: 1}},
		nil, nil,
	)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)
}

// TestRejectsOutOfRangeStoich verifies index validation of stoichiometric entries.
func (s *NetworkSuite) TestRejectsOutOfRangeStoich() {
	_, err := miom.NewNetwork(
		[]miom.Reaction{{ID: "R1", UB: 1}},
		[]miom.Metabolite{{ID: "m"}},
		[]miom.Stoich{{Met: 3, Rxn: 0, Value: 1}},
	)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)

	_, err = miom.NewNetwork(
		[]miom.Reaction{{ID: "R1", UB: 1}},
		[]miom.Metabolite{{ID: "m"}},
		[]miom.Stoich{{Met: 0, Rxn: -1, Value: 1}},
	)
	require.ErrorIs(s.T(), err, miom.ErrBadInput)
}

// TestLookup verifies id-based lookup and the ErrNotFound sentinel.
func (s *NetworkSuite) TestLookup() {
	net := toyNetwork(s.T())

	i, err := net.ReactionIndex("EX_b")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 4, i)
	require.Equal(s.T(), "EX_b", net.Reaction(i).ID)

	_, err = net.ReactionIndex("missing")
	require.ErrorIs(s.T(), err, miom.ErrNotFound)

	_, _, err = net.FindReaction("missing")
	require.ErrorIs(s.T(), err, miom.ErrNotFound)
}

// TestFindReactionMutatesInPlace verifies that the returned pointer writes
// through to the network.
func (s *NetworkSuite) TestFindReactionMutatesInPlace() {
	net := toyNetwork(s.T())

	i, r, err := net.FindReaction("EX_b")
	require.NoError(s.T(), err)
	r.UB = 3

	require.Equal(s.T(), 3.0, net.Reaction(i).UB)
}

// TestSetBounds verifies bound replacement and its validation.
func (s *NetworkSuite) TestSetBounds() {
	net := toyNetwork(s.T())

	require.NoError(s.T(), net.SetBounds("R_ac", -2, 2))
	i, _ := net.ReactionIndex("R_ac")
	r := net.Reaction(i)
	require.Equal(s.T(), -2.0, r.LB)
	require.True(s.T(), r.Reversible())

	require.ErrorIs(s.T(), net.SetBounds("R_ac", 2, -2), miom.ErrBadInput)
	require.ErrorIs(s.T(), net.SetBounds("missing", 0, 1), miom.ErrNotFound)
}

// TestReactionIDs verifies network-order id listing.
func (s *NetworkSuite) TestReactionIDs() {
	net := toyNetwork(s.T())
	require.Equal(s.T(),
		[]string{"EX_a", "R_ab1", "R_ab2", "R_ac", "EX_b", "EX_c"},
		net.ReactionIDs())
}

// TestRestrict verifies reaction filtering, metabolite pruning, and renumbering.
func (s *NetworkSuite) TestRestrict() {
	net := toyNetwork(s.T())

	// Keep only the a -> c pathway: EX_a, R_ac, EX_c.
	keep := bitset.New(6)
	keep.Set(0)
	keep.Set(3)
	keep.Set(5)

	sub := net.Restrict(keep)
	require.Equal(s.T(), 3, sub.NumReactions())
	require.Equal(s.T(), []string{"EX_a", "R_ac", "EX_c"}, sub.ReactionIDs())

	// Metabolite b is no longer touched by any kept reaction.
	require.Equal(s.T(), 2, sub.NumMetabolites())
	require.Equal(s.T(), "a", sub.Metabolite(0).ID)
	require.Equal(s.T(), "c", sub.Metabolite(1).ID)

	// Indices are renumbered consistently.
	i, err := sub.ReactionIndex("R_ac")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, i)
	for _, st := range sub.Stoichiometry() {
		require.Less(s.T(), st.Rxn, 3)
		require.Less(s.T(), st.Met, 2)
	}

	// The source network is untouched.
	require.Equal(s.T(), 6, net.NumReactions())
	require.Equal(s.T(), 3, net.NumMetabolites())
}

// TestRestrictNilKeep verifies that a nil keep set yields an empty network.
func (s *NetworkSuite) TestRestrictNilKeep() {
	net := toyNetwork(s.T())

	sub := net.Restrict(nil)
	require.Equal(s.T(), 0, sub.NumReactions())
	require.Equal(s.T(), 0, sub.NumMetabolites())
}

func TestNetworkSuite(t *testing.T) {
	suite.Run(t, new(NetworkSuite))
}
