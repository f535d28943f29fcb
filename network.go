package miom

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Reaction is one column of the stoichiometric matrix: a named flux with a
// lower and upper bound. A negative lower bound marks the reaction as
// reversible.
type Reaction struct {
	ID string
	LB float64
	UB float64
}

// Reversible reports whether the reaction can carry flux in the reverse
// direction.
func (r *Reaction) Reversible() bool { return r.LB < 0 }

// Blocked reports whether the bounds pin the flux to zero.
func (r *Reaction) Blocked() bool { return r.LB == 0 && r.UB == 0 }

// Metabolite is one row of the stoichiometric matrix.
type Metabolite struct {
	ID string
}

// Stoich is one non-zero entry of the stoichiometric matrix: the coefficient
// of reaction Rxn in the mass balance of metabolite Met. Negative values
// consume the metabolite, positive values produce it.
type Stoich struct {
	Met   int
	Rxn   int
	Value float64
}

// Network is the in-memory representation of a metabolic model: an ordered
// list of reactions, an ordered list of metabolites, and the sparse
// stoichiometric matrix connecting them.
//
// Reaction and metabolite counts are fixed at construction. The only
// supported mutation is changing flux bounds, either through SetBounds or
// through the pointer returned by FindReaction.
type Network struct {
	reactions   []Reaction
	metabolites []Metabolite
	stoich      []Stoich
	rxnIndex    map[string]int
}

// NewNetwork builds a network from reaction and metabolite lists plus the
// non-zero stoichiometric entries. It fails on duplicate ids, out-of-range
// entry indices, or reversed bounds.
func NewNetwork(reactions []Reaction, metabolites []Metabolite, stoich []Stoich) (*Network, error) {
	n := &Network{
		reactions:   make([]Reaction, len(reactions)),
		metabolites: make([]Metabolite, len(metabolites)),
		stoich:      make([]Stoich, len(stoich)),
		rxnIndex:    make(map[string]int, len(reactions)),
	}
	copy(n.reactions, reactions)
	copy(n.metabolites, metabolites)
	copy(n.stoich, stoich)

	for i := range n.reactions {
		r := &n.reactions[i]
		if r.ID == "" {
			return nil, errors.Wrapf(ErrBadInput, "reaction %d has empty id", i)
		}
		if _, dup := n.rxnIndex[r.ID]; dup {
			return nil, errors.Wrapf(ErrBadInput, "duplicate reaction id %s", r.ID)
		}
		if r.LB > r.UB {
			return nil, errors.Wrapf(ErrBadInput, "reaction %s has reversed bounds [%g, %g]", r.ID, r.LB, r.UB)
		}
		n.rxnIndex[r.ID] = i
	}

	seenMet := make(map[string]bool, len(n.metabolites))
	for i := range n.metabolites {
		id := n.metabolites[i].ID
		if id == "" {
			return nil, errors.Wrapf(ErrBadInput, "metabolite %d has empty id", i)
		}
		if seenMet[id] {
			return nil, errors.Wrapf(ErrBadInput, "duplicate metabolite id %s", id)
		}
		seenMet[id] = true
	}

	for _, s := range n.stoich {
		if s.Met < 0 || s.Met >= len(n.metabolites) {
			return nil, errors.Wrapf(ErrBadInput, "stoichiometric entry references metabolite %d of %d", s.Met, len(n.metabolites))
		}
		if s.Rxn < 0 || s.Rxn >= len(n.reactions) {
			return nil, errors.Wrapf(ErrBadInput, "stoichiometric entry references reaction %d of %d", s.Rxn, len(n.reactions))
		}
	}

	return n, nil
}

// NumReactions returns the number of reactions in the network.
func (n *Network) NumReactions() int { return len(n.reactions) }

// NumMetabolites returns the number of metabolites in the network.
func (n *Network) NumMetabolites() int { return len(n.metabolites) }

// Reaction returns a copy of the reaction at index i.
func (n *Network) Reaction(i int) Reaction { return n.reactions[i] }

// Metabolite returns a copy of the metabolite at index i.
func (n *Network) Metabolite(i int) Metabolite { return n.metabolites[i] }

// ReactionIndex returns the position of the reaction with the given id.
func (n *Network) ReactionIndex(id string) (int, error) {
	i, ok := n.rxnIndex[id]
	if !ok {
		return -1, errors.Wrapf(ErrNotFound, "reaction %s", id)
	}
	return i, nil
}

// FindReaction returns the index of the reaction with the given id together
// with a pointer to it, so callers can mutate its bounds in place. Any model
// built on this network picks the new bounds up on its next solve.
func (n *Network) FindReaction(id string) (int, *Reaction, error) {
	i, err := n.ReactionIndex(id)
	if err != nil {
		return -1, nil, err
	}
	return i, &n.reactions[i], nil
}

// ReactionIDs returns the reaction ids in network order.
func (n *Network) ReactionIDs() []string {
	ids := make([]string, len(n.reactions))
	for i := range n.reactions {
		ids[i] = n.reactions[i].ID
	}
	return ids
}

// SetBounds replaces the flux bounds of one reaction.
func (n *Network) SetBounds(id string, lo, hi float64) error {
	if lo > hi {
		return errors.Wrapf(ErrBadInput, "reversed bounds [%g, %g] for reaction %s", lo, hi, id)
	}
	i, err := n.ReactionIndex(id)
	if err != nil {
		return err
	}
	n.reactions[i].LB = lo
	n.reactions[i].UB = hi
	return nil
}

// Stoichiometry returns a copy of the non-zero stoichiometric entries.
func (n *Network) Stoichiometry() []Stoich {
	out := make([]Stoich, len(n.stoich))
	copy(out, n.stoich)
	return out
}

// Restrict returns a new network containing only the reactions whose bit is
// set in keep. Metabolites left without any stoichiometric entry are pruned,
// and all indices are renumbered. A nil keep set keeps nothing.
func (n *Network) Restrict(keep *bitset.BitSet) *Network {
	if keep == nil {
		keep = bitset.New(0)
	}
	rxnMap := make([]int, len(n.reactions))
	var reactions []Reaction
	for i := range n.reactions {
		if keep.Test(uint(i)) {
			rxnMap[i] = len(reactions)
			reactions = append(reactions, n.reactions[i])
		} else {
			rxnMap[i] = -1
		}
	}

	metUsed := bitset.New(uint(len(n.metabolites)))
	for _, s := range n.stoich {
		if rxnMap[s.Rxn] >= 0 && s.Value != 0 {
			metUsed.Set(uint(s.Met))
		}
	}

	metMap := make([]int, len(n.metabolites))
	var metabolites []Metabolite
	for i := range n.metabolites {
		if metUsed.Test(uint(i)) {
			metMap[i] = len(metabolites)
			metabolites = append(metabolites, n.metabolites[i])
		} else {
			metMap[i] = -1
		}
	}

	var stoich []Stoich
	for _, s := range n.stoich {
		if rxnMap[s.Rxn] >= 0 && s.Value != 0 {
			stoich = append(stoich, Stoich{Met: metMap[s.Met], Rxn: rxnMap[s.Rxn], Value: s.Value})
		}
	}

	sub := &Network{
		reactions:   reactions,
		metabolites: metabolites,
		stoich:      stoich,
		rxnIndex:    make(map[string]int, len(reactions)),
	}
	for i := range sub.reactions {
		sub.rxnIndex[sub.reactions[i].ID] = i
	}
	return sub
}
