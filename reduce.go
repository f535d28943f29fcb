package miom

// Reduction shrinks a network before optimization by deleting reactions and
// metabolites that can never carry or balance flux at steady state. The
// reductions are iterated because each pass can expose new candidates: a
// removed dead-end reaction may turn another metabolite into a dead end.
//
// The operations supported at this time:
//
//   - blocked reactions      (lower bound equals upper bound equals zero)
//   - dead-end metabolites   (metabolite touched by exactly one reaction,
//     which forces that reaction to zero flux)
//   - orphan metabolites     (metabolite with no stoichiometric entries)
//
// Callers control which operations run, and how many passes are performed,
// through the ReduceCtrl flags.

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/LouisonF/miom/logger"
)

// ReduceCtrl specifies which reduction operations should be invoked and how
// many iterations may be performed. It is passed as an argument to Reduce.
type ReduceCtrl struct {
	MaxIter       int  // maximum reduction passes, 0 falls back to the default
	DelBlocked    bool // controls if blocked reactions are removed
	DelDeadEnds   bool // controls if dead-end metabolites and their reactions are removed
	DelOrphanMets bool // controls if metabolites without entries are removed
}

// DefaultReduceCtrl enables every reduction with a pass limit sufficient for
// genome-scale networks.
func DefaultReduceCtrl() ReduceCtrl {
	return ReduceCtrl{MaxIter: 20, DelBlocked: true, DelDeadEnds: true, DelOrphanMets: true}
}

// ReduceStats reports what a Reduce call removed.
type ReduceStats struct {
	RxnsDel  int // reactions removed
	MetsDel  int // metabolites removed
	IterUsed int // passes performed before reaching a fixed point
}

// Reduce returns a reduced copy of the network together with removal
// statistics. The receiver is never modified.
func (n *Network) Reduce(ctrl ReduceCtrl) (*Network, ReduceStats, error) {
	var stats ReduceStats

	if ctrl.MaxIter <= 0 {
		ctrl.MaxIter = DefaultReduceCtrl().MaxIter
	}
	if n.NumReactions() == 0 {
		return nil, stats, errors.Wrap(ErrBadInput, "cannot reduce empty network")
	}

	log := logger.Logger()
	cur := n

	for i := 1; i <= ctrl.MaxIter; i++ {
		itemsInPass := 0

		log.Debug().
			Int("iteration", i).
			Int("reactions", cur.NumReactions()).
			Int("metabolites", cur.NumMetabolites()).
			Msg("reduction pass")

		if ctrl.DelBlocked {
			next, removed := delBlockedRxns(cur)
			cur = next
			itemsInPass += removed
			stats.RxnsDel += removed
		}

		if ctrl.DelDeadEnds {
			next, rxnsDel, metsDel := delDeadEnds(cur)
			cur = next
			itemsInPass += rxnsDel + metsDel
			stats.RxnsDel += rxnsDel
			stats.MetsDel += metsDel
		}

		// Orphan metabolites cost nothing to keep but distort matrix
		// statistics; Restrict prunes them as a side effect of any
		// reaction removal, so an explicit pass only matters when the
		// input network already carries them.
		if ctrl.DelOrphanMets {
			next, removed := delOrphanMets(cur)
			cur = next
			itemsInPass += removed
			stats.MetsDel += removed
		}

		stats.IterUsed = i
		if itemsInPass == 0 {
			log.Debug().
				Int("iterations", i).
				Int("reactions_removed", stats.RxnsDel).
				Int("metabolites_removed", stats.MetsDel).
				Msg("reduction done")
			break
		}
	}

	return cur, stats, nil
}

// delBlockedRxns removes reactions whose bounds pin the flux to zero.
func delBlockedRxns(n *Network) (*Network, int) {
	keep := bitset.New(uint(n.NumReactions()))
	removed := 0
	for i := 0; i < n.NumReactions(); i++ {
		r := n.Reaction(i)
		if r.Blocked() {
			removed++
			continue
		}
		keep.Set(uint(i))
	}
	if removed == 0 {
		return n, 0
	}
	return n.Restrict(keep), removed
}

// delDeadEnds removes metabolites produced or consumed by exactly one
// reaction. At steady state such a reaction can carry no flux, so it is
// removed along with the metabolite.
func delDeadEnds(n *Network) (*Network, int, int) {
	touch := make([]int, n.NumMetabolites())
	last := make([]int, n.NumMetabolites())
	for _, s := range n.stoich {
		if s.Value != 0 {
			touch[s.Met]++
			last[s.Met] = s.Rxn
		}
	}

	keep := bitset.New(uint(n.NumReactions()))
	for i := 0; i < n.NumReactions(); i++ {
		keep.Set(uint(i))
	}
	rxnsDel := 0
	for met, count := range touch {
		if count == 1 && keep.Test(uint(last[met])) {
			keep.Clear(uint(last[met]))
			rxnsDel++
		}
	}
	if rxnsDel == 0 {
		return n, 0, 0
	}
	before := n.NumMetabolites()
	next := n.Restrict(keep)
	return next, rxnsDel, before - next.NumMetabolites()
}

// delOrphanMets removes metabolites that no reaction touches.
func delOrphanMets(n *Network) (*Network, int) {
	used := bitset.New(uint(n.NumMetabolites()))
	for _, s := range n.stoich {
		if s.Value != 0 {
			used.Set(uint(s.Met))
		}
	}
	orphans := n.NumMetabolites() - int(used.Count())
	if orphans == 0 {
		return n, 0
	}
	// Restrict keeps every reaction and prunes unused metabolites.
	keep := bitset.New(uint(n.NumReactions()))
	for i := 0; i < n.NumReactions(); i++ {
		keep.Set(uint(i))
	}
	return n.Restrict(keep), orphans
}
