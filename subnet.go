package miom

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// ExtractionMode selects the per-reaction metric used for subnetwork
// extraction.
type ExtractionMode int8

const (
	// ByIndicator compares the solved indicator value of each reaction.
	ByIndicator ExtractionMode = iota
	// ByAbsFlux compares the absolute solved flux of each reaction.
	ByAbsFlux
)

// Comparator is the relation applied between a reaction metric and the
// extraction threshold.
type Comparator int8

const (
	// LT keeps reactions with metric < value.
	LT Comparator = iota
	// LE keeps reactions with metric <= value.
	LE
	// GT keeps reactions with metric > value.
	GT
	// GE keeps reactions with metric >= value.
	GE
	// EQ keeps reactions with metric == value.
	EQ
	// NE keeps reactions with metric != value.
	NE
)

func (c Comparator) holds(metric, value float64) bool {
	switch c {
	case LT:
		return metric < value
	case LE:
		return metric <= value
	case GT:
		return metric > value
	case GE:
		return metric >= value
	case EQ:
		return metric == value
	default:
		return metric != value
	}
}

// Subnetwork filters the network down to the reactions whose solved metric
// satisfies comparator(metric, value) and returns it as a new network, with
// unused metabolites pruned. The receiving model is left untouched; feed the
// result to New to re-enter the pipeline.
//
// It fails before a successful solve, and in ByIndicator mode when the model
// has no indicator variables.
func (m *Model) Subnetwork(mode ExtractionMode, cmp Comparator, value float64) (*Network, error) {
	if err := m.valuesReady(); err != nil {
		return nil, errors.Wrap(err, "subnetwork extraction")
	}
	if mode == ByIndicator && !m.vars.HasIndicators() {
		return nil, errors.Wrap(ErrNoIndicators, "subnetwork extraction by indicator value")
	}

	var metrics []float64
	switch mode {
	case ByIndicator:
		_, metrics, _ = m.Values()
	case ByAbsFlux:
		metrics = make([]float64, len(m.fluxes))
		for i, f := range m.fluxes {
			metrics[i] = math.Abs(f)
		}
	default:
		return nil, errors.Wrapf(ErrBadInput, "unknown extraction mode %d", mode)
	}

	keep := bitset.New(uint(m.net.NumReactions()))
	for i, metric := range metrics {
		if cmp.holds(metric, value) {
			keep.Set(uint(i))
		}
	}
	return m.net.Restrict(keep), nil
}
