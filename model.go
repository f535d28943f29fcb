package miom

import (
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/LouisonF/miom/logger"
	"github.com/LouisonF/miom/solver"
)

// Direction selects the sense of a linear objective.
type Direction int8

const (
	// Maximize the objective.
	Maximize Direction = iota
	// Minimize the objective.
	Minimize
)

// String returns the direction as "max" or "min".
func (d Direction) String() string {
	if d == Minimize {
		return "min"
	}
	return "max"
}

// Status is the outcome record of the last solve. Its zero value means no
// solve has happened (or the last one was invalidated by a mutation).
type Status struct {
	State     solver.Status
	Objective float64
	Elapsed   time.Duration
}

// Solved reports whether variable values are available.
func (s Status) Solved() bool { return s.State.HasSolution() }

const (
	// DefaultEps is the minimum flux magnitude that counts a reaction as
	// active in subset selection.
	DefaultEps = 1e-2
	// DefaultBigBound replaces infinite flux bounds inside indicator rows,
	// where a finite big-M constant is required.
	DefaultBigBound = 1e4
)

type objectiveKind int8

const (
	objNone objectiveKind = iota
	objReaction
	objSubset
)

// Model assembles an optimization problem over a metabolic network and
// delegates solving to an external backend. Operations chain and return the
// model; the first error encountered is latched and reported by Err, and
// every later operation on the model becomes a no-op until the error is
// inspected. A typical flow:
//
//	m := miom.New(net, miom.WithSolver("highs")).
//		SteadyState().
//		SetReactionObjective("BIOMASS_reaction", miom.Maximize).
//		Solve()
//	flux, err := m.Fluxes("BIOMASS_reaction")
//
// Models are not safe for concurrent use. Concurrent solving requires one
// model per goroutine; Copy produces an independent model over the shared
// network.
type Model struct {
	net     *Network
	backend solver.Backend
	vars    *VariableSet
	cons    []*Constraint

	steady  bool
	objKind objectiveKind
	objRxn  int
	objDir  Direction

	weights []float64 // per-reaction subset weights, nil when not staged
	card    int       // forced number of active reactions, -1 when unused
	kept    map[int]bool
	cuts    []*bitset.BitSet

	eps  float64
	bigM float64

	status  Status
	fluxes  []float64
	indVals []float64

	err error
}

// Option configures a model at construction time.
type Option func(*Model) error

// WithBackend selects an explicit solver backend instance.
func WithBackend(b solver.Backend) Option {
	return func(m *Model) error {
		if b == nil {
			return errors.Wrap(ErrBadInput, "nil backend")
		}
		m.backend = b
		return nil
	}
}

// WithSolver selects a registered backend by name. The backend package must
// be imported for its registration side effect.
func WithSolver(name string) Option {
	return func(m *Model) error {
		b, err := solver.Get(name)
		if err != nil {
			return err
		}
		m.backend = b
		return nil
	}
}

// WithEpsilon sets the activity threshold used by subset selection.
func WithEpsilon(eps float64) Option {
	return func(m *Model) error {
		if eps <= 0 {
			return errors.Wrapf(ErrBadInput, "epsilon %g must be positive", eps)
		}
		m.eps = eps
		return nil
	}
}

// WithBigBound sets the finite constant that stands in for infinite flux
// bounds inside indicator rows.
func WithBigBound(bound float64) Option {
	return func(m *Model) error {
		if bound <= 0 {
			return errors.Wrapf(ErrBadInput, "big bound %g must be positive", bound)
		}
		m.bigM = bound
		return nil
	}
}

// New creates a model over the network. When no backend option is given, the
// backend registered under "highs" is used if available.
func New(net *Network, opts ...Option) *Model {
	m := &Model{
		net:  net,
		card: -1,
		kept: make(map[int]bool),
		eps:  DefaultEps,
		bigM: DefaultBigBound,
	}
	if net == nil {
		m.err = errors.Wrap(ErrBadInput, "nil network")
		return m
	}
	m.vars = newVariableSet(net)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.err = err
			return m
		}
	}
	if m.backend == nil {
		b, err := solver.Get("highs")
		if err != nil {
			m.err = errors.Wrap(err, "no solver backend selected")
			return m
		}
		m.backend = b
	}
	return m
}

// Err returns the first error latched by a chained operation, or nil.
func (m *Model) Err() error { return m.err }

// Network returns the network the model was built on.
func (m *Model) Network() *Network { return m.net }

// Variables returns the model's variable set.
func (m *Model) Variables() *VariableSet { return m.vars }

// Status returns the outcome record of the last solve.
func (m *Model) Status() Status { return m.status }

func (m *Model) fail(err error) *Model {
	if m.err == nil {
		m.err = err
	}
	return m
}

// invalidate discards any previous solution. Called by every mutation so
// stale values can never be read back.
func (m *Model) invalidate() {
	m.status = Status{}
	m.fluxes = nil
	m.indVals = nil
	m.vars.clearSolution()
}

// SteadyState stages one mass-balance equality row per metabolite,
// constraining the net production of every metabolite to zero.
func (m *Model) SteadyState() *Model {
	if m.err != nil {
		return m
	}
	m.invalidate()
	m.steady = true
	return m
}

// SetReactionObjective stages a single-reaction linear objective.
func (m *Model) SetReactionObjective(id string, dir Direction) *Model {
	if m.err != nil {
		return m
	}
	i, err := m.net.ReactionIndex(id)
	if err != nil {
		return m.fail(err)
	}
	m.invalidate()
	m.objKind = objReaction
	m.objRxn = i
	m.objDir = dir
	return m
}

// SubsetSelection stages subset selection with the scalar weight applied to
// every reaction. A positive weight rewards selecting the reaction as active
// (|flux| >= eps); a negative weight rewards proving it inactive (flux = 0).
// The objective becomes: maximize the weighted count of set indicators,
// replacing any staged reaction objective.
func (m *Model) SubsetSelection(weight float64) *Model {
	if m.err != nil {
		return m
	}
	w := make([]float64, m.net.NumReactions())
	for i := range w {
		w[i] = weight
	}
	return m.subsetSelect(w, -1)
}

// SubsetSelectionWeights stages subset selection with one weight per
// reaction, in network order.
func (m *Model) SubsetSelectionWeights(weights []float64) *Model {
	if m.err != nil {
		return m
	}
	if len(weights) != m.net.NumReactions() {
		return m.fail(errors.Wrapf(ErrBadInput, "got %d weights for %d reactions", len(weights), m.net.NumReactions()))
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return m.subsetSelect(w, -1)
}

// SubsetSelectionCount stages subset selection with unit weights plus a row
// forcing exactly k reactions active.
func (m *Model) SubsetSelectionCount(k int) *Model {
	if m.err != nil {
		return m
	}
	if k < 0 || k > m.net.NumReactions() {
		return m.fail(errors.Wrapf(ErrBadInput, "cannot force %d of %d reactions active", k, m.net.NumReactions()))
	}
	w := make([]float64, m.net.NumReactions())
	for i := range w {
		w[i] = 1
	}
	return m.subsetSelect(w, k)
}

func (m *Model) subsetSelect(weights []float64, card int) *Model {
	m.invalidate()
	m.objKind = objSubset
	m.weights = weights
	m.card = card
	m.cuts = nil
	m.kept = make(map[int]bool)
	m.vars.materializeIndicators(m.net, weights)
	return m
}

// AddConstraint stages a symbolic linear constraint over flux variables.
func (m *Model) AddConstraint(c *Constraint) *Model {
	if m.err != nil {
		return m
	}
	if c == nil {
		return m.fail(errors.Wrap(ErrBadInput, "nil constraint"))
	}
	if err := c.validate(m.net); err != nil {
		return m.fail(err)
	}
	m.invalidate()
	m.cons = append(m.cons, c)
	return m
}

// SetFluxBounds overrides the flux bounds of one reaction for this model
// only; the shared network is left untouched, so copies diverge safely.
// Any previous solution is invalidated.
func (m *Model) SetFluxBounds(id string, lo, hi float64) *Model {
	if m.err != nil {
		return m
	}
	if lo > hi {
		return m.fail(errors.Wrapf(ErrBadInput, "reversed bounds [%g, %g] for reaction %s", lo, hi, id))
	}
	i, err := m.net.ReactionIndex(id)
	if err != nil {
		return m.fail(err)
	}
	m.invalidate()
	v := m.vars.flux[i]
	v.override = true
	v.lb, v.ub = lo, hi
	return m
}

// FixFluxes pins each named reaction's bounds to its flux in the last
// solution, so later solves must reproduce those fluxes exactly. It fails
// when called before a successful solve.
func (m *Model) FixFluxes(ids ...string) *Model {
	if m.err != nil {
		return m
	}
	if m.fluxes == nil {
		return m.fail(errors.Wrap(ErrNotSolved, "cannot fix fluxes"))
	}
	fixed := make([]float64, len(ids))
	for k, id := range ids {
		i, err := m.net.ReactionIndex(id)
		if err != nil {
			return m.fail(err)
		}
		fixed[k] = m.fluxes[i]
	}
	m.invalidate()
	for k, id := range ids {
		i, _ := m.net.ReactionIndex(id)
		v := m.vars.flux[i]
		v.override = true
		v.lb, v.ub = fixed[k], fixed[k]
	}
	return m
}

// Keep pins the named reactions active regardless of objective pressure.
// A penalized (negative-weight) reaction is re-staged with the positive
// weight of the same magnitude so that activity indicators exist for it.
// Re-staging rebuilds the indicator layout, so any exclusion cuts
// accumulated by Exclude are discarded with it; add cuts after the final
// Keep. Keep requires staged subset selection.
func (m *Model) Keep(ids ...string) *Model {
	if m.err != nil {
		return m
	}
	if m.objKind != objSubset {
		return m.fail(errors.Wrap(ErrNoIndicators, "Keep requires subset selection"))
	}
	m.invalidate()
	changed := false
	for _, id := range ids {
		i, err := m.net.ReactionIndex(id)
		if err != nil {
			return m.fail(err)
		}
		if m.weights[i] <= 0 {
			if m.weights[i] == 0 {
				m.weights[i] = 1
			} else {
				m.weights[i] = -m.weights[i]
			}
			changed = true
		}
		m.kept[i] = true
	}
	if changed {
		// Indicator columns are renumbered, so cut patterns recorded
		// against the old layout no longer mean what they said.
		m.vars.materializeIndicators(m.net, m.weights)
		m.cuts = nil
	}
	return m
}

// Exclude adds a cut forbidding the indicator pattern of the last solution,
// so the next solve must find a different subset. It fails before a solved
// subset selection.
func (m *Model) Exclude() *Model {
	if m.err != nil {
		return m
	}
	if !m.vars.HasIndicators() {
		return m.fail(errors.Wrap(ErrNoIndicators, "Exclude requires subset selection"))
	}
	if m.indVals == nil {
		return m.fail(errors.Wrap(ErrNotSolved, "Exclude requires a solved model"))
	}
	pattern := bitset.New(uint(len(m.indVals)))
	for j, v := range m.indVals {
		if v > 0.5 {
			pattern.Set(uint(j))
		}
	}
	m.invalidate()
	m.cuts = append(m.cuts, pattern)
	return m
}

// SolveOption configures a single solve call.
type SolveOption func(*solver.Options)

// WithVerbosity controls solver output: 0 silent, 1 summary, 2+ full engine log.
func WithVerbosity(v int) SolveOption {
	return func(o *solver.Options) { o.Verbosity = v }
}

// WithTimeLimit bounds the solve wall time in seconds.
func WithTimeLimit(seconds float64) SolveOption {
	return func(o *solver.Options) { o.TimeLimit = seconds }
}

// WithRelGap sets the relative MIP optimality gap tolerance.
func WithRelGap(gap float64) SolveOption {
	return func(o *solver.Options) { o.MIPGap = gap }
}

// Solve lowers the staged state into a solver problem, delegates to the
// backend, and records the outcome. It blocks until the backend returns.
// A failed or infeasible solve leaves the model usable: bounds and staged
// operations can be adjusted and Solve called again.
func (m *Model) Solve(opts ...SolveOption) *Model {
	if m.err != nil {
		return m
	}
	var o solver.Options
	for _, opt := range opts {
		opt(&o)
	}

	prob, err := m.lower()
	if err != nil {
		return m.fail(err)
	}

	log := logger.Logger()
	log.Debug().
		Str("backend", m.backend.Name()).
		Int("cols", prob.NumCols()).
		Int("rows", prob.NumRows()).
		Bool("mip", prob.IsMIP()).
		Msg("solving")

	start := time.Now()
	res, err := m.backend.Solve(prob, o)
	if err != nil {
		return m.fail(errors.Wrapf(err, "backend %s failed", m.backend.Name()))
	}
	m.status = Status{State: res.Status, Objective: res.Objective, Elapsed: time.Since(start)}

	n := m.net.NumReactions()
	if res.Status.HasSolution() {
		if len(res.Columns) != prob.NumCols() {
			return m.fail(errors.Errorf("backend %s returned %d column values for %d columns",
				m.backend.Name(), len(res.Columns), prob.NumCols()))
		}
		m.fluxes = make([]float64, n)
		copy(m.fluxes, res.Columns[:n])
		m.indVals = make([]float64, len(res.Columns)-n)
		copy(m.indVals, res.Columns[n:])
		m.vars.setSolution(m.indVals)
	}

	log.Info().
		Str("backend", m.backend.Name()).
		Stringer("status", res.Status).
		Float64("objective", res.Objective).
		Dur("elapsed", m.status.Elapsed).
		Msg("solve finished")
	return m
}

// valuesReady reports the error to surface when solved values are requested.
func (m *Model) valuesReady() error {
	if m.err != nil {
		return m.err
	}
	switch m.status.State {
	case solver.StatusNotSolved:
		return ErrNotSolved
	case solver.StatusInfeasible:
		return ErrInfeasible
	case solver.StatusUnbounded:
		return ErrUnbounded
	case solver.StatusError:
		return errors.Wrap(ErrNotSolved, "last solve failed")
	}
	if m.fluxes == nil {
		return ErrNotSolved
	}
	return nil
}

// Fluxes returns the solved flux of one reaction.
func (m *Model) Fluxes(id string) (float64, error) {
	if err := m.valuesReady(); err != nil {
		return math.NaN(), err
	}
	i, err := m.net.ReactionIndex(id)
	if err != nil {
		return math.NaN(), err
	}
	return m.fluxes[i], nil
}

// Values returns the full flux vector and the per-reaction indicator vector
// of the last solution. The indicator vector is nil when the model has no
// indicator variables.
func (m *Model) Values() (fluxes, indicators []float64, err error) {
	if err := m.valuesReady(); err != nil {
		return nil, nil, err
	}
	fluxes = make([]float64, len(m.fluxes))
	copy(fluxes, m.fluxes)
	if !m.vars.HasIndicators() {
		return fluxes, nil, nil
	}
	indicators = make([]float64, m.net.NumReactions())
	for rxn := range indicators {
		for _, x := range m.vars.indicatorsFor(rxn) {
			indicators[rxn] += m.indVals[x.index]
		}
	}
	return fluxes, indicators, nil
}

// Copy returns an independent model sharing the underlying network. Variable
// and constraint objects are deep-copied, so mutating the copy never affects
// the original.
func (m *Model) Copy() *Model {
	c := &Model{
		net:     m.net,
		backend: m.backend,
		vars:    m.vars.copy(),
		steady:  m.steady,
		objKind: m.objKind,
		objRxn:  m.objRxn,
		objDir:  m.objDir,
		card:    m.card,
		eps:     m.eps,
		bigM:    m.bigM,
		status:  m.status,
		err:     m.err,
	}
	if m.cons != nil {
		c.cons = make([]*Constraint, len(m.cons))
		for i, con := range m.cons {
			c.cons[i] = con.clone()
		}
	}
	if m.weights != nil {
		c.weights = make([]float64, len(m.weights))
		copy(c.weights, m.weights)
	}
	c.kept = make(map[int]bool, len(m.kept))
	for i := range m.kept {
		c.kept[i] = true
	}
	if m.cuts != nil {
		c.cuts = make([]*bitset.BitSet, len(m.cuts))
		for i, cut := range m.cuts {
			c.cuts[i] = cut.Clone()
		}
	}
	if m.fluxes != nil {
		c.fluxes = make([]float64, len(m.fluxes))
		copy(c.fluxes, m.fluxes)
	}
	if m.indVals != nil {
		c.indVals = make([]float64, len(m.indVals))
		copy(c.indVals, m.indVals)
	}
	return c
}
