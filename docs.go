/*
Package miom provides a modeling layer for flux balance analysis (FBA) over
genome-scale metabolic networks. It translates a metabolic network
(reactions, stoichiometry, flux bounds) into a linear or mixed-integer
optimization problem, delegates the solving to an external backend, and
exposes chained operations for steady-state constraints, objective selection,
subset selection via indicator variables, and subnetwork extraction.

Some of the main capabilities include:
  - loading serialized networks from local files or remote URLs
  - steady-state (mass-balance) constraint generation
  - single-reaction objectives, maximized or minimized
  - subset selection with scalar or per-reaction weights, including forced
    inclusion (Keep) and enumeration of alternative optima (Exclude)
  - symbolic linear constraints composed from flux variables
  - subnetwork extraction by indicator value or absolute flux
  - network reduction (blocked reactions, dead ends) before solving

# Chained Operations

A Model is an explicit mutable builder: every staging operation returns the
model so calls compose, the first error is latched, and Err (or any value
accessor) reports it. A complete FBA run:

	net, err := miom.LoadNetwork("mus_musculus_iMM1865.miom")
	if err != nil {
		...
	}
	m := miom.New(net, miom.WithSolver("highs")).
		SteadyState().
		SetReactionObjective("BIOMASS_reaction", miom.Maximize).
		Solve()
	flux, err := m.Fluxes("BIOMASS_reaction")

# Subset Selection

SubsetSelection turns the problem into a MIP by attaching binary indicator
variables to reactions. A positive weight rewards selecting the reaction as
active, meaning its flux magnitude reaches at least the epsilon threshold; a
negative weight rewards proving the reaction inactive. The objective becomes
the weighted count of set indicators. After solving, Subnetwork filters the
network by indicator value or absolute flux:

	sub, err := miom.New(net, miom.WithSolver("highs")).
		SteadyState().
		SubsetSelection(-1).
		Solve().
		Subnetwork(miom.ByIndicator, miom.LE, 0.5)

The reduced network re-enters the pipeline through New.

# Solver Backends

The numeric work is done by an external engine behind the solver.Backend
interface. Backends register by name and are selected with WithSolver;
importing a backend package wires it in:

	import _ "github.com/LouisonF/miom/solver/highs"

The HiGHS backend covers LP and MIP problems and is the default. A Cplex
backend built on the gpx package is available behind the "cplex" build tag
for installations where the Cplex callable library is present. Researchers
can plug in experimental engines by implementing solver.Backend and
registering it.

# Concurrency

Models are single-threaded: Solve blocks until the backend returns, and no
internal locking exists. Concurrent solving requires one model per goroutine;
Copy produces an independent model over the shared network.
*/
package miom
