// Package highs provides the HiGHS solver backend. Importing the package
// registers it under the name "highs":
//
//	import _ "github.com/LouisonF/miom/solver/highs"
//
// HiGHS handles both the pure LP problems produced by plain flux balance
// analysis and the mixed-integer problems produced by subset selection.
package highs

import (
	"github.com/pkg/errors"

	gohighs "github.com/bartolsthoorn/gohighs/highs"

	"github.com/LouisonF/miom/solver"
)

func init() {
	solver.Register(Backend{})
}

// Backend solves problems with the HiGHS engine.
type Backend struct{}

// Name returns "highs".
func (Backend) Name() string { return "highs" }

// Solve translates the problem into a HiGHS model, runs the engine, and maps
// the outcome back.
func (Backend) Solve(p *solver.Problem, opts solver.Options) (*solver.Result, error) {
	model := gohighs.Model{
		Maximize: p.Maximize,
		ColCosts: p.Obj,
		ColLower: p.ColLower,
		ColUpper: p.ColUpper,
		RowLower: p.RowLower,
		RowUpper: p.RowUpper,
	}
	model.ConstMatrix = make([]gohighs.Nonzero, len(p.A))
	for i, nz := range p.A {
		model.ConstMatrix[i] = gohighs.Nonzero{Row: nz.Row, Col: nz.Col, Val: nz.Val}
	}
	if p.IsMIP() {
		model.VarTypes = make([]gohighs.VariableType, len(p.ColTypes))
		for i, t := range p.ColTypes {
			// Binary columns are integer columns with [0, 1] bounds,
			// which the lowering already set.
			if t == solver.Continuous {
				model.VarTypes[i] = gohighs.Continuous
			} else {
				model.VarTypes[i] = gohighs.Integer
			}
		}
	}

	solveOpts := []gohighs.SolveOption{gohighs.WithOutput(opts.Verbosity >= 2)}
	if opts.TimeLimit > 0 {
		solveOpts = append(solveOpts, gohighs.WithTimeLimit(opts.TimeLimit))
	}
	if opts.MIPGap > 0 {
		solveOpts = append(solveOpts, gohighs.WithMIPRelGap(opts.MIPGap))
	}

	sol, err := model.Solve(solveOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "highs solve failed")
	}

	res := &solver.Result{
		Status:    statusFrom(sol),
		Objective: sol.Objective,
	}
	if res.Status.HasSolution() {
		res.Columns = sol.ColValues
	}
	return res, nil
}

func statusFrom(sol *gohighs.Solution) solver.Status {
	switch sol.Status {
	case gohighs.ModelStatusOptimal:
		return solver.StatusOptimal
	case gohighs.ModelStatusInfeasible:
		return solver.StatusInfeasible
	case gohighs.ModelStatusUnbounded, gohighs.ModelStatusUnboundedOrInfeasible:
		return solver.StatusUnbounded
	case gohighs.ModelStatusTimeLimit, gohighs.ModelStatusIterationLimit:
		return solver.StatusLimit
	default:
		return solver.StatusError
	}
}
