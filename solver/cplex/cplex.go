//go:build cplex

// Package cplex provides the Cplex solver backend through the gpx package.
// gpx wraps the Cplex C callable library, so this package only builds where
// Cplex is installed; the "cplex" build tag keeps it out of default builds.
//
//	go build -tags cplex ./...
//	import _ "github.com/LouisonF/miom/solver/cplex"
package cplex

import (
	"math"

	"github.com/go-opt/gpx"
	"github.com/pkg/errors"

	"github.com/LouisonF/miom/solver"
)

func init() {
	solver.Register(Backend{})
}

// Backend solves problems with the Cplex engine via gpx.
type Backend struct{}

// Name returns "cplex".
func (Backend) Name() string { return "cplex" }

// Solve translates the problem into gpx input structures, runs the LP or MIP
// optimizer, and reads the solution back by column name.
func (Backend) Solve(p *solver.Problem, opts solver.Options) (*solver.Result, error) {
	if err := gpx.CreateProb("miom"); err != nil {
		return nil, errors.Wrap(err, "cplex failed to create problem")
	}
	// Cplex owns C-side state; always release it.
	defer func() { _ = gpx.CloseCplex() }()

	if opts.Verbosity >= 2 {
		if err := gpx.OutputToScreen(true); err != nil {
			return nil, errors.Wrap(err, "cplex failed to set output to screen")
		}
	}

	gRows, err := transRows(p)
	if err != nil {
		return nil, err
	}
	gCols, gObj := transCols(p)
	gElem := transElems(p)

	if err := gpx.NewRows(gRows); err != nil {
		return nil, errors.Wrap(err, "cplex failed to create rows")
	}
	if err := gpx.NewCols(gObj, gCols); err != nil {
		return nil, errors.Wrap(err, "cplex failed to create columns")
	}
	if err := gpx.ChgCoefList(gElem); err != nil {
		return nil, errors.Wrap(err, "cplex failed to create elements")
	}

	var (
		objVal float64
		sRows  []gpx.SolnRow
		sCols  []gpx.SolnCol
	)
	if p.IsMIP() {
		if err := gpx.MipOpt(); err != nil {
			return nil, errors.Wrap(err, "cplex failed to optimize MIP")
		}
		err = gpx.GetMipSolution(&objVal, &sRows, &sCols)
	} else {
		if err := gpx.LpOpt(); err != nil {
			return nil, errors.Wrap(err, "cplex failed to optimize LP")
		}
		err = gpx.GetSolution(&objVal, &sRows, &sCols)
	}
	if err != nil {
		// Cplex refuses to hand back a solution for infeasible or
		// unbounded models; gpx surfaces that as an error here.
		return &solver.Result{Status: solver.StatusInfeasible}, nil
	}

	if p.Maximize {
		// The objective was negated on the way in (Cplex minimizes).
		objVal = -objVal
	}

	colIndex := make(map[string]int, len(p.ColNames))
	for i, name := range p.ColNames {
		colIndex[name] = i
	}
	columns := make([]float64, p.NumCols())
	for _, c := range sCols {
		i, ok := colIndex[c.Name]
		if !ok {
			return nil, errors.Errorf("cplex returned unknown column %s", c.Name)
		}
		columns[i] = c.Value
	}

	return &solver.Result{
		Status:    solver.StatusOptimal,
		Objective: objVal,
		Columns:   columns,
	}, nil
}

// transRows translates row bounds to the sense/rhs/range form Cplex expects.
func transRows(p *solver.Problem) ([]gpx.InputRow, error) {
	rows := make([]gpx.InputRow, p.NumRows())
	for i := range rows {
		lo, hi := p.RowLower[i], p.RowUpper[i]
		row := gpx.InputRow{Name: p.RowNames[i]}
		switch {
		case lo == hi:
			row.Sense = "E"
			row.Rhs = lo
		case math.IsInf(lo, -1) && math.IsInf(hi, 1):
			return nil, errors.Errorf("row %s is unbounded on both sides", p.RowNames[i])
		case math.IsInf(lo, -1):
			row.Sense = "L"
			row.Rhs = hi
		case math.IsInf(hi, 1):
			row.Sense = "G"
			row.Rhs = lo
		default:
			row.Sense = "R"
			row.Rhs = lo
			row.RngVal = hi - lo
		}
		rows[i] = row
	}
	return rows, nil
}

// transCols translates column bounds and the objective. Cplex minimizes, so
// a maximization objective is negated here and the objective value negated
// on the way back.
func transCols(p *solver.Problem) ([]gpx.InputCol, []gpx.InputObjCoef) {
	cols := make([]gpx.InputCol, p.NumCols())
	var obj []gpx.InputObjCoef
	for i := range cols {
		col := gpx.InputCol{
			Name:  p.ColNames[i],
			BndLo: p.ColLower[i],
			BndUp: p.ColUpper[i],
			Type:  "C",
		}
		if p.ColTypes != nil && p.ColTypes[i] != solver.Continuous {
			col.Type = "I"
		}
		cols[i] = col

		if c := p.Obj[i]; c != 0 {
			if p.Maximize {
				c = -c
			}
			obj = append(obj, gpx.InputObjCoef{ColIndex: i, Value: c})
		}
	}
	return cols, obj
}

func transElems(p *solver.Problem) []gpx.InputElem {
	elems := make([]gpx.InputElem, len(p.A))
	for i, nz := range p.A {
		elems[i] = gpx.InputElem{RowIndex: nz.Row, ColIndex: nz.Col, Value: nz.Val}
	}
	return elems
}
