// Package solver defines the contract between the miom modeling layer and the
// external LP/MIP engines that do the numeric work.
//
// A Problem is a fully lowered linear or mixed-integer program: dense column
// and row bound vectors, a sparse coefficient matrix, and a linear objective.
// A Backend takes a Problem and returns a Result, or an error when the engine
// itself fails. Infeasibility and unboundedness are not errors at this level;
// they are reported through the Result status so the caller can decide how to
// surface them.
//
// Backends register themselves by name in an init function, and callers select
// one with Get, mirroring database/sql driver registration:
//
//	import _ "github.com/LouisonF/miom/solver/highs"
//	...
//	be, err := solver.Get("highs")
package solver

import "math"

// VarType describes the domain of a single column.
type VarType int8

const (
	// Continuous is a real-valued variable (the default).
	Continuous VarType = iota
	// Binary is an integer variable restricted to {0, 1}.
	Binary
	// Integer is a general integer variable.
	Integer
)

// Nonzero is one entry of the sparse constraint matrix.
type Nonzero struct {
	Row int
	Col int
	Val float64
}

// Problem is a lowered optimization problem:
//
//	maximize (or minimize)  Obj · x
//	subject to              RowLower ≤ A·x ≤ RowUpper
//	and                     ColLower ≤ x ≤ ColUpper
//
// All column vectors must have equal length, as must the row vectors. Names
// are optional; backends that address columns and rows by name (Cplex) use
// them, backends that address by index (HiGHS) ignore them.
type Problem struct {
	Maximize bool

	Obj      []float64
	ColLower []float64
	ColUpper []float64
	ColTypes []VarType
	ColNames []string

	RowLower []float64
	RowUpper []float64
	RowNames []string

	A []Nonzero
}

// NumCols returns the number of columns in the problem.
func (p *Problem) NumCols() int { return len(p.ColLower) }

// NumRows returns the number of rows in the problem.
func (p *Problem) NumRows() int { return len(p.RowLower) }

// IsMIP reports whether any column is restricted to integer values.
func (p *Problem) IsMIP() bool {
	for _, t := range p.ColTypes {
		if t != Continuous {
			return true
		}
	}
	return false
}

// Status describes the outcome of a solve as reported by the backend.
type Status int8

const (
	// StatusNotSolved means no solve has been attempted.
	StatusNotSolved Status = iota
	// StatusOptimal means an optimal solution was found.
	StatusOptimal
	// StatusInfeasible means the problem has no feasible point.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded in the requested direction.
	StatusUnbounded
	// StatusLimit means the solve stopped at a time or iteration limit.
	StatusLimit
	// StatusError means the backend failed in a way it could not classify.
	StatusError
)

// String returns a human-readable form of the status.
func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "not solved"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusLimit:
		return "limit reached"
	case StatusError:
		return "solver error"
	default:
		return "unknown"
	}
}

// HasSolution reports whether column values are available for this status.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusLimit
}

// Result carries the outcome of a solve back to the modeling layer.
type Result struct {
	Status    Status
	Objective float64

	// Columns holds the primal value of every column when
	// Status.HasSolution() is true, and is nil otherwise.
	Columns []float64
}

// Options are per-solve knobs forwarded to the backend.
type Options struct {
	// Verbosity controls engine output: 0 silent, 1 summary, 2+ full log.
	Verbosity int
	// TimeLimit bounds the solve wall time in seconds; 0 means no limit.
	TimeLimit float64
	// MIPGap is the relative optimality gap tolerance; 0 keeps the
	// backend default.
	MIPGap float64
}

// Backend is a solving engine capable of handling a lowered Problem.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string
	// Solve runs the engine on the problem. It blocks until the engine
	// returns or fails.
	Solve(p *Problem, opts Options) (*Result, error)
}

// Inf returns positive infinity, suitable for unbounded variable bounds.
func Inf() float64 { return math.Inf(1) }

// NegInf returns negative infinity, suitable for unbounded variable bounds.
func NegInf() float64 { return math.Inf(-1) }
