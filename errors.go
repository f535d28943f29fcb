package miom

import "errors"

var (
	// ErrNotSolved indicates an accessor was called before a successful Solve.
	ErrNotSolved = errors.New("miom: model has not been solved")
	// ErrNotFound indicates a reaction or metabolite id is not in the network.
	ErrNotFound = errors.New("miom: id not found in network")
	// ErrInfeasible indicates the last solve found no feasible solution.
	ErrInfeasible = errors.New("miom: problem is infeasible")
	// ErrUnbounded indicates the objective is unbounded in the requested direction.
	ErrUnbounded = errors.New("miom: problem is unbounded")
	// ErrNoIndicators indicates an operation requires subset selection but no
	// indicator variables have been created.
	ErrNoIndicators = errors.New("miom: model has no indicator variables")
	// ErrBadInput indicates structurally invalid input (mismatched lengths,
	// reversed bounds, out-of-range indices).
	ErrBadInput = errors.New("miom: invalid input")
)
