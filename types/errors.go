package types

import "errors"

// Failure classes shared by every stage of the pipeline. Stages wrap these with
// fmt.Errorf("...: %w", ...) and add the material or cell indices needed to
// locate the fault; callers test with errors.Is.
var (
	// ErrGeometry marks non-positive extents, cell counts or material widths.
	ErrGeometry = errors.New("diffusion2d: invalid geometry")

	// ErrConsistency marks materials that cannot share one row, either through
	// mismatched top/bottom boundary flags or mismatched heights.
	ErrConsistency = errors.New("diffusion2d: inconsistent materials")

	// ErrInput marks malformed material records and problem decks.
	ErrInput = errors.New("diffusion2d: invalid input")

	// ErrNumerical marks a zero diagonal entry or pivot met by a solver.
	ErrNumerical = errors.New("diffusion2d: numerical failure")
)
