// Package solver defines the common interface every small-DLP solver
// variant implements (BSGS, BSGS-k, TBSGS-k, BL12, the naive lookup, and
// its two read-only adapters), plus the sentinel errors they share.
package solver

import (
	"errors"

	"github.com/eth2030/smalldlp/pkg/group"
)

var (
	// ErrOutOfRange is returned by Solve when the target point is not of
	// the form x*g for x within the solver's asserted [0, 2^ℓ) range.
	ErrOutOfRange = errors.New("solver: value out of range")

	// ErrCorruptTable is returned by LoadTable when the supplied bytes do
	// not decode into a valid table.
	ErrCorruptTable = errors.New("solver: corrupt table")

	// ErrInvalidParameter is returned when ℓ is outside a variant's
	// accepted bit-width range.
	ErrInvalidParameter = errors.New("solver: invalid parameter")
)

// Solver is the uniform interface exposed by every small-DLP solver
// variant (spec.md §4.1).
type Solver interface {
	// AlgorithmName returns a stable human label used in tests/benches.
	AlgorithmName() string

	// Solve recovers x such that Y = x*g, for x known to lie within
	// [0, 2^MaxNumBits()). Returns ErrOutOfRange if no such x exists.
	Solve(y group.GroupElement) (uint64, error)

	// MaxNumBits reports ℓ, the bit width this solver covers.
	MaxNumBits() uint8
}

// VerifySolution recomputes x*g and compares it against y, the "never
// wrong" guarantee from spec.md Testable Property 3. BSGS, BSGS-k, NTDL and
// BL12 call this on their way to a successful return; NL and NDL return
// exact compressed-point matches without it, and TBSGS-k compares j*g
// against its batch element instead. It is cheap relative to the table
// scan that found the candidate.
func VerifySolution(x uint64, y group.GroupElement) bool {
	return group.Equal(group.ScalarMul(group.ScalarFromUint64(x), group.Generator), y)
}
