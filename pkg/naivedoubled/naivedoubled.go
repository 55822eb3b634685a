// Package naivedoubled implements the naive doubled lookup (NDL): a
// read-only adapter over a shared *bsgsk.Table that answers small-DLP
// queries in [0, 2^(ℓ_T/2)) with O(1) lookup and no table of its own
// (spec.md §4.3).
package naivedoubled

import (
	"github.com/eth2030/smalldlp/pkg/bsgsk"
	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
)

// NaiveDoubled holds a shared reference to a BSGS-k table. It owns no
// table of its own: FromBSGSK and the solve loop only ever read through
// the pointer the producing BSGS-k solver already holds.
type NaiveDoubled struct {
	table *bsgsk.Table
}

var _ solver.Solver = (*NaiveDoubled)(nil)

// FromBSGSK wraps the table owned by an existing BSGS-k solver. Table()
// returns the same *bsgsk.Table pointer the source solver holds (spec.md
// Testable Property 7: pointer equality between adapter and source).
func FromBSGSK(src *bsgsk.BSGSK) *NaiveDoubled {
	return &NaiveDoubled{table: src.Table()}
}

// Table returns the shared table reference, for pointer-equality tests.
func (nd *NaiveDoubled) Table() *bsgsk.Table { return nd.table }

// AlgorithmName implements solver.Solver.
func (nd *NaiveDoubled) AlgorithmName() string { return "naive-doubled-lookup" }

// MaxNumBits implements solver.Solver: half the bit width of the
// underlying BSGS-k table, since NDL only resolves discrete logs in
// [0, m) via a single doubled lookup, not the full [0, m^2) BSGS-k covers.
func (nd *NaiveDoubled) MaxNumBits() uint8 { return nd.table.MaxNumBits / 2 }

// Solve implements solver.Solver (spec.md §4.3): compute D = Y+Y,
// compress, and look it up directly in the shared doubled baby-step table.
func (nd *NaiveDoubled) Solve(y group.GroupElement) (uint64, error) {
	d := group.Add(y, y)
	c := group.Compress(d)
	j, ok := nd.table.BabySteps[c]
	if !ok {
		return 0, solver.ErrOutOfRange
	}
	return uint64(j), nil
}
