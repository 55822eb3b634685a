// Package naivetruncdoubled implements the naive truncated doubled lookup
// (NTDL): a read-only adapter over a shared *tbsgsk.Table, adding the
// verification step a truncated 8-byte key requires to rule out false
// positives (spec.md §4.4).
package naivetruncdoubled

import (
	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
	"github.com/eth2030/smalldlp/pkg/tbsgsk"
)

// NaiveTruncDoubled holds a shared reference to a TBSGS-k table; like
// NaiveDoubled, it owns no table of its own.
type NaiveTruncDoubled struct {
	table *tbsgsk.Table
}

var _ solver.Solver = (*NaiveTruncDoubled)(nil)

// FromTBSGSK wraps the table owned by an existing TBSGS-k solver.
func FromTBSGSK(src *tbsgsk.TBSGSK) *NaiveTruncDoubled {
	return &NaiveTruncDoubled{table: src.Table()}
}

// Table returns the shared table reference, for pointer-equality tests.
func (nt *NaiveTruncDoubled) Table() *tbsgsk.Table { return nt.table }

// AlgorithmName implements solver.Solver.
func (nt *NaiveTruncDoubled) AlgorithmName() string { return "naive-truncated-doubled-lookup" }

// MaxNumBits implements solver.Solver.
func (nt *NaiveTruncDoubled) MaxNumBits() uint8 { return nt.table.MaxNumBits / 2 }

// Solve implements solver.Solver (spec.md §4.4): compute D = Y+Y, truncate
// its compression to 8 bytes, look up the truncated table, and on a hit
// verify j*g == Y before trusting it -- the false-positive probability is
// ~ m * 2^-64, negligible for m <= 2^16, but still checked.
func (nt *NaiveTruncDoubled) Solve(y group.GroupElement) (uint64, error) {
	d := group.Add(y, y)
	key := group.TruncateLowU64(group.Compress(d))

	j, ok := nt.table.BabySteps[key]
	if !ok {
		return 0, solver.ErrOutOfRange
	}
	if !solver.VerifySolution(uint64(j), y) {
		return 0, solver.ErrOutOfRange
	}
	return uint64(j), nil
}
