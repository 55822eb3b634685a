// Package naivelookup implements the naive lookup (NL) solver: a single
// CompressedPoint -> u64 table covering every point in [0, 2^ℓ) with O(1)
// solve and O(2^ℓ) space (spec.md §4.2).
package naivelookup

import (
	"fmt"

	"github.com/eth2030/smalldlp/internal/log"
	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
	"github.com/eth2030/smalldlp/pkg/wire"
)

// maxBits is the practical generation ceiling: memory, not an algorithmic
// limit, per spec.md §4.2.
const maxBits = 32

// NaiveLookup is the O(2^ℓ)-space, O(1)-lookup solver.
type NaiveLookup struct {
	maxNumBits uint8
	lookup     map[group.CompressedPoint]uint64
}

var _ solver.Solver = (*NaiveLookup)(nil)

// GenerateTable builds a NaiveLookup covering [0, 2^bits). Logs progress
// every 1<<20 entries since a full ℓ=32 table takes a while to build.
func GenerateTable(bits uint8, logger *log.Logger) (*NaiveLookup, error) {
	if bits < 1 || bits > maxBits {
		return nil, fmt.Errorf("%w: naivelookup bits must be in [1, %d], got %d", solver.ErrInvalidParameter, maxBits, bits)
	}
	if logger == nil {
		logger = log.Default().Module("naivelookup")
	}

	n := uint64(1) << bits
	table := make(map[group.CompressedPoint]uint64, n)

	e := group.Identity()
	for i := uint64(0); i < n; i++ {
		table[group.Compress(e)] = i
		e = group.Add(e, group.Generator)

		if i != 0 && i&((1<<20)-1) == 0 {
			logger.Info("naive lookup table build progress", "built", i, "total", n)
		}
	}

	return &NaiveLookup{maxNumBits: bits, lookup: table}, nil
}

// LoadTable decodes a NaiveLookup previously produced by Bytes.
func LoadTable(data []byte) (*NaiveLookup, error) {
	r := wire.NewReader(data)
	bits, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrCorruptTable, err)
	}
	if bits < 1 || bits > maxBits {
		return nil, fmt.Errorf("%w: naivelookup bits must be in [1, %d], got %d", solver.ErrInvalidParameter, maxBits, bits)
	}
	n64, err := r.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrCorruptTable, err)
	}
	records, err := r.Array32(int(n64))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", solver.ErrCorruptTable, err)
	}

	table := make(map[group.CompressedPoint]uint64, n64)
	for j, rec := range records {
		table[group.CompressedPoint(rec)] = uint64(j)
	}

	return &NaiveLookup{maxNumBits: bits, lookup: table}, nil
}

// Bytes serializes the table: bits (1B), entry count (8B), then the
// length-n sequence of compressed points in ascending j order (the array
// index is j, so it need not be stored explicitly).
func (nl *NaiveLookup) Bytes() []byte {
	n := uint64(len(nl.lookup))
	ordered := make([]group.CompressedPoint, n)
	for c, j := range nl.lookup {
		ordered[j] = c
	}

	w := wire.NewWriter()
	w.PutUint8(nl.maxNumBits)
	w.PutUint64(n)
	for _, c := range ordered {
		w.PutBytes(c[:])
	}
	return w.Bytes()
}

// AlgorithmName implements solver.Solver.
func (nl *NaiveLookup) AlgorithmName() string { return "naive-lookup" }

// MaxNumBits implements solver.Solver.
func (nl *NaiveLookup) MaxNumBits() uint8 { return nl.maxNumBits }

// Solve implements solver.Solver: one compression, one map lookup.
func (nl *NaiveLookup) Solve(y group.GroupElement) (uint64, error) {
	x, ok := nl.lookup[group.Compress(y)]
	if !ok {
		return 0, solver.ErrOutOfRange
	}
	return x, nil
}
