// Package bl12 implements the Bernstein-Lange pseudorandom-walk solver
// (spec.md §4.8): a precomputed distinguished-point table plus a
// randomized walk from the target point that, with high probability,
// collides with a walk already recorded in the table. Sub-exponential
// expected time after precomputation, unlike the deterministic
// O(2^(ℓ/2)) solvers.
package bl12

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"time"

	"github.com/eth2030/smalldlp/internal/log"
	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
	"github.com/eth2030/smalldlp/pkg/wire"
	"github.com/montanaflynn/stats"
)

const maxBits = 64

// ErrTimedOut is returned by SolveWithTimeout/SolveWithRNG when the
// caller's wall-clock budget is exceeded before a distinguished point is
// found in the table.
var ErrTimedOut = errors.New("bl12: timed out")

// attemptCapFactor bounds table-build attempts at N * attemptCapFactor, so
// a pathological table (tiny W, unlucky draws) cannot loop forever.
const attemptCapFactor = 1000

// Params holds the derived walk parameters (spec.md §4.8, §3).
type Params struct {
	I uint32 // walk-length multiplier
	W uint64 // distinguishing threshold, a power of two
	N uint64 // target distinguished-point table size
	R uint32 // step-scalar count, a power of two
}

// Table holds everything a BL12 solver needs once built: the walk
// parameters, the step scalars/points that define the pseudorandom walk,
// and the distinguished-point map collected during precomputation.
type Table struct {
	MaxNumBits          uint8
	Params              Params
	StepScalars         []group.Scalar
	StepPoints          []group.GroupElement
	DistinguishedPoints map[group.CompressedPoint]group.Scalar

	// buildStats holds the walk-length summary computed at GenerateTable
	// time; nil after LoadTable, since walk lengths aren't part of the
	// wire format.
	buildStats *BuildStats
}

// BuildStats summarizes how many steps each successful walk took to reach
// a distinguished point during table generation.
type BuildStats struct {
	MeanWalkLength   float64
	MedianWalkLength float64
}

// BuildStats reports the walk-length summary from table generation, or nil
// if this table was decoded via LoadTable rather than built in-process.
func (t *Table) BuildStats() *BuildStats { return t.buildStats }

// BL12 is the Bernstein-Lange pseudorandom-walk solver.
type BL12 struct {
	table *Table
}

var _ solver.Solver = (*BL12)(nil)

// Config carries table-generation knobs: an optional logger for progress
// reporting and an optional RNG source for deterministic tests (spec.md
// Design Notes' "RNG injection" point). Solving does not read it; the
// solve-time RNG is passed to SolveWithRNG directly.
type Config struct {
	Logger     *log.Logger
	RandSource io.Reader
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default().Module("bl12")
}

func (c Config) rng() io.Reader {
	if c.RandSource != nil {
		return c.RandSource
	}
	return rand.Reader
}

// deriveParams computes (i, W, N, R) for a given bit width, per spec.md
// §4.8. The schedule below is deliberately coarse-grained (spec.md leaves
// "exact schedules ... to the implementation") but covers every ℓ in
// [1, 64] and keeps W/R powers of two throughout.
func deriveParams(bits uint8) Params {
	if bits < 8 {
		w := uint64(4)
		r := uint32(8)
		if bits <= 4 {
			w = 2
			r = 4
		}
		return Params{I: 16, W: w, N: uint64(1) << bits, R: r}
	}

	shift := (uint32(bits) + 1) / 3
	w := uint64(1) << shift
	if w < 1<<4 {
		w = 1 << 4
	}
	if w > 1<<20 {
		w = 1 << 20
	}

	var n uint64
	switch {
	case bits <= 16:
		n = 1000
	case bits <= 24:
		n = 2000
	case bits <= 32:
		n = 4000
	case bits <= 40:
		n = 20000
	case bits <= 48:
		n = 40000
	default:
		n = 80000
	}

	var r uint32
	switch {
	case bits <= 24:
		r = 64
	case bits <= 40:
		r = 128
	default:
		r = 256
	}

	// A distinguished point occurs with probability ~1/W per step, so a
	// 2^bits-sized space yields roughly 2^bits/W of them in expectation.
	// Cap N there so small-to-medium ℓ (where the default schedule above
	// would otherwise ask for more distinguished points than the space can
	// plausibly supply) don't burn through the attempt cap.
	if ceiling := (uint64(1) << bits) / w; ceiling > 0 && n > ceiling {
		n = ceiling
	}
	if n == 0 {
		n = 1
	}

	return Params{I: 8, W: w, N: n, R: r}
}

// deriveSlogSize picks the bit width of each step scalar (before the +1
// that keeps it nonzero), per spec.md §4.8's step-scalar-generation rule.
func deriveSlogSize(bits uint8, w uint64) uint8 {
	if bits < 8 {
		if bits == 0 {
			return 1
		}
		return bits
	}

	shiftExp := bits
	if shiftExp > 62 {
		shiftExp = 62
	}
	numerator := uint64(1) << shiftExp
	r := (numerator / 4) / w
	if r == 0 {
		return 1
	}
	return uint8(bits64Log2(r))
}

func bits64Log2(v uint64) int {
	return bits.Len64(v) - 1
}

// isDistinguished reports whether a compressed point's low-order bits (in
// the big-endian view of the last 8 bytes) vanish under the W-1 mask.
func isDistinguished(c group.CompressedPoint, w uint64) bool {
	return group.LastU64BigEndian(c)&(w-1) == 0
}

// walkIndex selects which of the R step scalars to apply next.
func walkIndex(c group.CompressedPoint, r uint32) uint32 {
	return uint32(group.LastU64BigEndian(c) & uint64(r-1))
}

// GenerateTable builds a BL12 solver for the range [0, 2^bits), walking
// until at least Params.N distinguished points are collected or the
// attempt cap is hit.
func GenerateTable(bits uint8, cfg Config) (*BL12, error) {
	if bits < 1 || bits > maxBits {
		return nil, fmt.Errorf("%w: bl12 bits must be in [1, %d], got %d", solver.ErrInvalidParameter, maxBits, bits)
	}
	logger := cfg.logger()
	rng := cfg.rng()

	params := deriveParams(bits)
	slogSize := deriveSlogSize(bits, params.W)

	stepScalars := make([]group.Scalar, params.R)
	stepPoints := make([]group.GroupElement, params.R)
	one := group.ScalarFromUint64(1)
	for h := uint32(0); h < params.R; h++ {
		drawn, err := group.RandomScalar(slogSize, rng)
		if err != nil {
			return nil, fmt.Errorf("bl12: draw step scalar %d: %w", h, err)
		}
		s := group.AddScalar(drawn, one)
		stepScalars[h] = s
		stepPoints[h] = group.ScalarMul(s, group.Generator)
	}

	distinguished := make(map[group.CompressedPoint]group.Scalar, params.N)
	maxAttempts := params.N * attemptCapFactor
	maxSteps := uint64(params.I) * params.W

	var walkLengths []float64
	for attempts := uint64(0); uint64(len(distinguished)) < params.N && attempts < maxAttempts; attempts++ {
		wlog, err := group.RandomScalar(bits, rng)
		if err != nil {
			return nil, fmt.Errorf("bl12: draw walk start: %w", err)
		}
		w := group.ScalarMul(wlog, group.Generator)

		for step := uint64(0); step < maxSteps; step++ {
			c := group.Compress(w)
			if isDistinguished(c, params.W) {
				distinguished[c] = wlog
				walkLengths = append(walkLengths, float64(step+1))
				break
			}
			h := walkIndex(c, params.R)
			wlog = group.AddScalar(wlog, stepScalars[h])
			w = group.Add(w, stepPoints[h])
		}

		if attempts != 0 && attempts%uint64(params.N) == 0 {
			logger.Info("bl12 table build progress", "distinguished", len(distinguished), "target", params.N, "attempts", attempts)
		}
	}

	var buildStats *BuildStats
	if len(walkLengths) > 0 {
		mean, errMean := stats.Mean(walkLengths)
		median, errMedian := stats.Median(walkLengths)
		if errMean == nil && errMedian == nil {
			buildStats = &BuildStats{MeanWalkLength: mean, MedianWalkLength: median}
			logger.Info("bl12 table build complete", "distinguished", len(distinguished), "mean_walk_len", mean, "median_walk_len", median)
		}
	}

	return &BL12{table: &Table{
		MaxNumBits:          bits,
		Params:              params,
		StepScalars:         stepScalars,
		StepPoints:          stepPoints,
		DistinguishedPoints: distinguished,
		buildStats:          buildStats,
	}}, nil
}

// LoadTable decodes a BL12 table previously produced by Bytes.
func LoadTable(data []byte) (*BL12, error) {
	r := wire.NewReader(data)

	i, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: i: %v", solver.ErrCorruptTable, err)
	}
	w, err := r.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: W: %v", solver.ErrCorruptTable, err)
	}
	n, err := r.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: N: %v", solver.ErrCorruptTable, err)
	}
	rCount, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: R: %v", solver.ErrCorruptTable, err)
	}
	bitsVal, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("%w: bits: %v", solver.ErrCorruptTable, err)
	}

	stepScalars := make([]group.Scalar, rCount)
	for h := uint32(0); h < rCount; h++ {
		b, err := r.Bytes(32)
		if err != nil {
			return nil, fmt.Errorf("%w: step scalar %d: %v", solver.ErrCorruptTable, h, err)
		}
		var arr [32]byte
		copy(arr[:], b)
		s, err := group.DecodeScalar(arr)
		if err != nil {
			return nil, fmt.Errorf("%w: step scalar %d: %v", solver.ErrCorruptTable, h, err)
		}
		stepScalars[h] = s
	}

	stepPoints := make([]group.GroupElement, rCount)
	for h := uint32(0); h < rCount; h++ {
		b, err := r.Bytes(32)
		if err != nil {
			return nil, fmt.Errorf("%w: step point %d: %v", solver.ErrCorruptTable, h, err)
		}
		var c group.CompressedPoint
		copy(c[:], b)
		p, err := group.Decompress(c)
		if err != nil {
			return nil, fmt.Errorf("%w: step point %d: %v", solver.ErrCorruptTable, h, err)
		}
		stepPoints[h] = p
	}

	count, err := r.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: distinguished count: %v", solver.ErrCorruptTable, err)
	}
	distinguished := make(map[group.CompressedPoint]group.Scalar, count)
	for idx := uint64(0); idx < count; idx++ {
		cb, err := r.Bytes(32)
		if err != nil {
			return nil, fmt.Errorf("%w: distinguished point %d key: %v", solver.ErrCorruptTable, idx, err)
		}
		sb, err := r.Bytes(32)
		if err != nil {
			return nil, fmt.Errorf("%w: distinguished point %d value: %v", solver.ErrCorruptTable, idx, err)
		}
		var c group.CompressedPoint
		copy(c[:], cb)
		var arr [32]byte
		copy(arr[:], sb)
		v, err := group.DecodeScalar(arr)
		if err != nil {
			return nil, fmt.Errorf("%w: distinguished point %d value: %v", solver.ErrCorruptTable, idx, err)
		}
		distinguished[c] = v
	}

	return &BL12{table: &Table{
		MaxNumBits:          bitsVal,
		Params:              Params{I: i, W: w, N: n, R: rCount},
		StepScalars:         stepScalars,
		StepPoints:          stepPoints,
		DistinguishedPoints: distinguished,
	}}, nil
}

// Bytes serializes the table per spec.md §4.9: parameters, step scalars,
// step points, then the distinguished-point map as an explicit
// (CompressedPoint, Scalar) pair array.
func (b *BL12) Bytes() []byte {
	t := b.table
	w := wire.NewWriter()
	w.PutUint32(t.Params.I)
	w.PutUint64(t.Params.W)
	w.PutUint64(t.Params.N)
	w.PutUint32(t.Params.R)
	w.PutUint8(t.MaxNumBits)

	for _, s := range t.StepScalars {
		enc := group.EncodeScalar(s)
		w.PutBytes(enc[:])
	}
	for _, p := range t.StepPoints {
		c := group.Compress(p)
		w.PutBytes(c[:])
	}

	w.PutUint64(uint64(len(t.DistinguishedPoints)))
	for c, v := range t.DistinguishedPoints {
		w.PutBytes(c[:])
		enc := group.EncodeScalar(v)
		w.PutBytes(enc[:])
	}
	return w.Bytes()
}

// Table exposes the underlying table (used by tests asserting the
// distinguishing-predicate invariant).
func (b *BL12) Table() *Table { return b.table }

// AlgorithmName implements solver.Solver.
func (b *BL12) AlgorithmName() string { return "bl12" }

// MaxNumBits implements solver.Solver.
func (b *BL12) MaxNumBits() uint8 { return b.table.MaxNumBits }

// Solve implements solver.Solver: no timeout, OS-backed CSRNG.
func (b *BL12) Solve(y group.GroupElement) (uint64, error) {
	return b.SolveWithRNG(y, 0, rand.Reader)
}

// SolveWithTimeout solves with a wall-clock budget (milliseconds; <= 0
// means no timeout), checked at each walk-restart boundary, using the OS
// CSRNG.
func (b *BL12) SolveWithTimeout(y group.GroupElement, timeoutMs int64) (uint64, error) {
	return b.SolveWithRNG(y, timeoutMs, rand.Reader)
}

// SolveWithRNG solves with an explicit RNG source, for deterministic
// property-based tests (spec.md Design Notes' RNG-injection point), and an
// optional timeout.
func (b *BL12) SolveWithRNG(y group.GroupElement, timeoutMs int64, rng io.Reader) (uint64, error) {
	if group.IsIdentity(y) {
		return 0, nil
	}

	t := b.table
	distOffsetBits := uint8(1)
	if t.MaxNumBits > 8 {
		distOffsetBits = t.MaxNumBits - 8
	}
	maxSteps := uint64(t.Params.I) * t.Params.W

	var deadline time.Time
	hasDeadline := timeoutMs > 0
	if hasDeadline {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	for {
		if hasDeadline && time.Now().After(deadline) {
			return 0, ErrTimedOut
		}

		wdist, err := group.RandomScalar(distOffsetBits, rng)
		if err != nil {
			return 0, fmt.Errorf("bl12: draw solve offset: %w", err)
		}
		w := group.Add(y, group.ScalarMul(wdist, group.Generator))

		for step := uint64(0); step < maxSteps; step++ {
			c := group.Compress(w)
			if isDistinguished(c, t.Params.W) {
				v, ok := t.DistinguishedPoints[c]
				if !ok {
					break // restart the outer loop with a fresh offset
				}
				x := group.SubScalar(v, wdist)
				xu := x.ToUint64()
				if solver.VerifySolution(xu, y) {
					return xu, nil
				}
				break
			}
			h := walkIndex(c, t.Params.R)
			wdist = group.AddScalar(wdist, t.StepScalars[h])
			w = group.Add(w, t.StepPoints[h])
		}
	}
}
