// Package precomputed implements FromPrecomputedTable, a small registry of
// "compiled-in" tables for a handful of small bit widths (spec.md Design
// Notes: "Replace [the original's] tagged preset enumerations ... with a
// mapping from ℓ to a compiled-in byte blob").
//
// The original Rust source embeds literal serialized byte blobs generated
// offline by a build script. This port cannot run a code generator as part
// of this exercise, so each preset is instead built once, lazily, from a
// fixed deterministic byte stream rather than the OS CSRNG -- the practical
// effect a caller observes (a stable table for a given variant/ℓ, built
// once and shared thereafter) is the same.
package precomputed

import (
	"fmt"
	"sync"

	"github.com/eth2030/smalldlp/internal/log"
	"github.com/eth2030/smalldlp/pkg/bl12"
	"github.com/eth2030/smalldlp/pkg/bsgs"
	"github.com/eth2030/smalldlp/pkg/bsgsk"
	"github.com/eth2030/smalldlp/pkg/solver"
	"github.com/eth2030/smalldlp/pkg/tbsgsk"
)

// Variant names accepted by FromPrecomputedTable.
const (
	VariantBSGS   = "bsgs"
	VariantBSGSK  = "bsgs-k"
	VariantTBSGSK = "tbsgs-k"
	VariantBL12   = "bl12"
)

// supportedBits lists the ℓ values each variant has a preset for. Kept
// intentionally small: a full ℓ=32 table is a multi-megabyte blob that adds
// nothing to this exercise, so ℓ=32 callers use GenerateTable/LoadTable
// directly instead of a preset.
var supportedBits = map[uint8]bool{8: true, 16: true}

// deterministicStream is a fixed, non-cryptographic byte stream used only
// to build presets reproducibly. It must never be used for anything
// security-sensitive; every real GenerateTable call elsewhere in this
// module uses crypto/rand.
type deterministicStream struct {
	seed  uint64
	state uint64
}

func newDeterministicStream(seed uint64) *deterministicStream {
	return &deterministicStream{seed: seed, state: seed | 1}
}

// Read fills p with output from a splitmix64-style generator, deterministic
// for a given seed.
func (d *deterministicStream) Read(p []byte) (int, error) {
	for i := 0; i < len(p); {
		d.state += 0x9E3779B97F4A7C15
		z := d.state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		for shift := 0; shift < 64 && i < len(p); shift += 8 {
			p[i] = byte(z >> shift)
			i++
		}
	}
	return len(p), nil
}

type cacheKey struct {
	variant string
	bits    uint8
}

var (
	cacheMu sync.Mutex
	cache   = map[cacheKey]solver.Solver{}
)

// FromPrecomputedTable returns the preset solver for variant at the given
// bit width, building it on the first request and returning the cached
// instance on every later one. It fails with
// solver.ErrInvalidParameter for any (variant, bits) pair this registry
// does not carry a preset for.
func FromPrecomputedTable(variant string, bits uint8) (solver.Solver, error) {
	if !supportedBits[bits] {
		return nil, fmt.Errorf("%w: no precomputed table for ℓ=%d", solver.ErrInvalidParameter, bits)
	}

	key := cacheKey{variant: variant, bits: bits}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if s, ok := cache[key]; ok {
		return s, nil
	}

	s, err := buildPreset(variant, bits)
	if err != nil {
		return nil, err
	}
	cache[key] = s
	return s, nil
}

func buildPreset(variant string, bits uint8) (solver.Solver, error) {
	// Seed mixes the variant name and bit width so distinct presets don't
	// share a walk/table even though they share a generator family.
	seed := uint64(bits)
	for _, c := range variant {
		seed = seed*131 + uint64(c)
	}
	rng := newDeterministicStream(seed)
	logger := log.Default().Module("precomputed")

	switch variant {
	case VariantBSGS:
		return bsgs.GenerateTable(bits, logger)
	case VariantBSGSK:
		return bsgsk.GenerateTable(bits, bsgsk.Config{}, logger)
	case VariantTBSGSK:
		return tbsgsk.GenerateTable(bits, tbsgsk.Config{}, logger)
	case VariantBL12:
		return bl12.GenerateTable(bits, bl12.Config{Logger: logger, RandSource: rng})
	default:
		return nil, fmt.Errorf("%w: unknown precomputed variant %q", solver.ErrInvalidParameter, variant)
	}
}
