package bsgsk

import (
	"crypto/rand"
	"testing"

	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
)

func TestSolveExhaustive(t *testing.T) {
	const bits = 12
	b, err := GenerateTable(bits, Config{}, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}

	e := group.Identity()
	for x := uint64(0); x < uint64(1)<<bits; x++ {
		got, err := b.Solve(e)
		if err != nil {
			t.Fatalf("x=%d: Solve: %v", x, err)
		}
		if got != x {
			t.Fatalf("x=%d: Solve returned %d", x, got)
		}
		e = group.Add(e, group.Generator)
	}
}

func TestSolveOutOfRange(t *testing.T) {
	const bits = 10
	b, err := GenerateTable(bits, Config{}, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	y := group.ScalarMul(group.ScalarFromUint64(uint64(1)<<bits+3), group.Generator)
	if _, err := b.Solve(y); err != solver.ErrOutOfRange {
		t.Fatalf("Solve = %v, want ErrOutOfRange", err)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	const bits = 12
	b, err := GenerateTable(bits, Config{}, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	data := b.Bytes()

	loaded, err := LoadTable(data, Config{})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	x, y, err := group.GenerateInstance(bits, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateInstance: %v", err)
	}
	got, err := loaded.Solve(y)
	if err != nil {
		t.Fatalf("Solve after reload: %v", err)
	}
	if got != x.ToUint64() {
		t.Fatalf("Solve after reload = %d, want %d", got, x.ToUint64())
	}
}

// TestBatchIdentityRegression guards against a historical bug class where a
// batch containing the group identity element (gamma == giant-step multiple
// landing exactly on zero, or a secret at a batch boundary m-1/m/m+1) was
// mishandled by a naive batched compression routine (spec.md Testable
// Property 5). Exercised across several batch sizes and secrets chosen
// specifically to straddle m's batch boundaries.
func TestBatchIdentityRegression(t *testing.T) {
	const bits = 10 // m = 2^((10+1)/2) = 32
	batchSizes := []int{1, 2, 4, 32, 64, 256}

	b, err := GenerateTable(bits, Config{}, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	m := uint64(b.Table().M)

	secrets := []uint64{0, m - 1, m, m + 1, 2 * m, 2*m + 3, 3 * m}
	for _, ks := range batchSizes {
		solver, err := LoadTable(b.Bytes(), Config{BatchSize: ks})
		if err != nil {
			t.Fatalf("batch=%d: LoadTable: %v", ks, err)
		}
		for _, secret := range secrets {
			if secret >= uint64(1)<<bits {
				continue
			}
			y := group.ScalarMul(group.ScalarFromUint64(secret), group.Generator)
			got, err := solver.Solve(y)
			if err != nil {
				t.Fatalf("batch=%d secret=%d: Solve: %v", ks, secret, err)
			}
			if got != secret {
				t.Fatalf("batch=%d secret=%d: Solve returned %d", ks, secret, got)
			}
		}
	}
}

func TestDefaultBatchSizeIsPositive(t *testing.T) {
	if DefaultBatchSize() <= 0 {
		t.Fatal("DefaultBatchSize must be positive")
	}
}

func TestGenerateTableRejectsOutOfRangeBits(t *testing.T) {
	if _, err := GenerateTable(0, Config{}, nil); err == nil {
		t.Fatal("expected error for bits=0")
	}
	if _, err := GenerateTable(33, Config{}, nil); err == nil {
		t.Fatal("expected error for bits > 32 (bsgsk requires m <= 2^16)")
	}
}
