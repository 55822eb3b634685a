package bsgs

import (
	"crypto/rand"
	"testing"

	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
)

func TestSolveExhaustive(t *testing.T) {
	const bits = 12
	b, err := GenerateTable(bits, nil)
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

func TestSolveSampledLargeRange(t *testing.T) {
	const bits = 30
	b, err := GenerateTable(bits, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}

	for i := 0; i < 25; i++ {
		x, y, err := group.GenerateInstance(bits, rand.Reader)
		if err != nil {
			t.Fatalf("GenerateInstance: %v", err)
		}
		got, err := b.Solve(y)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if got != x.ToUint64() {
			t.Fatalf("Solve = %d, want %d", got, x.ToUint64())
		}
	}
}

func TestSolveIdentity(t *testing.T) {
	b, err := GenerateTable(10, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	got, err := b.Solve(group.Identity())
	if err != nil {
		t.Fatalf("Solve(identity): %v", err)
	}
	if got != 0 {
		t.Fatalf("Solve(identity) = %d, want 0", got)
	}
}

func TestSolveOutOfRange(t *testing.T) {
	const bits = 10
	b, err := GenerateTable(bits, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	y := group.ScalarMul(group.ScalarFromUint64(uint64(1)<<bits+7), group.Generator)
	if _, err := b.Solve(y); err != solver.ErrOutOfRange {
		t.Fatalf("Solve = %v, want ErrOutOfRange", err)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	const bits = 12
	b, err := GenerateTable(bits, nil)
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	data := b.Bytes()

	loaded, err := LoadTable(data)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if loaded.Table().M != b.Table().M {
		t.Fatalf("M mismatch: %d != %d", loaded.Table().M, b.Table().M)
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

func TestGenerateTableRejectsOutOfRangeBits(t *testing.T) {
	if _, err := GenerateTable(0, nil); err == nil {
		t.Fatal("expected error for bits=0")
	}
	if _, err := GenerateTable(maxBits+1, nil); err == nil {
		t.Fatal("expected error for bits > maxBits")
	}
}
