package precomputed

import (
	"errors"
	"testing"

	"github.com/eth2030/smalldlp/pkg/group"
	"github.com/eth2030/smalldlp/pkg/solver"
)

func TestFromPrecomputedTableSolves(t *testing.T) {
	variants := []string{VariantBSGS, VariantBSGSK, VariantTBSGSK, VariantBL12}
	for _, variant := range variants {
		s, err := FromPrecomputedTable(variant, 8)
		if err != nil {
			t.Fatalf("variant=%s: FromPrecomputedTable: %v", variant, err)
		}

		x := uint64(5)
		y := group.ScalarMul(group.ScalarFromUint64(x), group.Generator)
		got, err := s.Solve(y)
		if err != nil {
			t.Fatalf("variant=%s: Solve: %v", variant, err)
		}
		if got != x {
			t.Fatalf("variant=%s: Solve = %d, want %d", variant, got, x)
		}
	}
}

func TestFromPrecomputedTableCachesInstance(t *testing.T) {
	a, err := FromPrecomputedTable(VariantBSGS, 8)
	if err != nil {
		t.Fatalf("FromPrecomputedTable: %v", err)
	}
	b, err := FromPrecomputedTable(VariantBSGS, 8)
	if err != nil {
		t.Fatalf("FromPrecomputedTable: %v", err)
	}
	if a != b {
		t.Fatal("FromPrecomputedTable should return the cached solver on repeat calls")
	}
}

func TestFromPrecomputedTableRejectsUnsupportedBits(t *testing.T) {
	if _, err := FromPrecomputedTable(VariantBSGS, 32); !errors.Is(err, solver.ErrInvalidParameter) {
		t.Fatalf("FromPrecomputedTable(32) = %v, want ErrInvalidParameter", err)
	}
}

func TestFromPrecomputedTableRejectsUnknownVariant(t *testing.T) {
	if _, err := FromPrecomputedTable("nonsense", 8); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
