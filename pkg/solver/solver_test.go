package solver

import (
	"crypto/rand"
	"testing"

	"github.com/eth2030/smalldlp/pkg/group"
)

func TestVerifySolutionAcceptsGenuineSolution(t *testing.T) {
	x, y, err := group.GenerateInstance(24, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateInstance: %v", err)
	}
	if !VerifySolution(x.ToUint64(), y) {
		t.Fatal("VerifySolution rejected a genuine (x, Y) pair")
	}
}

func TestVerifySolutionRejectsWrongCandidate(t *testing.T) {
	_, y, err := group.GenerateInstance(24, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateInstance: %v", err)
	}
	if VerifySolution(999999, y) {
		t.Fatal("VerifySolution accepted an arbitrary wrong candidate")
	}
}

func TestVerifySolutionIdentity(t *testing.T) {
	if !VerifySolution(0, group.Identity()) {
		t.Fatal("VerifySolution must accept x=0 against the identity element")
	}
}
