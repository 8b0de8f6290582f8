package merkle_test

import (
	"testing"

	"github.com/matchchain/matchchain/foundation/consensus/merkle"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestDeterminism(t *testing.T) {
	t.Log("Given the need to compute identical roots for identical inputs.")
	{
		nonces := []string{"n1", "n2", "n3", "n4", "n5"}

		r1 := merkle.NewTreeStrings(nonces).RootHex()
		r2 := merkle.NewTreeStrings(nonces).RootHex()

		if r1 != r2 {
			t.Fatalf("\t%s\tShould compute the same root twice: %s != %s", failed, r1, r2)
		}
		t.Logf("\t%s\tShould compute the same root twice.", success)
	}
}

func TestOrderSensitivity(t *testing.T) {
	t.Log("Given the need to detect permutations and modifications.")
	{
		base := merkle.NewTreeStrings([]string{"a", "b", "c"}).RootHex()

		permuted := merkle.NewTreeStrings([]string{"b", "a", "c"}).RootHex()
		if base == permuted {
			t.Fatalf("\t%s\tShould change the root when the input is permuted.", failed)
		}
		t.Logf("\t%s\tShould change the root when the input is permuted.", success)

		modified := merkle.NewTreeStrings([]string{"a", "b", "d"}).RootHex()
		if base == modified {
			t.Fatalf("\t%s\tShould change the root when an input is modified.", failed)
		}
		t.Logf("\t%s\tShould change the root when an input is modified.", success)

		extended := merkle.NewTreeStrings([]string{"a", "b", "c", "d"}).RootHex()
		if base == extended {
			t.Fatalf("\t%s\tShould change the root when a distinct input is appended.", failed)
		}
		t.Logf("\t%s\tShould change the root when a distinct input is appended.", success)
	}
}

func TestEmptyRoot(t *testing.T) {
	t.Log("Given the need for a canonical empty block root.")
	{
		r1 := merkle.NewTreeStrings(nil).RootHex()
		r2 := merkle.NewTreeStrings([]string{}).RootHex()

		if r1 != r2 {
			t.Fatalf("\t%s\tShould compute the same empty root independently.", failed)
		}
		t.Logf("\t%s\tShould compute the same empty root independently.", success)

		if r1 != merkle.EmptyRoot() {
			t.Fatalf("\t%s\tShould match the well known empty root.", failed)
		}
		t.Logf("\t%s\tShould match the well known empty root.", success)

		// sha256 of the empty string.
		const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
		if r1 != want {
			t.Fatalf("\t%s\tShould equal sha256 of the empty string: got %s", failed, r1)
		}
		t.Logf("\t%s\tShould equal sha256 of the empty string.", success)
	}
}

func TestOddLeafDuplication(t *testing.T) {
	t.Log("Given the need to handle odd leaf counts.")
	{
		three := merkle.NewTreeStrings([]string{"a", "b", "c"})
		if three.RootHex() == "" {
			t.Fatalf("\t%s\tShould build a tree from three leaves.", failed)
		}
		t.Logf("\t%s\tShould build a tree from three leaves.", success)

		one := merkle.NewTreeStrings([]string{"solo"})
		if one.RootHex() == merkle.NewTreeStrings([]string{"solo", "solo"}).RootHex() {
			t.Logf("\t%s\tSingle leaf pairs with itself.", success)
		} else {
			t.Fatalf("\t%s\tSingle leaf should pair with itself.", failed)
		}

		// Duplicating the trailing leaf reproduces the odd-count pairing, so
		// the two inputs commit to the same root.
		if three.RootHex() != merkle.NewTreeStrings([]string{"a", "b", "c", "c"}).RootHex() {
			t.Fatalf("\t%s\tOdd leaf count should pair the last leaf with itself.", failed)
		}
		t.Logf("\t%s\tOdd leaf count pairs the last leaf with itself.", success)
	}
}

func TestProof(t *testing.T) {
	t.Log("Given the need to prove inclusion of a nonce.")
	{
		nonces := []string{"n1", "n2", "n3", "n4", "n5"}
		tree := merkle.NewTreeStrings(nonces)

		for _, nonce := range nonces {
			proof, order, err := tree.Proof([]byte(nonce))
			if err != nil {
				t.Fatalf("\t%s\tShould produce a proof for %q: %v", failed, nonce, err)
			}

			if !merkle.VerifyProof([]byte(nonce), proof, order, tree.RootHex()) {
				t.Fatalf("\t%s\tShould verify the proof for %q.", failed, nonce)
			}
		}
		t.Logf("\t%s\tShould verify a proof for every leaf.", success)

		if _, _, err := tree.Proof([]byte("missing")); err == nil {
			t.Fatalf("\t%s\tShould not produce a proof for a missing value.", failed)
		}
		t.Logf("\t%s\tShould not produce a proof for a missing value.", success)
	}
}
