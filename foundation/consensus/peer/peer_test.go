package peer_test

import (
	"fmt"
	"testing"

	"github.com/matchchain/matchchain/foundation/consensus/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_PeerSet(t *testing.T) {
	t.Log("Given the need to maintain the set of known peers.")
	{
		t.Logf("\tTest 0:\tWhen adding and removing peers.")
		{
			ps := peer.NewPeerSet()

			if !ps.Add(peer.New("node1:9080")) {
				t.Fatalf("\t%s\tTest 0:\tShould report a new peer as added.", failed)
			}
			if ps.Add(peer.New("node1:9080")) {
				t.Fatalf("\t%s\tTest 0:\tShould not report a known peer as added.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould add each peer once.", success)

			ps.Add(peer.New("node2:9080"))
			if ps.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould count 2 peers, got %d.", failed, ps.Count())
			}

			ps.Remove(peer.New("node1:9080"))
			if ps.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould count 1 peer after removal, got %d.", failed, ps.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould remove peers from the set.", success)
		}

		t.Logf("\tTest 1:\tWhen copying the set for a given host.")
		{
			ps := peer.NewPeerSet()
			ps.Add(peer.New("self:9080"))
			ps.Add(peer.New("other:9080"))

			peers := ps.Copy("self:9080")
			if len(peers) != 1 || peers[0].Host != "other:9080" {
				t.Fatalf("\t%s\tTest 1:\tShould exclude the local host from the copy.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould exclude the local host from the copy.", success)
		}
	}
}

func Test_PropagationSubset(t *testing.T) {
	t.Log("Given the need to fan messages out to rotating peer subsets.")
	{
		ps := peer.NewPeerSet()
		for i := 0; i < 7; i++ {
			ps.Add(peer.New(fmt.Sprintf("node%d:9080", i)))
		}

		t.Logf("\tTest 0:\tWhen the fan-out is smaller than the network.")
		{
			subset := ps.PropagationSubset("self:9080", 4, 3)
			if len(subset) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould return exactly 3 peers, got %d.", failed, len(subset))
			}
			t.Logf("\t%s\tTest 0:\tShould return exactly the fan-out count.", success)

			again := ps.PropagationSubset("self:9080", 4, 3)
			for i := range subset {
				if subset[i] != again[i] {
					t.Fatalf("\t%s\tTest 0:\tShould be deterministic for the same round.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be deterministic for the same round.", success)
		}

		t.Logf("\tTest 1:\tWhen the round advances.")
		{
			covered := make(map[string]bool)
			for round := uint64(0); round < 7; round++ {
				for _, p := range ps.PropagationSubset("self:9080", round, 3) {
					covered[p.Host] = true
				}
			}
			if len(covered) != 7 {
				t.Fatalf("\t%s\tTest 1:\tShould cover every peer across rotating rounds, got %d.", failed, len(covered))
			}
			t.Logf("\t%s\tTest 1:\tShould cover every peer across rotating rounds.", success)
		}

		t.Logf("\tTest 2:\tWhen the fan-out exceeds the network.")
		{
			subset := ps.PropagationSubset("self:9080", 1, 50)
			if len(subset) != 7 {
				t.Fatalf("\t%s\tTest 2:\tShould return all peers, got %d.", failed, len(subset))
			}
			t.Logf("\t%s\tTest 2:\tShould return all peers.", success)
		}

		t.Logf("\tTest 3:\tWhen the set is empty.")
		{
			empty := peer.NewPeerSet()
			if got := empty.PropagationSubset("self:9080", 1, 3); got != nil {
				t.Fatalf("\t%s\tTest 3:\tShould return no peers from an empty set.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould return no peers from an empty set.", success)
		}
	}
}
