package sortition_test

import (
	"testing"

	"github.com/matchchain/matchchain/foundation/consensus/sortition"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Seed(t *testing.T) {
	t.Log("Given the need for a shared deterministic round seed.")
	{
		t.Logf("\tTest 0:\tWhen deriving seeds for consecutive rounds.")
		{
			if sortition.Seed(1) != sortition.Seed(1) {
				t.Fatalf("\t%s\tTest 0:\tShould derive the same seed for the same round.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive the same seed for the same round.", success)

			if sortition.Seed(1) == sortition.Seed(2) {
				t.Fatalf("\t%s\tTest 0:\tShould derive different seeds for different rounds.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive different seeds for different rounds.", success)

			if len(sortition.Seed(42)) != 64 {
				t.Fatalf("\t%s\tTest 0:\tShould derive a 64 character hex seed.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive a 64 character hex seed.", success)
		}
	}
}

func Test_ProposerSelection(t *testing.T) {
	t.Log("Given the need for stake-proportional proposer selection.")
	{
		t.Logf("\tTest 0:\tWhen a participant has zero stake.")
		{
			if sortition.IsProposer(sortition.Seed(1), "nobody", 0, 100) {
				t.Fatalf("\t%s\tTest 0:\tShould never select a zero-stake participant.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould never select a zero-stake participant.", success)

			if sortition.IsProposer(sortition.Seed(1), "nobody", 10, 0) {
				t.Fatalf("\t%s\tTest 0:\tShould never select against zero total stake.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould never select against zero total stake.", success)
		}

		t.Logf("\tTest 1:\tWhen a participant holds all the stake.")
		{
			for round := uint64(0); round < 50; round++ {
				if !sortition.IsProposer(sortition.Seed(round), "whale", 100, 100) {
					t.Fatalf("\t%s\tTest 1:\tShould always select the sole staker, round %d.", failed, round)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould always select the sole staker.", success)
		}

		t.Logf("\tTest 2:\tWhen comparing win rates for unequal stakes.")
		{
			const rounds = 20000

			var winsBig, winsSmall int
			for round := uint64(0); round < rounds; round++ {
				seed := sortition.Seed(round)
				if sortition.IsProposer(seed, "big", 100, 1000) {
					winsBig++
				}
				if sortition.IsProposer(seed, "small", 50, 1000) {
					winsSmall++
				}
			}

			// Expected win rates are 10% and 5%. Allow a generous band so the
			// test is stable while still catching a broken weighting.
			if winsBig < rounds*7/100 || winsBig > rounds*13/100 {
				t.Fatalf("\t%s\tTest 2:\tShould win near 10%% with a tenth of the stake, got %d/%d.", failed, winsBig, rounds)
			}
			t.Logf("\t%s\tTest 2:\tShould win near 10%% with a tenth of the stake.", success)

			if winsSmall < rounds*3/100 || winsSmall > rounds*7/100 {
				t.Fatalf("\t%s\tTest 2:\tShould win near 5%% with a twentieth of the stake, got %d/%d.", failed, winsSmall, rounds)
			}
			t.Logf("\t%s\tTest 2:\tShould win near 5%% with a twentieth of the stake.", success)

			if winsBig <= winsSmall {
				t.Fatalf("\t%s\tTest 2:\tShould favor the larger stake, got %d vs %d.", failed, winsBig, winsSmall)
			}
			t.Logf("\t%s\tTest 2:\tShould favor the larger stake.", success)
		}

		t.Logf("\tTest 3:\tWhen evaluating the same inputs twice.")
		{
			seed := sortition.Seed(7)
			if sortition.IsProposer(seed, "alice", 60, 180) != sortition.IsProposer(seed, "alice", 60, 180) {
				t.Fatalf("\t%s\tTest 3:\tShould be deterministic for identical inputs.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould be deterministic for identical inputs.", success)
		}
	}
}
