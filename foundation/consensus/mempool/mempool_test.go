package mempool_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/mempool"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newTestPool(t *testing.T) (*mempool.Mempool, *storage.Storage) {
	t.Helper()

	strg, err := storage.New(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}
	t.Cleanup(func() { strg.Close() })

	mp, err := mempool.New(strg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a mempool: %v", failed, err)
	}

	return mp, strg
}

func signedTx(t *testing.T, matchID string) database.Tx {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}

	tx, err := database.NewTx(matchID, "winner", "hash", fmt.Sprintf("nonce-%s", matchID), privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a transaction: %v", failed, err)
	}

	return tx
}

func Test_AdmitAndSelect(t *testing.T) {
	t.Log("Given the need to admit transactions into the registry.")
	{
		t.Logf("\tTest 0:\tWhen admitting signed and duplicate transactions.")
		{
			mp, _ := newTestPool(t)

			tx := signedTx(t, "m1")
			if err := mp.Admit(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to admit a signed transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to admit a signed transaction.", success)

			if err := mp.Admit(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould tolerate re-admitting the same nonce: %v", failed, err)
			}
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould hold the nonce once, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould hold the nonce once.", success)

			tampered := signedTx(t, "m2")
			tampered.Winner = "cheater"
			if err := mp.Admit(tampered); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a transaction with a bad signature.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a transaction with a bad signature.", success)

			if !mp.Knows(tx.Nonce) {
				t.Fatalf("\t%s\tTest 0:\tShould know the admitted nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould know the admitted nonce.", success)
		}

		t.Logf("\tTest 1:\tWhen selecting transactions for a proposal.")
		{
			mp, _ := newTestPool(t)

			for i := 0; i < 3; i++ {
				if err := mp.Admit(signedTx(t, fmt.Sprintf("m%d", i))); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to admit transaction %d: %v", failed, i, err)
				}
			}

			txs := mp.SelectForProposal()
			if len(txs) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould select all 3 transactions, got %d.", failed, len(txs))
			}
			t.Logf("\t%s\tTest 1:\tShould select all admitted transactions.", success)
		}
	}
}

func Test_Lifecycle(t *testing.T) {
	t.Log("Given the need to track transactions across block confirmation and fork switches.")
	{
		t.Logf("\tTest 0:\tWhen a proposed block carries a transaction.")
		{
			mp, _ := newTestPool(t)

			tx := signedTx(t, "m1")
			if err := mp.Admit(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to admit the transaction: %v", failed, err)
			}

			mp.MarkPending([]string{tx.Nonce})
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould remove a pending nonce from the pool.", failed)
			}
			if len(mp.SelectForProposal()) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not select a pending nonce again.", failed)
			}
			if !mp.Knows(tx.Nonce) {
				t.Fatalf("\t%s\tTest 0:\tShould still know a pending nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the nonce as pending.", success)

			if err := mp.MarkProcessed([]string{tx.Nonce}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mark the nonce processed: %v", failed, err)
			}
			if !mp.Knows(tx.Nonce) {
				t.Fatalf("\t%s\tTest 0:\tShould still know a processed nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould retire the nonce once processed.", success)
		}

		t.Logf("\tTest 1:\tWhen a fork switch abandons a confirmed block.")
		{
			mp, strg := newTestPool(t)

			tx := signedTx(t, "m1")
			if err := mp.Admit(tx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to admit the transaction: %v", failed, err)
			}
			mp.MarkPending([]string{tx.Nonce})
			if err := mp.MarkProcessed([]string{tx.Nonce}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mark the nonce processed: %v", failed, err)
			}

			if err := mp.RevertToMempool([]string{tx.Nonce}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to revert the nonce: %v", failed, err)
			}
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould return the nonce to the pool.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould return the nonce to the pool.", success)

			reloaded, err := mempool.New(strg)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to reload the mempool: %v", failed, err)
			}
			if reloaded.Count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould reload the reverted nonce after a restart.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reload the reverted nonce after a restart.", success)
		}
	}
}

func Test_RestartRecovery(t *testing.T) {
	t.Log("Given the need to recover unprocessed transactions after a restart.")
	{
		t.Logf("\tTest 0:\tWhen one nonce is processed and one is not.")
		{
			mp, strg := newTestPool(t)

			tx1 := signedTx(t, "m1")
			tx2 := signedTx(t, "m2")
			if err := mp.Admit(tx1); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to admit tx1: %v", failed, err)
			}
			if err := mp.Admit(tx2); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to admit tx2: %v", failed, err)
			}
			if err := mp.MarkProcessed([]string{tx1.Nonce}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mark tx1 processed: %v", failed, err)
			}

			reloaded, err := mempool.New(strg)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to reload the mempool: %v", failed, err)
			}
			if reloaded.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould reload only the unprocessed nonce, got %d.", failed, reloaded.Count())
			}
			if !reloaded.Knows(tx2.Nonce) {
				t.Fatalf("\t%s\tTest 0:\tShould reload the unprocessed nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reload only the unprocessed nonce.", success)
		}
	}
}
