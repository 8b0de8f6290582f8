package database_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/genesis"
	"github.com/matchchain/matchchain/foundation/consensus/merkle"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func noopEvents(v string, args ...any) {}

func newTestLedger(t *testing.T) (*database.Ledger, *storage.Storage) {
	t.Helper()

	strg, err := storage.New(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}
	t.Cleanup(func() { strg.Close() })

	ledger, err := database.NewLedger(strg, noopEvents)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}

	return ledger, strg
}

func Test_Transactions(t *testing.T) {
	t.Log("Given the need to sign and verify match transactions.")
	{
		t.Logf("\tTest 0:\tWhen constructing a transaction with a valid key.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to generate a private key.", success)

			tx, err := database.NewTx("match-77", signature.PublicKeyHex(privateKey), "deadbeef", "nonce-1", privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create a transaction.", success)

			if err := tx.VerifySignature(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to verify the signature.", success)

			tx.Winner = "someone-else"
			if err := tx.VerifySignature(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not verify a tampered transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify a tampered transaction.", success)
		}
	}
}

func Test_BlockIntegrity(t *testing.T) {
	t.Log("Given the need to validate block signatures and merkle roots.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
		}

		nonces := []string{"n1", "n2", "n3"}

		t.Logf("\tTest 0:\tWhen proposing a block over %d nonces.", len(nonces))
		{
			b, err := database.NewBlock("seed", nonces, signature.ZeroHash, 1714501300, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create a block.", success)

			if err := b.VerifySignature(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the proposer signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to verify the proposer signature.", success)

			if err := b.VerifyMerkleRoot(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould recompute a matching merkle root: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould recompute a matching merkle root.", success)

			if b.Hash() != signature.Hash([]byte(b.SigningString())) {
				t.Fatalf("\t%s\tTest 0:\tShould hash the canonical block string.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hash the canonical block string.", success)
		}

		t.Logf("\tTest 1:\tWhen the declared root does not cover the nonces.")
		{
			b, err := database.NewBlock("seed", nonces, signature.ZeroHash, 1714501300, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to create a block: %v", failed, err)
			}

			b.TxNonces = append(b.TxNonces, "n4")
			if err := b.VerifyMerkleRoot(); err != database.ErrInvalidMerkleRoot {
				t.Fatalf("\t%s\tTest 1:\tShould reject a mismatched merkle root: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a mismatched merkle root.", success)
		}

		t.Logf("\tTest 2:\tWhen voting and confirming the block.")
		{
			b, err := database.NewBlock("seed", nonces, signature.ZeroHash, 1714501300, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create a block: %v", failed, err)
			}

			v, err := database.NewVote(b, true, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create a vote: %v", failed, err)
			}
			if err := v.VerifySignature(); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to verify the vote: %v", failed, err)
			}
			if v.BlockID() != b.BlockID() {
				t.Fatalf("\t%s\tTest 2:\tShould tally the vote under the block identity.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to create and verify a vote.", success)

			c, err := database.NewConfirmation(b, 3, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create a confirmation: %v", failed, err)
			}
			if err := c.VerifySignature(); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to verify the confirmation: %v", failed, err)
			}
			if c.BlockID() != b.BlockID() {
				t.Fatalf("\t%s\tTest 2:\tShould finalize under the block identity.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to create and verify a confirmation.", success)
		}
	}
}

func Test_LedgerGenesis(t *testing.T) {
	t.Log("Given the need to initialize a deterministic genesis block.")
	{
		t.Logf("\tTest 0:\tWhen initializing an empty ledger twice.")
		{
			ledger, _ := newTestLedger(t)
			gen := genesis.Default()

			b, created, err := ledger.InitGenesis(gen)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to initialize genesis: %v", failed, err)
			}
			if !created {
				t.Fatalf("\t%s\tTest 0:\tShould report the genesis block was created.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to initialize genesis.", success)

			if ledger.Head() != b.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould point the head at the genesis block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould point the head at the genesis block.", success)

			b2, created, err := ledger.InitGenesis(gen)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould tolerate re-initialization: %v", failed, err)
			}
			if created {
				t.Fatalf("\t%s\tTest 0:\tShould not create genesis a second time.", failed)
			}
			if b2.Hash() != b.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould return the identical genesis block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not create genesis a second time.", success)

			nonce := signature.Hash(fmt.Appendf(nil, "genesis_tx_%d", gen.Block.TimeStamp))
			if b.MerkleRoot != merkle.NewTreeStrings([]string{nonce}).RootHex() {
				t.Fatalf("\t%s\tTest 0:\tShould derive the genesis merkle root from the genesis nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive the genesis merkle root from the genesis nonce.", success)
		}
	}
}

func Test_LedgerChain(t *testing.T) {
	t.Log("Given the need to persist and walk the confirmed chain.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
		}

		t.Logf("\tTest 0:\tWhen appending three linked blocks.")
		{
			ledger, _ := newTestLedger(t)

			prev := signature.ZeroHash
			var hashes []string
			for i := 0; i < 3; i++ {
				b, err := database.NewBlock("seed", []string{"n"}, prev, int64(1714501300+i), privateKey)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to create block %d: %v", failed, i, err)
				}
				if err := ledger.Put(b.Hash(), b); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to store block %d: %v", failed, i, err)
				}
				if err := ledger.SetHead(b.Hash()); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to move the head: %v", failed, err)
				}
				hashes = append(hashes, b.Hash())
				prev = b.Hash()
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append three linked blocks.", success)

			chain := ledger.WalkBack(ledger.Head(), 100)
			if len(chain) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould walk back 3 blocks, got %d.", failed, len(chain))
			}
			for i, hash := range chain {
				if hash != hashes[len(hashes)-1-i] {
					t.Fatalf("\t%s\tTest 0:\tShould walk head to genesis in order.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould walk head to genesis in order.", success)

			if got := ledger.WalkBack(ledger.Head(), 2); len(got) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould honor the walk depth bound, got %d.", failed, len(got))
			}
			t.Logf("\t%s\tTest 0:\tShould honor the walk depth bound.", success)

			if got := ledger.WalkBack("unknown-hash", 100); len(got) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould return an empty walk for an unknown block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould return an empty walk for an unknown block.", success)
		}

		t.Logf("\tTest 1:\tWhen the head must survive a restart.")
		{
			strg, err := storage.New(filepath.Join(t.TempDir(), "chain.db"))
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to open storage: %v", failed, err)
			}
			defer strg.Close()

			ledger, err := database.NewLedger(strg, noopEvents)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct a ledger: %v", failed, err)
			}

			b, err := database.NewBlock("seed", []string{"n"}, signature.ZeroHash, 1714501300, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to create a block: %v", failed, err)
			}
			if err := ledger.Put(b.Hash(), b); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to store the block: %v", failed, err)
			}
			if err := ledger.SetHead(b.Hash()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to move the head: %v", failed, err)
			}

			reopened, err := database.NewLedger(strg, noopEvents)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to reconstruct the ledger: %v", failed, err)
			}
			if reopened.Head() != b.Hash() {
				t.Fatalf("\t%s\tTest 1:\tShould recover the persisted head.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould recover the persisted head.", success)
		}
	}
}
