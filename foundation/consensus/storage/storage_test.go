package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestCollections(t *testing.T) {
	t.Log("Given the need to persist and scan collection data.")
	{
		strg, err := storage.New(filepath.Join(t.TempDir(), "node.db"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		defer strg.Close()
		t.Logf("\t%s\tShould be able to open the database.", success)

		if err := strg.Put(storage.CollectionTransactions, "n2", []byte("tx2")); err != nil {
			t.Fatalf("\t%s\tShould be able to put a value: %v", failed, err)
		}
		if err := strg.Put(storage.CollectionTransactions, "n1", []byte("tx1")); err != nil {
			t.Fatalf("\t%s\tShould be able to put a value: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to put values.", success)

		v, err := strg.Get(storage.CollectionTransactions, "n1")
		if err != nil || string(v) != "tx1" {
			t.Fatalf("\t%s\tShould read back the stored value: %q %v", failed, v, err)
		}
		t.Logf("\t%s\tShould read back the stored value.", success)

		v, err = strg.Get(storage.CollectionTransactions, "missing")
		if err != nil || v != nil {
			t.Fatalf("\t%s\tShould return nil for a missing key: %q %v", failed, v, err)
		}
		t.Logf("\t%s\tShould return nil for a missing key.", success)

		var keys []string
		err = strg.Scan(storage.CollectionTransactions, func(key string, value []byte) error {
			keys = append(keys, key)
			return nil
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to scan the collection: %v", failed, err)
		}
		if len(keys) != 2 || keys[0] != "n1" || keys[1] != "n2" {
			t.Fatalf("\t%s\tShould scan keys in order: %v", failed, keys)
		}
		t.Logf("\t%s\tShould scan keys in order.", success)

		if err := strg.Delete(storage.CollectionTransactions, "n1"); err != nil {
			t.Fatalf("\t%s\tShould be able to delete a key: %v", failed, err)
		}
		v, _ = strg.Get(storage.CollectionTransactions, "n1")
		if v != nil {
			t.Fatalf("\t%s\tShould not find a deleted key.", failed)
		}
		t.Logf("\t%s\tShould be able to delete a key.", success)
	}
}

func TestTransactionScope(t *testing.T) {
	t.Log("Given the need to commit multiple writes atomically.")
	{
		strg, err := storage.New(filepath.Join(t.TempDir(), "node.db"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		defer strg.Close()

		err = strg.Update(func(tx storage.Txn) error {
			if err := tx.Put(storage.CollectionStakes, "alice", []byte("100")); err != nil {
				return err
			}
			return tx.Put(storage.CollectionProcessed, "n1", []byte("1"))
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to commit a read-write scope: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to commit a read-write scope.", success)

		err = strg.View(func(tx storage.Txn) error {
			if tx.Get(storage.CollectionStakes, "alice") == nil {
				t.Fatalf("\t%s\tShould see both writes in a read scope.", failed)
			}
			if tx.Get(storage.CollectionProcessed, "n1") == nil {
				t.Fatalf("\t%s\tShould see both writes in a read scope.", failed)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to run a read scope: %v", failed, err)
		}
		t.Logf("\t%s\tShould see both writes in a read scope.", success)
	}
}
