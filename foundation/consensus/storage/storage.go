// Package storage provides the durable key-value store for the node. It
// wraps a bbolt database and exposes the named collections the consensus
// engine persists into.
package storage

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// The set of collections maintained by the node.
const (
	CollectionTransactions = "transactions"
	CollectionStakes       = "stakes"
	CollectionMoves        = "moves"
	CollectionProposed     = "proposed_blocks"
	CollectionConfirmed    = "confirmed_blocks"
	CollectionProcessed    = "processed_transactions"
	CollectionChainState   = "chain_state"
)

// collections lists every bucket created on open.
var collections = []string{
	CollectionTransactions,
	CollectionStakes,
	CollectionMoves,
	CollectionProposed,
	CollectionConfirmed,
	CollectionProcessed,
	CollectionChainState,
}

// =============================================================================

// Storage manages the underlying bbolt database.
type Storage struct {
	db *bolt.DB
}

// New opens the database at the specified path and makes sure every
// collection exists.
func New(dbPath string) (*Storage, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(btx *bolt.Tx) error {
		for _, name := range collections {
			if _, err := btx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create collection %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying database file.
func (s *Storage) Close() error {
	return s.db.Close()
}

// =============================================================================

// Txn provides access to the collections within a single database
// transaction scope.
type Txn struct {
	btx *bolt.Tx
}

// View runs the specified function inside a read-only transaction.
func (s *Storage) View(fn func(tx Txn) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(Txn{btx: btx})
	})
}

// Update runs the specified function inside a read-write transaction. All
// writes commit together or not at all.
func (s *Storage) Update(fn func(tx Txn) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(Txn{btx: btx})
	})
}

// Get returns the value for the key in the collection, or nil if the key is
// not present.
func (tx Txn) Get(collection string, key string) []byte {
	b := tx.btx.Bucket([]byte(collection))
	if b == nil {
		return nil
	}

	return b.Get([]byte(key))
}

// Put writes the value for the key in the collection.
func (tx Txn) Put(collection string, key string, value []byte) error {
	b := tx.btx.Bucket([]byte(collection))
	if b == nil {
		return fmt.Errorf("unknown collection %q", collection)
	}

	return b.Put([]byte(key), value)
}

// Delete removes the key from the collection. Removing a missing key is not
// an error.
func (tx Txn) Delete(collection string, key string) error {
	b := tx.btx.Bucket([]byte(collection))
	if b == nil {
		return fmt.Errorf("unknown collection %q", collection)
	}

	return b.Delete([]byte(key))
}

// Scan iterates the collection in key order, calling fn for each pair.
// Returning an error from fn stops the scan.
func (tx Txn) Scan(collection string, fn func(key string, value []byte) error) error {
	b := tx.btx.Bucket([]byte(collection))
	if b == nil {
		return fmt.Errorf("unknown collection %q", collection)
	}

	return b.ForEach(func(k, v []byte) error {
		return fn(string(k), v)
	})
}

// =============================================================================
// One-shot helpers for callers that don't need a multi-operation scope.

// Get returns the value for the key in the collection, or nil if absent.
func (s *Storage) Get(collection string, key string) ([]byte, error) {
	var value []byte
	err := s.View(func(tx Txn) error {
		if v := tx.Get(collection, key); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})

	return value, err
}

// Put writes a single key in its own transaction.
func (s *Storage) Put(collection string, key string, value []byte) error {
	return s.Update(func(tx Txn) error {
		return tx.Put(collection, key, value)
	})
}

// Delete removes a single key in its own transaction.
func (s *Storage) Delete(collection string, key string) error {
	return s.Update(func(tx Txn) error {
		return tx.Delete(collection, key)
	})
}

// Scan iterates a collection in key order inside a read transaction.
func (s *Storage) Scan(collection string, fn func(key string, value []byte) error) error {
	return s.View(func(tx Txn) error {
		return tx.Scan(collection, fn)
	})
}
