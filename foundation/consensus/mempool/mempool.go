// Package mempool maintains the registry of match transactions waiting to be
// included in a block, backed by persistent storage so pending work survives
// a restart.
package mempool

import (
	"encoding/json"
	"sync"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// Mempool represents the registry of admitted transactions keyed by nonce.
// A transaction moves pool -> pending when it is included in a proposed
// block, and out of both when that block is confirmed.
type Mempool struct {
	mu      sync.RWMutex
	strg    *storage.Storage
	pool    map[string]database.Tx
	pending map[string]database.Tx
}

// New constructs a mempool and reloads every stored transaction that has not
// been processed into a confirmed block yet.
func New(strg *storage.Storage) (*Mempool, error) {
	mp := Mempool{
		strg:    strg,
		pool:    make(map[string]database.Tx),
		pending: make(map[string]database.Tx),
	}

	processed := make(map[string]bool)
	err := strg.View(func(stx storage.Txn) error {
		if err := stx.Scan(storage.CollectionProcessed, func(key string, value []byte) error {
			processed[key] = true
			return nil
		}); err != nil {
			return err
		}

		return stx.Scan(storage.CollectionTransactions, func(key string, value []byte) error {
			if processed[key] {
				return nil
			}

			var tx database.Tx
			if err := json.Unmarshal(value, &tx); err != nil {
				return err
			}
			mp.pool[key] = tx

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return &mp, nil
}

// Admit validates and records a new transaction. Admitting a nonce the node
// already knows, in any state, is a no-op so gossip can re-deliver freely.
func (mp *Mempool) Admit(tx database.Tx) error {
	if err := tx.VerifySignature(); err != nil {
		return err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.Nonce]; exists {
		return nil
	}
	if _, exists := mp.pending[tx.Nonce]; exists {
		return nil
	}

	stored, err := mp.strg.Get(storage.CollectionTransactions, tx.Nonce)
	if err != nil {
		return err
	}
	if stored != nil {
		return nil
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	if err := mp.strg.Put(storage.CollectionTransactions, tx.Nonce, data); err != nil {
		return err
	}

	mp.pool[tx.Nonce] = tx

	return nil
}

// SelectForProposal returns every poolable transaction for the next block,
// ordered deterministically by the storage key order.
func (mp *Mempool) SelectForProposal() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var txs []database.Tx
	mp.strg.View(func(stx storage.Txn) error {
		return stx.Scan(storage.CollectionTransactions, func(key string, value []byte) error {
			tx, exists := mp.pool[key]
			if !exists {
				return nil
			}
			txs = append(txs, tx)
			return nil
		})
	})

	return txs
}

// MarkPending moves the specified nonces out of the selectable pool while a
// block carrying them awaits confirmation. Unknown nonces are ignored.
func (mp *Mempool) MarkPending(nonces []string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, nonce := range nonces {
		tx, exists := mp.pool[nonce]
		if !exists {
			continue
		}
		mp.pending[nonce] = tx
		delete(mp.pool, nonce)
	}
}

// MarkProcessed permanently retires the specified nonces once a confirmed
// block carries them. The processed marker keeps the nonces out of the pool
// across restarts.
func (mp *Mempool) MarkProcessed(nonces []string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	err := mp.strg.Update(func(stx storage.Txn) error {
		for _, nonce := range nonces {
			if err := stx.Put(storage.CollectionProcessed, nonce, []byte("1")); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, nonce := range nonces {
		delete(mp.pool, nonce)
		delete(mp.pending, nonce)
	}

	return nil
}

// RevertToMempool returns the specified nonces to the selectable pool after
// a fork switch abandoned the blocks carrying them. Nonces with no stored
// transaction are skipped.
func (mp *Mempool) RevertToMempool(nonces []string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.strg.Update(func(stx storage.Txn) error {
		for _, nonce := range nonces {
			if err := stx.Delete(storage.CollectionProcessed, nonce); err != nil {
				return err
			}

			data := stx.Get(storage.CollectionTransactions, nonce)
			if data == nil {
				continue
			}

			var tx database.Tx
			if err := json.Unmarshal(data, &tx); err != nil {
				return err
			}

			mp.pool[nonce] = tx
			delete(mp.pending, nonce)
		}
		return nil
	})
}

// Knows reports whether the node has seen the nonce in any state.
func (mp *Mempool) Knows(nonce string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if _, exists := mp.pool[nonce]; exists {
		return true
	}
	if _, exists := mp.pending[nonce]; exists {
		return true
	}

	data, err := mp.strg.Get(storage.CollectionTransactions, nonce)
	if err != nil {
		return false
	}

	return data != nil
}

// Copy returns a snapshot of the selectable pool.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}

	return txs
}

// Count returns the number of selectable transactions.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}
