package database

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/matchchain/matchchain/foundation/consensus/genesis"
	"github.com/matchchain/matchchain/foundation/consensus/merkle"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// headKey is the chain-state key holding the current chain head hash.
const headKey = "head"

// EventHandler defines a function that is called when events occur in the
// processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Ledger manages the append-only map of confirmed blocks and the chain head
// pointer. Blocks are never deleted; a fork switch only moves the head.
type Ledger struct {
	mu   sync.RWMutex
	strg *storage.Storage
	head string
	ev   EventHandler
}

// NewLedger constructs a ledger over the confirmed-blocks collection and
// loads the persisted chain head.
func NewLedger(strg *storage.Storage, ev EventHandler) (*Ledger, error) {
	l := Ledger{
		strg: strg,
		head: signature.ZeroHash,
		ev:   ev,
	}

	head, err := strg.Get(storage.CollectionChainState, headKey)
	if err != nil {
		return nil, err
	}
	if head != nil {
		l.head = string(head)
	}

	return &l, nil
}

// InitGenesis constructs and commits the fixed genesis block and its single
// genesis transaction on an empty store. On subsequent runs the existing
// entries are detected and initialization is skipped.
func (l *Ledger) InitGenesis(gen genesis.Genesis) (Block, bool, error) {
	nonce := signature.Hash(fmt.Appendf(nil, "genesis_tx_%d", gen.Block.TimeStamp))

	b := Block{
		RoundSeed:      gen.Block.Seed,
		TxNonces:       []string{nonce},
		MerkleRoot:     merkle.NewTreeStrings([]string{nonce}).RootHex(),
		ProposerPubKey: gen.Block.PubKey,
		Signature:      gen.Block.Signature,
		PrevBlockHash:  signature.ZeroHash,
		TimeStamp:      gen.Block.TimeStamp,
	}
	hash := b.Hash()

	existing, _, err := l.Get(hash)
	if err != nil {
		return Block{}, false, err
	}
	if existing.RoundSeed != "" {
		l.ev("ledger: InitGenesis: already initialized: genesis[%s]", hash[:16])
		return existing, false, nil
	}

	tx := Tx{
		MatchID:        "genesis_match",
		Winner:         "genesis",
		ContentHash:    "genesis_moves",
		Nonce:          nonce,
		ProposerPubKey: gen.Block.PubKey,
		Signature:      gen.Block.Signature,
	}

	blockData, err := json.Marshal(b)
	if err != nil {
		return Block{}, false, err
	}
	txData, err := json.Marshal(tx)
	if err != nil {
		return Block{}, false, err
	}

	err = l.strg.Update(func(stx storage.Txn) error {
		if err := stx.Put(storage.CollectionConfirmed, hash, blockData); err != nil {
			return err
		}
		if err := stx.Put(storage.CollectionTransactions, nonce, txData); err != nil {
			return err
		}
		if err := stx.Put(storage.CollectionProcessed, nonce, []byte("1")); err != nil {
			return err
		}
		return stx.Put(storage.CollectionChainState, headKey, []byte(hash))
	})
	if err != nil {
		return Block{}, false, err
	}

	l.mu.Lock()
	l.head = hash
	l.mu.Unlock()

	l.ev("ledger: InitGenesis: committed genesis block[%s] tx[%s]", hash[:16], nonce[:16])

	return b, true, nil
}

// Get returns the block stored under the specified hash. The second return
// reports whether the block was found.
func (l *Ledger) Get(hash string) (Block, bool, error) {
	data, err := l.strg.Get(storage.CollectionConfirmed, hash)
	if err != nil {
		return Block{}, false, err
	}
	if data == nil {
		return Block{}, false, nil
	}

	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return Block{}, false, err
	}

	return b, true, nil
}

// Put appends the block under the specified hash. Re-putting an existing
// hash is a no-op.
func (l *Ledger) Put(hash string, b Block) error {
	return l.strg.Update(func(stx storage.Txn) error {
		if stx.Get(storage.CollectionConfirmed, hash) != nil {
			return nil
		}

		data, err := json.Marshal(b)
		if err != nil {
			return err
		}

		return stx.Put(storage.CollectionConfirmed, hash, data)
	})
}

// Head returns the hash of the latest committed block, or the zero hash when
// the ledger is empty.
func (l *Ledger) Head() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.head
}

// SetHead moves the chain head pointer. Blocks abandoned by the move are
// retained in the store.
func (l *Ledger) SetHead(hash string) error {
	if err := l.strg.Put(storage.CollectionChainState, headKey, []byte(hash)); err != nil {
		return err
	}

	l.mu.Lock()
	l.head = hash
	l.mu.Unlock()

	return nil
}

// WalkBack follows previous-block links from the starting hash and returns
// the hashes in walk order. The walk stops at the genesis zero hash, at the
// depth bound, or silently when a referenced ancestor is missing locally.
func (l *Ledger) WalkBack(startHash string, maxDepth int) []string {
	var chain []string

	l.strg.View(func(stx storage.Txn) error {
		current := startHash
		for current != signature.ZeroHash && len(chain) < maxDepth {
			data := stx.Get(storage.CollectionConfirmed, current)
			if data == nil {
				break
			}

			var b Block
			if err := json.Unmarshal(data, &b); err != nil {
				break
			}

			chain = append(chain, current)
			current = b.PrevBlockHash
		}
		return nil
	})

	return chain
}
