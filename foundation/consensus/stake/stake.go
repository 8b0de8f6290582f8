// Package stake maintains the per-participant stake balances that weight
// proposer selection and vote tallies.
package stake

import (
	"strconv"
	"sync"

	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// Ledger represents the stake balances keyed by participant public key. The
// full table is cached in memory and every credit is written through to
// storage.
type Ledger struct {
	mu     sync.RWMutex
	strg   *storage.Storage
	stakes map[string]uint64
}

// NewLedger constructs a stake ledger and loads the persisted balances.
func NewLedger(strg *storage.Storage) (*Ledger, error) {
	l := Ledger{
		strg:   strg,
		stakes: make(map[string]uint64),
	}

	err := strg.Scan(storage.CollectionStakes, func(key string, value []byte) error {
		amount, err := strconv.ParseUint(string(value), 10, 64)
		if err != nil {
			return err
		}
		l.stakes[key] = amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// Stake returns the balance for the public key, zero when the participant is
// unknown.
func (l *Ledger) Stake(pubKey string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.stakes[pubKey]
}

// TotalStake returns the sum of all balances.
func (l *Ledger) TotalStake() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total uint64
	for _, amount := range l.stakes {
		total += amount
	}

	return total
}

// Credit adds the amount to the participant's balance, creating the entry
// when the public key is new. Stake is never debited; abandoned rewards from
// a fork switch are simply kept.
func (l *Ledger) Credit(pubKey string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.stakes[pubKey] + amount

	if err := l.strg.Put(storage.CollectionStakes, pubKey, []byte(strconv.FormatUint(balance, 10))); err != nil {
		return err
	}
	l.stakes[pubKey] = balance

	return nil
}

// Copy returns a snapshot of all balances.
func (l *Ledger) Copy() map[string]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stakes := make(map[string]uint64, len(l.stakes))
	for pubKey, amount := range l.stakes {
		stakes[pubKey] = amount
	}

	return stakes
}
