package state

import (
	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
)

// LatestBlockHash returns the hash of the current chain head.
func (s *State) LatestBlockHash() string {
	return s.ledger.Head()
}

// QueryBlock retrieves the block stored under the specified hash.
func (s *State) QueryBlock(hash string) (database.Block, bool, error) {
	return s.ledger.Get(hash)
}

// QueryChain returns the hashes of the chain from the head back to genesis,
// bounded by the configured walk limit.
func (s *State) QueryChain() []string {
	return s.ledger.WalkBack(s.ledger.Head(), s.genesis.WalkBackLimit)
}

// Mempool returns a copy of the selectable transaction pool.
func (s *State) Mempool() []database.Tx {
	return s.mempool.Copy()
}

// MempoolCount returns the number of selectable transactions.
func (s *State) MempoolCount() int {
	return s.mempool.Count()
}

// Stakes returns a copy of the stake balances.
func (s *State) Stakes() map[string]uint64 {
	return s.stakes.Copy()
}

// Stake returns the balance for the specified public key.
func (s *State) Stake(pubKey string) uint64 {
	return s.stakes.Stake(pubKey)
}

// CreditStake adds stake to the specified participant.
func (s *State) CreditStake(pubKey string, amount uint64) error {
	return s.stakes.Credit(pubKey, amount)
}

// Status returns this node's consensus status for peer exchange.
func (s *State) Status() peer.PeerStatus {
	return peer.PeerStatus{
		LatestBlockHash: s.ledger.Head(),
		KnownPeers:      s.knownPeers.Copy(s.host),
	}
}
