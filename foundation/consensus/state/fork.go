package state

import (
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// resolveFork handles a proposed block whose previous hash is not the local
// head. When the block extends a known, strictly longer chain the head is
// switched and resolution succeeds. When the referenced ancestor is unknown,
// sync requests go out to every peer, the block is parked until a response
// delivers the ancestor, and ErrMissingAncestor reports the deferral. A
// known but no-longer chain fails with ErrInvalidChainLinkage. The caller
// must hold the state mutex.
func (s *State) resolveFork(b database.Block, now time.Time) ([]outbound, error) {
	if now.Unix()-b.TimeStamp > int64(s.genesis.MaxBlockAge) {
		s.evHandler("state: fork: proposed block[%s] too old, dropped", b.Hash()[:16])
		return nil, database.ErrStaleBlock
	}

	if b.PrevBlockHash == s.ledger.Head() {
		return nil, nil
	}

	_, exists, err := s.ledger.Get(b.PrevBlockHash)
	if err != nil {
		return nil, err
	}

	if !exists && b.PrevBlockHash != signature.ZeroHash {
		if _, parked := s.pendingSyncs[b.PrevBlockHash]; parked {
			return nil, database.ErrMissingAncestor
		}
		s.pendingSyncs[b.PrevBlockHash] = b

		req := message.SyncRequest{
			FromHash: b.PrevBlockHash,
			MaxCount: s.genesis.WalkBackLimit,
		}
		env, err := s.envelope(message.TypeBlockSyncRequest, req)
		if err != nil {
			return nil, err
		}

		var msgs []outbound
		for _, target := range s.knownPeers.Copy(s.host) {
			msgs = append(msgs, outbound{target, env})
		}

		s.evHandler("state: fork: unknown ancestor[%s], sync requested from %d peers", short(b.PrevBlockHash), len(msgs))

		return msgs, database.ErrMissingAncestor
	}

	// The proposed block itself extends the alternative chain by one.
	if !s.switchHead(b.PrevBlockHash, 1) {
		s.evHandler("state: fork: block[%s] extends a chain no longer than ours, dropped", b.Hash()[:16])
		return nil, database.ErrInvalidChainLinkage
	}

	return nil, nil
}

// switchHead moves the head to the chain ending at newHead when that chain,
// counting extra unstored blocks beyond its tip, is strictly longer than the
// current one. Transactions unique to the abandoned suffix return to the
// mempool and transactions on the adopted suffix are retired. The caller
// must hold the state mutex.
func (s *State) switchHead(newHead string, extra int) bool {
	limit := s.genesis.WalkBackLimit

	alt := s.ledger.WalkBack(newHead, limit)
	local := s.ledger.WalkBack(s.ledger.Head(), limit)

	if len(alt)+extra <= len(local) {
		return false
	}

	onAlt := make(map[string]bool, len(alt))
	for _, hash := range alt {
		onAlt[hash] = true
	}

	// Walk the local chain down to the first block shared with the
	// alternative chain. Everything above it is the abandoned suffix.
	var abandoned []string
	common := signature.ZeroHash
	for _, hash := range local {
		if onAlt[hash] {
			common = hash
			break
		}
		abandoned = append(abandoned, hash)
	}

	var adopted []string
	for _, hash := range alt {
		if hash == common {
			break
		}
		adopted = append(adopted, hash)
	}

	adoptedNonces := make(map[string]bool)
	for _, hash := range adopted {
		if b, exists, _ := s.ledger.Get(hash); exists {
			for _, nonce := range b.TxNonces {
				adoptedNonces[nonce] = true
			}
		}
	}

	var revert []string
	for _, hash := range abandoned {
		if b, exists, _ := s.ledger.Get(hash); exists {
			for _, nonce := range b.TxNonces {
				if !adoptedNonces[nonce] {
					revert = append(revert, nonce)
				}
			}
		}
	}

	if err := s.mempool.RevertToMempool(revert); err != nil {
		s.evHandler("state: fork: ERROR reverting transactions: %s", err)
		return false
	}

	retire := make([]string, 0, len(adoptedNonces))
	for nonce := range adoptedNonces {
		retire = append(retire, nonce)
	}
	if err := s.mempool.MarkProcessed(retire); err != nil {
		s.evHandler("state: fork: ERROR retiring transactions: %s", err)
		return false
	}

	if err := s.ledger.SetHead(newHead); err != nil {
		s.evHandler("state: fork: ERROR moving head: %s", err)
		return false
	}

	s.evHandler("state: fork: switched head to [%s], abandoned %d blocks, reverted %d transactions", short(newHead), len(abandoned), len(revert))

	return true
}
