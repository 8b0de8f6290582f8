package state

import (
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// OnBlockSyncRequest answers a peer's request for the chain segment ending
// at the requested hash. A zero-hash request is served from this node's own
// head so a fresh peer can discover the chain.
func (s *State) OnBlockSyncRequest(req message.SyncRequest) message.SyncResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := req.FromHash
	if start == signature.ZeroHash {
		start = s.ledger.Head()
	}

	max := req.MaxCount
	if max <= 0 || max > s.genesis.WalkBackLimit {
		max = s.genesis.WalkBackLimit
	}

	blocks := make(map[string]database.Block)
	for _, hash := range s.ledger.WalkBack(start, max) {
		if b, exists, _ := s.ledger.Get(hash); exists {
			blocks[hash] = b
		}
	}

	return message.SyncResponse{
		RequestHash: req.FromHash,
		HeadHash:    s.ledger.Head(),
		Blocks:      blocks,
	}
}

// OnBlockSyncResponse ingests blocks received from a peer, adopts the peer's
// chain when it is strictly longer and resumes any proposals that were
// parked waiting for a delivered ancestor.
func (s *State) OnBlockSyncResponse(from peer.Peer, resp message.SyncResponse, now time.Time) error {
	round := s.CurrentRound(now)

	s.mu.Lock()

	// A response carries a single linked chain walked down from the
	// requested hash, or from the responder's head on a zero-hash request.
	// Blocks on that chain are historical ancestors and carry no age bound;
	// anything off the chain must be recent.
	onChain := make(map[string]bool)
	cur := resp.RequestHash
	if _, exists := resp.Blocks[cur]; !exists {
		cur = resp.HeadHash
	}
	for {
		b, exists := resp.Blocks[cur]
		if !exists || onChain[cur] {
			break
		}
		onChain[cur] = true
		cur = b.PrevBlockHash
	}

	var stored int
	for hash, b := range resp.Blocks {
		// A block that does not hash to its claimed key is discarded. Peers
		// cannot smuggle arbitrary data under a chosen hash.
		if b.Hash() != hash {
			s.evHandler("state: sync: block from %s fails hash check, dropped", from.Host)
			continue
		}
		if !onChain[hash] && now.Unix()-b.TimeStamp > int64(s.genesis.MaxBlockAge) {
			s.evHandler("state: sync: stray block from %s too old, dropped", from.Host)
			continue
		}
		if err := s.ledger.Put(hash, b); err != nil {
			s.mu.Unlock()
			return err
		}
		stored++
	}

	if stored > 0 {
		s.evHandler("state: sync: stored %d blocks from %s", stored, from.Host)
	}

	if resp.HeadHash != "" && resp.HeadHash != s.ledger.Head() {
		if _, exists, _ := s.ledger.Get(resp.HeadHash); exists {
			s.switchHead(resp.HeadHash, 0)
		}
	}

	// Proposals parked on a missing ancestor re-enter validation now that
	// the ancestor may have arrived.
	var msgs []outbound
	var firstErr error
	for ancestor, parked := range s.pendingSyncs {
		if _, exists, _ := s.ledger.Get(ancestor); !exists {
			continue
		}
		delete(s.pendingSyncs, ancestor)

		resumed, err := s.validateAndVote(from, parked, round, now)
		msgs = append(msgs, resumed...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.mu.Unlock()

	s.deliver(msgs)

	return firstErr
}
