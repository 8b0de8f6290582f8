package state

import (
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
	"github.com/matchchain/matchchain/foundation/consensus/sortition"
)

// CurrentRound derives the round number active at the specified time. Rounds
// advance on a fixed interval from the genesis timestamp so every node
// agrees on the number without coordination.
func (s *State) CurrentRound(now time.Time) uint64 {
	elapsed := now.Unix() - s.genesis.Block.TimeStamp
	if elapsed < 0 {
		return 0
	}

	return uint64(elapsed) / uint64(s.genesis.RoundInterval)
}

// NextRound evaluates the proposer lottery for the round active at the
// specified time and, when this node wins and has work to order, proposes a
// block to a subset of peers.
func (s *State) NextRound(now time.Time) error {
	round := s.CurrentRound(now)
	seed := sortition.Seed(round)

	s.mu.Lock()
	msgs, err := s.runProposerRound(round, seed, now)
	s.mu.Unlock()

	s.deliver(msgs)

	return err
}

// runProposerRound holds the propose-side round logic. The caller must hold
// the state mutex.
func (s *State) runProposerRound(round uint64, seed string, now time.Time) ([]outbound, error) {
	myStake := s.stakes.Stake(s.pubKey)
	if myStake < s.genesis.MinStake {
		s.evHandler("state: round %d: stake %d below minimum %d, not eligible", round, myStake, s.genesis.MinStake)
		return nil, nil
	}

	if !sortition.IsProposer(seed, s.pubKey, myStake, s.stakes.TotalStake()) {
		s.evHandler("state: round %d: not selected as proposer", round)
		return nil, nil
	}

	s.evHandler("state: round %d: selected as proposer", round)

	txs := s.mempool.SelectForProposal()
	if len(txs) == 0 {
		s.evHandler("state: round %d: no transactions to order, skipping proposal", round)
		return nil, nil
	}

	nonces := make([]string, len(txs))
	for i, tx := range txs {
		nonces[i] = tx.Nonce
	}

	b, err := database.NewBlock(seed, nonces, s.ledger.Head(), now.Unix(), s.privateKey)
	if err != nil {
		return nil, err
	}

	blockID := b.BlockID()
	s.cacheProposed(blockID, b)
	s.votedBlocks[blockID] = true

	// The proposer's own approval counts toward the quorum.
	vote, err := database.NewVote(b, true, s.privateKey)
	if err != nil {
		return nil, err
	}
	s.recordVote(vote)

	s.mempool.MarkPending(nonces)

	ann := message.Announcement{
		RoundSeed:      seed,
		ProposerPubKey: s.pubKey,
	}
	annEnv, err := s.envelope(message.TypeProposerAnnouncement, ann)
	if err != nil {
		return nil, err
	}
	blockEnv, err := s.envelope(message.TypeProposedBlock, b)
	if err != nil {
		return nil, err
	}

	var msgs []outbound
	for _, target := range s.knownPeers.PropagationSubset(s.host, round, peer.SubsetProposal) {
		msgs = append(msgs, outbound{target, annEnv}, outbound{target, blockEnv})
	}

	s.evHandler("state: round %d: proposed block[%s] with %d transactions to %d peers", round, b.Hash()[:16], len(nonces), len(msgs)/2)

	return msgs, nil
}
