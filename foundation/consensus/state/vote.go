package state

import (
	"errors"
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
)

// OnProposedBlock validates a block received from a peer and, when it checks
// out, casts and propagates this node's approval vote. Blocks that do not
// extend the local head enter fork resolution first.
func (s *State) OnProposedBlock(from peer.Peer, b database.Block, now time.Time) error {
	round := s.CurrentRound(now)

	s.mu.Lock()
	msgs, err := s.validateAndVote(from, b, round, now)
	s.mu.Unlock()

	s.deliver(msgs)

	return err
}

// validateAndVote holds the validate-side round logic. The caller must hold
// the state mutex.
func (s *State) validateAndVote(from peer.Peer, b database.Block, round uint64, now time.Time) ([]outbound, error) {
	blockID := b.BlockID()

	// The block is cached before any verdict so a later quorum of votes or a
	// confirmation can finalize it.
	s.cacheProposed(blockID, b)

	if s.votedBlocks[blockID] {
		return nil, nil
	}

	if b.PrevBlockHash != s.ledger.Head() {
		msgs, err := s.resolveFork(b, now)
		if err != nil {
			// A missing ancestor is not a rejection. The block is parked
			// and revalidated when the sync response arrives.
			if errors.Is(err, database.ErrMissingAncestor) {
				return msgs, nil
			}
			return msgs, err
		}
	}

	if err := b.VerifySignature(); err != nil {
		s.evHandler("state: proposed block[%s] rejected: bad signature", b.Hash()[:16])
		return nil, err
	}

	if err := b.VerifyMerkleRoot(); err != nil {
		s.evHandler("state: proposed block[%s] rejected: bad merkle root", b.Hash()[:16])
		return nil, err
	}

	// Stake ledgers are local to each node, so a remote proposer's stake
	// cannot be judged here. Eligibility to vote rests on this node's own
	// stake only.
	if s.stakes.Stake(s.pubKey) < s.genesis.MinStake {
		s.evHandler("state: proposed block[%s] accepted but stake below minimum, not voting", b.Hash()[:16])
		return nil, nil
	}

	vote, err := database.NewVote(b, true, s.privateKey)
	if err != nil {
		return nil, err
	}
	s.recordVote(vote)
	s.votedBlocks[blockID] = true
	s.mempool.MarkPending(b.TxNonces)

	voteEnv, err := s.envelope(message.TypeValidatorVote, vote)
	if err != nil {
		return nil, err
	}

	msgs := []outbound{{from, voteEnv}}
	for _, target := range s.knownPeers.PropagationSubset(s.host, round, peer.SubsetVote) {
		if target.Match(from.Host) {
			continue
		}
		msgs = append(msgs, outbound{target, voteEnv})
	}

	s.evHandler("state: proposed block[%s] approved, vote sent to %d peers", b.Hash()[:16], len(msgs))

	quorumMsgs, err := s.checkQuorum(blockID)
	if err != nil {
		return msgs, err
	}

	return append(msgs, quorumMsgs...), nil
}

// OnValidatorVote records a vote received from a peer, forwards it while the
// block is unfinalized and finalizes the block when the vote completes a
// quorum.
func (s *State) OnValidatorVote(v database.Vote, now time.Time) error {
	if err := v.VerifySignature(); err != nil {
		return err
	}

	round := s.CurrentRound(now)
	blockID := v.BlockID()

	s.mu.Lock()

	_, finalized := s.confirmations[blockID]
	s.recordVote(v)

	var msgs []outbound
	if !finalized {
		env, err := s.envelope(message.TypeValidatorVote, v)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		for _, target := range s.knownPeers.PropagationSubset(s.host, round+1, peer.SubsetVoteForward) {
			msgs = append(msgs, outbound{target, env})
		}
	}

	quorumMsgs, err := s.checkQuorum(blockID)
	msgs = append(msgs, quorumMsgs...)

	s.mu.Unlock()

	s.deliver(msgs)

	return err
}

// OnBlockConfirmation records a confirmation received from a peer, commits
// the block when its contents are known locally and forwards the
// confirmation once.
func (s *State) OnBlockConfirmation(c database.Confirmation, now time.Time) error {
	if err := c.VerifySignature(); err != nil {
		return err
	}

	round := s.CurrentRound(now)
	blockID := c.BlockID()

	s.mu.Lock()

	if _, exists := s.confirmations[blockID]; exists {
		s.mu.Unlock()
		return nil
	}
	s.confirmations[blockID] = c

	var commitErr error
	if b, exists := s.proposedBlocks[blockID]; exists {
		commitErr = s.commitBlock(b)
	} else {
		s.evHandler("state: confirmation for unknown block[%s] recorded", blockID)
	}

	var msgs []outbound
	env, err := s.envelope(message.TypeBlockConfirmation, c)
	if err == nil {
		for _, target := range s.knownPeers.PropagationSubset(s.host, round, peer.SubsetConfirmation) {
			msgs = append(msgs, outbound{target, env})
		}
	}

	s.mu.Unlock()

	s.deliver(msgs)

	if commitErr != nil {
		return commitErr
	}

	return err
}

// recordVote tallies the vote under its block identity. Re-recording the
// same validator overwrites, so redelivered votes never double count. The
// caller must hold the state mutex.
func (s *State) recordVote(v database.Vote) {
	blockID := v.BlockID()

	if s.votes[blockID] == nil {
		s.votes[blockID] = make(map[string]bool)
	}
	s.votes[blockID][v.ValidatorPubKey] = v.Approve
}

// checkQuorum finalizes the block when the approving stake reaches two
// thirds of the stake that has voted. The caller must hold the state mutex.
func (s *State) checkQuorum(blockID string) ([]outbound, error) {
	if _, exists := s.confirmations[blockID]; exists {
		return nil, nil
	}

	b, exists := s.proposedBlocks[blockID]
	if !exists {
		return nil, nil
	}

	var votingStake, approvingStake uint64
	for validator, approve := range s.votes[blockID] {
		stake := s.stakes.Stake(validator)
		votingStake += stake
		if approve {
			approvingStake += stake
		}
	}

	// approving/voting >= 2/3, compared in integers.
	if votingStake == 0 || approvingStake*3 < votingStake*2 {
		return nil, nil
	}

	conf, err := database.NewConfirmation(b, len(s.votes[blockID]), s.privateKey)
	if err != nil {
		return nil, err
	}
	s.confirmations[blockID] = conf

	if err := s.commitBlock(b); err != nil {
		return nil, err
	}

	env, err := s.envelope(message.TypeBlockConfirmation, conf)
	if err != nil {
		return nil, err
	}

	var msgs []outbound
	for _, target := range s.knownPeers.Copy(s.host) {
		msgs = append(msgs, outbound{target, env})
	}

	s.evHandler("state: block[%s] reached quorum with %d votes, confirmation broadcast", b.Hash()[:16], conf.SignaturesCount)

	return msgs, nil
}

// commitBlock appends the block to the ledger, moves the head, retires its
// transactions and credits the proposer reward. Committing a block already
// in the ledger moves the head without paying the reward again. The caller
// must hold the state mutex.
func (s *State) commitBlock(b database.Block) error {
	hash := b.Hash()

	_, exists, err := s.ledger.Get(hash)
	if err != nil {
		return err
	}

	if !exists {
		if err := s.ledger.Put(hash, b); err != nil {
			return err
		}
		if err := s.stakes.Credit(b.ProposerPubKey, s.genesis.ProposerReward); err != nil {
			return err
		}
	}

	if err := s.ledger.SetHead(hash); err != nil {
		return err
	}

	if err := s.mempool.MarkProcessed(b.TxNonces); err != nil {
		return err
	}

	s.retireProposed(b.BlockID())

	s.evHandler("state: block[%s] committed with %d transactions", hash[:16], len(b.TxNonces))

	return nil
}
