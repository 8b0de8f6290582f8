package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// SubmitMatchTransaction constructs, signs and admits a transaction for a
// finished match and signals the gossip worker to share it with peers. The
// nonce binds the match identity to the submission time so replays of the
// same outcome are distinct submissions.
func (s *State) SubmitMatchTransaction(matchID string, winner string, contentHash string) (database.Tx, error) {
	nonce := signature.Hash(fmt.Appendf(nil, "%s:%s:%d", matchID, winner, time.Now().UnixNano()))

	tx, err := database.NewTx(matchID, winner, contentHash, nonce, s.privateKey)
	if err != nil {
		return database.Tx{}, err
	}

	if err := s.mempool.Admit(tx); err != nil {
		return database.Tx{}, err
	}

	s.evHandler("state: submitted transaction for match %s, nonce[%s]", matchID, nonce[:16])

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
	}

	return tx, nil
}

// SaveMatchMoves stores the full move list for a match. Only the content
// hash of the moves travels in the transaction, so the moves themselves are
// kept out of consensus.
func (s *State) SaveMatchMoves(matchID string, moves []string) error {
	data, err := json.Marshal(moves)
	if err != nil {
		return err
	}

	return s.storage.Put(storage.CollectionMoves, matchID, data)
}

// QueryMatchMoves retrieves the stored move list for a match. The second
// return reports whether moves exist for the match.
func (s *State) QueryMatchMoves(matchID string) ([]string, bool, error) {
	data, err := s.storage.Get(storage.CollectionMoves, matchID)
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	var moves []string
	if err := json.Unmarshal(data, &moves); err != nil {
		return nil, false, err
	}

	return moves, true, nil
}

// OnTransaction admits a transaction received from a peer. Transactions the
// node has already seen are absorbed silently; new ones join the gossip
// rotation.
func (s *State) OnTransaction(tx database.Tx) error {
	if s.mempool.Knows(tx.Nonce) {
		return nil
	}

	if err := s.mempool.Admit(tx); err != nil {
		return err
	}

	s.evHandler("state: admitted transaction from network, nonce[%s]", short(tx.Nonce))

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
	}

	return nil
}
