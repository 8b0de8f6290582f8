package worker

import (
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
)

// maxTxShareRequests represents the max number of pending tx network share
// requests that can be outstanding before share requests are dropped.
const maxTxShareRequests = 100

// =============================================================================

// gossipOperations handles sharing new transactions with the network. A
// transaction stays in the rotation until every currently known peer has
// received it once.
func (w *Worker) gossipOperations() {
	w.evHandler("worker: gossipOperations: G started")
	defer w.evHandler("worker: gossipOperations: G completed")

	ticker := time.NewTicker(gossipInterval)
	defer ticker.Stop()

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.mu.Lock()
				w.pending[tx.Nonce] = tx
				w.mu.Unlock()
				w.runGossipOperation()
			}
		case <-ticker.C:
			if !w.isShutdown() {
				w.runGossipOperation()
			}
		case <-w.shut:
			w.evHandler("worker: gossipOperations: received shut signal")
			return
		}
	}
}

// runGossipOperation shares pending transactions with the peers that have
// not seen them yet.
func (w *Worker) runGossipOperation() {
	w.mu.Lock()
	txs := make([]database.Tx, 0, len(w.pending))
	for _, tx := range w.pending {
		txs = append(txs, tx)
	}
	w.mu.Unlock()

	if len(txs) == 0 {
		return
	}

	peers := w.state.KnownExternalPeers()

	for _, tx := range txs {
		env, err := message.NewEnvelope(message.TypeTransaction, w.state.Host(), w.state.PublicKey(), tx)
		if err != nil {
			w.evHandler("worker: runGossipOperation: ERROR: %s", err)
			continue
		}

		delivered := 0
		for _, target := range peers {
			key := target.Host + ":" + tx.Nonce

			w.mu.Lock()
			sent := w.shared[key]
			w.mu.Unlock()
			if sent {
				delivered++
				continue
			}

			if err := w.post(target, env, nil); err != nil {
				w.evHandler("worker: runGossipOperation: WARNING: %s: %s", target.Host, err)
				continue
			}

			w.mu.Lock()
			w.shared[key] = true
			w.mu.Unlock()
			delivered++
		}

		if delivered == len(peers) {
			w.mu.Lock()
			delete(w.pending, tx.Nonce)
			w.mu.Unlock()
		}
	}
}
