// Package worker implements the consensus round ticker, transaction gossip,
// peer updates and the HTTP transport between nodes.
package worker

import (
	"net/http"
	"sync"
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/state"
)

// peerUpdateInterval represents the interval of refreshing peer statuses and
// announcing this node to the network.
const peerUpdateInterval = time.Minute

// gossipInterval represents the interval of re-sharing mempool transactions
// with peers that have not received them yet.
const gossipInterval = 5 * time.Second

// =============================================================================

// Worker manages the background workflows for the consensus engine.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	shut      chan struct{}
	txSharing chan database.Tx
	client    http.Client
	evHandler state.EventHandler

	mu      sync.Mutex
	pending map[string]database.Tx
	shared  map[string]bool
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:     st,
		shut:      make(chan struct{}),
		txSharing: make(chan database.Tx, maxTxShareRequests),
		client:    http.Client{Timeout: 10 * time.Second},
		evHandler: evHandler,
		pending:   make(map[string]database.Tx),
		shared:    make(map[string]bool),
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.roundOperations,
		w.gossipOperations,
		w.peerOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalShareTx queues a transaction for the gossip rotation. If
// maxTxShareRequests signals exist in the channel, the signal is dropped.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share tx signaled, nonce[%s]", shortID(tx.Nonce))
	default:
		w.evHandler("worker: SignalShareTx: queue full, transaction won't be shared")
	}
}

// shortID trims an identifier for logging. Nonces arriving off the wire can
// be arbitrarily short, so the slice is bounded.
func shortID(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
