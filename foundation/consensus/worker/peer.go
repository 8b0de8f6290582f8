package worker

import (
	"time"
)

// peerOperations handles finding new peers and keeping this node registered
// with the network.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	ticker := time.NewTicker(peerUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and announces this node.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, target := range w.state.KnownExternalPeers() {
		status, err := w.queryPeerStatus(target)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", target.Host, err)
			w.state.RemoveKnownPeer(target)
			continue
		}

		w.addNewPeers(status.KnownPeers)
	}

	// Get the latest peers and let them know this node is available.
	for _, target := range w.state.KnownExternalPeers() {
		if err := w.announceSelf(target); err != nil {
			w.evHandler("worker: runPeersOperation: announceSelf: %s: ERROR: %s", target.Host, err)
		}
	}
}
