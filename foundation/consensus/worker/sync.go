package worker

import (
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// Sync brings this node up to date with the network. Peer lists are merged
// first, then a subset of peers is asked for their view of the chain so a
// longer chain can be adopted before the first round fires.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, target := range w.state.KnownExternalPeers() {
		status, err := w.queryPeerStatus(target)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", target.Host, err)
			continue
		}

		w.addNewPeers(status.KnownPeers)
	}

	req := message.SyncRequest{
		FromHash: signature.ZeroHash,
		MaxCount: w.state.Genesis().WalkBackLimit,
	}
	env, err := message.NewEnvelope(message.TypeBlockSyncRequest, w.state.Host(), w.state.PublicKey(), req)
	if err != nil {
		w.evHandler("worker: sync: ERROR: %s", err)
		return
	}

	peers := w.state.KnownExternalPeers()
	if len(peers) > peer.SubsetSync {
		peers = peers[:peer.SubsetSync]
	}

	for _, target := range peers {
		w.evHandler("worker: sync: requesting chain from %s", target.Host)
		w.Send(target, env)
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in this node's list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, p := range knownPeers {

		// Don't add this running node to the known peer list.
		if p.Match(w.state.Host()) {
			continue
		}

		if w.state.AddKnownPeer(p) {
			w.evHandler("worker: addNewPeers: adding peer-node %s", p.Host)
		}
	}
}
