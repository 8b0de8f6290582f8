// Package peer maintains the set of known peers and selects the
// round-rotated subsets consensus messages fan out to.
package peer

import (
	"sort"
	"sync"
)

// Propagation fan-out sizes per message kind.
const (
	SubsetProposal     = 5
	SubsetVote         = 3
	SubsetVoteForward  = 2
	SubsetConfirmation = 3
	SubsetSync         = 3
)

// Peer represents information about a node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new peer value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents information about the status of any given peer.
type PeerStatus struct {
	LatestBlockHash string `json:"latest_block_hash"`
	KnownPeers      []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It reports whether the peer was unknown.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Count returns the number of known peers.
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers, excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}

// PropagationSubset returns up to count peers, excluding the specified host.
// Peers are ordered by host and the window start rotates with the round, so
// over successive rounds every peer is covered even when the fan-out is
// smaller than the network.
func (ps *PeerSet) PropagationSubset(host string, round uint64, count int) []Peer {
	peers := ps.Copy(host)
	if len(peers) == 0 || count <= 0 {
		return nil
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	if count >= len(peers) {
		return peers
	}

	start := int(round % uint64(len(peers)))
	subset := make([]Peer, 0, count)
	for i := 0; i < count; i++ {
		subset = append(subset, peers[(start+i)%len(peers)])
	}

	return subset
}
