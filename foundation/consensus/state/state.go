// Package state is the core API for the consensus engine and implements all
// the round, voting, fork resolution and chain sync business logic.
package state

import (
	"crypto/ecdsa"
	"encoding/json"
	"sync"

	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/genesis"
	"github.com/matchchain/matchchain/foundation/consensus/mempool"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/matchchain/matchchain/foundation/consensus/stake"
	"github.com/matchchain/matchchain/foundation/consensus/storage"
)

// EventHandler defines a function that is called when events occur in the
// processing of consensus rounds.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for rounds, gossip, peer updates and network
// transport.
type Worker interface {
	Shutdown()
	Sync()
	SignalShareTx(tx database.Tx)
	Send(target peer.Peer, env message.Envelope)
}

// outbound is a message staged under the state lock and delivered after the
// lock is released.
type outbound struct {
	target peer.Peer
	env    message.Envelope
}

// =============================================================================

// Config represents the configuration required to start the consensus state.
type Config struct {
	Host       string
	PrivateKey *ecdsa.PrivateKey
	Genesis    genesis.Genesis
	Storage    *storage.Storage
	KnownPeers *peer.PeerSet
	EvHandler  EventHandler
}

// State manages the consensus engine. All consensus bookkeeping is guarded
// by a single mutex; network delivery always happens after the lock is
// released.
type State struct {
	mu sync.Mutex

	host       string
	privateKey *ecdsa.PrivateKey
	pubKey     string
	genesis    genesis.Genesis
	evHandler  EventHandler

	knownPeers *peer.PeerSet
	storage    *storage.Storage
	ledger     *database.Ledger
	mempool    *mempool.Mempool
	stakes     *stake.Ledger

	// Per-block consensus bookkeeping, keyed by block identity.
	proposedBlocks map[string]database.Block
	votes          map[string]map[string]bool
	votedBlocks    map[string]bool
	confirmations  map[string]database.Confirmation

	// Proposed blocks parked until a sync delivers their missing ancestor,
	// keyed by the ancestor hash.
	pendingSyncs map[string]database.Block

	Worker Worker
}

// New constructs a new consensus state for use, initializing the genesis
// block and granting this node its initial stake on first start.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ledger, err := database.NewLedger(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	if _, _, err := ledger.InitGenesis(cfg.Genesis); err != nil {
		return nil, err
	}

	mpool, err := mempool.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	stakes, err := stake.NewLedger(cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Candidate blocks survive a restart so a confirmation arriving later
	// can still commit them.
	proposed := make(map[string]database.Block)
	err = cfg.Storage.Scan(storage.CollectionProposed, func(key string, value []byte) error {
		var b database.Block
		if err := json.Unmarshal(value, &b); err != nil {
			return err
		}
		proposed[key] = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	pubKey := signature.PublicKeyHex(cfg.PrivateKey)
	if stakes.Stake(pubKey) == 0 {
		if err := stakes.Credit(pubKey, cfg.Genesis.InitialStake); err != nil {
			return nil, err
		}
		ev("state: new participant %s granted initial stake %d", pubKey[:16], cfg.Genesis.InitialStake)
	}

	s := State{
		host:       cfg.Host,
		privateKey: cfg.PrivateKey,
		pubKey:     pubKey,
		genesis:    cfg.Genesis,
		evHandler:  ev,

		knownPeers: cfg.KnownPeers,
		storage:    cfg.Storage,
		ledger:     ledger,
		mempool:    mpool,
		stakes:     stakes,

		proposedBlocks: proposed,
		votes:          make(map[string]map[string]bool),
		votedBlocks:    make(map[string]bool),
		confirmations:  make(map[string]database.Confirmation),
		pendingSyncs:   make(map[string]database.Block),
	}

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// The worker drains in-flight work before the storage closes under it.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.storage.Close()
}

// deliver sends the staged messages through the worker. Callers must not
// hold the state mutex.
func (s *State) deliver(msgs []outbound) {
	if s.Worker == nil {
		return
	}

	for _, msg := range msgs {
		s.Worker.Send(msg.target, msg.env)
	}
}

// envelope wraps a payload with this node's identity.
func (s *State) envelope(msgType string, payload any) (message.Envelope, error) {
	return message.NewEnvelope(msgType, s.host, s.pubKey, payload)
}

// cacheProposed holds a candidate block in memory and in storage so a
// confirmation arriving after a restart can still commit it. The caller must
// hold the state mutex.
func (s *State) cacheProposed(blockID string, b database.Block) {
	s.proposedBlocks[blockID] = b

	data, err := json.Marshal(b)
	if err != nil {
		s.evHandler("state: cacheProposed: ERROR: %s", err)
		return
	}
	if err := s.storage.Put(storage.CollectionProposed, blockID, data); err != nil {
		s.evHandler("state: cacheProposed: ERROR: %s", err)
	}
}

// retireProposed drops the persisted candidate once the block is in the
// ledger. The in-memory copy stays for late votes. The caller must hold the
// state mutex.
func (s *State) retireProposed(blockID string) {
	if err := s.storage.Delete(storage.CollectionProposed, blockID); err != nil {
		s.evHandler("state: retireProposed: ERROR: %s", err)
	}
}

// short trims an identifier for logging. Values arriving off the wire can be
// arbitrarily short, so the slice is bounded.
func short(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

// =============================================================================

// Host returns a copy of the host information.
func (s *State) Host() string {
	return s.host
}

// PublicKey returns this node's public key in hex form.
func (s *State) PublicKey() string {
	return s.pubKey
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// KnownExternalPeers retrieves a copy of the known peer list without this
// node.
func (s *State) KnownExternalPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer provides the ability to add a new peer to the known peer
// list. It reports whether the peer was unknown.
func (s *State) AddKnownPeer(p peer.Peer) bool {
	return s.knownPeers.Add(p)
}

// RemoveKnownPeer provides the ability to remove a peer from the known peer
// list.
func (s *State) RemoveKnownPeer(p peer.Peer) {
	s.knownPeers.Remove(p)
}
