// Package message defines the wire envelope consensus messages travel in
// between nodes. Every payload is wrapped in an envelope carrying an explicit
// type tag, and receivers dispatch on the tag rather than probing payload
// shapes.
package message

import (
	"encoding/json"

	"github.com/matchchain/matchchain/foundation/consensus/database"
)

// The set of envelope type tags.
const (
	TypeTransaction          = "transaction"
	TypeProposerAnnouncement = "proposer-announcement"
	TypeProposedBlock        = "proposed-block"
	TypeValidatorVote        = "validator-vote"
	TypeBlockConfirmation    = "block-confirmation"
	TypeBlockSyncRequest     = "block-sync-request"
	TypeBlockSyncResponse    = "block-sync-response"
)

// Envelope wraps a consensus payload with its type tag and the sender's
// identity.
type Envelope struct {
	Type       string          `json:"type"`
	FromHost   string          `json:"from_host"`
	FromPubKey string          `json:"from_pubkey"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps the payload in an envelope carrying the specified tag.
func NewEnvelope(msgType string, fromHost string, fromPubKey string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:       msgType,
		FromHost:   fromHost,
		FromPubKey: fromPubKey,
		Payload:    data,
	}, nil
}

// Decode unmarshals the envelope payload into the specified value.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// =============================================================================

// Announcement declares which participant won the proposer lottery for a
// round. It is informational; every node verifies sortition independently.
type Announcement struct {
	RoundSeed      string `json:"round_seed"`
	ProposerPubKey string `json:"proposer_pubkey"`
}

// SyncRequest asks a peer for the chain segment ending at the specified
// block hash. The zero hash asks for the peer's own view of the chain head.
type SyncRequest struct {
	FromHash string `json:"from_hash"`
	MaxCount int    `json:"max_count"`
}

// SyncResponse carries the blocks a peer could resolve for a sync request,
// keyed by block hash.
type SyncResponse struct {
	RequestHash string                    `json:"request_hash"`
	HeadHash    string                    `json:"head_hash"`
	Blocks      map[string]database.Block `json:"blocks"`
}
