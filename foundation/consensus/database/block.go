package database

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"

	"github.com/matchchain/matchchain/foundation/consensus/merkle"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// Block represents a proposed block. The same record is stored once the
// block is confirmed; its ledger key is always recomputed from the fields,
// never carried alongside them.
type Block struct {
	RoundSeed      string   `json:"round_seed"`
	TxNonces       []string `json:"transaction_nonces"`
	MerkleRoot     string   `json:"merkle_root"`
	ProposerPubKey string   `json:"proposer_pubkey"`
	Signature      string   `json:"signature"`
	PrevBlockHash  string   `json:"previous_block_hash"`
	TimeStamp      int64    `json:"timestamp"`
}

// NewBlock constructs a block over the specified nonces, computes its merkle
// root and signs it with the proposer's private key.
func NewBlock(roundSeed string, nonces []string, prevBlockHash string, timestamp int64, privateKey *ecdsa.PrivateKey) (Block, error) {
	b := Block{
		RoundSeed:      roundSeed,
		TxNonces:       nonces,
		MerkleRoot:     merkle.NewTreeStrings(nonces).RootHex(),
		ProposerPubKey: signature.PublicKeyHex(privateKey),
		PrevBlockHash:  prevBlockHash,
		TimeStamp:      timestamp,
	}

	sig, err := signature.Sign(b.SigningString(), privateKey)
	if err != nil {
		return Block{}, err
	}
	b.Signature = sig

	return b, nil
}

// SigningString returns the canonical string the proposer signature covers.
// The block hash is the sha256 of this same string.
func (b Block) SigningString() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", b.RoundSeed, b.MerkleRoot, b.ProposerPubKey, b.PrevBlockHash, b.TimeStamp)
}

// Hash returns the ledger key for the block. Any two nodes holding the same
// fields derive the same key.
func (b Block) Hash() string {
	return signature.Hash([]byte(b.SigningString()))
}

// BlockID returns the identity votes and confirmations are tallied under.
func (b Block) BlockID() string {
	return fmt.Sprintf("%s:%s", b.RoundSeed, b.MerkleRoot)
}

// VerifySignature checks the proposer signature over the canonical block
// string.
func (b Block) VerifySignature() error {
	return signature.Verify(b.ProposerPubKey, b.Signature, b.SigningString())
}

// VerifyMerkleRoot recomputes the merkle root from the declared nonce list
// and checks it matches the declared root. An empty nonce list must declare
// the canonical empty root.
func (b Block) VerifyMerkleRoot() error {
	if merkle.NewTreeStrings(b.TxNonces).RootHex() != b.MerkleRoot {
		return ErrInvalidMerkleRoot
	}

	return nil
}

// =============================================================================

// Vote represents a validator's signed approval of a candidate block.
type Vote struct {
	RoundSeed       string `json:"round_seed"`
	MerkleRoot      string `json:"merkle_root"`
	ProposerPubKey  string `json:"proposer_pubkey"`
	ValidatorPubKey string `json:"validator_pubkey"`
	Approve         bool   `json:"approve"`
	Signature       string `json:"signature"`
}

// NewVote constructs an approval vote for the block and signs it with the
// validator's private key.
func NewVote(b Block, approve bool, privateKey *ecdsa.PrivateKey) (Vote, error) {
	v := Vote{
		RoundSeed:       b.RoundSeed,
		MerkleRoot:      b.MerkleRoot,
		ProposerPubKey:  b.ProposerPubKey,
		ValidatorPubKey: signature.PublicKeyHex(privateKey),
		Approve:         approve,
	}

	sig, err := signature.Sign(v.SigningString(), privateKey)
	if err != nil {
		return Vote{}, err
	}
	v.Signature = sig

	return v, nil
}

// SigningString returns the canonical string the validator signature covers.
func (v Vote) SigningString() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", v.RoundSeed, v.MerkleRoot, v.ProposerPubKey, v.ValidatorPubKey, strconv.FormatBool(v.Approve))
}

// BlockID returns the identity of the block the vote is for.
func (v Vote) BlockID() string {
	return fmt.Sprintf("%s:%s", v.RoundSeed, v.MerkleRoot)
}

// VerifySignature checks the validator signature over the canonical vote
// string.
func (v Vote) VerifySignature() error {
	return signature.Verify(v.ValidatorPubKey, v.Signature, v.SigningString())
}

// =============================================================================

// Confirmation represents a node's signed statement that it observed a
// stake-weighted quorum of approval votes for a block. Multiple confirmers
// may independently produce one for the same block.
type Confirmation struct {
	RoundSeed       string `json:"round_seed"`
	MerkleRoot      string `json:"merkle_root"`
	ProposerPubKey  string `json:"proposer_pubkey"`
	TimeStamp       int64  `json:"timestamp"`
	SignaturesCount int    `json:"signatures_count"`
	ConfirmerPubKey string `json:"confirmer_pubkey"`
	Signature       string `json:"signature"`
}

// NewConfirmation constructs a confirmation for the block carrying the
// number of votes observed and signs it with the confirmer's private key.
func NewConfirmation(b Block, votes int, privateKey *ecdsa.PrivateKey) (Confirmation, error) {
	c := Confirmation{
		RoundSeed:       b.RoundSeed,
		MerkleRoot:      b.MerkleRoot,
		ProposerPubKey:  b.ProposerPubKey,
		TimeStamp:       b.TimeStamp,
		SignaturesCount: votes,
		ConfirmerPubKey: signature.PublicKeyHex(privateKey),
	}

	sig, err := signature.Sign(c.SigningString(), privateKey)
	if err != nil {
		return Confirmation{}, err
	}
	c.Signature = sig

	return c, nil
}

// SigningString returns the canonical string the confirmer signature covers.
func (c Confirmation) SigningString() string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", c.RoundSeed, c.MerkleRoot, c.ProposerPubKey, c.TimeStamp, c.SignaturesCount)
}

// BlockID returns the identity of the block the confirmation finalizes.
func (c Confirmation) BlockID() string {
	return fmt.Sprintf("%s:%s", c.RoundSeed, c.MerkleRoot)
}

// VerifySignature checks the confirmer signature over the canonical
// confirmation string.
func (c Confirmation) VerifySignature() error {
	return signature.Verify(c.ConfirmerPubKey, c.Signature, c.SigningString())
}
