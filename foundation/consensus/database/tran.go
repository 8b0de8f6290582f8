package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// Tx represents a match outcome submitted to the network. The nonce is the
// transaction's identity everywhere, including the merkle tree. The move data
// itself never enters consensus; only its content hash does.
type Tx struct {
	MatchID        string `json:"match_id"`
	Winner         string `json:"winner"`
	ContentHash    string `json:"content_hash"`
	Nonce          string `json:"nonce"`
	ProposerPubKey string `json:"proposer_pubkey"`
	Signature      string `json:"signature"`
}

// NewTx constructs a transaction for the match outcome and signs it with the
// submitter's private key.
func NewTx(matchID string, winner string, contentHash string, nonce string, privateKey *ecdsa.PrivateKey) (Tx, error) {
	tx := Tx{
		MatchID:        matchID,
		Winner:         winner,
		ContentHash:    contentHash,
		Nonce:          nonce,
		ProposerPubKey: signature.PublicKeyHex(privateKey),
	}

	sig, err := signature.Sign(tx.SigningString(), privateKey)
	if err != nil {
		return Tx{}, err
	}
	tx.Signature = sig

	return tx, nil
}

// SigningString returns the canonical string the transaction signature
// covers.
func (tx Tx) SigningString() string {
	return fmt.Sprintf("%s:%s:%s:%s", tx.MatchID, tx.Winner, tx.Nonce, tx.ProposerPubKey)
}

// VerifySignature checks the transaction signature against the submitter's
// public key.
func (tx Tx) VerifySignature() error {
	return signature.Verify(tx.ProposerPubKey, tx.Signature, tx.SigningString())
}
