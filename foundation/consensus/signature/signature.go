// Package signature provides helper functions for handling the signing
// and hashing needs of the consensus engine.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is used as the previous block
// hash of the genesis block and as the starting point for a full chain sync.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ErrInvalidSignature is returned when a signature does not verify against
// the claimed public key and data.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the hex encoded sha256 digest of the specified data.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign signs the sha256 digest of the canonical string with the private key
// and returns the hex encoded signature.
func Sign(data string, privateKey *ecdsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(data))

	sig, err := crypto.Sign(digest[:], privateKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sig), nil
}

// Verify checks the hex encoded signature verifies against the specified
// public key over the sha256 digest of the canonical string.
func Verify(pubKeyHex string, sigHex string, data string) error {
	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return ErrInvalidSignature
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return ErrInvalidSignature
	}

	// crypto.Sign produces 65 bytes with the recovery id in the last byte.
	// Verification only needs the [R|S] portion.
	if len(sig) < crypto.RecoveryIDOffset {
		return ErrInvalidSignature
	}
	if len(sig) > crypto.RecoveryIDOffset {
		sig = sig[:crypto.RecoveryIDOffset]
	}

	digest := sha256.Sum256([]byte(data))

	if !crypto.VerifySignature(pubKey, digest[:], sig) {
		return ErrInvalidSignature
	}

	return nil
}

// PublicKeyHex returns the hex encoded uncompressed public key for the
// specified private key. This is the participant identity used throughout
// the consensus engine.
func PublicKeyHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&privateKey.PublicKey))
}
