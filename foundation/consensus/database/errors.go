package database

import (
	"errors"

	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// ErrInvalidSignature is returned when a record's signature does not verify
// against its claimed public key.
var ErrInvalidSignature = signature.ErrInvalidSignature

var (
	// ErrInvalidMerkleRoot is returned when a block's declared merkle root
	// does not match the root recomputed from its nonce list.
	ErrInvalidMerkleRoot = errors.New("invalid merkle root")

	// ErrInvalidChainLinkage is returned when a block's previous hash does
	// not reference the local chain head.
	ErrInvalidChainLinkage = errors.New("invalid chain linkage")

	// ErrStaleBlock is returned when a block is older than the maximum
	// accepted age during sync ingestion.
	ErrStaleBlock = errors.New("stale block")

	// ErrMissingAncestor is returned when a chain cannot be walked because a
	// referenced ancestor block is not known locally.
	ErrMissingAncestor = errors.New("missing ancestor block")
)
