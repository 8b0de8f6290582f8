// Package sortition implements deterministic stake-weighted proposer
// selection. Every node evaluates the same function over the same round seed
// and stake table, so proposer identity is agreed without any exchange of
// messages.
package sortition

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/matchchain/matchchain/foundation/consensus/signature"
)

// hashSpace is 2^256, the size of the sha256 output space the selection
// score is drawn from.
var hashSpace = new(big.Int).Lsh(big.NewInt(1), 256)

// Seed derives the shared seed for a round from its decimal round number.
func Seed(round uint64) string {
	return signature.Hash([]byte(strconv.FormatUint(round, 10)))
}

// IsProposer reports whether the participant wins the proposer lottery for
// the seed. The participant's score is uniform over the hash space and wins
// when it falls below stake/totalStake, so the win probability is
// proportional to stake.
func IsProposer(seed string, pubKey string, stake uint64, totalStake uint64) bool {
	if stake == 0 || totalStake == 0 {
		return false
	}

	digest, err := hex.DecodeString(signature.Hash([]byte(seed + pubKey)))
	if err != nil {
		return false
	}
	score := new(big.Int).SetBytes(digest)

	// score/2^256 < stake/total, compared in integers as score*total < stake*2^256.
	lhs := new(big.Int).Mul(score, new(big.Int).SetUint64(totalStake))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(stake), hashSpace)

	return lhs.Cmp(rhs) < 0
}
