// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Block holds the fixed values every node uses to construct the identical
// genesis block. The signature is not verifiable; it is a constant all nodes
// agree on.
type Block struct {
	Seed      string `json:"seed"`
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
	TimeStamp int64  `json:"timestamp"`
}

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time `json:"date"`
	ChainID        uint16    `json:"chain_id"`         // An unique id for this running network.
	RoundInterval  uint      `json:"round_interval"`   // Seconds between consensus rounds.
	MinStake       uint64    `json:"min_stake"`        // Minimum stake to propose or vote.
	InitialStake   uint64    `json:"initial_stake"`    // Stake granted to a brand new participant.
	ProposerReward uint64    `json:"proposer_reward"`  // Stake credited for a confirmed block.
	MaxBlockAge    uint      `json:"max_block_age"`    // Seconds before a block is too stale to sync.
	SyncTimeout    uint      `json:"sync_timeout"`     // Seconds to wait on chain sync responses.
	WalkBackLimit  int       `json:"walk_back_limit"`  // Maximum chain depth walked during fork resolution.
	Block          Block     `json:"genesis_block"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Default returns the genesis values used by the test network and by tests.
func Default() Genesis {
	return Genesis{
		Date:           time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
		ChainID:        1,
		RoundInterval:  20,
		MinStake:       10,
		InitialStake:   120,
		ProposerReward: 2,
		MaxBlockAge:    3600,
		SyncTimeout:    60,
		WalkBackLimit:  100,
		Block: Block{
			Seed:      "0000000000000000000000000000000000000000000000000000000000000000",
			PubKey:    "genesis",
			Signature: "genesis",
			TimeStamp: 1714501200,
		},
	}
}
