package public

// submitMatch is what clients post to record a finished match.
type submitMatch struct {
	MatchID string   `json:"match_id" validate:"required"`
	Winner  string   `json:"winner" validate:"required"`
	Moves   []string `json:"moves" validate:"required,min=1"`
}

// creditStake is what participants post to stake tokens on a public key.
type creditStake struct {
	PubKey string `json:"pubkey" validate:"required"`
	Amount uint64 `json:"amount" validate:"required,min=1"`
}

// stakeInfo is a stake balance annotated with the participant's name.
type stakeInfo struct {
	PubKey string `json:"pubkey"`
	Name   string `json:"name"`
	Stake  uint64 `json:"stake"`
}

// txInfo is a mempool transaction annotated with the submitter's name.
type txInfo struct {
	MatchID       string `json:"match_id"`
	Winner        string `json:"winner"`
	ContentHash   string `json:"content_hash"`
	Nonce         string `json:"nonce"`
	SubmitterName string `json:"submitter_name"`
	Submitter     string `json:"submitter_pubkey"`
}
