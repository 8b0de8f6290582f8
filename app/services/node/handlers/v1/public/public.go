// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matchchain/matchchain/business/sys/validate"
	"github.com/matchchain/matchchain/business/web/errs"
	"github.com/matchchain/matchchain/foundation/consensus/signature"
	"github.com/matchchain/matchchain/foundation/consensus/state"
	"github.com/matchchain/matchchain/foundation/events"
	"github.com/matchchain/matchchain/foundation/nameservice"
	"github.com/matchchain/matchchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide consensus events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitMatch records a finished match and submits its outcome to the
// network for ordering.
func (h Handlers) SubmitMatch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sm submitMatch
	if err := web.Decode(r, &sm); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(sm); err != nil {
		return err
	}

	// Only the hash of the move record enters consensus.
	contentHash := signature.Hash([]byte(strings.Join(sm.Moves, ",")))

	if err := h.State.SaveMatchMoves(sm.MatchID, sm.Moves); err != nil {
		return err
	}

	tx, err := h.State.SubmitMatchTransaction(sm.MatchID, sm.Winner, contentHash)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("match submitted", "traceid", v.TraceID, "match", sm.MatchID, "winner", sm.Winner, "nonce", tx.Nonce)

	resp := struct {
		Status string `json:"status"`
		Nonce  string `json:"nonce"`
	}{
		Status: "match submitted for ordering",
		Nonce:  tx.Nonce,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MatchMoves returns the stored move record for a match.
func (h Handlers) MatchMoves(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	matchID := web.Param(r, "id")

	moves, exists, err := h.State.QueryMatchMoves(matchID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewTrusted(errors.New("match not found"), http.StatusNotFound)
	}

	resp := struct {
		MatchID string   `json:"match_id"`
		Moves   []string `json:"moves"`
	}{
		MatchID: matchID,
		Moves:   moves,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// ChainHead returns the current head block of the chain.
func (h Handlers) ChainHead(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := h.State.LatestBlockHash()

	b, exists, err := h.State.QueryBlock(hash)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewTrusted(errors.New("chain is empty"), http.StatusNotFound)
	}

	resp := struct {
		Hash  string `json:"hash"`
		Block any    `json:"block"`
	}{
		Hash:  hash,
		Block: b,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ChainList returns the hashes of the chain from head to genesis.
func (h Handlers) ChainList(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryChain(), http.StatusOK)
}

// BlockByHash returns the block stored under the specified hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	b, exists, err := h.State.QueryBlock(hash)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewTrusted(errors.New("block not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, b, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.Mempool()

	txs := make([]txInfo, len(mempool))
	for i, tran := range mempool {
		txs[i] = txInfo{
			MatchID:       tran.MatchID,
			Winner:        tran.Winner,
			ContentHash:   tran.ContentHash,
			Nonce:         tran.Nonce,
			SubmitterName: h.NS.Lookup(tran.ProposerPubKey),
			Submitter:     tran.ProposerPubKey,
		}
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// SubmitStake credits stake to a participant, establishing or growing their
// eligibility to propose and vote.
func (h Handlers) SubmitStake(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var cs creditStake
	if err := web.Decode(r, &cs); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(cs); err != nil {
		return err
	}

	if err := h.State.CreditStake(cs.PubKey, cs.Amount); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("stake credited", "traceid", v.TraceID, "participant", h.NS.Lookup(cs.PubKey), "amount", cs.Amount)

	resp := struct {
		Status string `json:"status"`
		PubKey string `json:"pubkey"`
		Stake  uint64 `json:"stake"`
	}{
		Status: "stake credited",
		PubKey: cs.PubKey,
		Stake:  h.State.Stake(cs.PubKey),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stakes returns the stake balances, optionally for a single participant.
func (h Handlers) Stakes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pubKey := web.Param(r, "pubkey")

	var stakes []stakeInfo
	for pub, amount := range h.State.Stakes() {
		if pubKey != "" && pubKey != pub {
			continue
		}
		stakes = append(stakes, stakeInfo{
			PubKey: pub,
			Name:   h.NS.Lookup(pub),
			Stake:  amount,
		})
	}

	return web.Respond(ctx, w, stakes, http.StatusOK)
}
