// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matchchain/matchchain/business/web/errs"
	"github.com/matchchain/matchchain/foundation/consensus/database"
	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
	"github.com/matchchain/matchchain/foundation/consensus/state"
	"github.com/matchchain/matchchain/foundation/nameservice"
	"github.com/matchchain/matchchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// Message accepts a consensus envelope from a peer and dispatches it on its
// type tag. A sync request is answered synchronously with a sync response
// envelope; every other type is acknowledged with an empty reply.
func (h Handlers) Message(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var env message.Envelope
	if err := web.Decode(r, &env); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	from := peer.New(env.FromHost)
	now := time.Now()

	h.Log.Infow("node message", "traceid", v.TraceID, "type", env.Type, "from", env.FromHost)

	// A node learning about a peer through any message keeps it.
	if env.FromHost != "" {
		h.State.AddKnownPeer(from)
	}

	switch env.Type {
	case message.TypeTransaction:
		var tx database.Tx
		if err := env.Decode(&tx); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		if err := h.State.OnTransaction(tx); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

	case message.TypeProposerAnnouncement:
		var ann message.Announcement
		if err := env.Decode(&ann); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		h.Log.Infow("proposer announced", "traceid", v.TraceID, "seed", ann.RoundSeed, "proposer", h.NS.Lookup(ann.ProposerPubKey))

	case message.TypeProposedBlock:
		var b database.Block
		if err := env.Decode(&b); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		if err := h.State.OnProposedBlock(from, b, now); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

	case message.TypeValidatorVote:
		var vote database.Vote
		if err := env.Decode(&vote); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		if err := h.State.OnValidatorVote(vote, now); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

	case message.TypeBlockConfirmation:
		var conf database.Confirmation
		if err := env.Decode(&conf); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		if err := h.State.OnBlockConfirmation(conf, now); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

	case message.TypeBlockSyncRequest:
		var req message.SyncRequest
		if err := env.Decode(&req); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		resp := h.State.OnBlockSyncRequest(req)
		reply, err := message.NewEnvelope(message.TypeBlockSyncResponse, h.State.Host(), h.State.PublicKey(), resp)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, reply, http.StatusOK)

	case message.TypeBlockSyncResponse:
		var resp message.SyncResponse
		if err := env.Decode(&resp); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		if err := h.State.OnBlockSyncResponse(from, resp, now); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

	default:
		return errs.NewTrusted(fmt.Errorf("unknown message type %q", env.Type), http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns this node's consensus status.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Status(), http.StatusOK)
}

// Peers returns the list of peers known to this node.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.KnownExternalPeers(), http.StatusOK)
}

// AddPeer registers a peer with this node.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var p peer.Peer
	if err := web.Decode(r, &p); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if h.State.AddKnownPeer(p) {
		h.Log.Infow("peer added", "host", p.Host)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "peer registered",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
