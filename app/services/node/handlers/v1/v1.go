// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/matchchain/matchchain/app/services/node/handlers/v1/private"
	"github.com/matchchain/matchchain/app/services/node/handlers/v1/public"
	"github.com/matchchain/matchchain/foundation/consensus/state"
	"github.com/matchchain/matchchain/foundation/events"
	"github.com/matchchain/matchchain/foundation/nameservice"
	"github.com/matchchain/matchchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/head", pbl.ChainHead)
	app.Handle(http.MethodGet, version, "/chain/list", pbl.ChainList)
	app.Handle(http.MethodGet, version, "/chain/block/:hash", pbl.BlockByHash)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/stakes/list", pbl.Stakes)
	app.Handle(http.MethodGet, version, "/stakes/list/:pubkey", pbl.Stakes)
	app.Handle(http.MethodPost, version, "/stakes/credit", pbl.SubmitStake)
	app.Handle(http.MethodPost, version, "/match/submit", pbl.SubmitMatch)
	app.Handle(http.MethodGet, version, "/match/moves/:id", pbl.MatchMoves)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodPost, version, "/node/message", prv.Message)
	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/peers", prv.Peers)
	app.Handle(http.MethodPost, version, "/node/peers", prv.AddPeer)
}
