package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matchchain/matchchain/foundation/consensus/message"
	"github.com/matchchain/matchchain/foundation/consensus/peer"
)

// Send delivers a consensus envelope to the peer's private node API. A
// sync request is answered synchronously, so the reply envelope is
// dispatched straight back into the state.
func (w *Worker) Send(target peer.Peer, env message.Envelope) {
	var reply message.Envelope
	if err := w.post(target, env, &reply); err != nil {
		w.evHandler("worker: send: WARNING: %s: %s", target.Host, err)
		return
	}

	if reply.Type != message.TypeBlockSyncResponse {
		return
	}

	var resp message.SyncResponse
	if err := reply.Decode(&resp); err != nil {
		w.evHandler("worker: send: WARNING: %s: bad sync response: %s", target.Host, err)
		return
	}

	if err := w.state.OnBlockSyncResponse(target, resp, time.Now()); err != nil {
		w.evHandler("worker: send: WARNING: %s: %s", target.Host, err)
	}
}

// post delivers the envelope to the peer's message endpoint and optionally
// decodes the reply.
func (w *Worker) post(target peer.Peer, env message.Envelope, reply *message.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/v1/node/message", target.Host)
	resp, err := w.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if reply == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(reply)
}

// queryPeerStatus retrieves the consensus status of the specified peer.
func (w *Worker) queryPeerStatus(target peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("http://%s/v1/node/status", target.Host)
	resp, err := w.client.Get(url)
	if err != nil {
		return peer.PeerStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return peer.PeerStatus{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var status peer.PeerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return peer.PeerStatus{}, err
	}

	return status, nil
}

// announceSelf registers this node with the specified peer.
func (w *Worker) announceSelf(target peer.Peer) error {
	data, err := json.Marshal(peer.New(w.state.Host()))
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/v1/node/peers", target.Host)
	resp, err := w.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)

	return nil
}
