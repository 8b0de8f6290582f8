package worker

import (
	"time"
)

// roundOperations drives the consensus round loop. The ticker is aligned to
// the round interval so every node evaluates the same round number.
func (w *Worker) roundOperations() {
	w.evHandler("worker: roundOperations: G started")
	defer w.evHandler("worker: roundOperations: G completed")

	interval := time.Duration(w.state.Genesis().RoundInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if !w.isShutdown() {
				if err := w.state.NextRound(now); err != nil {
					w.evHandler("worker: roundOperations: ERROR: %s", err)
				}
			}
		case <-w.shut:
			w.evHandler("worker: roundOperations: received shut signal")
			return
		}
	}
}
