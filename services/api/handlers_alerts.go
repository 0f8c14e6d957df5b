package api

import (
	"net/http"
	"time"
)

// handleAlerts recomputes the alert feed from the recent window on every
// call. ML-supplied probabilities are the evaluator service's business; this
// feed covers the threshold rules only.
func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	since := time.Now().UTC().Add(-a.config.AlertWindow)
	window, err := a.store.RecentWindow(ctx, since)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	list, evalErr := a.evaluator.Evaluate(window, nil)
	if evalErr != nil {
		// Malformed records were skipped; the feed still covers the rest.
		a.log.Warn().Err(evalErr).Msg("some records skipped during alert evaluation")
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"since":  since,
		"alerts": list,
	})
}
