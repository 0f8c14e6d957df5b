package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (a *API) handleMeasurementWindow(w http.ResponseWriter, r *http.Request) {
	equipmentID := chi.URLParam(r, "equipmentID")
	if equipmentID == "" {
		respondError(w, http.StatusBadRequest, errors.New("equipment id is required"))
		return
	}

	since := time.Now().UTC().Add(-a.config.AlertWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("unparseable since %q", raw))
			return
		}
		since = parsed.UTC()
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	window, err := a.store.QueryWindow(ctx, equipmentID, since)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"equipment_id": equipmentID,
		"since":        since,
		"measurements": window,
	})
}

func (a *API) handleEquipmentKPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	rows, err := a.store.AggregateByEquipment(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"equipment": rows})
}
