package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

func (a *API) handleUpsertSensor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string  `json:"id"`
		Category  string  `json:"category"`
		Unit      string  `json:"unit"`
		RangeMin  float64 `json:"range_min"`
		RangeMax  float64 `json:"range_max"`
		Precision float64 `json:"precision,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, errors.New("id is required"))
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		respondError(w, http.StatusBadRequest, errors.New("category is required"))
		return
	}
	if req.RangeMax <= req.RangeMin {
		respondError(w, http.StatusBadRequest,
			fmt.Errorf("range_max %g must exceed range_min %g", req.RangeMax, req.RangeMin))
		return
	}
	if req.Precision < 0 {
		respondError(w, http.StatusBadRequest, errors.New("precision must not be negative"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	sensor, err := a.store.UpsertSensor(ctx, Sensor{
		ID:        req.ID,
		Category:  strings.ToLower(strings.TrimSpace(req.Category)),
		Unit:      strings.TrimSpace(req.Unit),
		RangeMin:  req.RangeMin,
		RangeMax:  req.RangeMax,
		Precision: req.Precision,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"sensor": sensor})
}

func (a *API) handleListSensors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	sensors, err := a.store.ListSensors(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sensors": sensors})
}
