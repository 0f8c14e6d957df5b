package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func (a *API) handleUpsertEquipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string     `json:"id"`
		Category    string     `json:"category"`
		Location    string     `json:"location"`
		InstallDate *time.Time `json:"install_date,omitempty"`
		Status      string     `json:"status,omitempty"`
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
	if req.Status == "" {
		req.Status = StatusActive
	}
	if !ValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unrecognised status %q", req.Status))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	equipment, err := a.store.UpsertEquipment(ctx, Equipment{
		ID:          req.ID,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		Location:    strings.TrimSpace(req.Location),
		InstallDate: req.InstallDate,
		Status:      req.Status,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"equipment": equipment})
}

func (a *API) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	equipment, err := a.store.ListEquipment(ctx)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"equipment": equipment})
}
