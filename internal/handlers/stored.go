package handlers

import (
	"net/http"
	"strconv"

	"sms-bridge/internal/models"
)

// StoredResponse wraps the drained records.
type StoredResponse struct {
	Messages []models.StoredSMS `json:"messages"`
	Total    int                `json:"total"`
	// Through is passed back as DELETE /v1/stored?through= to clear only
	// what this response returned.
	Through int `json:"through"`
}

// ClearResponse reports a cleared store.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// RealtimeResponse reports whether events are forwarded.
type RealtimeResponse struct {
	Attached bool `json:"attached"`
}

// GetStored handles GET /v1/stored.
func (h *Handler) GetStored(w http.ResponseWriter, r *http.Request) {
	msgs, upto, err := h.bridge.SnapshotStored(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, StoredResponse{Messages: msgs, Total: len(msgs), Through: upto})
}

// ClearStored handles DELETE /v1/stored[?through=n].
func (h *Handler) ClearStored(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("through"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(w, "through must be a non-negative integer")
			return
		}
		if _, err := h.bridge.ClearStoredThrough(r.Context(), n); err != nil {
			h.Error(w, err)
			return
		}
		h.JSON(w, http.StatusOK, ClearResponse{Cleared: true})
		return
	}

	ok, err := h.bridge.ClearStored(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, ClearResponse{Cleared: ok})
}

// StartRealtime handles POST /v1/realtime/start.
func (h *Handler) StartRealtime(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RealtimeResponse{Attached: h.bridge.StartRealtimeSync()})
}

// StopRealtime handles POST /v1/realtime/stop.
func (h *Handler) StopRealtime(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RealtimeResponse{Attached: h.bridge.StopRealtimeSync()})
}
