package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"sms-bridge/internal/models"
)

// BroadcastRequest carries raw PDUs as hex strings.
type BroadcastRequest struct {
	Action string   `json:"action"`
	PDUs   []string `json:"pdus"`
}

// ReceiveBroadcast runs one broadcast through the listener. A PDU that is not
// valid hex is passed on empty so it is counted as malformed.
func (h *Handler) ReceiveBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Action == "" {
		req.Action = models.SMSReceivedAction
	}

	b := models.Broadcast{Action: req.Action, PDUs: make([][]byte, 0, len(req.PDUs))}
	for i, s := range req.PDUs {
		raw, err := hex.DecodeString(strings.TrimSpace(s))
		if err != nil {
			h.logger.Warn().Err(err).Int("pdu", i).Msg("pdu is not valid hex")
			raw = nil
		}
		b.PDUs = append(b.PDUs, raw)
	}

	summary := h.receiver.Receive(r.Context(), b)
	h.JSON(w, http.StatusAccepted, summary)
}
