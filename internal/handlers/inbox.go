package handlers

import (
	"net/http"
	"strconv"

	"sms-bridge/internal/models"
)

// PermissionResponse reports the SMS read permission.
type PermissionResponse struct {
	Granted bool `json:"granted"`
}

// InboxResponse wraps a list of inbox messages.
type InboxResponse struct {
	Messages []models.InboxMessage `json:"messages"`
	Total    int                   `json:"total"`
}

// CountResponse reports the inbox size.
type CountResponse struct {
	Count int `json:"count"`
}

// CheckPermission handles GET /v1/permission.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	granted, err := h.bridge.CheckPermission(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, PermissionResponse{Granted: granted})
}

// RequestPermission handles POST /v1/permission/request.
func (h *Handler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	granted, err := h.bridge.RequestPermission(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, PermissionResponse{Granted: granted})
}

// ListInbox handles GET /v1/inbox. With ?sender= it filters by address;
// with ?limit= or ?offset= it returns one page; otherwise everything.
func (h *Handler) ListInbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		msgs []models.InboxMessage
		err  error
	)
	switch {
	case q.Has("sender"):
		msgs, err = h.bridge.ListFromSender(r.Context(), q.Get("sender"))
	case q.Has("limit") || q.Has("offset"):
		limit, ok := intParam(q.Get("limit"))
		if !ok {
			h.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		offset, ok := intParam(q.Get("offset"))
		if !ok {
			h.BadRequest(w, "offset must be a non-negative integer")
			return
		}
		msgs, err = h.bridge.ListPage(r.Context(), limit, offset)
	default:
		msgs, err = h.bridge.ListAll(r.Context())
	}
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, InboxResponse{Messages: msgs, Total: len(msgs)})
}

// CountInbox handles GET /v1/inbox/count.
func (h *Handler) CountInbox(w http.ResponseWriter, r *http.Request) {
	n, err := h.bridge.Count(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, CountResponse{Count: n})
}

// ListInboxRange handles GET /v1/inbox/range?start=&end= (epoch millis).
func (h *Handler) ListInboxRange(w http.ResponseWriter, r *http.Request) {
	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		h.BadRequest(w, "start must be epoch milliseconds")
		return
	}
	end, err := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		h.BadRequest(w, "end must be epoch milliseconds")
		return
	}

	msgs, err := h.bridge.ListInRange(r.Context(), start, end)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, InboxResponse{Messages: msgs, Total: len(msgs)})
}

// intParam parses an optional non-negative integer; empty means 0.
func intParam(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
