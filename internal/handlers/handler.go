package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"sms-bridge/internal/apperr"
	"sms-bridge/internal/bridge"
	"sms-bridge/internal/listener"
	"sms-bridge/internal/models"
)

// Receiver handles one SMS broadcast.
type Receiver interface {
	Receive(ctx context.Context, b models.Broadcast) listener.Summary
}

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	bridge   *bridge.Bridge
	receiver Receiver
	store    Pinger
	logger   zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(b *bridge.Bridge, receiver Receiver, store Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		bridge:   b,
		receiver: receiver,
		store:    store,
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error maps err to a status code and sends its code and message.
func (h *Handler) Error(w http.ResponseWriter, err error) {
	code := apperr.Code(err)
	message := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		message = ae.Message
	}

	status := http.StatusInternalServerError
	switch code {
	case apperr.CodePermissionDenied:
		status = http.StatusForbidden
	case apperr.CodeInvalidInput:
		status = http.StatusBadRequest
	case "":
		code = "INTERNAL"
	}

	h.JSON(w, status, ErrorResponse{Code: code, Message: message})
}

// BadRequest sends an INVALID_INPUT error.
func (h *Handler) BadRequest(w http.ResponseWriter, message string) {
	h.JSON(w, http.StatusBadRequest, ErrorResponse{Code: apperr.CodeInvalidInput, Message: message})
}
