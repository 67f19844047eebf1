package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// PushService defines the methods that the push handler requires from the
// service layer.
type PushService interface {
	Subscribe(ctx context.Context, endpoint, p256dh, auth string) error
	SendTest(ctx context.Context) error
}

// PushHandler serves web-push subscription endpoints.
type PushHandler struct {
	push   PushService
	logger *slog.Logger
}

// NewPushHandler creates a PushHandler with the given service and logger.
func NewPushHandler(push PushService, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		push:   push,
		logger: logger,
	}
}

// subscribeRequest mirrors the browser PushSubscription JSON shape.
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers or refreshes a browser push subscription.
// POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.push.Subscribe(r.Context(), req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		writeDomainError(w, r, h.logger, err, "subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

// SendTest pushes a test notification to every stored subscription.
// POST /api/push/test
func (h *PushHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	if err := h.push.SendTest(r.Context()); err != nil {
		writeDomainError(w, r, h.logger, err, "send test notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
