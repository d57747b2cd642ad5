package handlers

import (
	"errors"
	"net/http"

	"github.com/neurowatch-systems/neurowatch/internal/httputil"
	"github.com/neurowatch-systems/neurowatch/internal/middleware"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/internal/service"
)

type EventHandler struct {
	events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// DeviceHistory handles GET /api/devices/{device_id}
func (h *EventHandler) DeviceHistory(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	userID := middleware.UserID(r.Context())

	history, err := h.events.DeviceHistory(r.Context(), userID, deviceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotOwner):
			httputil.WriteError(w, http.StatusForbidden, "not your device")
		case errors.Is(err, repository.ErrDeviceNotFound):
			httputil.WriteError(w, http.StatusNotFound, "device not found")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load history")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, history)
}

// List handles GET /api/seizure_events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	events, err := h.events.ListCorrelatedEvents(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, events)
}

// Latest handles GET /api/seizure_events/latest
func (h *EventHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	event, err := h.events.LatestCorrelatedEvent(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load latest event")
		return
	}
	if event == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

// Health handles GET /healthz
func (h *EventHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
