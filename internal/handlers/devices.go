package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neurowatch-systems/neurowatch/internal/httputil"
	"github.com/neurowatch-systems/neurowatch/internal/middleware"
	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/internal/service"
)

type DeviceHandler struct {
	devices *service.DeviceService
}

func NewDeviceHandler(devices *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register handles POST /api/devices/register
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeviceID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	userID := middleware.UserID(r.Context())
	device, err := h.devices.Register(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeviceLimit):
			httputil.WriteError(w, http.StatusBadRequest, "maximum of 4 devices allowed per user")
		case errors.Is(err, repository.ErrDeviceExists):
			httputil.WriteError(w, http.StatusBadRequest, "device ID already registered")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to register device")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"status":    "ok",
		"device_id": device.DeviceID,
	})
}

// List handles GET /api/mydevices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	devices, err := h.devices.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, devices)
}

// Update handles PUT /api/devices/{device_id}
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")

	var req models.UpdateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := middleware.UserID(r.Context())
	device, err := h.devices.UpdateLabel(r.Context(), userID, deviceID, req.Label)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "updated",
		"device_id": device.DeviceID,
		"label":     device.Label,
	})
}

// Delete handles DELETE /api/devices/{device_id}
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")

	userID := middleware.UserID(r.Context())
	if err := h.devices.Delete(r.Context(), userID, deviceID); err != nil {
		writeDeviceError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "deleted",
		"device_id": deviceID,
	})
}

func writeDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrDeviceNotFound), errors.Is(err, service.ErrNotOwner):
		httputil.WriteError(w, http.StatusNotFound, "device not found")
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "device operation failed")
	}
}
