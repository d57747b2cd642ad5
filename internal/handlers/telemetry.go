package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neurowatch-systems/neurowatch/internal/correlation"
	"github.com/neurowatch-systems/neurowatch/internal/httputil"
	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/service"
)

type TelemetryHandler struct {
	ingest *service.IngestService
}

func NewTelemetryHandler(ingest *service.IngestService) *TelemetryHandler {
	return &TelemetryHandler{ingest: ingest}
}

// Ingest handles POST /api/devices/data. Devices authenticate by
// registration, not by user token.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.TelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeviceID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	result, err := h.ingest.Ingest(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeviceNotRegistered):
			httputil.WriteError(w, http.StatusForbidden, "device not registered")
		case errors.Is(err, service.ErrRateLimited):
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
		case errors.Is(err, correlation.ErrStoreUnavailable):
			// Never report a silent negative when a store failed; the
			// device retries and the signal is not lost.
			httputil.WriteError(w, http.StatusServiceUnavailable, "correlation store unavailable")
		case errors.Is(err, correlation.ErrPersistFailed):
			httputil.WriteError(w, http.StatusInternalServerError, "failed to record correlated event")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "failed to store telemetry")
		}
		return
	}

	resp := models.TelemetryResponse{Status: "ok"}
	if result.Outcome != "" {
		resp.Outcome = string(result.Outcome)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
