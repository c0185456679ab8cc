package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sensorgrid/sensorgrid/internal/telemetry"
)

// submitTelemetryRequest is the body for POST /data.
//
// Payload is a pointer so an absent key can be told apart from an explicit
// empty object: {} is a valid payload, a missing field is not.
type submitTelemetryRequest struct {
	DeviceID  string          `json:"deviceId"`
	Timestamp string          `json:"timestamp"`
	Payload   *map[string]any `json:"payload"`
}

// handleSubmitTelemetry ingests a telemetry reading.
//
// Request:  {"deviceId": "...", "timestamp": "...", "payload": {...}}
// Response: 201 {"status": "success", "message": "Data received"}
//
// Validation runs before the device-existence check: a request missing a
// field yields 400 even when the device ID is also unknown. The timestamp
// is stored verbatim; the server does not parse or normalise it.
func (s *Server) handleSubmitTelemetry(w http.ResponseWriter, r *http.Request) {
	var req submitTelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatusError(w, http.StatusBadRequest, "Missing deviceId, timestamp, or payload")
		return
	}

	if strings.TrimSpace(req.DeviceID) == "" || strings.TrimSpace(req.Timestamp) == "" || req.Payload == nil {
		writeStatusError(w, http.StatusBadRequest, "Missing deviceId, timestamp, or payload")
		return
	}

	if !s.devices.Exists(req.DeviceID) {
		writeStatusError(w, http.StatusNotFound, "Device not found")
		return
	}

	record := s.telemetry.Append(req.DeviceID, req.Timestamp, *req.Payload)

	s.logger.Debug("telemetry received",
		"device_id", req.DeviceID,
		"timestamp", req.Timestamp,
	)

	if s.influx != nil {
		s.influx.WriteTelemetry(req.DeviceID, record.Payload, record.ReceivedAt)
	}
	event := map[string]any{
		"deviceId":   req.DeviceID,
		"timestamp":  record.Timestamp,
		"payload":    record.Payload,
		"receivedAt": record.ReceivedAt,
	}
	if s.hub != nil {
		s.hub.Broadcast(ChannelTelemetryReceived, event)
	}
	s.publishEvent(ChannelTelemetryReceived, event)

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Data received",
	})
}

// handleListTelemetry returns all readings for one device, oldest first.
//
// A registered device with no readings yields 200 with an empty array;
// only an unknown device ID yields 404.
func (s *Server) handleListTelemetry(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	records, err := s.telemetry.ListFor(deviceID)
	if err != nil {
		if errors.Is(err, telemetry.ErrDeviceNotFound) {
			writeStatusError(w, http.StatusNotFound, "Device not found")
			return
		}
		writeInternalError(w, "failed to list telemetry")
		return
	}

	writeJSON(w, http.StatusOK, records)
}
