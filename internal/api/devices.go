package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// registerDeviceRequest is the body for POST /devices.
type registerDeviceRequest struct {
	DeviceName string `json:"deviceName"`
	DeviceType string `json:"deviceType"`
}

// handleRegisterDevice creates a new device registration.
//
// Request:  {"deviceName": "Sensor1", "deviceType": "Temperature"}
// Response: 201 {"status": "success", "deviceId": "<uuid>"}
//
// A missing or whitespace-only name or type yields 400 with a single
// combined message; the handler does not report which field was at fault.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatusError(w, http.StatusBadRequest, "Missing deviceName or deviceType")
		return
	}

	if strings.TrimSpace(req.DeviceName) == "" || strings.TrimSpace(req.DeviceType) == "" {
		writeStatusError(w, http.StatusBadRequest, "Missing deviceName or deviceType")
		return
	}

	dev, err := s.devices.Register(req.DeviceName, req.DeviceType)
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, "Missing deviceName or deviceType")
		return
	}

	// Registration itself is logged by the store.
	if s.influx != nil {
		s.influx.WriteDeviceRegistered(dev.ID, dev.Type, dev.RegisteredAt)
	}
	if s.hub != nil {
		s.hub.Broadcast(ChannelDeviceRegistered, dev)
	}
	s.publishEvent(ChannelDeviceRegistered, dev)

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"deviceId": dev.ID,
	})
}

// handleListDevices returns every registered device in registration order.
//
// The response is a bare JSON array, not an envelope: deployed admin tooling
// consumes it directly. An empty registry yields [].
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.devices.List()
	writeJSON(w, http.StatusOK, devices)
}
