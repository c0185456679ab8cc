package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sensorgrid/sensorgrid/internal/device"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/config"
	"github.com/sensorgrid/sensorgrid/internal/infrastructure/logging"
	"github.com/sensorgrid/sensorgrid/internal/telemetry"
)

const testToken = "test-secret-token"

// testServer creates a Server backed by fresh in-memory stores.
func testServer(t *testing.T) (*Server, *device.Store, *telemetry.Store) {
	t.Helper()

	devices := device.NewStore()
	records := telemetry.NewStore(devices)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		AuthToken: testToken,
		Logger:    log,
		Devices:   devices,
		Telemetry: records,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv, devices, records
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// registerDevice registers a device through the API and returns its ID.
func registerDevice(t *testing.T, router http.Handler, name, deviceType string) string {
	t.Helper()

	body := `{"deviceName":"` + name + `","deviceType":"` + deviceType + `"}`
	w := doJSON(t, router, http.MethodPost, "/devices", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	id, ok := resp["deviceId"].(string)
	if !ok || id == "" {
		t.Fatalf("deviceId = %v, want non-empty string", resp["deviceId"])
	}
	return id
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/health", "", "")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

// ─── Device Registration Tests ─────────────────────────────────────

func TestRegisterDevice(t *testing.T) {
	srv, devices, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/devices", `{"deviceName":"Sensor1","deviceType":"Temperature"}`, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("status = %v, want success", resp["status"])
	}
	id, _ := resp["deviceId"].(string)
	if id == "" {
		t.Fatal("deviceId missing from response")
	}

	if !devices.Exists(id) {
		t.Error("registered device not found in store")
	}
}

func TestRegisterDeviceValidation(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"deviceType":"Temperature"}`},
		{"missing type", `{"deviceName":"Sensor1"}`},
		{"empty name", `{"deviceName":"","deviceType":"Temperature"}`},
		{"whitespace name", `{"deviceName":"   ","deviceType":"Temperature"}`},
		{"empty body", `{}`},
		{"invalid json", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/devices", tt.body, "")

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp["status"] != "error" {
				t.Errorf("status = %v, want error", resp["status"])
			}
			if resp["message"] != "Missing deviceName or deviceType" {
				t.Errorf("message = %v, want %q", resp["message"], "Missing deviceName or deviceType")
			}
		})
	}
}

func TestRegisterDeviceUnauthenticated(t *testing.T) {
	// Registration must work without any Authorization header.
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/devices", `{"deviceName":"Sensor1","deviceType":"Temperature"}`, "")
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

// ─── Device Listing Tests ──────────────────────────────────────────

func TestListDevices(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	id1 := registerDevice(t, router, "Sensor1", "Temperature")
	id2 := registerDevice(t, router, "Sensor2", "Humidity")

	w := doJSON(t, router, http.MethodGet, "/devices", "", "Bearer "+testToken)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var devices []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("device count = %d, want 2", len(devices))
	}

	// Registration order is preserved
	if devices[0]["id"] != id1 || devices[1]["id"] != id2 {
		t.Errorf("device order = [%v, %v], want [%v, %v]", devices[0]["id"], devices[1]["id"], id1, id2)
	}

	first := devices[0]
	if first["name"] != "Sensor1" {
		t.Errorf("name = %v, want Sensor1", first["name"])
	}
	if first["type"] != "Temperature" {
		t.Errorf("type = %v, want Temperature", first["type"])
	}
	if first["registrationDate"] == nil || first["registrationDate"] == "" {
		t.Error("registrationDate missing")
	}
}

func TestListDevicesEmpty(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/devices", "", "Bearer "+testToken)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := strings.TrimSpace(w.Body.String())
	if body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListDevicesIdempotent(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	registerDevice(t, router, "Sensor1", "Temperature")

	w1 := doJSON(t, router, http.MethodGet, "/devices", "", "Bearer "+testToken)
	w2 := doJSON(t, router, http.MethodGet, "/devices", "", "Bearer "+testToken)

	if w1.Body.String() != w2.Body.String() {
		t.Errorf("repeated listing differs:\n%s\n%s", w1.Body.String(), w2.Body.String())
	}
}

// ─── Auth Gate Tests ───────────────────────────────────────────────

func TestAuthGate(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	tests := []struct {
		name        string
		path        string
		token       string
		wantStatus  int
		wantMessage string
	}{
		{"devices no token", "/devices", "", http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"devices wrong token", "/devices", "Bearer wrong-token", http.StatusForbidden, "Forbidden: Invalid token"},
		{"devices malformed scheme", "/devices", "Token " + testToken, http.StatusForbidden, "Forbidden: Invalid token"},
		{"devices bare token", "/devices", testToken, http.StatusForbidden, "Forbidden: Invalid token"},
		{"devices valid", "/devices", "Bearer " + testToken, http.StatusOK, ""},
		{"data no token", "/data/" + deviceID, "", http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"data wrong token", "/data/" + deviceID, "Bearer nope", http.StatusForbidden, "Forbidden: Invalid token"},
		{"data valid", "/data/" + deviceID, "Bearer " + testToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, tt.path, "", tt.token)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantMessage != "" {
				var resp map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp["message"] != tt.wantMessage {
					t.Errorf("message = %v, want %q", resp["message"], tt.wantMessage)
				}
				if _, hasStatus := resp["status"]; hasStatus {
					t.Error("auth error must not carry a status field")
				}
			}
		})
	}
}

// ─── Telemetry Submission Tests ────────────────────────────────────

func TestSubmitTelemetry(t *testing.T) {
	srv, _, records := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	body := `{"deviceId":"` + deviceID + `","timestamp":"2026-08-30T10:00:00Z","payload":{"temperature":21.5}}`
	w := doJSON(t, router, http.MethodPost, "/data", body, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("status = %v, want success", resp["status"])
	}
	if resp["message"] != "Data received" {
		t.Errorf("message = %v, want %q", resp["message"], "Data received")
	}

	if got := records.CountFor(deviceID); got != 1 {
		t.Errorf("stored records = %d, want 1", got)
	}
}

func TestSubmitTelemetryValidation(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	tests := []struct {
		name string
		body string
	}{
		{"missing deviceId", `{"timestamp":"t1","payload":{}}`},
		{"missing timestamp", `{"deviceId":"` + deviceID + `","payload":{}}`},
		{"missing payload", `{"deviceId":"` + deviceID + `","timestamp":"t1"}`},
		{"null payload", `{"deviceId":"` + deviceID + `","timestamp":"t1","payload":null}`},
		{"empty body", `{}`},
		{"invalid json", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/data", tt.body, "")

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp["message"] != "Missing deviceId, timestamp, or payload" {
				t.Errorf("message = %v, want %q", resp["message"], "Missing deviceId, timestamp, or payload")
			}
		})
	}
}

func TestSubmitTelemetryEmptyPayloadObject(t *testing.T) {
	// An explicit empty object is a present payload, not a missing one.
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	body := `{"deviceId":"` + deviceID + `","timestamp":"t1","payload":{}}`
	w := doJSON(t, router, http.MethodPost, "/data", body, "")

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestSubmitTelemetryUnknownDevice(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"deviceId":"no-such-device","timestamp":"t1","payload":{"v":1}}`
	w := doJSON(t, router, http.MethodPost, "/data", body, "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("status = %v, want error", resp["status"])
	}
	if resp["message"] != "Device not found" {
		t.Errorf("message = %v, want %q", resp["message"], "Device not found")
	}
}

func TestSubmitTelemetryValidationPrecedesExistence(t *testing.T) {
	// A request that is both invalid and aimed at an unknown device
	// fails validation first.
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"deviceId":"no-such-device","timestamp":"","payload":{}}`
	w := doJSON(t, router, http.MethodPost, "/data", body, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Telemetry Listing Tests ───────────────────────────────────────

func TestListTelemetry(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	for _, ts := range []string{"t1", "t2", "t3"} {
		body := `{"deviceId":"` + deviceID + `","timestamp":"` + ts + `","payload":{"seq":"` + ts + `"}}`
		w := doJSON(t, router, http.MethodPost, "/data", body, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("submit %s status = %d", ts, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/data/"+deviceID, "", "Bearer "+testToken)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var readings []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &readings); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("reading count = %d, want 3", len(readings))
	}

	// Arrival order, oldest first
	for i, want := range []string{"t1", "t2", "t3"} {
		if readings[i]["timestamp"] != want {
			t.Errorf("readings[%d].timestamp = %v, want %s", i, readings[i]["timestamp"], want)
		}
		if readings[i]["receivedAt"] == nil || readings[i]["receivedAt"] == "" {
			t.Errorf("readings[%d].receivedAt missing", i)
		}
		if _, hasDeviceID := readings[i]["deviceId"]; hasDeviceID {
			t.Errorf("readings[%d] must not carry deviceId", i)
		}
	}
}

func TestListTelemetryEmpty(t *testing.T) {
	// A registered device with no readings yields 200 with an empty
	// array, not 404.
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	w := doJSON(t, router, http.MethodGet, "/data/"+deviceID, "", "Bearer "+testToken)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := strings.TrimSpace(w.Body.String())
	if body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListTelemetryUnknownDevice(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/data/no-such-device", "", "Bearer "+testToken)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["message"] != "Device not found" {
		t.Errorf("message = %v, want %q", resp["message"], "Device not found")
	}
}

// ─── End-to-End Scenario ───────────────────────────────────────────

func TestTelemetryRoundTrip(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	body := `{"deviceId":"` + deviceID + `","timestamp":"2026-08-30T10:00:00Z","payload":{"temperature":21.5,"unit":"C"}}`
	if w := doJSON(t, router, http.MethodPost, "/data", body, ""); w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/data/"+deviceID, "", "Bearer "+testToken)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	var readings []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &readings); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("reading count = %d, want 1", len(readings))
	}

	payload, ok := readings[0]["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %T, want object", readings[0]["payload"])
	}
	if payload["temperature"] != 21.5 {
		t.Errorf("temperature = %v, want 21.5", payload["temperature"])
	}
	if payload["unit"] != "C" {
		t.Errorf("unit = %v, want C", payload["unit"])
	}
	if readings[0]["timestamp"] != "2026-08-30T10:00:00Z" {
		t.Errorf("timestamp = %v, want submitted value verbatim", readings[0]["timestamp"])
	}
}

// ─── Bus Event Tests ───────────────────────────────────────────────

// fakeEvents records bus publications per topic.
type fakeEvents struct {
	published map[string][][]byte
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{published: make(map[string][][]byte)}
}

func (f *fakeEvents) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func TestRegisterDevicePublishesBusEvent(t *testing.T) {
	srv, _, _ := testServer(t)
	events := newFakeEvents()
	srv.events = events
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	topic := "sensorgrid/event/device.registered"
	if len(events.published[topic]) != 1 {
		t.Fatalf("events on %s = %d, want 1", topic, len(events.published[topic]))
	}

	var event map[string]any
	if err := json.Unmarshal(events.published[topic][0], &event); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if event["id"] != deviceID {
		t.Errorf("event id = %v, want %s", event["id"], deviceID)
	}
	if event["name"] != "Sensor1" {
		t.Errorf("event name = %v, want Sensor1", event["name"])
	}
}

func TestSubmitTelemetryPublishesBusEvent(t *testing.T) {
	srv, _, _ := testServer(t)
	events := newFakeEvents()
	srv.events = events
	router := srv.buildRouter()

	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	body := `{"deviceId":"` + deviceID + `","timestamp":"t1","payload":{"v":1}}`
	if w := doJSON(t, router, http.MethodPost, "/data", body, ""); w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", w.Code)
	}

	topic := "sensorgrid/event/telemetry.received"
	if len(events.published[topic]) != 1 {
		t.Fatalf("events on %s = %d, want 1", topic, len(events.published[topic]))
	}

	var event map[string]any
	if err := json.Unmarshal(events.published[topic][0], &event); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if event["deviceId"] != deviceID {
		t.Errorf("event deviceId = %v, want %s", event["deviceId"], deviceID)
	}
	if event["timestamp"] != "t1" {
		t.Errorf("event timestamp = %v, want t1", event["timestamp"])
	}
}

func TestRejectedRequestsPublishNoBusEvent(t *testing.T) {
	srv, _, _ := testServer(t)
	events := newFakeEvents()
	srv.events = events
	router := srv.buildRouter()

	doJSON(t, router, http.MethodPost, "/devices", `{"deviceName":""}`, "")
	doJSON(t, router, http.MethodPost, "/data", `{"deviceId":"nope","timestamp":"t1","payload":{}}`, "")

	if got := len(events.published); got != 0 {
		t.Errorf("topics published = %d, want 0", got)
	}
}

// ─── Logging Tests ─────────────────────────────────────────────────

func TestRegisterDeviceLoggedOnce(t *testing.T) {
	// The store owns the registration log line; the handler must not
	// repeat it.
	var buf bytes.Buffer
	log := &logging.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	devices := device.NewStore()
	devices.SetLogger(log)
	records := telemetry.NewStore(devices)

	srv, err := New(Deps{
		Config:    config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:        config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		AuthToken: testToken,
		Logger:    log,
		Devices:   devices,
		Telemetry: records,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	srv.hub = NewHub(srv.wsCfg, log)
	router := srv.buildRouter()

	registerDevice(t, router, "Sensor1", "Temperature")

	if got := strings.Count(buf.String(), "device registered"); got != 1 {
		t.Errorf("%q logged %d times, want 1\nlog output:\n%s", "device registered", got, buf.String())
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

func TestWebSocketAuth(t *testing.T) {
	srv, _, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	tests := []struct {
		name        string
		url         string
		wantStatus  int
		wantMessage string
	}{
		{"no token", ts.URL + "/ws", http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"wrong token", ts.URL + "/ws?token=wrong", http.StatusForbidden, "Forbidden: Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(tt.url)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.url, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
			if _, hasStatus := body["status"]; hasStatus {
				t.Error("auth error must not carry a status field")
			}
		})
	}
}

func TestWebSocketEventRoundTrip(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()
	ts := httptest.NewServer(router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil) //nolint:bodyclose // response body unusable after upgrade
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}

	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{ChannelDeviceRegistered}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %q, want %q", ack.Type, WSTypeResponse)
	}

	// Subscription is confirmed; a registration must now arrive as an event.
	deviceID := registerDevice(t, router, "Sensor1", "Temperature")

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != WSTypeEvent {
		t.Errorf("event type = %q, want %q", event.Type, WSTypeEvent)
	}
	if event.EventType != ChannelDeviceRegistered {
		t.Errorf("event_type = %q, want %q", event.EventType, ChannelDeviceRegistered)
	}

	payload, ok := event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload = %T, want object", event.Payload)
	}
	if payload["id"] != deviceID {
		t.Errorf("payload id = %v, want %s", payload["id"], deviceID)
	}
	if payload["name"] != "Sensor1" {
		t.Errorf("payload name = %v, want Sensor1", payload["name"])
	}
}

func TestWebSocketUnsubscribedClientGetsNoEvent(t *testing.T) {
	srv, _, _ := testServer(t)
	router := srv.buildRouter()
	ts := httptest.NewServer(router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil) //nolint:bodyclose // response body unusable after upgrade
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// No subscribe message: the registration below must not be delivered.
	registerDevice(t, router, "Sensor1", "Temperature")

	if err := conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("unsubscribed client received a message, want read timeout")
	}
}

// ─── Server Lifecycle Tests ────────────────────────────────────────

func TestNewMissingDeps(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	devices := device.NewStore()
	records := telemetry.NewStore(devices)

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{Devices: devices, Telemetry: records, AuthToken: "x"}},
		{"missing devices", Deps{Logger: log, Telemetry: records, AuthToken: "x"}},
		{"missing telemetry", Deps{Logger: log, Devices: devices, AuthToken: "x"}},
		{"missing token", Deps{Logger: log, Devices: devices, Telemetry: records}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestCloseBeforeStart(t *testing.T) {
	srv, _, _ := testServer(t)
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start() error = %v", err)
	}
}
