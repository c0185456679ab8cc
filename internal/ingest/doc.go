// Package ingest bridges MQTT telemetry into the in-memory stores.
//
// Field devices that speak MQTT publish readings to
// sensorgrid/telemetry/{deviceId} instead of HTTP POST /data. The bridge
// subscribes to the telemetry wildcard, applies the same validation as the
// HTTP ingest path (device must be registered, timestamp and payload must be
// present), and appends accepted readings to the telemetry store. Invalid
// messages are logged and dropped; MQTT has no reply channel to carry a 400.
//
// The bridge is optional. When MQTT is disabled in config the service runs
// HTTP-only and this package is never started.
package ingest
