// Package influxdb provides a write-only telemetry mirror for Sensorgrid.
//
// This package manages:
//   - Connection to an InfluxDB v2 server with token auth
//   - Non-blocking, batched telemetry writes
//   - Connection health monitoring
//
// # Architecture
//
// InfluxDB is strictly a mirror: every accepted telemetry record is also
// written here for long-term retention and dashboarding, but the in-memory
// stores remain the authoritative read path for the HTTP API. If the mirror
// is down or disabled, ingestion continues unaffected.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteTelemetry(deviceID, payload, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are batched and flushed
// asynchronously; failures surface through the SetOnError callback.
package influxdb
