// Package api implements the HTTP REST API and WebSocket server for Sensorgrid.
//
// This package provides:
//   - REST endpoints for device registration and telemetry ingestion
//   - Token-gated read endpoints for admin tooling
//   - WebSocket hub for real-time registration and telemetry events
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between field devices, admin tooling, and the in-memory
// stores. Devices submit readings over HTTP POST (unauthenticated, by design:
// constrained sensors hold no credentials); admin clients read the registry
// and per-device telemetry with a shared bearer secret. Accepted readings are
// optionally mirrored to InfluxDB and broadcast to WebSocket subscribers.
//
// # Security
//
// Read endpoints require "Authorization: Bearer <token>" where token is the
// configured shared secret. A missing header yields 401, a non-matching
// header 403. Write endpoints are open.
//
// # Graceful Degradation
//
// The server operates without MQTT and InfluxDB — the HTTP ingest path and
// reads work standalone; the mirror and the MQTT ingest bridge are optional.
package api
