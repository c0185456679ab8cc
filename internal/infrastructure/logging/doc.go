// Package logging provides structured logging for Sensorgrid.
//
// It wraps log/slog with configuration-driven format and level selection,
// plus default service/version attributes on every record.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("device registered", "id", dev.ID, "name", dev.Name)
package logging
