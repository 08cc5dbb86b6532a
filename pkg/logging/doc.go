// Package logging provides structured logging for dockhand with subsystem
// tagging and level filtering.
//
// The package wraps Go's standard slog package. Every log entry carries a
// subsystem identifier so that output from the engine's components (Runtime,
// Registry, Discovery, Engine, Health, Persistence) can be filtered by log
// aggregation tooling.
//
// Usage:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Engine", "Provisioned %s", identity)
//	logging.Error("Persistence", err, "Failed to upsert record %s", id)
//
// The package is safe for concurrent use. Logging before Init falls back to a
// stderr text handler.
package logging
