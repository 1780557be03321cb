// Package logging wraps uber/zap for the terminal backend.
//
// Production builds emit JSON for log shipping; development builds use
// the colored console encoder. Components derive named sub-loggers via
// Named so a single line identifies which subsystem (replicator, poller,
// hub) wrote it.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Push failed", zap.Error(err))
package logging
