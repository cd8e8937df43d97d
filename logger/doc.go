// Package logger provides structured logging for the sessionlock packages.
//
// It wraps Uber's Zap logger behind a small method set
// (Info/Debug/Warn/Error/Fatal) that the other packages in this module accept
// as an injected interface. Packages never reach for a global logger; the
// instance is passed in at construction time.
//
// Basic usage:
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	log.Info("lock acquired", nil, map[string]interface{}{
//		"backend": "postgres",
//	})
//
// With the fx dependency injection framework:
//
//	app := fx.New(
//		logger.FXModule,
//		// ... other modules
//	)
//
// Configuration via environment:
//
//	SESSIONLOCK_LOGGER_LEVEL=debug   # debug, info, warning, error
//	SESSIONLOCK_LOGGER_SERVICE=myapp # "service" field on every entry
package logger
