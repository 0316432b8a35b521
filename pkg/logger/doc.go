// Package logger provides a structured logging interface for emojiharvest.
//
// It wraps zerolog with a small interface so that components can attach
// fields without depending on zerolog directly:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("mode", "2").Info("Mode selected")
//	logger.GetLogger().InfoWithFields("Result emitted", map[string]interface{}{
//	    "keys": 1843,
//	})
//
// Console output is written to stderr (coloured when stderr is a
// terminal). When Logging.File is set, entries are also appended to that
// file as JSON. TestLogger records entries for assertions in tests.
package logger
