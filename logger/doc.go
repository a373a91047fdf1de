// Package logger provides structured logging for apicall using zerolog.
//
// Backends and the dispatcher fetch component loggers from the registry and
// log one debug event per call plus error events for setup failures.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("nethttp")
//	log.Debug("call completed", logger.Fields(logger.FieldStatus, 200))
package logger
