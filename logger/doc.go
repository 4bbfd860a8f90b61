// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers and run ids carried through context.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("iterator")
//	log.WithContext(ctx).Debug("fetching page", logger.Fields("items_from", 100))
package logger
