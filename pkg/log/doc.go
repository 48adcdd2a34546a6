// Package log provides a logging abstraction for panelhop components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. Default implementations are provided for zerolog
// and a no-op logger for testing.
//
// # Usage
//
// Use the provided zerolog console adapter:
//
//	logger := log.NewConsoleAdapter(false)
//
// Or use the no-op logger for testing:
//
//	logger := log.NewNoopLogger()
//
// Derive a scoped logger that stamps every message with fixed fields,
// typically the device a session is bound to:
//
//	devLog := logger.With(log.String("device", "AA:BB:CC:DD:EE:FF"))
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) With(fields ...log.Field) log.Logger { ... }
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
