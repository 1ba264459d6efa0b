// Package logger provides structured logging for apifire using zerolog.
//
// The dispatcher logs call starts, preflight rejections, session creation
// and call completion through a *Logger. Applications hand their own
// configured logger to the dispatcher; library code never writes to a
// global sink.
//
// # Configuration
//
//	logger:
//	  level: "debug"
//	  format: "json"
package logger
