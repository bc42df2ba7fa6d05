// Package logging provides structured logging configuration for jetmock.
//
// This package wraps log/slog so every component logs the same way. The
// server builds one logger from configuration and hands it to components
// through their WithLogger options; components that receive none fall back
// to Nop.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("flow matched", "flowId", id, "group", group)
//
// The Kafka transport logs through Watermill, which Watermill adapts from
// the same slog logger.
package logging
