// Package tlslog provides structured trial logging for benchmark campaigns.
//
// This package defines the Logger interface and Event types for capturing
// every handshake trial, campaign state change, and error as it happens.
// It is separate from operator output (stdlib log): the trial log is a
// complete machine-readable record, suitable for audit and replay, written
// as a CBOR stream.
//
// # Basic Usage
//
//	// For development: mirror trials into console output via slog
//	cfg.TrialLogger = tlslog.NewSlogAdapter(slog.Default())
//
//	// For measurement runs: write the binary trial record
//	cfg.TrialLogger, _ = tlslog.NewFileLogger("run.tlog")
//
//	// Both at once
//	cfg.TrialLogger = tlslog.NewMultiLogger(
//	    tlslog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Read a trial record back with Reader, optionally filtered by run,
// group, or time range.
package tlslog
