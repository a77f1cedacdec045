// Package logging assembles structured slog loggers for podo.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with evaluation ids, remote object keys,
// and upload worker indexes. NewNop gives tests and optional wiring a logger
// that cannot fail.
package logging
