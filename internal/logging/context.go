package logging

import (
	"context"
	"log/slog"

	"podo/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEvaluationID is the standardized key for server-assigned evaluation ids.
	FieldEvaluationID = "evaluation_id"
	// FieldRemoteKey is the standardized key for remote object keys.
	FieldRemoteKey = "remote_key"
	// FieldWorker is the standardized key for the upload worker index.
	FieldWorker = "worker"
	// FieldEventType classifies a log line for filtering (e.g. upload_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries a short remediation hint next to warnings and errors.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.EvaluationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEvaluationID, id))
	}
	if key, ok := services.RemoteKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRemoteKey, key))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldWorker, worker))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(args(fields)...)
}
