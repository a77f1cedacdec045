package services

import "context"

type contextKey string

const (
	evaluationIDKey contextKey = "evaluation_id"
	remoteKeyKey    contextKey = "remote_key"
	workerKey       contextKey = "worker"
)

// WithEvaluationID annotates context with the server-assigned evaluation id.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, evaluationIDKey, id)
}

// EvaluationIDFromContext extracts the evaluation id if present.
func EvaluationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(evaluationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRemoteKey annotates context with the remote object key being uploaded.
func WithRemoteKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, remoteKeyKey, key)
}

// RemoteKeyFromContext returns the remote object key if present.
func RemoteKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(remoteKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorker annotates context with the upload worker index.
func WithWorker(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, workerKey, index)
}

// WorkerFromContext returns the upload worker index if present.
func WorkerFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(workerKey).(int)
	return v, ok
}
