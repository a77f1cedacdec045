package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"podo/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEvaluationID(ctx, "eval-1")
	ctx = services.WithRemoteKey(ctx, "2026-10-17T10:00:00.000/abc")
	ctx = services.WithWorker(ctx, 3)

	id, ok := services.EvaluationIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "eval-1", id)

	key, ok := services.RemoteKeyFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "2026-10-17T10:00:00.000/abc", key)

	worker, ok := services.WorkerFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, 3, worker)
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithEvaluationID(context.Background(), "")
	_, ok := services.EvaluationIDFromContext(ctx)
	assert.False(t, ok)

	ctx = services.WithRemoteKey(ctx, "")
	_, ok = services.RemoteKeyFromContext(ctx)
	assert.False(t, ok)
}
