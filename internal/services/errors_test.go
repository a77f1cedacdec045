package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "evaluator", "add file", "bad input", base)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.ErrorIs(t, err, base)
	for _, fragment := range []string{"evaluator", "add file", "bad input"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestWrapWithoutDetailFallsBack(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	assert.ErrorIs(t, err, services.ErrHTTP)
	assert.Contains(t, err.Error(), "service failure")
}

func TestHTTPErrorClassification(t *testing.T) {
	forbidden := fmt.Errorf("upload: %w", &services.HTTPError{Method: http.MethodPut, Endpoint: "https://bucket/key", StatusCode: http.StatusForbidden, Body: "Request has expired"})
	assert.ErrorIs(t, forbidden, services.ErrHTTP)
	assert.ErrorIs(t, forbidden, services.ErrAuthorization)
	assert.Equal(t, http.StatusForbidden, services.StatusCode(forbidden))
	assert.Contains(t, forbidden.Error(), "status 403")

	serverErr := &services.HTTPError{Method: http.MethodPost, Endpoint: "evaluations", StatusCode: http.StatusInternalServerError}
	assert.ErrorIs(t, serverErr, services.ErrHTTP)
	assert.NotErrorIs(t, serverErr, services.ErrAuthorization)

	assert.Zero(t, services.StatusCode(errors.New("plain")))
}
