package s3presign_test

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/services"
	"podo/internal/storage/s3presign"
	"podo/internal/testsupport"
)

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func newPresigner(t *testing.T) *s3presign.Presigner {
	t.Helper()
	isolateAWS(t)
	p, err := s3presign.New(context.Background(), s3presign.Options{
		Bucket:          "ratings",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		PathStyle:       true,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		TTL:             10 * time.Minute,
	})
	require.NoError(t, err)
	return p
}

func TestAuthorizeSignsSessionScopedKey(t *testing.T) {
	p := newPresigner(t)
	auth := p.ForSession("ev-1")

	raw, err := auth.Authorize(context.Background(), "2024-03-05T07:08:09.123/1709-abc")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", parsed.Host)
	assert.Equal(t, "/ratings/ev-1/2024-03-05T07:08:09.123/1709-abc", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "AWS4-HMAC-SHA256", query.Get("X-Amz-Algorithm"))
	assert.Equal(t, "600", query.Get("X-Amz-Expires"))
	assert.Contains(t, query.Get("X-Amz-Credential"), "AKIDEXAMPLE/")
	assert.NotEmpty(t, query.Get("X-Amz-Signature"))

	assert.Equal(t, "ev-1/a/b", auth.ObjectKey("a/b"))
}

func TestAuthorizeRejectsEmptyKey(t *testing.T) {
	p := newPresigner(t)
	_, err := p.ForSession("ev-1").Authorize(context.Background(), " ")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = p.PresignPut(context.Background(), "/")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestNewValidatesOptions(t *testing.T) {
	isolateAWS(t)
	_, err := s3presign.New(context.Background(), s3presign.Options{TTL: time.Minute})
	assert.ErrorIs(t, err, services.ErrConfiguration)

	_, err = s3presign.New(context.Background(), s3presign.Options{Bucket: "b"})
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.Bucket = "ratings"
	cfg.Storage.PathStyle = true
	cfg.Storage.PresignMinutes = 30

	opts := s3presign.OptionsFromConfig(cfg)
	assert.Equal(t, "ratings", opts.Bucket)
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.PathStyle)
	assert.Equal(t, 30*time.Minute, opts.TTL)
}
