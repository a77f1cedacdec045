package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"podo/internal/audio"
	"podo/internal/services"
)

// Storage PUTs payloads to pre-authorized storage URLs.
type Storage struct {
	rest *resty.Client
}

// NewStorage returns a storage client. Requests carry no API key.
func NewStorage(timeout time.Duration, httpClient *http.Client) *Storage {
	var rest *resty.Client
	if httpClient != nil {
		rest = resty.NewWithClient(httpClient)
	} else {
		rest = resty.New()
	}
	if timeout > 0 {
		rest.SetTimeout(timeout)
	}
	return &Storage{rest: rest}
}

// PutFile uploads a local file with a sniffed Content-Type. It implements
// upload.Transport.
func (s *Storage) PutFile(ctx context.Context, target, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "storage", "put file", localPath, err)
	}
	return s.PutBytes(ctx, target, data, audio.ContentType(localPath))
}

// PutBytes uploads an in-memory payload.
func (s *Storage) PutBytes(ctx context.Context, target string, body []byte, contentType string) error {
	res, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Put(target)
	if err != nil {
		return services.Wrap(services.ErrHTTP, "storage", "put", "request failed", err)
	}
	if !res.IsSuccess() {
		return &services.HTTPError{
			Method:     http.MethodPut,
			Endpoint:   redactQuery(target),
			StatusCode: res.StatusCode(),
			Body:       res.String(),
		}
	}
	return nil
}

// redactQuery drops the signature from presigned URLs before they reach
// error messages and logs.
func redactQuery(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("<%d byte url>", len(raw))
	}
	parsed.RawQuery = ""
	return parsed.String()
}
