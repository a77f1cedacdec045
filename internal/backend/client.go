package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"podo/internal/evaluation"
	"podo/internal/logging"
	"podo/internal/services"
)

// HeaderAPIKey carries the workspace API key on every backend request.
const HeaderAPIKey = "X-API-KEY"

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
	// HTTPClient replaces the underlying transport (tests, proxies).
	HTTPClient *http.Client
}

// Client is a REST client for the evaluation backend.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger
}

// New constructs a Client.
func New(opts Options) *Client {
	var rest *resty.Client
	if opts.HTTPClient != nil {
		rest = resty.NewWithClient(opts.HTTPClient)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader(HeaderAPIKey, opts.APIKey).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rest.SetTimeout(opts.Timeout)
	}
	return &Client{
		rest:   rest,
		logger: logging.NewComponentLogger(opts.Logger, "backend"),
	}
}

// VerifyAPIKey checks that the configured API key is accepted.
func (c *Client) VerifyAPIKey(ctx context.Context) error {
	const endpoint = "customers/verify/api-key"
	res, err := c.rest.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return transportError("verify api key", err)
	}
	if !res.IsSuccess() {
		return responseError(res, http.MethodGet, endpoint)
	}
	if strings.TrimSpace(res.String()) != "true" {
		return services.Wrap(services.ErrAuthorization, "backend", "verify api key", "API key was rejected", nil)
	}
	return nil
}

// CreateEvaluation registers a new evaluation session.
func (c *Client) CreateEvaluation(ctx context.Context, req evaluation.CreateRequest) (Evaluation, error) {
	const endpoint = "evaluations"
	var created Evaluation
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&created).
		Post(endpoint)
	if err != nil {
		return Evaluation{}, transportError("create evaluation", err)
	}
	if !res.IsSuccess() {
		return Evaluation{}, responseError(res, http.MethodPost, endpoint)
	}
	if strings.TrimSpace(created.ID) == "" {
		return Evaluation{}, services.Wrap(services.ErrHTTP, "backend", "create evaluation", "response carried no evaluation id", nil)
	}
	c.logger.Debug("evaluation created",
		logging.String(logging.FieldEvaluationID, created.ID),
		logging.String("status", created.Status),
	)
	return created, nil
}

// UploadURL asks the backend for a single-use URL to PUT remoteKey.
func (c *Client) UploadURL(ctx context.Context, evaluationID, remoteKey string) (string, error) {
	endpoint := fmt.Sprintf("evaluations/%s/uploading-presigned-url", url.PathEscape(evaluationID))
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(uploadURLRequest{ProcessedURI: remoteKey}).
		Put(endpoint)
	if err != nil {
		return "", transportError("upload url", err)
	}
	if !res.IsSuccess() {
		return "", responseError(res, http.MethodPut, endpoint)
	}
	presigned := decodeURL(res.Body())
	if presigned == "" {
		return "", services.Wrap(services.ErrHTTP, "backend", "upload url", "empty presigned URL for "+remoteKey, nil)
	}
	return presigned, nil
}

// RegisterFiles records per-file metadata for an evaluation in one call.
func (c *Client) RegisterFiles(ctx context.Context, evaluationID string, files []FileRegistration) error {
	endpoint := fmt.Sprintf("evaluations/%s/files", url.PathEscape(evaluationID))
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(registerFilesRequest{Files: files}).
		Put(endpoint)
	if err != nil {
		return transportError("register files", err)
	}
	if !res.IsSuccess() {
		return responseError(res, http.MethodPut, endpoint)
	}
	c.logger.Debug("files registered",
		logging.String(logging.FieldEvaluationID, evaluationID),
		logging.Int("files", len(files)),
	)
	return nil
}

// ListEvaluations returns every evaluation visible to the API key.
func (c *Client) ListEvaluations(ctx context.Context) ([]Evaluation, error) {
	const endpoint = "evaluations"
	var list []Evaluation
	res, err := c.rest.R().SetContext(ctx).SetResult(&list).Get(endpoint)
	if err != nil {
		return nil, transportError("list evaluations", err)
	}
	if !res.IsSuccess() {
		return nil, responseError(res, http.MethodGet, endpoint)
	}
	return list, nil
}

// Stats returns per-stimulus statistics. An unknown evaluation id (HTTP
// 400) yields an empty list.
func (c *Client) Stats(ctx context.Context, evaluationID string) ([]StimulusStats, error) {
	endpoint := fmt.Sprintf("evaluations/%s/stats", url.PathEscape(evaluationID))
	var stats []StimulusStats
	res, err := c.rest.R().SetContext(ctx).SetResult(&stats).Get(endpoint)
	if err != nil {
		return nil, transportError("stats", err)
	}
	if res.StatusCode() == http.StatusBadRequest {
		c.logger.Info("evaluation id rejected; returning no stats",
			logging.String(logging.FieldEvaluationID, evaluationID),
		)
		return []StimulusStats{}, nil
	}
	if !res.IsSuccess() {
		return nil, responseError(res, http.MethodGet, endpoint)
	}
	if stats == nil {
		stats = []StimulusStats{}
	}
	return stats, nil
}

// Authorizer returns an upload authorizer bound to one evaluation.
func (c *Client) Authorizer(evaluationID string) *SessionAuthorizer {
	return &SessionAuthorizer{client: c, evaluationID: evaluationID}
}

// SessionAuthorizer fetches backend-issued upload URLs for one evaluation.
type SessionAuthorizer struct {
	client       *Client
	evaluationID string
}

// Authorize implements upload.Authorizer.
func (a *SessionAuthorizer) Authorize(ctx context.Context, remoteKey string) (string, error) {
	return a.client.UploadURL(ctx, a.evaluationID, remoteKey)
}

// decodeURL accepts the JSON-quoted string the backend returns, or a bare
// URL from servers that skip the quoting.
func decodeURL(body []byte) string {
	var presigned string
	if err := json.Unmarshal(body, &presigned); err == nil {
		return strings.TrimSpace(presigned)
	}
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}

func responseError(res *resty.Response, method, endpoint string) error {
	return &services.HTTPError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: res.StatusCode(),
		Body:       res.String(),
	}
}

func transportError(operation string, err error) error {
	return services.Wrap(services.ErrHTTP, "backend", operation, "request failed", err)
}
