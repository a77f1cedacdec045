package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"podo/internal/audio"
	"podo/internal/backend"
	"podo/internal/config"
	"podo/internal/evaluation"
	"podo/internal/evaluator"
	"podo/internal/logging"
	"podo/internal/services"
	"podo/internal/storage/s3presign"
	"podo/internal/upload"
)

// Options configures a Client.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Status receives the status line printed when a session closes.
	Status io.Writer
	// Prober overrides the ffprobe-backed prober.
	Prober audio.Prober
	// OnUpload is forwarded to every evaluator the client creates.
	OnUpload   func(upload.Result)
	HTTPClient *http.Client
}

// Client is the configured entry point to the evaluation service.
type Client struct {
	cfg       *config.Config
	backend   *backend.Client
	storage   *backend.Storage
	presigner *s3presign.Presigner
	prober    audio.Prober
	logger    *slog.Logger
	status    io.Writer
	onUpload  func(upload.Result)
}

// New builds a Client from configuration. An API key is required; storage
// mode "s3" additionally loads AWS credentials for local presigning.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "new client", "configuration is required", nil)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "new client", "missing api key", err)
	}

	c := &Client{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(opts.Logger, "api"),
		status:   opts.Status,
		prober:   opts.Prober,
		onUpload: opts.OnUpload,
		backend: backend.New(backend.Options{
			BaseURL:    cfg.API.BaseURL,
			APIKey:     cfg.API.APIKey,
			Timeout:    cfg.RequestTimeout(),
			Logger:     opts.Logger,
			HTTPClient: opts.HTTPClient,
		}),
		storage: backend.NewStorage(cfg.RequestTimeout(), opts.HTTPClient),
	}
	if c.prober == nil {
		c.prober = audio.NewFFprobeProber(cfg.FFprobeBinary())
	}
	if cfg.Storage.Mode == config.StorageModeS3 {
		presigner, err := s3presign.New(ctx, s3presign.OptionsFromConfig(cfg))
		if err != nil {
			return nil, err
		}
		c.presigner = presigner
	}
	c.logger.Debug("client ready",
		logging.String("base_url", cfg.API.BaseURL),
		logging.String("storage_mode", cfg.Storage.Mode),
	)
	return c, nil
}

// Verify checks the API key against the backend.
func (c *Client) Verify(ctx context.Context) error {
	return c.backend.VerifyAPIKey(ctx)
}

// CreateEvaluator validates the evaluation options and opens a session.
// The configured upload worker count applies unless opts override it.
func (c *Client) CreateEvaluator(ctx context.Context, opts ...evaluation.Option) (evaluator.Evaluator, error) {
	withDefaults := append([]evaluation.Option{
		evaluation.WithMaxUploadWorkers(c.cfg.Upload.MaxWorkers),
	}, opts...)
	evalCfg, err := evaluation.New(withDefaults...)
	if err != nil {
		return nil, err
	}
	return evaluator.New(ctx, c.deps(), evalCfg)
}

func (c *Client) deps() evaluator.Deps {
	return evaluator.Deps{
		Backend:      c.backend,
		Authorizers:  c.authorizerFor,
		Storage:      c.storage,
		Prober:       c.prober,
		Logger:       c.logger,
		Status:       c.status,
		WorkspaceURL: c.cfg.API.WorkspaceURL,
		Retry: upload.RetryPolicy{
			MaxAttempts: c.cfg.Upload.MaxAttempts,
			Initial:     c.cfg.RetryInitial(),
			Max:         c.cfg.RetryMax(),
			Multiplier:  2,
		},
		OnUpload: c.onUpload,
	}
}

func (c *Client) authorizerFor(evaluationID string) upload.Authorizer {
	if c.presigner != nil {
		return c.presigner.ForSession(evaluationID)
	}
	return c.backend.Authorizer(evaluationID)
}

// ListEvaluations returns every evaluation, newest first.
func (c *Client) ListEvaluations(ctx context.Context) ([]EvaluationView, error) {
	list, err := c.backend.ListEvaluations(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]EvaluationView, 0, len(list))
	for _, ev := range list {
		views = append(views, FromEvaluation(ev))
	}
	return SortEvaluationsNewestFirst(views), nil
}

// Stats returns per-stimulus statistics; unknown ids yield an empty list.
func (c *Client) Stats(ctx context.Context, evaluationID string) ([]backend.StimulusStats, error) {
	if evaluationID == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "stats", "evaluation id is required", nil)
	}
	return c.backend.Stats(ctx, evaluationID)
}
