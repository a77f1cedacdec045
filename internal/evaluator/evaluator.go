package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"podo/internal/audio"
	"podo/internal/backend"
	"podo/internal/evaluation"
	"podo/internal/logging"
	"podo/internal/services"
	"podo/internal/upload"
)

// State is the lifecycle position of an evaluator.
type State int

const (
	StateCreated State = iota
	StateAccepting
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAccepting:
		return "accepting"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result summarizes a successful Close.
type Result struct {
	Status       string `json:"status"`
	EvaluationID string `json:"evaluation_id"`
	ManifestKey  string `json:"manifest_key"`
	Files        int    `json:"files"`
}

// Evaluator is implemented by SingleStimulusEvaluator and
// DoubleStimuliEvaluator only.
type Evaluator interface {
	EvaluationID() string
	State() State
	Descriptors() [][]audio.Descriptor
	AddFile(ctx context.Context, file audio.File) error
	AddFilePair(ctx context.Context, target, ref audio.File) error
	AddFiles(ctx context.Context, file0, file1 audio.File) error
	Close(ctx context.Context) (Result, error)
	Abort() error

	sealed()
}

// Backend is the part of the backend API a session needs.
type Backend interface {
	CreateEvaluation(ctx context.Context, req evaluation.CreateRequest) (backend.Evaluation, error)
	RegisterFiles(ctx context.Context, evaluationID string, files []backend.FileRegistration) error
}

// Storage uploads files and the manifest to authorized URLs.
type Storage interface {
	upload.Transport
	PutBytes(ctx context.Context, url string, body []byte, contentType string) error
}

// Deps wires a session to its collaborators.
type Deps struct {
	Backend Backend
	// Authorizers returns the upload authorizer for a registered evaluation.
	Authorizers func(evaluationID string) upload.Authorizer
	Storage     Storage
	Prober      audio.Prober
	Logger      *slog.Logger
	// Status receives the terminal status line. Nil discards it.
	Status       io.Writer
	WorkspaceURL string
	Retry        upload.RetryPolicy
	// OnUpload is called once per finished upload, from a worker goroutine.
	OnUpload func(upload.Result)
	Now      func() time.Time
}

func (d Deps) validate() error {
	switch {
	case d.Backend == nil:
		return services.Wrap(services.ErrConfiguration, "evaluator", "new", "backend is required", nil)
	case d.Authorizers == nil:
		return services.Wrap(services.ErrConfiguration, "evaluator", "new", "authorizers are required", nil)
	case d.Storage == nil:
		return services.Wrap(services.ErrConfiguration, "evaluator", "new", "storage is required", nil)
	case d.Prober == nil:
		return services.Wrap(services.ErrConfiguration, "evaluator", "new", "prober is required", nil)
	}
	return nil
}

// New registers a session for cfg with the backend, starts its upload
// workers, and returns the evaluator variant matching the configured type.
func New(ctx context.Context, deps Deps, cfg *evaluation.Config) (Evaluator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrValidation, "evaluator", "new", "evaluation config is required", nil)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	var supported []evaluation.Type
	single := false
	switch cfg.Type() {
	case evaluation.NMOS, evaluation.QMOS, evaluation.P808:
		supported, single = singleTypes, true
	case evaluation.CMOS, evaluation.DMOS, evaluation.SMOS, evaluation.PREF:
		supported = doubleTypes
	default:
		return nil, services.Wrap(services.ErrNotSupported, "evaluator", "new",
			fmt.Sprintf("evaluation type %s", cfg.Type()), nil)
	}

	s, err := newSession(ctx, deps, cfg, supported)
	if err != nil {
		return nil, err
	}
	if single {
		return &SingleStimulusEvaluator{session: s}, nil
	}
	return &DoubleStimuliEvaluator{session: s}, nil
}

func logger(deps Deps) *slog.Logger {
	return logging.NewComponentLogger(deps.Logger, "evaluator")
}
