package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"podo/internal/audio"
	"podo/internal/backend"
	"podo/internal/config"
	"podo/internal/evaluation"
	"podo/internal/logging"
	"podo/internal/manifest"
	"podo/internal/services"
	"podo/internal/upload"
)

// ManifestName is the object name of the session manifest.
const ManifestName = "session.json"

// session owns the state machine, the upload manager, and the close
// sequence shared by every evaluator variant.
type session struct {
	cfg          *evaluation.Config
	evaluationID string
	supported    []evaluation.Type

	backend    Backend
	authorizer upload.Authorizer
	storage    Storage
	prober     audio.Prober
	manager    *upload.Manager
	retry      upload.RetryPolicy
	logger     *slog.Logger
	status     io.Writer
	workspace  string
	now        func() time.Time

	mu     sync.Mutex
	state  State
	groups [][]audio.Descriptor
}

func newSession(ctx context.Context, deps Deps, cfg *evaluation.Config, supported []evaluation.Type) (*session, error) {
	s := &session{
		cfg:       cfg,
		supported: supported,
		backend:   deps.Backend,
		storage:   deps.Storage,
		prober:    deps.Prober,
		retry:     deps.Retry,
		status:    deps.Status,
		workspace: deps.WorkspaceURL,
		now:       deps.Now,
		state:     StateCreated,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.workspace == "" {
		s.workspace = config.Default().API.WorkspaceURL
	}
	if s.retry.MaxAttempts < 1 {
		s.retry = upload.DefaultRetryPolicy()
	}

	created, err := deps.Backend.CreateEvaluation(ctx, cfg.CreateRequest())
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	s.evaluationID = created.ID
	s.logger = logging.WithContext(services.WithEvaluationID(ctx, created.ID), logger(deps))
	s.authorizer = deps.Authorizers(created.ID)
	if s.authorizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "evaluator", "new", "no upload authorizer for "+created.ID, nil)
	}

	manager, err := upload.NewManager(upload.Options{
		Workers:    cfg.MaxUploadWorkers(),
		Authorizer: s.authorizer,
		Transport:  deps.Storage,
		Retry:      s.retry,
		Logger:     s.logger,
		OnComplete: deps.OnUpload,
		Now:        deps.Now,
	})
	if err != nil {
		return nil, err
	}
	s.manager = manager
	s.state = StateAccepting

	s.logger.Info("evaluation session opened",
		logging.String("name", cfg.Name()),
		logging.String("type", cfg.Type().String()),
		logging.Int("workers", cfg.MaxUploadWorkers()),
	)
	return s, nil
}

func (s *session) EvaluationID() string { return s.evaluationID }

func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) Descriptors() [][]audio.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]audio.Descriptor, len(s.groups))
	for i, group := range s.groups {
		out[i] = slices.Clone(group)
	}
	return out
}

func (s *session) typeIn(types []evaluation.Type) bool {
	return slices.Contains(types, s.cfg.Type())
}

func (s *session) notSupported(call string, accepted []evaluation.Type) error {
	return services.Wrap(services.ErrNotSupported, "evaluator", call,
		fmt.Sprintf("%s is only supported for %s, this evaluation is %s", call, evaluation.JoinTypes(accepted), s.cfg.Type()), nil)
}

func (s *session) ensureAccepting(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAccepting {
		return services.Wrap(services.ErrState, "evaluator", call, "evaluator is "+s.state.String(), nil)
	}
	return nil
}

// slot is one file of an add call with its role inside the group.
type slot struct {
	file audio.File
	role audio.Role
}

// addGroup checks and probes every file before touching session state, then
// records the group and enqueues its uploads in one step.
func (s *session) addGroup(ctx context.Context, call string, grouped bool, slots ...slot) error {
	if err := s.ensureAccepting(call); err != nil {
		return err
	}

	metas := make([]audio.Metadata, len(slots))
	for i, sl := range slots {
		if s.cfg.UseAnnotation() && !sl.file.HasScript() {
			return services.Wrap(services.ErrValidation, "evaluator", call,
				fmt.Sprintf("annotation is enabled but %s has no script", sl.file.Path), nil)
		}
		if err := sl.file.CheckReadable(); err != nil {
			return err
		}
		meta, err := s.prober.Probe(ctx, sl.file.Path)
		if err != nil {
			return err
		}
		metas[i] = meta
	}

	now := s.now()
	groupID := ""
	if grouped {
		groupID = audio.GroupID(now)
	}
	group := make([]audio.Descriptor, len(slots))
	for i, sl := range slots {
		group[i] = audio.NewDescriptor(sl.file, metas[i], audio.Placement{
			RemoteKey: audio.RemoteKey(s.cfg.CreationTimestamp(), audio.RandomName(now)),
			GroupID:   groupID,
			Role:      sl.role,
			Order:     i,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAccepting {
		return services.Wrap(services.ErrState, "evaluator", call, "evaluator is "+s.state.String(), nil)
	}
	for _, d := range group {
		if err := s.manager.Enqueue(d.RemoteKey(), d.Path()); err != nil {
			return err
		}
	}
	s.groups = append(s.groups, group)
	for _, d := range group {
		s.logger.Debug("file queued",
			logging.String(logging.FieldRemoteKey, d.RemoteKey()),
			logging.String("path", d.Path()),
			logging.String("role", string(d.Role())),
		)
	}
	return nil
}

// Close drains the uploads, registers every file, publishes the manifest,
// and invalidates the session. Any failure leaves the session closed.
func (s *session) Close(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state != StateAccepting {
		state := s.state
		s.mu.Unlock()
		return Result{}, services.Wrap(services.ErrState, "evaluator", "close", "evaluator is "+state.String(), nil)
	}
	s.state = StateClosing
	s.mu.Unlock()

	defer func() {
		s.manager.WaitAndClose()
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
	}()

	if !s.typeIn(s.supported) {
		return Result{}, services.Wrap(services.ErrNotSupported, "evaluator", "close",
			fmt.Sprintf("evaluation type %s", s.cfg.Type()), nil)
	}

	s.manager.WaitAndClose()

	if err := s.checkUploads(); err != nil {
		return Result{}, err
	}

	descriptors := s.flatten()
	regs := make([]backend.FileRegistration, len(descriptors))
	for i, d := range descriptors {
		regs[i] = backend.RegistrationFor(d)
	}
	if err := s.backend.RegisterFiles(ctx, s.evaluationID, regs); err != nil {
		return Result{}, fmt.Errorf("register files: %w", err)
	}

	if err := s.attachUploadTimes(); err != nil {
		return Result{}, err
	}

	doc, err := manifest.Build(s.cfg.ManifestFields(s.evaluationID), s.cfg.Query(), s.groups)
	if err != nil {
		return Result{}, err
	}
	data, err := doc.Encode()
	if err != nil {
		return Result{}, err
	}

	key := audio.RemoteKey(s.cfg.CreationTimestamp(), ManifestName)
	if err := s.publish(ctx, key, data); err != nil {
		return Result{}, err
	}

	s.announce()
	return Result{
		Status:       "ok",
		EvaluationID: s.evaluationID,
		ManifestKey:  key,
		Files:        len(descriptors),
	}, nil
}

// Abort stops accepting files and waits for queued uploads, then
// invalidates the session without registering files or publishing a
// manifest.
func (s *session) Abort() error {
	s.mu.Lock()
	if s.state != StateAccepting {
		state := s.state
		s.mu.Unlock()
		return services.Wrap(services.ErrState, "evaluator", "abort", "evaluator is "+state.String(), nil)
	}
	s.state = StateClosing
	s.mu.Unlock()

	s.manager.WaitAndClose()

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.logger.Warn("evaluation session aborted",
		logging.String(logging.FieldEventType, "session_aborted"),
		logging.Int("queued_groups", len(s.groups)),
	)
	return nil
}

func (s *session) flatten() []audio.Descriptor {
	var out []audio.Descriptor
	for _, group := range s.groups {
		out = append(out, group...)
	}
	return out
}

// checkUploads fails when any descriptor lacks a completed upload.
func (s *session) checkUploads() error {
	starts, _ := s.manager.UploadTimes()
	failures := s.manager.Failures()
	var missing []string
	for _, d := range s.flatten() {
		if _, ok := starts[d.RemoteKey()]; !ok {
			missing = append(missing, d.RemoteKey())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	causes := make([]error, 0, len(missing))
	for _, key := range missing {
		if err, ok := failures[key]; ok {
			causes = append(causes, err)
		}
	}
	logging.ErrorWithContext(s.logger, "uploads incomplete", "upload_incomplete",
		logging.Int("missing", len(missing)),
		logging.String(logging.FieldErrorHint, "re-run the submission once storage is reachable"),
		logging.String(logging.FieldImpact, "manifest not published"),
	)
	return services.Wrap(services.ErrUpload, "evaluator", "close",
		fmt.Sprintf("%d file(s) failed to upload: %s", len(missing), strings.Join(missing, ", ")),
		errors.Join(causes...))
}

func (s *session) attachUploadTimes() error {
	starts, finishes := s.manager.UploadTimes()
	for gi := range s.groups {
		for di := range s.groups[gi] {
			d := &s.groups[gi][di]
			if err := d.SetUploadTimes(starts[d.RemoteKey()], finishes[d.RemoteKey()]); err != nil {
				return err
			}
		}
	}
	return nil
}

type authorizeStageError struct{ err error }

func (e *authorizeStageError) Error() string { return "authorize manifest: " + e.err.Error() }

func (e *authorizeStageError) Unwrap() error { return e.err }

// publish uploads the manifest, asking for a fresh URL when storage refuses
// the previous one.
func (s *session) publish(ctx context.Context, key string, data []byte) error {
	retryable := func(err error) bool {
		if errors.Is(err, upload.ErrTokenExpired) {
			return true
		}
		var stage *authorizeStageError
		return !errors.As(err, &stage) && upload.IsExpiryClass(err)
	}
	_, err := s.retry.Do(ctx, retryable, func(int) error {
		url, err := s.authorizer.Authorize(ctx, key)
		if err != nil {
			return &authorizeStageError{err: err}
		}
		return s.storage.PutBytes(ctx, url, data, "application/json")
	})
	if err != nil {
		return services.Wrap(services.ErrUpload, "evaluator", "publish manifest", key, err)
	}
	s.logger.Info("manifest published", logging.String(logging.FieldRemoteKey, key))
	return nil
}

func (s *session) announce() {
	msg := "Upload finished. Please start the evaluation at " + s.workspace + "."
	if s.cfg.AutoStart() {
		msg = "Upload finished. The evaluation will start immediately."
	}
	s.logger.Info(msg, logging.Bool("auto_start", s.cfg.AutoStart()))
	if s.status != nil {
		fmt.Fprintln(s.status, msg)
	}
}
