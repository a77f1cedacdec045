package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"podo/internal/logging"
	"podo/internal/services"
)

// ErrClosed is returned by Enqueue once the manager has been told to stop.
var ErrClosed = fmt.Errorf("%w: upload manager closed", services.ErrState)

// Task is one pending upload.
type Task struct {
	RemoteKey string
	LocalPath string
}

// Authorizer turns a remote object key into a single-use upload URL.
type Authorizer interface {
	Authorize(ctx context.Context, remoteKey string) (string, error)
}

// Transport PUTs a local file to a pre-authorized URL.
type Transport interface {
	PutFile(ctx context.Context, url, localPath string) error
}

// Result describes one finished task. Start and Finish are empty when Err
// is set.
type Result struct {
	Task     Task
	Start    string
	Finish   string
	Attempts int
	Err      error
}

// Options configures a Manager.
type Options struct {
	Workers    int
	Authorizer Authorizer
	Transport  Transport
	Retry      RetryPolicy
	Logger     *slog.Logger
	// OnComplete, when set, is called once per finished task before the task
	// counts as done, so it has always run by the time WaitAndClose returns.
	OnComplete func(Result)
	// Now overrides the clock used for upload timestamps.
	Now func() time.Time
}

// Manager is a fixed-size worker pool draining a FIFO of upload tasks.
type Manager struct {
	authorizer Authorizer
	transport  Transport
	retry      RetryPolicy
	logger     *slog.Logger
	onComplete func(Result)
	now        func() time.Time
	workers    int

	mu         sync.Mutex
	ready      *sync.Cond
	drained    *sync.Cond
	queue      []Task
	unfinished int
	closing    bool
	stopping   bool
	starts     map[string]string
	finishes   map[string]string
	failures   map[string]error

	group *errgroup.Group
}

// NewManager validates opts and starts the workers.
func NewManager(opts Options) (*Manager, error) {
	if opts.Workers < 1 {
		return nil, services.Wrap(services.ErrValidation, "upload", "new manager",
			fmt.Sprintf("workers must be >= 1, got %d", opts.Workers), nil)
	}
	if opts.Authorizer == nil || opts.Transport == nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "new manager", "authorizer and transport are required", nil)
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		authorizer: opts.Authorizer,
		transport:  opts.Transport,
		retry:      opts.Retry,
		logger:     logging.NewComponentLogger(opts.Logger, "upload"),
		onComplete: opts.OnComplete,
		now:        opts.Now,
		workers:    opts.Workers,
		starts:     make(map[string]string),
		finishes:   make(map[string]string),
		failures:   make(map[string]error),
		group:      new(errgroup.Group),
	}
	m.ready = sync.NewCond(&m.mu)
	m.drained = sync.NewCond(&m.mu)

	for i := range opts.Workers {
		m.group.Go(func() error {
			m.work(i)
			return nil
		})
	}
	m.logger.Debug("upload workers started", logging.Int("workers", opts.Workers))
	return m, nil
}

// Enqueue appends a task without blocking. It returns ErrClosed once the
// stop signal has been raised.
func (m *Manager) Enqueue(remoteKey, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopping {
		return ErrClosed
	}
	m.queue = append(m.queue, Task{RemoteKey: remoteKey, LocalPath: localPath})
	m.unfinished++
	m.ready.Signal()
	return nil
}

// WaitAndClose blocks until every enqueued task is done, then stops and
// joins the workers. It returns false when the manager was already closed or
// is being closed by another caller.
func (m *Manager) WaitAndClose() bool {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return false
	}
	m.closing = true
	for m.unfinished > 0 {
		m.drained.Wait()
	}
	m.stopping = true
	m.ready.Broadcast()
	m.mu.Unlock()

	_ = m.group.Wait()
	m.logger.Debug("upload workers stopped")
	return true
}

// UploadTimes returns copies of the start and finish timestamps of every
// completed upload, keyed by remote object key.
func (m *Manager) UploadTimes() (starts, finishes map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.starts), maps.Clone(m.finishes)
}

// Failures returns the last error of every failed upload.
func (m *Manager) Failures() map[string]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.failures)
}

// Pending returns the number of enqueued tasks not yet done.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unfinished
}

func (m *Manager) work(index int) {
	ctx := services.WithWorker(context.Background(), index)
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.stopping {
			m.ready.Wait()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		task := m.queue[0]
		m.queue[0] = Task{}
		m.queue = m.queue[1:]
		m.mu.Unlock()

		result := m.transfer(services.WithRemoteKey(ctx, task.RemoteKey), task)
		m.notify(result)
		m.complete(result)
	}
}

type authorizeError struct {
	err error
}

func (e *authorizeError) Error() string { return "authorize: " + e.err.Error() }

func (e *authorizeError) Unwrap() error { return e.err }

// shouldRetry limits retries to URLs that storage refused or that were
// reported expired. A backend refusing to issue a URL is not retried.
func shouldRetry(err error) bool {
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	var authErr *authorizeError
	if errors.As(err, &authErr) {
		return false
	}
	return errors.Is(err, services.ErrAuthorization)
}

func (m *Manager) transfer(ctx context.Context, task Task) (result Result) {
	result.Task = task
	logger := logging.WithContext(ctx, m.logger)

	defer func() {
		if r := recover(); r != nil {
			result.Start, result.Finish = "", ""
			result.Err = fmt.Errorf("upload panicked: %v", r)
		}
		if result.Err != nil {
			result.Err = services.Wrap(services.ErrUpload, "upload", "transfer", task.RemoteKey, result.Err)
			logging.WarnWithContext(logger, "upload failed", "upload_failed",
				logging.Error(result.Err),
				logging.Int("attempts", result.Attempts),
				logging.String(logging.FieldErrorHint, "check network access and the local file"),
				logging.String(logging.FieldImpact, "file will be missing from the evaluation"),
			)
		}
	}()

	// Stamps bracket the PUT of the attempt that succeeded only.
	var start, finish time.Time
	attempts, err := m.retry.Do(ctx, shouldRetry, func(attempt int) error {
		if attempt > 1 {
			logger.Info("retrying upload with a fresh URL", logging.Int("attempt", attempt))
		}
		url, err := m.authorizer.Authorize(ctx, task.RemoteKey)
		if err != nil {
			return &authorizeError{err: err}
		}
		start = m.now()
		err = m.transport.PutFile(ctx, url, task.LocalPath)
		finish = m.now()
		return err
	})
	result.Attempts = attempts
	if err != nil {
		result.Err = err
		return result
	}

	result.Start = services.FormatTimestamp(start)
	result.Finish = services.FormatTimestamp(finish)
	logger.Debug("upload finished",
		logging.String("start", result.Start),
		logging.String("finish", result.Finish),
		logging.Int("attempts", attempts),
	)
	return result
}

func (m *Manager) notify(result Result) {
	if m.onComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("upload completion hook panicked", logging.Any("panic", r))
		}
	}()
	m.onComplete(result)
}

func (m *Manager) complete(result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := result.Task.RemoteKey
	if result.Err != nil {
		m.failures[key] = result.Err
	} else {
		m.starts[key] = result.Start
		m.finishes[key] = result.Finish
		delete(m.failures, key)
	}
	m.unfinished--
	if m.unfinished == 0 {
		m.drained.Broadcast()
	}
}
