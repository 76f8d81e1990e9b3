// Package service wires the row repository, the session registry and the
// intent dispatcher behind the API used by the HTTP adapter.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	eventqueue "github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/session"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const (
	defaultQueueSize     = 1024
	defaultMaxSessions   = 256
	defaultIntentTimeout = 5 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// intentReload is applied by the dispatcher on behalf of Reload only.
const intentReload session.IntentKind = "reload"

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	repo       repository.Store
	queue      *eventqueue.InMemoryQueue
	dispatcher *worker.Dispatcher
	sessions   map[string]*session.Store
	limiters   map[string]*rate.Limiter
	deduper    dedupe.Deduper

	// Configuration
	queueSize     int
	maxSessions   int
	intentTimeout time.Duration
	initialRows   []model.Row
	sessionOpts   []session.Option
	intentRate    rate.Limit
	intentBurst   int

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     defaultQueueSize,
		maxSessions:   defaultMaxSessions,
		intentTimeout: defaultIntentTimeout,
		sessions:      make(map[string]*session.Store),
		limiters:      make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewRing()
	}
	return s
}

// Start loads the repository and starts the dispatcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.repo == nil {
		repo, err := repository.NewMemoryStore(ctx, s.initialRows)
		if err != nil {
			return fmt.Errorf("load rows: %w", err)
		}
		s.repo = repo
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.dispatcher = worker.NewDispatcher(s.queue, s, worker.WithLogger(s.logger))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.dispatcher.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("rows", s.repo.Count(ctx)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxSessions", s.maxSessions),
	)
	return nil
}

// Stop closes the intent queue and waits for the dispatcher to drain it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	q, d, stop := s.queue, s.dispatcher, s.cancel
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = q.Close()
	select {
	case <-d.Done():
	case <-ctx.Done():
		s.logger.Warn(ctx, "dispatcher did not drain in time")
	}
	stop()
	s.logger.Info(ctx, "dashboard service stopped")
}

// CreateSession opens a session over the current dataset.
func (s *Service) CreateSession(ctx context.Context) (string, *session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", nil, ErrNotStarted
	}
	if len(s.sessions) >= s.maxSessions {
		metrics.RecordErrorByComponent("service", "too_many_sessions")
		return "", nil, ErrTooManySessions
	}

	start := time.Now()
	id := uuid.NewString()
	store := session.New(s.repo.All(ctx), append(s.sessionOpts, session.WithLogger(s.logger.Named("session")))...)
	s.sessions[id] = store
	if s.intentRate > 0 {
		s.limiters[id] = rate.NewLimiter(s.intentRate, s.intentBurst)
	}
	metrics.UpdateSessionsActive(len(s.sessions))
	metrics.RecordRecompute(string(session.ChangeFull), float64(time.Since(start).Microseconds())/1000)

	s.logger.Debug(ctx, "session created", logger.String("session", id))
	return id, store.Snapshot(), nil
}

// CloseSession drops a session.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	delete(s.limiters, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	s.logger.Debug(ctx, "session closed", logger.String("session", id))
	return nil
}

// Snapshot returns the last published snapshot of a session without
// waiting for queued intents.
func (s *Service) Snapshot(_ context.Context, id string) (*session.Snapshot, error) {
	store, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

// Submit queues an intent and waits for its cascade to finish.
func (s *Service) Submit(ctx context.Context, id string, in session.Intent) (session.Change, error) {
	if in.Kind == intentReload {
		return session.Change{}, fmt.Errorf("%w: %s", ErrReservedIntent, in.Kind)
	}
	if _, err := s.lookup(id); err != nil {
		return session.Change{}, err
	}
	if !s.allow(id) {
		metrics.RecordIntent(string(in.Kind), "rate_limited", 0)
		return session.Change{}, fmt.Errorf("%w: session %s", ErrRateLimited, id)
	}

	key := dedupe.Key(id, in.ID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordIntent(string(in.Kind), "duplicate", 0)
		return session.Change{}, fmt.Errorf("%w: %s", ErrDuplicateIntent, in.ID)
	}
	ch, queued, err := s.submit(ctx, id, in)
	if !queued {
		// Never reached the dispatcher, so a retry under the same id must go through.
		s.deduper.Unrecord(ctx, key)
	}
	return ch, err
}

// submit reports whether the job was queued alongside its outcome.
func (s *Service) submit(ctx context.Context, id string, in session.Intent) (session.Change, bool, error) {
	s.mu.RLock()
	started, q, timeout := s.started, s.queue, s.intentTimeout
	s.mu.RUnlock()
	if !started {
		return session.Change{}, false, ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	job := eventqueue.NewJob(id, in)
	if err := q.Enqueue(ctx, job); err != nil {
		return session.Change{}, false, err
	}
	select {
	case out := <-job.Reply:
		return out.Change, true, out.Err
	case <-ctx.Done():
		metrics.RecordErrorByComponent("service", "intent_timeout")
		return session.Change{}, true, fmt.Errorf("waiting for %s: %w", in.Kind, ctx.Err())
	}
}

// Apply implements worker.Applier. It runs on the dispatcher goroutine only.
func (s *Service) Apply(ctx context.Context, id string, in session.Intent) (session.Change, error) {
	store, err := s.lookup(id)
	if err != nil {
		return session.Change{}, err
	}
	if in.Kind == intentReload {
		return store.Reload(s.repo.All(ctx)), nil
	}
	return store.Apply(in)
}

// Reload replaces the dataset and rebuilds every open session.
func (s *Service) Reload(ctx context.Context, rows []model.Row) error {
	s.mu.RLock()
	started := s.started
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if err := s.repo.Replace(ctx, rows); err != nil {
		return fmt.Errorf("replace rows: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if _, _, err := s.submit(ctx, id, session.Intent{Kind: intentReload}); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	s.logger.Info(ctx, "dataset reloaded",
		logger.Int("rows", len(rows)),
		logger.Int("sessions", len(ids)),
	)
	return errors.Join(errs...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"queueSize":   s.queueSize,
		"maxSessions": s.maxSessions,
		"sessions":    len(s.sessions),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["rows"] = s.repo.Count(ctx)
		stats["datasetVersion"] = s.repo.Version(ctx)
		metrics.UpdateSessionsActive(len(s.sessions))
	}
	return stats
}

// allow takes a token from the session's intent limiter, if it has one.
func (s *Service) allow(id string) bool {
	s.mu.RLock()
	lim := s.limiters[id]
	s.mu.RUnlock()
	return lim == nil || lim.Allow()
}

func (s *Service) lookup(id string) (*session.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return store, nil
}
