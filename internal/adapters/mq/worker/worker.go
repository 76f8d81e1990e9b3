package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/domain/session"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Applier applies an intent to the addressed session.
type Applier interface {
	Apply(ctx context.Context, sessionID string, in session.Intent) (session.Change, error)
}

// Queue defines how the dispatcher receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Dispatcher applies jobs one at a time so that every recompute cascade
// finishes before the next intent starts.
type Dispatcher struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewDispatcher creates a dispatcher reading from q and applying through a.
func NewDispatcher(q Queue, a Applier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		applier:  a,
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Run processes jobs until ctx is cancelled, Shutdown is called, or the
// queue is closed and drained.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	jobs := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			d.process(ctx, j)
		}
	}
}

// Shutdown stops the dispatcher and waits for the current job to finish.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	select {
	case <-d.shutdown:
	default:
		close(d.shutdown)
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	kind := string(j.Intent.Kind)

	ch, err := d.applier.Apply(ctx, j.SessionID, j.Intent)
	latency := float64(time.Since(start).Milliseconds())

	switch {
	case err != nil:
		metrics.RecordIntent(kind, outcomeOf(err), latency)
		metrics.RecordErrorByComponent("dispatcher", outcomeOf(err))
		d.logger.Warn(ctx, "intent rejected",
			logger.String("session", j.SessionID),
			logger.String("kind", kind),
			logger.Error(err),
		)
	default:
		metrics.RecordIntent(kind, string(ch.Kind), latency)
		observe(ch)
	}

	if j.Reply != nil {
		j.Reply <- queue.Outcome{Change: ch, Err: err}
	}
}

// observe exports the cost and size of a cascade.
func observe(ch session.Change) {
	if ch.Kind == session.ChangeNone || ch.Snapshot == nil {
		return
	}
	metrics.RecordRecompute(string(ch.Kind), float64(ch.Took.Microseconds())/1000)
	if ch.ProjectionChanged {
		metrics.RecordProjection(ch.Snapshot.Projection.RowCount, float64(ch.ProjectionTook.Microseconds())/1000)
	}
	metrics.UpdateViewSizes(len(ch.Snapshot.Filtered), len(ch.Snapshot.Active))
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, session.ErrUnknownIntent):
		return "unknown_intent"
	case errors.Is(err, session.ErrInvalidIntent):
		return "invalid_intent"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
