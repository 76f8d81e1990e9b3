package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/podium/internal/domain/filter"
	"github.com/okian/podium/pkg/logger"
)

// ErrInconsistent is returned when a session's final state disagrees with
// the responses observed while driving it.
var ErrInconsistent = errors.New("inconsistent session state")

const percentageMultiplier = 100

type sessionState struct {
	universe Universe
	mu       sync.Mutex
	rng      *rand.Rand
	version  atomic.Uint64
}

// Run opens sessions, submits intents from Workers goroutines and checks
// that no session ends behind the highest version a response reported.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("intents", cfg.Intents),
		logger.Int("workers", cfg.Workers),
	)

	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	sessions, err := openSessions(ctx, c, cfg)
	defer closeSessions(context.WithoutCancel(ctx), c, sessions)
	stats.SessionsOpened = len(sessions)
	if err != nil {
		return stats, err
	}

	submit(ctx, c, cfg, sessions, stats)

	if err := verify(ctx, c, sessions); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, stats)
	return stats, nil
}

func openSessions(ctx context.Context, c *client, cfg *Config) (map[string]*sessionState, error) {
	sessions := make(map[string]*sessionState, cfg.Sessions)
	for i := 0; i < cfg.Sessions; i++ {
		var created sessionResponse
		if _, err := c.do(ctx, http.MethodPost, "/sessions", nil, &created); err != nil {
			return sessions, fmt.Errorf("open session: %w", err)
		}
		var opts struct {
			Options filter.Options `json:"options"`
		}
		if _, err := c.do(ctx, http.MethodGet, "/sessions/"+created.ID+"/options", nil, &opts); err != nil {
			return sessions, fmt.Errorf("fetch options: %w", err)
		}
		st := &sessionState{
			universe: Universe{Options: opts.Options, Competitions: []string{"world", "european"}, Rows: created.State.TotalRows},
			rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
		}
		st.version.Store(created.State.Version)
		sessions[created.ID] = st
	}
	return sessions, nil
}

func closeSessions(ctx context.Context, c *client, sessions map[string]*sessionState) {
	for id := range sessions {
		if _, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil); err != nil {
			logger.Get().Warn(ctx, "failed to close session", logger.String("session", id), logger.Error(err))
		}
	}
}

func submit(ctx context.Context, c *client, cfg *Config, sessions map[string]*sessionState, stats *Stats) {
	var submitted, applied, noop, rejected, failed, duplicates atomic.Int64
	log := logger.Get()

	jobs := make(chan string, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				st := sessions[id]
				st.mu.Lock()
				in := RandomIntent(st.rng, st.universe)
				st.mu.Unlock()

				var resp intentResponse
				status, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/intents", in, &resp)
				submitted.Add(1)
				switch {
				case err == nil:
					raise(&st.version, resp.Version)
					if resp.Kind == "none" {
						noop.Add(1)
					} else {
						applied.Add(1)
					}
				case status == http.StatusConflict:
					duplicates.Add(1)
				case status == http.StatusBadRequest:
					rejected.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "intent failed", logger.String("kind", string(in.Kind)), logger.Error(err))
					}
				}
			}
		}()
	}

produce:
	for i := 0; i < cfg.Intents; i++ {
		for id := range sessions {
			select {
			case <-ctx.Done():
				break produce
			case jobs <- id:
			}
		}
	}
	close(jobs)
	wg.Wait()

	stats.IntentsSubmitted = int(submitted.Load())
	stats.IntentsApplied = int(applied.Load())
	stats.IntentsNoop = int(noop.Load())
	stats.IntentsRejected = int(rejected.Load())
	stats.IntentsFailed = int(failed.Load())
	stats.Duplicates = int(duplicates.Load())
}

// raise stores v when it exceeds the current value.
func raise(u *atomic.Uint64, v uint64) {
	for {
		cur := u.Load()
		if v <= cur || u.CompareAndSwap(cur, v) {
			return
		}
	}
}

func verify(ctx context.Context, c *client, sessions map[string]*sessionState) error {
	var errs []error
	for id, st := range sessions {
		var state stateResponse
		if _, err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, &state); err != nil {
			errs = append(errs, err)
			continue
		}
		if want := st.version.Load(); state.Version < want {
			errs = append(errs, fmt.Errorf("%w: session %s at version %d, responses reached %d", ErrInconsistent, id, state.Version, want))
		}
		if state.ActiveRows > state.FilteredRows {
			errs = append(errs, fmt.Errorf("%w: session %s has %d active of %d filtered rows", ErrInconsistent, id, state.ActiveRows, state.FilteredRows))
		}
	}
	return errors.Join(errs...)
}

func logStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.IntentsSubmitted > 0 {
		successRate = float64(stats.IntentsApplied+stats.IntentsNoop) / float64(stats.IntentsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.IntentsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessionsOpened", stats.SessionsOpened),
		logger.Int("intentsSubmitted", stats.IntentsSubmitted),
		logger.Int("intentsApplied", stats.IntentsApplied),
		logger.Int("intentsNoop", stats.IntentsNoop),
		logger.Int("intentsRejected", stats.IntentsRejected),
		logger.Int("intentsFailed", stats.IntentsFailed),
		logger.Int("duplicates", stats.Duplicates),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("intentsPerSecond", perSecond),
	)
}
