package service

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/session"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of pending intents.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxSessions caps concurrently open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithIntentTimeout bounds how long Submit waits for a cascade.
func WithIntentTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.intentTimeout = d
		}
	}
}

// WithRows sets the dataset loaded on Start when no repository is given.
func WithRows(rows []model.Row) Option {
	return func(s *Service) {
		s.initialRows = rows
	}
}

// WithRepository sets the row repository.
func WithRepository(repo repository.Store) Option {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithSessionOptions sets the options every new session store is built with.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Service) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// WithIntentRate limits each session to perSecond intents with the given
// burst. A non-positive rate leaves sessions unlimited.
func WithIntentRate(perSecond float64, burst int) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.intentRate = rate.Limit(perSecond)
			s.intentBurst = max(burst, 1)
		}
	}
}

// WithDeduper sets the store of client intent ids.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
