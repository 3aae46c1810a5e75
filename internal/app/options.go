package service

import (
	"time"

	"github.com/okian/redzone/internal/adapters/channels"
	"github.com/okian/redzone/internal/adapters/repository"
	"github.com/okian/redzone/internal/domain/teams"
	"github.com/okian/redzone/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLeague sets the league of tenants created without one.
func WithLeague(league string) Option {
	return func(s *Service) {
		if league != "" {
			s.league = league
		}
	}
}

// WithPollInterval sets the monitoring cycle period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithProviderTimeout bounds every provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.providerTimeout = d
		}
	}
}

// WithWorkerCount sets the number of fetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the fetch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDebounceWindows sets the timeout and score-change windows.
func WithDebounceWindows(timeout, scoreChange time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeoutWindow = timeout
		}
		if scoreChange > 0 {
			s.scoreChangeWindow = scoreChange
		}
	}
}

// WithHysteresisBonus sets the bonus of the displayed event.
func WithHysteresisBonus(bonus float64) Option {
	return func(s *Service) {
		if bonus >= 0 {
			s.hysteresis = bonus
		}
	}
}

// WithDedupeSize bounds each tenant's play de-duplication window.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStatusLogSize bounds each tenant's status log.
func WithStatusLogSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.statusLogSize = size
		}
	}
}

// WithChannels sets the event to channel map.
func WithChannels(m *channels.Map) Option {
	return func(s *Service) {
		if m != nil {
			s.channels = m
		}
	}
}

// WithJournal sets the decision journal.
func WithJournal(j repository.Store) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithPublisher sets where ranking updates are pushed.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithRegistry sets the team registry.
func WithRegistry(reg *teams.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithClock sets the time source of cycles.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
