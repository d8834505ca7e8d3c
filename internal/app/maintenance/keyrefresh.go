package maintenance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/coffeeshop/pkg/logger"
)

const defaultRefreshTimeout = 30 * time.Second

// KeyRefresher is satisfied by anything that can re-download signing keys.
type KeyRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically refreshes signing key sets on a cron schedule.
type Scheduler struct {
	targets  []KeyRefresher
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	log      *zap.Logger
	started  bool
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithTimeout bounds each refresh run.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewScheduler builds a Scheduler for spec. An empty spec yields a disabled scheduler
// whose Start is a no-op.
func NewScheduler(spec string, targets []KeyRefresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		targets:  targets,
		schedule: strings.TrimSpace(spec),
		timeout:  defaultRefreshTimeout,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

// Enabled reports whether a schedule and at least one target are configured.
func (s *Scheduler) Enabled() bool {
	return s.schedule != "" && len(s.targets) > 0
}

// Start registers the refresh job and launches the scheduler when enabled.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		return nil
	}
	if s.started {
		return errors.New("maintenance: scheduler already started")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("signing key refresh failed", zap.Error(err))
			return
		}
		s.log.Debug("signing keys refreshed")
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	s.log.Info("signing key refresh scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce refreshes every target, aggregating failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var errs error
	for _, target := range s.targets {
		if target == nil {
			continue
		}
		if err := target.Refresh(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
