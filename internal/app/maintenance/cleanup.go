package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mgallego/posada/internal/services"
	"github.com/mgallego/posada/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultSweepSpec          = "@daily"
	defaultAuditSpec          = "@daily"
)

// Cleaner coordinates background maintenance: sweeping TTL-expired
// notifications (with their read markers) and pruning stale audit logs.
// Sweeps are idempotent time-predicate deletes, so overlapping or repeated
// runs converge to the same result.
type Cleaner struct {
	store     *services.NotificationStore
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	sweepSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSweepSchedule overrides the cron specification for the expiry sweep.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil audit service
// skips the audit retention job.
func NewCleaner(store *services.NotificationStore, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		store:         store,
		audit:         audit,
		now:           time.Now,
		retention:     defaultAuditRetentionDays,
		sweepSchedule: defaultSweepSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the maintenance jobs with the cron scheduler and launches
// it. Job errors are logged and left for the next scheduled run, which is
// self-healing by construction.
func (c *Cleaner) Start() error {
	if c.store != nil {
		if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
			if _, err := c.Sweep(context.Background()); err != nil {
				c.log.Warn("notification sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// Sweep removes every notification expired at the injected clock's current
// time and logs the removed count.
func (c *Cleaner) Sweep(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	removed, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, err
	}

	c.log.Info("notification sweep completed", zap.Int64("removed", removed))
	return removed, nil
}

// RunOnce executes all configured maintenance routines sequentially.
// Primarily used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.store != nil {
		if _, err := c.Sweep(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
