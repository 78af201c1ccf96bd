package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/services"
	"github.com/sbenhamida/mouwatin/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 90
	defaultGrantSpec                 = "@hourly"
	defaultNotificationSpec          = "@hourly"
)

// Cleaner coordinates background maintenance tasks: deactivating permission
// grants whose expiry has passed and purging read notifications past the
// retention window.
type Cleaner struct {
	db        *gorm.DB
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	grantSchedule        string
	notificationSchedule string
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

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithNotificationRetentionDays adjusts how long read notifications are kept.
func WithNotificationRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithGrantSchedule overrides the cron schedule for grant expiry enforcement.
func WithGrantSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.grantSchedule = spec
		}
	}
}

// WithNotificationSchedule overrides the cron schedule for notification cleanup.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil database
// disables all jobs.
func NewCleaner(db *gorm.DB, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                   db,
		audit:                audit,
		now:                  time.Now,
		retention:            defaultNotificationRetentionDays,
		grantSchedule:        defaultGrantSpec,
		notificationSchedule: defaultNotificationSpec,
		log:                  logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.db != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.grantSchedule, func() {
		ctx := context.Background()
		if _, err := DeactivateExpiredGrants(ctx, c.db, c.audit, c.now()); err != nil {
			c.log.Warn("grant expiry cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if c.retention > 0 {
		if _, err := c.cron.AddFunc(c.notificationSchedule, func() {
			ctx := context.Background()
			cutoff := c.now().AddDate(0, 0, -c.retention)
			if _, err := PurgeReadNotifications(ctx, c.db, cutoff); err != nil {
				c.log.Warn("notification cleanup failed", zap.Error(err))
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

// RunOnce executes all configured cleanup routines sequentially. Primarily used
// in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if _, err := DeactivateExpiredGrants(ctx, c.db, c.audit, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}

	if c.retention > 0 {
		cutoff := c.now().AddDate(0, 0, -c.retention)
		if _, err := PurgeReadNotifications(ctx, c.db, cutoff); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// DeactivateExpiredGrants flips active permission grants whose expiry has
// passed to inactive and records one audit entry per affected grant. Rows are
// kept so the grant history stays reconstructable.
func DeactivateExpiredGrants(ctx context.Context, db *gorm.DB, audit *services.AuditService, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("deactivate grants: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var expired []models.PermissionGrant
	if err := db.WithContext(ctx).
		Where("active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("deactivate grants: list expired: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	for _, grant := range expired {
		ids = append(ids, grant.ID)
	}

	result := db.WithContext(ctx).
		Model(&models.PermissionGrant{}).
		Where("id IN ? AND active = ?", ids, true).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("deactivate grants: update: %w", result.Error)
	}

	if audit != nil {
		for _, grant := range expired {
			_ = audit.Log(ctx, services.AuditEntry{
				Action:   "permission.expiration",
				Resource: "user:" + grant.UserID,
				Metadata: map[string]any{"permission": grant.PermissionID},
			})
		}
	}

	return result.RowsAffected, nil
}

// PurgeReadNotifications deletes notifications that were read before the
// cutoff. Unread notifications are never purged.
func PurgeReadNotifications(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("purge notifications: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("is_read = ? AND read_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge notifications: %w", result.Error)
	}

	return result.RowsAffected, nil
}
