package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

const (
	defaultExpiryDays       = 30
	defaultExpiryBatchLimit = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type expirableLeadsRepo interface {
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	MarkExpired(ctx context.Context, tx *gorm.DB, leadID uuid.UUID, at time.Time) (bool, error)
}

// LeadExpiryJobParams configure the stale-lead scheduler.
type LeadExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	LeadsRepo  expirableLeadsRepo
	Outbox     outboxEmitter
	ExpiryDays int
	BatchLimit int
}

// NewLeadExpiryJob builds the cron job that expires unsold leads past the
// retention window.
func NewLeadExpiryJob(params LeadExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.LeadsRepo == nil {
		return nil, fmt.Errorf("leads repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	expiryDays := params.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = defaultExpiryDays
	}
	batchLimit := params.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultExpiryBatchLimit
	}
	return &leadExpiryJob{
		logg:       params.Logger,
		db:         params.DB,
		leadsRepo:  params.LeadsRepo,
		outbox:     params.Outbox,
		expiryDays: expiryDays,
		batchLimit: batchLimit,
		now:        time.Now,
	}, nil
}

type leadExpiryJob struct {
	logg       *logger.Logger
	db         txRunner
	leadsRepo  expirableLeadsRepo
	outbox     outboxEmitter
	expiryDays int
	batchLimit int
	now        func() time.Time
}

func (j *leadExpiryJob) Name() string { return "lead-expiry" }

func (j *leadExpiryJob) Run(ctx context.Context) error {
	runAt := j.now().UTC()
	cutoff := runAt.Add(-time.Duration(j.expiryDays) * 24 * time.Hour)

	ids, err := j.leadsRepo.ListExpirable(ctx, cutoff, j.batchLimit)
	if err != nil {
		return fmt.Errorf("list expirable leads: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var errs []error
	expired := 0
	for _, leadID := range ids {
		if err := j.expireLead(ctx, leadID, runAt); err != nil {
			errs = append(errs, fmt.Errorf("expire lead %s: %w", leadID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"eligible": len(ids),
		"expired":  expired,
		"failed":   len(errs),
	})
	j.logg.Info(logCtx, "lead expiry sweep complete")
	return multierr.Combine(errs...)
}

// expireLead transitions one lead per transaction so a single bad row cannot
// roll back the whole sweep. The conditional UPDATE loses gracefully to a
// concurrent sale.
func (j *leadExpiryJob) expireLead(ctx context.Context, leadID uuid.UUID, at time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		transitioned, err := j.leadsRepo.MarkExpired(ctx, tx, leadID, at)
		if err != nil {
			return err
		}
		if !transitioned {
			j.logg.Info(j.logg.WithLeadID(ctx, leadID.String()), "lead sold or already expired, skipping")
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeadExpired,
			AggregateType: enums.AggregateLead,
			AggregateID:   leadID,
			Data:          leads.LeadEvent{LeadID: leadID, OccurredAt: at},
		})
	})
}
