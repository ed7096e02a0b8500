package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
)

type cronTxRunner struct{}

func (cronTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeExpirableLeadsRepo struct {
	ids        []uuid.UUID
	expired    []uuid.UUID
	lastCutoff time.Time
	notNew     map[uuid.UUID]bool
	listErr    error
	markErr    map[uuid.UUID]error
}

func (f *fakeExpirableLeadsRepo) ListExpirable(_ context.Context, cutoff time.Time, _ int) ([]uuid.UUID, error) {
	f.lastCutoff = cutoff
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeExpirableLeadsRepo) MarkExpired(_ context.Context, _ *gorm.DB, leadID uuid.UUID, _ time.Time) (bool, error) {
	if err := f.markErr[leadID]; err != nil {
		return false, err
	}
	if f.notNew[leadID] {
		return false, nil
	}
	f.expired = append(f.expired, leadID)
	return true, nil
}

type fakeCronOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeCronOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newLeadExpiryJob(t *testing.T, repo *fakeExpirableLeadsRepo, emitter *fakeCronOutbox) *leadExpiryJob {
	t.Helper()
	jobIface, err := NewLeadExpiryJob(LeadExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        cronTxRunner{},
		LeadsRepo: repo,
		Outbox:    emitter,
	})
	if err != nil {
		t.Fatalf("NewLeadExpiryJob: %v", err)
	}
	job, ok := jobIface.(*leadExpiryJob)
	if !ok {
		t.Fatalf("expected leadExpiryJob, got %T", jobIface)
	}
	return job
}

func TestLeadExpiryJobExpiresStaleLeads(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	stale := uuid.New()
	repo := &fakeExpirableLeadsRepo{ids: []uuid.UUID{stale}}
	emitter := &fakeCronOutbox{}
	job := newLeadExpiryJob(t, repo, emitter)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-defaultExpiryDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if len(repo.expired) != 1 || repo.expired[0] != stale {
		t.Fatalf("expected lead %s expired, got %v", stale, repo.expired)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventLeadExpired {
		t.Fatalf("expected one lead_expired event, got %v", emitter.events)
	}
}

func TestLeadExpiryJobSkipsConcurrentlySoldLead(t *testing.T) {
	sold := uuid.New()
	stale := uuid.New()
	repo := &fakeExpirableLeadsRepo{
		ids:    []uuid.UUID{sold, stale},
		notNew: map[uuid.UUID]bool{sold: true},
	}
	emitter := &fakeCronOutbox{}
	job := newLeadExpiryJob(t, repo, emitter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.expired) != 1 || repo.expired[0] != stale {
		t.Fatalf("expected only %s expired, got %v", stale, repo.expired)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
}

func TestLeadExpiryJobContinuesPastFailures(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	repo := &fakeExpirableLeadsRepo{
		ids:     []uuid.UUID{broken, healthy},
		markErr: map[uuid.UUID]error{broken: errors.New("deadlock")},
	}
	emitter := &fakeCronOutbox{}
	job := newLeadExpiryJob(t, repo, emitter)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(repo.expired) != 1 || repo.expired[0] != healthy {
		t.Fatalf("expected %s expired despite earlier failure, got %v", healthy, repo.expired)
	}
}

func TestLeadExpiryJobNoEligibleLeads(t *testing.T) {
	repo := &fakeExpirableLeadsRepo{}
	emitter := &fakeCronOutbox{}
	job := newLeadExpiryJob(t, repo, emitter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}
