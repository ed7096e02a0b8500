package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
	"github.com/zachbush96/treelead-backend/pkg/pagination"
)

type fakePayoutsRepo struct {
	rows map[uuid.UUID]*models.Payout
}

func newFakePayoutsRepo() *fakePayoutsRepo {
	return &fakePayoutsRepo{rows: map[uuid.UUID]*models.Payout{}}
}

func (f *fakePayoutsRepo) add(status enums.PayoutStatus, createdAt time.Time) *models.Payout {
	payout := &models.Payout{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		LeadID:    uuid.New(),
		Amount:    decimal.NewFromInt(30),
		Status:    status,
		Method:    "ach",
		CreatedAt: createdAt,
	}
	f.rows[payout.ID] = payout
	return payout
}

func (f *fakePayoutsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	if payout, ok := f.rows[id]; ok {
		return payout, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayoutsRepo) List(_ context.Context, opts listQuery) ([]models.Payout, error) {
	var out []models.Payout
	for _, payout := range f.rows {
		if opts.status != "" && payout.Status != opts.status {
			continue
		}
		if opts.cursor != nil && !payout.CreatedAt.Before(opts.cursor.CreatedAt) {
			continue
		}
		out = append(out, *payout)
	}
	// newest first, mirroring the SQL ordering
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if opts.limit > 0 && len(out) > opts.limit {
		out = out[:opts.limit]
	}
	return out, nil
}

func (f *fakePayoutsRepo) MarkPaid(_ context.Context, id uuid.UUID, txRef string) (bool, error) {
	payout, ok := f.rows[id]
	if !ok || payout.Status != enums.PayoutStatusQueued {
		return false, nil
	}
	payout.Status = enums.PayoutStatusPaid
	payout.TxRef = &txRef
	return true, nil
}

func TestListPayoutsFiltersByStatus(t *testing.T) {
	repo := newFakePayoutsRepo()
	now := time.Now().UTC()
	repo.add(enums.PayoutStatusQueued, now.Add(-time.Hour))
	repo.add(enums.PayoutStatusQueued, now.Add(-2*time.Hour))
	repo.add(enums.PayoutStatusPaid, now.Add(-3*time.Hour))

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	result, err := svc.ListPayouts(context.Background(), ListParams{Status: "queued"})
	require.NoError(t, err)
	assert.Len(t, result.Payouts, 2)
	assert.Empty(t, result.NextCursor)
}

func TestListPayoutsPaginates(t *testing.T) {
	repo := newFakePayoutsRepo()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		repo.add(enums.PayoutStatusQueued, now.Add(-time.Duration(i)*time.Hour))
	}

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	first, err := svc.ListPayouts(context.Background(), ListParams{
		Status:     "queued",
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, first.Payouts, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListPayouts(context.Background(), ListParams{
		Status:     "queued",
		Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor},
	})
	require.NoError(t, err)
	assert.Len(t, second.Payouts, 1)
	assert.Empty(t, second.NextCursor)
}

func TestListPayoutsRejectsUnknownStatus(t *testing.T) {
	svc, err := NewService(newFakePayoutsRepo(), nil)
	require.NoError(t, err)

	_, err = svc.ListPayouts(context.Background(), ListParams{Status: "pending"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestMarkPaid(t *testing.T) {
	repo := newFakePayoutsRepo()
	queued := repo.add(enums.PayoutStatusQueued, time.Now().UTC())

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	payout, err := svc.MarkPaid(context.Background(), queued.ID, "ach-20260115-001")
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusPaid, payout.Status)
	require.NotNil(t, payout.TxRef)
	assert.Equal(t, "ach-20260115-001", *payout.TxRef)
}

func TestMarkPaidRejectsNonQueued(t *testing.T) {
	repo := newFakePayoutsRepo()
	paid := repo.add(enums.PayoutStatusPaid, time.Now().UTC())

	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), paid.ID, "ach-x")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestMarkPaidUnknownPayout(t *testing.T) {
	svc, err := NewService(newFakePayoutsRepo(), nil)
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), uuid.New(), "ach-x")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkPaidRequiresTxRef(t *testing.T) {
	svc, err := NewService(newFakePayoutsRepo(), nil)
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), uuid.New(), "  ")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
