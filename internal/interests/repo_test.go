package interests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
)

func setupInterestsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS interests (
  id TEXT PRIMARY KEY,
  lead_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  channels TEXT,
  status TEXT NOT NULL DEFAULT 'alerted',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (lead_id, buyer_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newInterest(leadID, buyerID uuid.UUID) *models.Interest {
	return &models.Interest{
		ID:       uuid.New(),
		LeadID:   leadID,
		BuyerID:  buyerID,
		Channels: []enums.InterestChannel{enums.ChannelEmail},
		Status:   enums.InterestStatusAlerted,
	}
}

func TestCreateIfAbsentClaimsPairOnce(t *testing.T) {
	db := setupInterestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	leadID := uuid.New()
	buyerID := uuid.New()

	claimed, err := repo.CreateIfAbsent(ctx, newInterest(leadID, buyerID))
	require.NoError(t, err)
	assert.True(t, claimed, "first attempt owns the pair")

	claimed, err = repo.CreateIfAbsent(ctx, newInterest(leadID, buyerID))
	require.NoError(t, err)
	assert.False(t, claimed, "repeat attempt must lose the claim")

	rows, err := repo.ListByLead(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateIfAbsentDistinctBuyersBothClaim(t *testing.T) {
	db := setupInterestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	leadID := uuid.New()
	for i := 0; i < 2; i++ {
		claimed, err := repo.CreateIfAbsent(ctx, newInterest(leadID, uuid.New()))
		require.NoError(t, err)
		assert.True(t, claimed)
	}

	rows, err := repo.ListByLead(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMarkPurchasedFlipsStatus(t *testing.T) {
	db := setupInterestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	leadID := uuid.New()
	buyerID := uuid.New()
	_, err := repo.CreateIfAbsent(ctx, newInterest(leadID, buyerID))
	require.NoError(t, err)

	require.NoError(t, repo.MarkPurchased(ctx, nil, leadID, buyerID))

	interest, err := repo.FindByLeadAndBuyer(ctx, leadID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, enums.InterestStatusPurchased, interest.Status)
}

func TestMarkPurchasedUnknownPairIsNoop(t *testing.T) {
	db := setupInterestsTestDB(t)
	repo := NewRepository(db)

	err := repo.MarkPurchased(context.Background(), nil, uuid.New(), uuid.New())
	require.NoError(t, err)
}
