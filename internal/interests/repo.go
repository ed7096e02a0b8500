package interests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
)

// Repository exposes interest persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an interest repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateIfAbsent claims the (lead, buyer) pair. The unique index makes the
// insert a compare-and-swap: the caller that gets claimed=true owns alert
// delivery for this pair, every concurrent or repeated attempt gets false.
func (r *Repository) CreateIfAbsent(ctx context.Context, interest *models.Interest) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lead_id"}, {Name: "buyer_id"}},
		DoNothing: true,
	}).Create(interest)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkPurchased flips the winning buyer's interest to purchased. A nil tx
// falls back to the base connection.
func (r *Repository) MarkPurchased(ctx context.Context, tx *gorm.DB, leadID, buyerID uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).
		Model(&models.Interest{}).
		Where("lead_id = ? AND buyer_id = ?", leadID, buyerID).
		Update("status", enums.InterestStatusPurchased).Error
}

// FindByLeadAndBuyer loads one interest pair.
func (r *Repository) FindByLeadAndBuyer(ctx context.Context, leadID, buyerID uuid.UUID) (*models.Interest, error) {
	var interest models.Interest
	err := r.db.WithContext(ctx).
		First(&interest, "lead_id = ? AND buyer_id = ?", leadID, buyerID).Error
	if err != nil {
		return nil, err
	}
	return &interest, nil
}

// ListByLead returns every interest recorded for a lead.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]models.Interest, error) {
	var rows []models.Interest
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
