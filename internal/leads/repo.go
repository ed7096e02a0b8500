package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
)

// Repository exposes lead persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a lead repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new lead row. A nil tx falls back to the base connection.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, lead *models.Lead) (*models.Lead, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

// FindByID loads one lead including the private contact payload.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// MarkSold transitions the lead from new to sold. The WHERE clause is the
// single-writer guard: exactly one payment confirmation wins, every later
// attempt sees zero rows affected.
func (r *Repository) MarkSold(ctx context.Context, tx *gorm.DB, leadID, buyerID uuid.UUID, soldPrice, adminFee decimal.Decimal, at time.Time) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND status = ?", leadID, enums.LeadStatusNew).
		Updates(map[string]interface{}{
			"status":     enums.LeadStatusSold,
			"buyer_id":   buyerID,
			"sold_price": soldPrice,
			"admin_fee":  adminFee,
			"sold_at":    at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRefunded transitions a sold lead to refunded.
func (r *Repository) MarkRefunded(ctx context.Context, tx *gorm.DB, leadID uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND status = ?", leadID, enums.LeadStatusSold).
		Update("status", enums.LeadStatusRefunded)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reopen puts a refunded lead back on the market, clearing the sale fields so
// it re-enters matching as a fresh listing.
func (r *Repository) Reopen(ctx context.Context, tx *gorm.DB, leadID uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND status = ?", leadID, enums.LeadStatusRefunded).
		Updates(map[string]interface{}{
			"status":     enums.LeadStatusNew,
			"buyer_id":   nil,
			"sold_price": nil,
			"admin_fee":  nil,
			"sold_at":    nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpirable returns ids of unsold leads older than the cutoff.
func (r *Repository) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("status = ? AND created_at < ?", enums.LeadStatusNew, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkExpired transitions the lead from new to expired. Returns false when a
// concurrent sale won the race.
func (r *Repository) MarkExpired(ctx context.Context, tx *gorm.DB, leadID uuid.UUID, at time.Time) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND status = ?", leadID, enums.LeadStatusNew).
		Updates(map[string]interface{}{
			"status":     enums.LeadStatusExpired,
			"expired_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
