package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/pagination"
)

// Repository exposes payout persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payout repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a payout row. A nil tx falls back to the base connection.
// The unique lead index guarantees at most one payout per lead.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, payout *models.Payout) (*models.Payout, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

// FindByID loads one payout.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// FindByLeadID loads the payout queued for a lead, if any.
func (r *Repository) FindByLeadID(ctx context.Context, leadID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "lead_id = ?", leadID).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

type listQuery struct {
	status enums.PayoutStatus
	cursor *pagination.Cursor
	limit  int
}

// List returns payouts filtered by status using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Payout
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPaid transitions a queued payout to paid, recording the external
// transfer reference. Returns false when the payout was not queued.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, txRef string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, enums.PayoutStatusQueued).
		Updates(map[string]interface{}{
			"status": enums.PayoutStatusPaid,
			"tx_ref": txRef,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkReversed transitions a queued payout to reversed. Paid payouts are
// final and cannot be reversed here. A nil tx falls back to the base
// connection.
func (r *Repository) MarkReversed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, enums.PayoutStatusQueued).
		Update("status", enums.PayoutStatusReversed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
