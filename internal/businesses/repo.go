package businesses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
)

// Repository exposes business persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a business repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// UpsertByEmail inserts the business or merges it into the existing row for
// the same email. Role and verification flags only ever widen: a seller that
// later subscribes as a buyer keeps both roles, and an auto-verified buyer
// submission lifts a row first created unverified.
func (r *Repository) UpsertByEmail(ctx context.Context, business *models.Business) (*models.Business, error) {
	assignments := map[string]interface{}{
		"name":      business.Name,
		"is_seller": gorm.Expr("businesses.is_seller OR ?", business.IsSeller),
		"is_buyer":  gorm.Expr("businesses.is_buyer OR ?", business.IsBuyer),
		"verified":  gorm.Expr("businesses.verified OR ?", business.Verified),
	}
	if business.Phone != nil {
		assignments["phone"] = *business.Phone
	}
	if business.IsBuyer {
		// buyer submissions replace the matching preferences wholesale
		assignments["primary_zip"] = business.PrimaryZip
		assignments["extra_zips"] = business.ExtraZips
		assignments["radius_miles"] = business.RadiusMiles
		assignments["categories"] = business.Categories
		assignments["max_price"] = business.MaxPrice
		assignments["delivery_pref"] = business.DeliveryPref
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(business).Error
	if err != nil {
		return nil, err
	}

	// re-read so callers observe the merged row, not the insert candidate
	return r.FindByEmail(ctx, business.Email)
}

// FindByID loads one business.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// FindByEmail loads one business by its normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).First(&business, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// ListActiveBuyers returns every verified buyer. Category, territory, and
// price filtering happens in the matcher so the rules live in one place.
func (r *Repository) ListActiveBuyers(ctx context.Context) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("is_buyer = ? AND verified = ?", true, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetVerified flips the verification flag on a buyer.
func (r *Repository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ?", id).
		Update("verified", verified).Error
}
