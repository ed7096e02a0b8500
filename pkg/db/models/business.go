package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/pkg/enums"
)

// Business is a tree-service company on either side of the exchange. A single
// row can act as seller and buyer; the row is upserted by email on every
// submission so there is never more than one business per address.
type Business struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string               `gorm:"column:name;not null" json:"name"`
	Email        string               `gorm:"column:email;not null;uniqueIndex:ux_businesses_email" json:"email"`
	Phone        *string              `gorm:"column:phone" json:"phone,omitempty"`
	IsSeller     bool                 `gorm:"column:is_seller;not null;default:false" json:"isSeller"`
	IsBuyer      bool                 `gorm:"column:is_buyer;not null;default:false" json:"isBuyer"`
	PrimaryZip   string               `gorm:"column:primary_zip" json:"primaryZip"`
	ExtraZips    []string             `gorm:"column:extra_zips;type:jsonb;serializer:json" json:"extraZips"`
	RadiusMiles  int                  `gorm:"column:radius_miles;not null;default:0" json:"radiusMiles"`
	Categories   []enums.LeadCategory `gorm:"column:categories;type:jsonb;serializer:json" json:"categories"`
	MaxPrice     *decimal.Decimal     `gorm:"column:max_price;type:numeric(10,2)" json:"maxPrice,omitempty"`
	DeliveryPref enums.DeliveryPref   `gorm:"column:delivery_pref;type:text;not null;default:'email_only'" json:"deliveryPref"`
	Verified     bool                 `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
