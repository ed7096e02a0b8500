package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/pkg/enums"
	"github.com/zachbush96/treelead-backend/pkg/types"
)

// Lead is a posted overflow job available for purchase.
//
// Contact carries `json:"-"` so the customer contact can never leak through a
// serialized lead; the settlement service reveals it to the winning buyer
// explicitly after the sold transition.
type Lead struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerID     uuid.UUID          `gorm:"column:seller_id;type:uuid;not null" json:"sellerId"`
	Category     enums.LeadCategory `gorm:"column:category;type:text;not null" json:"category"`
	Zip          string             `gorm:"column:zip;not null" json:"zip"`
	City         string             `gorm:"column:city" json:"city"`
	AskingPrice  decimal.Decimal    `gorm:"column:asking_price;type:numeric(10,2);not null" json:"askingPrice"`
	Description  *string            `gorm:"column:description" json:"description,omitempty"`
	Contact      types.Contact      `gorm:"column:contact;type:jsonb;serializer:json" json:"-"`
	Status       enums.LeadStatus   `gorm:"column:status;type:text;not null;default:'new'" json:"status"`
	Exclusive    bool               `gorm:"column:exclusive;not null;default:false" json:"exclusive"`
	OptInReplace bool               `gorm:"column:optin_replace;not null;default:false" json:"optinReplace"`
	SoldPrice    *decimal.Decimal   `gorm:"column:sold_price;type:numeric(10,2)" json:"soldPrice,omitempty"`
	AdminFee     *decimal.Decimal   `gorm:"column:admin_fee;type:numeric(10,2)" json:"adminFee,omitempty"`
	BuyerID      *uuid.UUID         `gorm:"column:buyer_id;type:uuid" json:"buyerId,omitempty"`
	SoldAt       *time.Time         `gorm:"column:sold_at" json:"soldAt,omitempty"`
	ExpiredAt    *time.Time         `gorm:"column:expired_at" json:"expiredAt,omitempty"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
