package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zachbush96/treelead-backend/pkg/enums"
)

// Payout is the scheduled transfer to a seller after a lead sells, net of the
// platform admin fee. The unique index on lead_id makes double-settlement a
// constraint violation rather than a silent duplicate.
type Payout struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerID  uuid.UUID          `gorm:"column:seller_id;type:uuid;not null" json:"sellerId"`
	LeadID    uuid.UUID          `gorm:"column:lead_id;type:uuid;not null;uniqueIndex:ux_payouts_lead" json:"leadId"`
	Amount    decimal.Decimal    `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Status    enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'queued'" json:"status"`
	Method    string             `gorm:"column:method;not null;default:'ach'" json:"method"`
	TxRef     *string            `gorm:"column:tx_ref" json:"txRef,omitempty"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
