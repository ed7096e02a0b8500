package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleEvent is the outbox payload for lead_sold.
type SaleEvent struct {
	LeadID    uuid.UUID       `json:"lead_id"`
	BuyerID   uuid.UUID       `json:"buyer_id"`
	SoldPrice decimal.Decimal `json:"sold_price"`
	AdminFee  decimal.Decimal `json:"admin_fee"`
	SoldAt    time.Time       `json:"sold_at"`
}

// PayoutEvent is the outbox payload for payout_queued and payout_reversed.
type PayoutEvent struct {
	PayoutID uuid.UUID       `json:"payout_id"`
	LeadID   uuid.UUID       `json:"lead_id"`
	SellerID uuid.UUID       `json:"seller_id"`
	Amount   decimal.Decimal `json:"amount"`
}
