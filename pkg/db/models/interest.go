package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zachbush96/treelead-backend/pkg/enums"
)

// Interest records that a buyer was alerted to a lead, later promotable to
// purchased. The composite unique index is the durable deduplication
// constraint: at most one row per (lead, buyer) pair no matter how many
// channels fired or how many pipeline runs raced.
type Interest struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LeadID    uuid.UUID               `gorm:"column:lead_id;type:uuid;not null;uniqueIndex:ux_interests_lead_buyer" json:"leadId"`
	BuyerID   uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:ux_interests_lead_buyer" json:"buyerId"`
	Channels  []enums.InterestChannel `gorm:"column:channels;type:jsonb;serializer:json" json:"channels"`
	Status    enums.InterestStatus    `gorm:"column:status;type:text;not null;default:'alerted'" json:"status"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
