package leads

import (
	"time"

	"github.com/google/uuid"
)

// LeadEvent is the payload carried by lead lifecycle events on the bus.
// Consumers re-load the lead by id, so the payload stays small and never
// carries the private contact.
type LeadEvent struct {
	LeadID     uuid.UUID `json:"lead_id"`
	Category   string    `json:"category"`
	Zip        string    `json:"zip"`
	OccurredAt time.Time `json:"occurred_at"`
}
