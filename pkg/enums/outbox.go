package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateLead     OutboxAggregateType = "lead"
	AggregateBusiness OutboxAggregateType = "business"
	AggregatePayout   OutboxAggregateType = "payout"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLead,
	AggregateBusiness,
	AggregatePayout,
}

// IsValid reports whether the value matches the canonical aggregate types.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	EventLeadCreated    OutboxEventType = "lead_created"
	EventLeadReopened   OutboxEventType = "lead_reopened"
	EventLeadSold       OutboxEventType = "lead_sold"
	EventLeadExpired    OutboxEventType = "lead_expired"
	EventLeadRefunded   OutboxEventType = "lead_refunded"
	EventPayoutQueued   OutboxEventType = "payout_queued"
	EventPayoutReversed OutboxEventType = "payout_reversed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventLeadCreated,
	EventLeadReopened,
	EventLeadSold,
	EventLeadExpired,
	EventLeadRefunded,
	EventPayoutQueued,
	EventPayoutReversed,
}

// IsValid reports whether the value matches the canonical event types.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
